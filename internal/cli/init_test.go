package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"controlepix/internal/config"
	applog "controlepix/internal/log"
)

type fakeServer struct {
	listenErr   error
	shutdownErr error
	stop        chan struct{}
	shutdowns   int
}

func newFakeServer() *fakeServer {
	return &fakeServer{stop: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdowns++
	close(f.stop)
	return f.shutdownErr
}

func discardLogger() *applog.Logger {
	return applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard})
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := newFakeServer()

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, discardLogger(), srv, time.Second) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.Equal(t, 1, srv.shutdowns)
}

func TestServeReturnsListenError(t *testing.T) {
	bind := errors.New("address already in use")
	srv := &fakeServer{listenErr: bind}

	err := Serve(context.Background(), discardLogger(), srv, time.Second)
	require.ErrorIs(t, err, bind)
	assert.Zero(t, srv.shutdowns)
}

func TestServeReturnsShutdownError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv := newFakeServer()
	srv.shutdownErr = context.DeadlineExceeded

	err := Serve(ctx, discardLogger(), srv, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSetupLoggerFallsBackOnBadLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(&config.Config{LogLevel: "loud", LogFormat: "json"})
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
