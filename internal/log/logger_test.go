package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentStorage, Output: &buf})

	logger.Info("Transaction saved", FieldTxID, int64(3))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Transaction saved", rec["msg"])
	assert.Equal(t, ComponentStorage, rec[FieldComponent])
	assert.Equal(t, float64(3), rec[FieldTxID])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf})

	logger.Debug("hidden")
	assert.Zero(t, buf.Len())
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Output: &buf}).WithComponent(ComponentHTTP)
	ctx := WithLogger(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
	assert.Equal(t, ComponentApp, FromContext(context.Background()).Component())
}

func TestStructuredLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}))

	sl.LogError(context.Background(), "Failed to add transaction", errors.New("disk full"), OpCreate, ErrorTypeDatabase)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "disk full", rec[FieldError])
	assert.Equal(t, ErrorTypeDatabase, rec[FieldErrorType])
	assert.Equal(t, OpCreate, rec[FieldOperation])
}

func TestStructuredLoggerEmitsComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentDashboard, Output: &buf}))

	sl.LogTransactionAdded(context.Background(), 4, "entrada", "Maio", "10.00", "pix")
	sl.LogTransactionDeleted(context.Background(), 4)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, 1, bytes.Count(line, []byte(`"component":`)), "line %s", line)
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		assert.Equal(t, ComponentDashboard, rec[FieldComponent])
		assert.EqualValues(t, 4, rec[FieldTxID])
	}
}

func TestStructuredLoggerUsesRequestLogger(t *testing.T) {
	var base, request bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentHTTP, Output: &base}))

	reqLogger := New(Config{Level: slog.LevelDebug, Format: "json", Output: &request}).With(FieldRequestID, "abc-123")
	ctx := WithLogger(context.Background(), reqLogger)

	sl.LogError(ctx, "Add transaction failed", errors.New("locked"), OpCreate, ErrorTypeDatabase)
	sl.LogSummary(ctx, "awaiting_input", "1.00", "0.00", "1.00", 1, 0)

	assert.Empty(t, base.String())
	lines := bytes.Split(bytes.TrimSpace(request.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	for _, line := range lines {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		assert.Equal(t, "abc-123", rec[FieldRequestID])
		assert.Equal(t, ComponentHTTP, rec[FieldComponent])
	}

	var summary map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &summary))
	assert.Equal(t, "awaiting_input", summary[FieldState])
}
