// Package trace tags every request with an id and logs its start and end.
package trace

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	applog "controlepix/internal/log"
)

// HeaderTraceID carries the request id in both directions. An id sent by a
// proxy is reused; otherwise a fresh one is minted.
const HeaderTraceID = "X-Trace-ID"

type ctxKey struct{}

// Observer receives one call per completed request.
type Observer func(method, path string, status int, d time.Duration)

type Middleware struct {
	extractIP func(*http.Request) string
	observe   Observer
}

// NewMiddleware builds the tracer. Both arguments may be nil.
func NewMiddleware(extractIP func(*http.Request) string, observe Observer) *Middleware {
	return &Middleware{extractIP: extractIP, observe: observe}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(HeaderTraceID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderTraceID, requestID)

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		ctx := WithRequestID(r.Context(), requestID)
		logger := applog.FromContext(ctx).With(applog.FieldRequestID, requestID)
		ctx = applog.WithLogger(ctx, logger)
		r = r.WithContext(ctx)

		logger.WithComponent(applog.ComponentTrace).DebugContext(ctx, "HTTP request started", applog.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent(), r.Referer()).
			WithClientIP(clientIP).
			ToSlice()...)

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		level := slog.LevelInfo
		switch {
		case rw.status >= 500:
			level = slog.LevelError
		case rw.status >= 400:
			level = slog.LevelWarn
		}
		logger.Logger.Log(ctx, level, "HTTP request completed", applog.NewFields().
			WithComponent(applog.ComponentTrace).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
			WithHTTPResponse(rw.status, elapsed.Milliseconds(), rw.status < 400).
			WithClientIP(clientIP).
			ToSlice()...)

		if m.observe != nil {
			m.observe(r.Method, r.URL.Path, rw.status, elapsed)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the id attached by the middleware, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}
