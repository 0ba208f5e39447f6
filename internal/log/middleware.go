package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey struct{}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger from the request context, falling back to
// the process default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: ComponentApp,
	}
}

// Middleware creates HTTP middleware that adds a logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

// StructuredLogger wraps the ledger-specific log lines so every caller emits
// the same field set.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// from returns the request logger carried by ctx, reporting under this
// logger's component, or the logger itself outside a request.
func (sl *StructuredLogger) from(ctx context.Context) *Logger {
	if l, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return l.WithComponent(sl.logger.component)
	}
	return sl.logger
}

// LogTransactionAdded logs a successful insert.
func (sl *StructuredLogger) LogTransactionAdded(ctx context.Context, id int64, kind, month, amount, description string) {
	fields := NewFields().
		WithTransactionID(id).
		WithTransaction(kind, month, amount, description).
		WithOperation(OpCreate)

	sl.from(ctx).InfoContext(ctx, "Transaction added", fields.ToSlice()...)
}

// LogTransactionDeleted logs a delete request, whether or not a row matched.
func (sl *StructuredLogger) LogTransactionDeleted(ctx context.Context, id int64) {
	fields := NewFields().
		WithTransactionID(id).
		WithOperation(OpDelete)

	sl.from(ctx).InfoContext(ctx, "Transaction deleted", fields.ToSlice()...)
}

// LogSummary logs the totals of a render cycle at debug level.
func (sl *StructuredLogger) LogSummary(ctx context.Context, state, totalIn, totalOut, balance string, count, skipped int) {
	sl.from(ctx).DebugContext(ctx, "Summary computed",
		FieldState, state,
		"total_in", totalIn,
		"total_out", totalOut,
		"balance", balance,
		FieldCount, count,
		FieldSkipped, skipped,
	)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation, errorType string) {
	fields := NewFields().
		WithError(err).
		WithErrorType(errorType).
		WithOperation(operation)

	sl.from(ctx).ErrorContext(ctx, msg, fields.ToSlice()...)
}
