package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// Middleware stores the logger in each request's context so handlers
// can pull it back with FromContext.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), loggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the request's logger, or a default-backed one
// when no middleware ran.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: ComponentApp,
	}
}

// RequestIDMiddleware rebinds the context logger with the request ID
// so handler logs correlate with the trace pair.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r))
			ctx := context.WithValue(r.Context(), loggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StructuredLogger is the server's log facade for domain events.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogStatementAnalyzed records a completed statement upload and
// analysis.
func (sl *StructuredLogger) LogStatementAnalyzed(ctx context.Context, sessionID, sourceFile string) {
	fields := NewFields().
		WithAnalysis(sessionID, sourceFile).
		WithOperation(OpAnalyze).
		WithComponent(ComponentAdvisor)

	sl.logger.InfoContext(ctx, "Statement analyzed successfully", fields.ToSlice()...)
}
