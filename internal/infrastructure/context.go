package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// GenerateRunID creates a unique identifier for one pipeline run using UUID v4.
func GenerateRunID() string {
	return uuid.New().String()
}

// ContextWithRunID returns a context carrying a freshly generated run ID as
// the trace ID, so every log line of the run can be correlated.
func ContextWithRunID(ctx context.Context) context.Context {
	return WithTraceID(ctx, GenerateRunID())
}

// WithComponent creates a logger with a component field
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

// WithError creates a logger with an error field
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With("error", err.Error())
}
