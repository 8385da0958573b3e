package ipmapper

import (
	"context"
)

// Logger records load results and security-significant events emitted by
// Mapper.
//
// Implementations should be safe for concurrent use, as a single Mapper
// instance is typically shared across many goroutines.
//
// The provided context comes from the inbound HTTP request (or the Reload
// caller) and can carry tracing metadata.
//
// The method set mirrors slog's context-aware methods, so *slog.Logger can be
// used directly without an adapter.
type Logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// noopLogger is the default Logger implementation when logging is not
// explicitly configured.
type noopLogger struct{}

func (noopLogger) InfoContext(context.Context, string, ...any) {}

func (noopLogger) WarnContext(context.Context, string, ...any) {}

func (noopLogger) ErrorContext(context.Context, string, ...any) {}
