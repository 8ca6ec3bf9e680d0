package log

import (
	"context"

	"github.com/rs/zerolog"
)

type loggerKey struct{}

// WithLogger attaches a request-scoped logger to the context. The HTTP
// middleware uses this to carry the request id and route fields into
// downstream calls.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromCtx returns the logger attached to the context, falling back to
// the process-wide logger.
func FromCtx(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return L()
}
