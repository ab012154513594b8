package logging

import (
	"context"
	"io"
	"log/slog"
)

type ctxLoggerKey struct{}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// With returns a copy of ctx carrying logger
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger stored in ctx. If none is stored, slog.Default() is
// returned so that callers never need a nil check.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return discard
}
