package slogx

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/authkit/pkg/idx"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithOperation tags the context logger with the running operation and a
// fresh run id so every line of one command invocation can be correlated.
func WithOperation(ctx context.Context, op string) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("op", op, "run_id", idx.New().String()))
}
