package slogx

import (
	"context"
	"log/slog"

	"github.com/bonechkabonechka/tgauth/pkg/cryptox"
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

// Token logs a bearer value by fingerprint only.
func Token(key, token string) slog.Attr {
	if token == "" {
		return slog.String(key, "")
	}
	return slog.String(key, cryptox.FingerprintToken(token)[:12])
}
