package service

import (
	"context"
	"log/slog"

	"github.com/bonechkabonechka/tgauth/internal/auth/domain"
	"github.com/bonechkabonechka/tgauth/internal/auth/metrics"
	"github.com/bonechkabonechka/tgauth/pkg/jwtx"
	"github.com/bonechkabonechka/tgauth/pkg/slogx"
)

// GuardResult is an authenticated request. Rotated is non-nil when the
// access half had to be replaced; the caller must hand both new halves back
// to the client.
type GuardResult struct {
	Claims  jwtx.Claims
	Rotated *domain.CredentialPair
}

// SessionGuard authenticates protected requests from the credential pair.
type SessionGuard struct {
	Issuer  *CredentialIssuer
	Metrics *metrics.Metrics
}

func (g *SessionGuard) Authenticate(ctx context.Context, access, refresh string) (GuardResult, error) {
	if access != "" {
		if claims, err := g.Issuer.VerifyAccess(access); err == nil {
			g.Metrics.SessionGuarded("ok")
			return GuardResult{Claims: claims}, nil
		}
	}

	if refresh == "" {
		g.Metrics.SessionGuarded("unauthorized")
		return GuardResult{}, ErrUnauthorized
	}

	// The claims come from the new access token so callers see exactly
	// what the client will present next.
	pair, claims, err := g.Issuer.Rotate(refresh)
	if err != nil {
		slogx.FromContext(ctx).Info("refresh rejected", slog.Any("error", err))
		g.Metrics.SessionGuarded("unauthorized")
		return GuardResult{}, ErrUnauthorized
	}

	g.Metrics.SessionGuarded("rotated")
	return GuardResult{Claims: claims, Rotated: &pair}, nil
}
