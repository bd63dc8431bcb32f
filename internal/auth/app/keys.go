package app

import (
	"fmt"
	"log/slog"

	"github.com/bonechkabonechka/tgauth/internal/auth/service"
	"github.com/bonechkabonechka/tgauth/pkg/cryptox"
)

// InitIssuer builds the credential issuer from the two configured secrets.
//
// Both secrets are shared HMAC keys: every replica must be given the same
// pair, and changing either one invalidates every outstanding token of that
// kind. Only fingerprints are logged.
func InitIssuer(cfg Config, logger *slog.Logger) (*service.CredentialIssuer, error) {
	issuer, err := service.NewCredentialIssuer(service.IssuerOptions{
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		Issuer:        cfg.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("create credential issuer: %w", err)
	}

	logger.Info("credential issuer ready",
		"issuer", cfg.Issuer,
		"access_ttl", cfg.AccessTTL,
		"refresh_ttl", cfg.RefreshTTL,
		"access_key", cryptox.FingerprintToken(cfg.AccessSecret)[:8],
		"refresh_key", cryptox.FingerprintToken(cfg.RefreshSecret)[:8],
	)
	return issuer, nil
}
