package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default lifetimes for the two halves of a credential pair.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 5 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are carried by both the access and the refresh token. The two
// tokens of a pair differ only in their signing secret, lifetime and jti.
type Claims struct {
	jwt.RegisteredClaims

	// TelegramID is the platform subject id the profile was resolved from.
	TelegramID int64 `json:"tg_id"`

	// Roles granted to the profile, e.g. ["user"].
	Roles []string `json:"roles,omitempty"`
}

// NewClaims builds claims for subject valid from now until now+ttl.
func NewClaims(
	subject string,
	telegramID int64,
	roles []string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		TelegramID: telegramID,
		Roles:      slices.Clone(roles),
	}
}

// NewJTI returns a random identifier for the "jti" claim. It is what makes
// two tokens minted in the same second for the same subject differ.
func NewJTI() string {
	return uuid.NewString()
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateStructure checks the fields every minted token carries. Tokens
// that verify cryptographically but lack them are still rejected.
func (c *Claims) ValidateStructure() error {
	switch {
	case c.Subject == "":
		return ErrInvalidClaim
	case c.TelegramID <= 0:
		return ErrInvalidClaim
	case c.IssuedAt == nil || c.ExpiresAt == nil:
		return ErrInvalidClaim
	case !c.ExpiresAt.After(c.IssuedAt.Time):
		return ErrInvalidClaim
	}
	return nil
}

// SameIdentity reports whether c and o describe the same subject with the
// same attributes, ignoring timestamps and jti.
func (c *Claims) SameIdentity(o Claims) bool {
	return c.Subject == o.Subject &&
		c.Issuer == o.Issuer &&
		c.TelegramID == o.TelegramID &&
		slices.Equal(c.Roles, o.Roles)
}

// HasRole reports whether the claims grant role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}
