package domain

import "time"

// CredentialPair is an access token and a refresh token minted together
// from identical claims.
type CredentialPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// ExpiresIn is the access token lifetime remaining at now, in whole seconds.
func (p CredentialPair) ExpiresIn(now time.Time) int {
	d := p.AccessExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return int(d.Seconds())
}
