package domain

import "time"

// PairingState is the persisted state of a pairing session. Expired is
// never required to be stored: a pending session past its deadline reads
// as expired.
type PairingState string

const (
	PairingPending   PairingState = "pending"
	PairingCompleted PairingState = "completed"
	PairingExpired   PairingState = "expired"
)

// DefaultPairingTTL is how long a browser has to finish the handshake.
const DefaultPairingTTL = 5 * time.Minute

// PairingSession is one in-flight remote handshake. SubjectID and
// Credentials are set iff State is PairingCompleted.
type PairingSession struct {
	Token       string
	State       PairingState
	SubjectID   string
	Credentials *CredentialPair
	CreatedAt   time.Time
	ExpiresAt   time.Time
	CompletedAt *time.Time
	ConsumedAt  *time.Time
}

// IsExpired reports whether now is past the session deadline.
func (s PairingSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Status classifies the session at now. Past the deadline a session is
// expired whatever its stored state.
func (s PairingSession) Status(now time.Time) PairingState {
	if s.IsExpired(now) {
		return PairingExpired
	}
	return s.State
}

// IsPending reports whether the session can still be completed at now.
func (s PairingSession) IsPending(now time.Time) bool {
	return s.Status(now) == PairingPending
}
