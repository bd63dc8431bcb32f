package store

import (
	"context"
	"errors"
	"time"

	"github.com/bonechkabonechka/tgauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrAlreadyCompleted is returned when a completion loses the race or
	// targets a session that is no longer pending.
	ErrAlreadyCompleted = errors.New("store: pairing session not pending")

	// ErrExpired is returned when a completion arrives after the deadline.
	ErrExpired = errors.New("store: pairing session expired")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres, memory) implement this. It exposes sub-repositories to keep
// concerns tidy and testable, and so a Tx cannot start another Tx.
type Store interface {
	Profiles() Profiles
	PairingSessions() PairingSessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Profiles interface {
	// UpsertProfile creates the profile for identity.TelegramID, or refreshes
	// its display fields if it exists. id and roles only apply on insert.
	// It is a single statement, so concurrent calls for the same subject
	// converge on one row.
	UpsertProfile(ctx context.Context, id string, identity domain.Identity, roles []string, now time.Time) (domain.Profile, error)

	// GetProfileByID returns a profile by its local id.
	GetProfileByID(ctx context.Context, id string) (domain.Profile, error)

	// GetProfileByTelegramID returns a profile by platform subject id.
	GetProfileByTelegramID(ctx context.Context, telegramID int64) (domain.Profile, error)
}

type PairingSessions interface {
	// CreatePairingSession inserts a pending session. A duplicate token
	// yields ErrAlreadyExists.
	CreatePairingSession(ctx context.Context, s domain.PairingSession) error

	// GetPairingSession returns the session as stored, or ErrNotFound.
	GetPairingSession(ctx context.Context, token string) (domain.PairingSession, error)

	// CompletePairingSession moves a session from pending to completed in
	// one conditional update that also requires expires_at >= now. On no
	// match it reports ErrNotFound, ErrAlreadyCompleted or ErrExpired.
	CompletePairingSession(ctx context.Context, token, subjectID string, creds domain.CredentialPair, now time.Time) error

	// MarkPairingSessionConsumed records the first successful retrieval.
	// Later calls leave the original timestamp in place.
	MarkPairingSessionConsumed(ctx context.Context, token string, now time.Time) error

	// DeletePairingSessionsExpiredBefore removes sessions whose deadline is
	// older than before and returns how many were removed.
	DeletePairingSessionsExpiredBefore(ctx context.Context, before time.Time) (int64, error)
}
