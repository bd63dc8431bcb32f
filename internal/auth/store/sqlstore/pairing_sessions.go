package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bonechkabonechka/tgauth/internal/auth/domain"
	"github.com/bonechkabonechka/tgauth/internal/auth/store"
)

const pairingColumns = `token, state, subject_id, access_token, refresh_token,
	access_expires_at, refresh_expires_at, created_at, expires_at, completed_at, consumed_at`

const insertPairingSession = `
INSERT INTO pairing_sessions (token, state, created_at, expires_at)
VALUES (?, ?, ?, ?)`

const getPairingSession = `SELECT ` + pairingColumns + ` FROM pairing_sessions WHERE token = ?`

// The WHERE clause is the whole concurrency story: only one UPDATE can
// observe state = 'pending'.
const completePairingSession = `
UPDATE pairing_sessions SET
	state = 'completed',
	subject_id = ?,
	access_token = ?,
	refresh_token = ?,
	access_expires_at = ?,
	refresh_expires_at = ?,
	completed_at = ?
WHERE token = ? AND state = 'pending' AND expires_at >= ?`

const markPairingSessionConsumed = `
UPDATE pairing_sessions SET consumed_at = ?
WHERE token = ? AND consumed_at IS NULL`

const deleteExpiredPairingSessions = `DELETE FROM pairing_sessions WHERE expires_at < ?`

type pairingRepo struct {
	q DBTX
	d Dialect
}

func (r *pairingRepo) CreatePairingSession(ctx context.Context, s domain.PairingSession) error {
	state := s.State
	if state == "" {
		state = domain.PairingPending
	}
	_, err := r.q.ExecContext(ctx, r.d.rebind(insertPairingSession),
		s.Token, string(state), toMillis(s.CreatedAt), toMillis(s.ExpiresAt))
	if err != nil && r.d.uniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *pairingRepo) GetPairingSession(ctx context.Context, token string) (domain.PairingSession, error) {
	var (
		s                        domain.PairingSession
		state                    string
		subject, access, refresh sql.NullString
		accessExp, refreshExp    sql.NullInt64
		created, expires         int64
		completed, consumed      sql.NullInt64
	)
	err := r.q.QueryRowContext(ctx, r.d.rebind(getPairingSession), token).Scan(
		&s.Token, &state, &subject, &access, &refresh,
		&accessExp, &refreshExp, &created, &expires, &completed, &consumed,
	)
	if err != nil {
		return domain.PairingSession{}, mapNotFound(err)
	}

	s.State = domain.PairingState(state)
	s.CreatedAt = fromMillis(created)
	s.ExpiresAt = fromMillis(expires)
	s.CompletedAt = nullMillis(completed)
	s.ConsumedAt = nullMillis(consumed)

	if s.State == domain.PairingCompleted {
		s.SubjectID = subject.String
		s.Credentials = &domain.CredentialPair{
			AccessToken:      access.String,
			RefreshToken:     refresh.String,
			AccessExpiresAt:  fromMillis(accessExp.Int64),
			RefreshExpiresAt: fromMillis(refreshExp.Int64),
		}
	}
	return s, nil
}

func (r *pairingRepo) CompletePairingSession(
	ctx context.Context,
	token, subjectID string,
	creds domain.CredentialPair,
	now time.Time,
) error {
	res, err := r.q.ExecContext(ctx, r.d.rebind(completePairingSession),
		subjectID,
		creds.AccessToken,
		creds.RefreshToken,
		toMillis(creds.AccessExpiresAt),
		toMillis(creds.RefreshExpiresAt),
		toMillis(now),
		token,
		toMillis(now),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Nothing matched: work out why for the caller.
	s, err := r.GetPairingSession(ctx, token)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return store.ErrNotFound
	case err != nil:
		return err
	case s.State != domain.PairingPending:
		return store.ErrAlreadyCompleted
	default:
		return store.ErrExpired
	}
}

func (r *pairingRepo) MarkPairingSessionConsumed(ctx context.Context, token string, now time.Time) error {
	_, err := r.q.ExecContext(ctx, r.d.rebind(markPairingSessionConsumed), toMillis(now), token)
	return err
}

func (r *pairingRepo) DeletePairingSessionsExpiredBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.d.rebind(deleteExpiredPairingSessions), toMillis(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ store.PairingSessions = (*pairingRepo)(nil)
