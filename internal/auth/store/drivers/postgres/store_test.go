package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/bonechkabonechka/tgauth/internal/auth/domain"
	"github.com/bonechkabonechka/tgauth/internal/auth/store"
	"github.com/bonechkabonechka/tgauth/internal/auth/store/drivers/postgres"
)

var now = time.UnixMilli(1_700_000_000_000).UTC()

func newMock(t *testing.T) (*postgres.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return postgres.New(db), mock
}

func TestCreatePairingSessionRebindsPlaceholders(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO pairing_sessions \(token, state, created_at, expires_at\)\s+VALUES \(\$1, \$2, \$3, \$4\)`).
		WithArgs("tok", "pending", now.UnixMilli(), now.Add(5*time.Minute).UnixMilli()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.PairingSessions().CreatePairingSession(context.Background(), domain.PairingSession{
		Token:     "tok",
		State:     domain.PairingPending,
		CreatedAt: now,
		ExpiresAt: now.Add(5 * time.Minute),
	})
	require.NoError(t, err)
}

func TestCreatePairingSessionDuplicate(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO pairing_sessions`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	err := s.PairingSessions().CreatePairingSession(context.Background(), domain.PairingSession{
		Token: "tok", CreatedAt: now, ExpiresAt: now,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func pairingRow(state string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"token", "state", "subject_id", "access_token", "refresh_token",
		"access_expires_at", "refresh_expires_at", "created_at", "expires_at", "completed_at", "consumed_at",
	})
	if state == "completed" {
		return rows.AddRow("tok", state, "sub", "a", "r",
			now.UnixMilli(), now.UnixMilli(), now.UnixMilli(), now.Add(time.Minute).UnixMilli(), now.UnixMilli(), nil)
	}
	return rows.AddRow("tok", state, nil, nil, nil, nil, nil,
		now.UnixMilli(), now.Add(time.Minute).UnixMilli(), nil, nil)
}

func TestCompletePairingSessionClassifiesMisses(t *testing.T) {
	creds := domain.CredentialPair{AccessToken: "a", RefreshToken: "r", AccessExpiresAt: now, RefreshExpiresAt: now}

	t.Run("won", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectExec(`UPDATE pairing_sessions SET`).
			WithArgs("sub", "a", "r", now.UnixMilli(), now.UnixMilli(), now.UnixMilli(), "tok", now.UnixMilli()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.PairingSessions().CompletePairingSession(context.Background(), "tok", "sub", creds, now))
	})

	t.Run("already completed", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectExec(`UPDATE pairing_sessions SET`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT .* FROM pairing_sessions WHERE token = \$1`).
			WithArgs("tok").
			WillReturnRows(pairingRow("completed"))

		err := s.PairingSessions().CompletePairingSession(context.Background(), "tok", "sub", creds, now)
		require.ErrorIs(t, err, store.ErrAlreadyCompleted)
	})

	t.Run("expired", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectExec(`UPDATE pairing_sessions SET`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT .* FROM pairing_sessions`).WillReturnRows(pairingRow("pending"))

		err := s.PairingSessions().CompletePairingSession(context.Background(), "tok", "sub", creds, now)
		require.ErrorIs(t, err, store.ErrExpired)
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectExec(`UPDATE pairing_sessions SET`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT .* FROM pairing_sessions`).
			WillReturnRows(sqlmock.NewRows([]string{"token"}))

		err := s.PairingSessions().CompletePairingSession(context.Background(), "tok", "sub", creds, now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestUpsertProfile(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO profiles .* ON CONFLICT \(tg_id\) DO UPDATE SET .* RETURNING`).
		WithArgs("id-1", int64(42), "Ann", "", "ann", "", "user", now.UnixMilli(), now.UnixMilli()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tg_id", "first_name", "last_name", "username", "photo_url", "roles", "created_at", "updated_at",
		}).AddRow("id-1", int64(42), "Ann", "", "ann", "", "user admin", now.UnixMilli(), now.UnixMilli()))

	p, err := s.Profiles().UpsertProfile(context.Background(), "id-1",
		domain.Identity{TelegramID: 42, FirstName: "Ann", Username: "ann"}, []string{"user"}, now)
	require.NoError(t, err)
	require.Equal(t, "id-1", p.ID)
	require.Equal(t, []string{"user", "admin"}, p.Roles)
	require.True(t, p.CreatedAt.Equal(now))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO pairing_sessions`).WillReturnError(context.Canceled)
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(tx store.Tx) error {
		return tx.PairingSessions().CreatePairingSession(context.Background(), domain.PairingSession{
			Token: "tok", CreatedAt: now, ExpiresAt: now,
		})
	})
	require.ErrorIs(t, err, context.Canceled)
}
