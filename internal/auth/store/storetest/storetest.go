// Package storetest is a behavioural suite every store driver must pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bonechkabonechka/tgauth/internal/auth/domain"
	"github.com/bonechkabonechka/tgauth/internal/auth/store"
)

// Opener returns a freshly migrated, empty store. The suite closes it.
type Opener func(t *testing.T) store.Store

var base = time.UnixMilli(1_700_000_000_000).UTC()

func identity(tgID int64, first string) domain.Identity {
	return domain.Identity{TelegramID: tgID, FirstName: first, Username: "user" + first}
}

func credentials(at time.Time) domain.CredentialPair {
	return domain.CredentialPair{
		AccessToken:      "access." + at.Format(time.RFC3339Nano),
		RefreshToken:     "refresh." + at.Format(time.RFC3339Nano),
		AccessExpiresAt:  at.Add(5 * time.Minute),
		RefreshExpiresAt: at.Add(7 * 24 * time.Hour),
	}
}

func pending(token string, at time.Time) domain.PairingSession {
	return domain.PairingSession{
		Token:     token,
		State:     domain.PairingPending,
		CreatedAt: at,
		ExpiresAt: at.Add(domain.DefaultPairingTTL),
	}
}

// Run executes the suite against stores produced by open.
func Run(t *testing.T, open Opener) {
	t.Run("profiles", func(t *testing.T) { testProfiles(t, open) })
	t.Run("pairing sessions", func(t *testing.T) { testPairingSessions(t, open) })
	t.Run("concurrent completion", func(t *testing.T) { testConcurrentCompletion(t, open) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, open) })
}

func openStore(t *testing.T, open Opener) store.Store {
	t.Helper()
	s := open(t)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Ping(context.Background()))
	return s
}

func testProfiles(t *testing.T, open Opener) {
	ctx := context.Background()
	s := openStore(t, open)
	profiles := s.Profiles()

	_, err := profiles.GetProfileByTelegramID(ctx, 42)
	require.ErrorIs(t, err, store.ErrNotFound)

	created, err := profiles.UpsertProfile(ctx, "profile-1", identity(42, "Ann"), domain.DefaultRoles, base)
	require.NoError(t, err)
	require.Equal(t, "profile-1", created.ID)
	require.Equal(t, int64(42), created.TelegramID)
	require.Equal(t, "Ann", created.FirstName)
	require.Equal(t, []string{"user"}, created.Roles)
	require.True(t, created.CreatedAt.Equal(base))

	// Second upsert keeps id, roles and created_at but refreshes names.
	later := base.Add(time.Hour)
	updated, err := profiles.UpsertProfile(ctx, "profile-2", identity(42, "Anna"), []string{"admin"}, later)
	require.NoError(t, err)
	require.Equal(t, "profile-1", updated.ID)
	require.Equal(t, "Anna", updated.FirstName)
	require.Equal(t, []string{"user"}, updated.Roles)
	require.True(t, updated.CreatedAt.Equal(base))
	require.True(t, updated.UpdatedAt.Equal(later))

	byID, err := profiles.GetProfileByID(ctx, "profile-1")
	require.NoError(t, err)
	require.Equal(t, "Anna", byID.FirstName)

	byTG, err := profiles.GetProfileByTelegramID(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, byID.ID, byTG.ID)

	_, err = profiles.GetProfileByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testPairingSessions(t *testing.T, open Opener) {
	ctx := context.Background()
	s := openStore(t, open)
	sessions := s.PairingSessions()

	profile, err := s.Profiles().UpsertProfile(ctx, "profile-1", identity(7, "Bob"), domain.DefaultRoles, base)
	require.NoError(t, err)

	require.NoError(t, sessions.CreatePairingSession(ctx, pending("tok-a", base)))
	require.ErrorIs(t, sessions.CreatePairingSession(ctx, pending("tok-a", base)), store.ErrAlreadyExists)

	got, err := sessions.GetPairingSession(ctx, "tok-a")
	require.NoError(t, err)
	require.Equal(t, domain.PairingPending, got.State)
	require.Nil(t, got.Credentials)
	require.Empty(t, got.SubjectID)
	require.True(t, got.ExpiresAt.Equal(base.Add(domain.DefaultPairingTTL)))

	_, err = sessions.GetPairingSession(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	t.Run("complete", func(t *testing.T) {
		at := base.Add(time.Minute)
		creds := credentials(at)
		require.NoError(t, sessions.CompletePairingSession(ctx, "tok-a", profile.ID, creds, at))

		got, err := sessions.GetPairingSession(ctx, "tok-a")
		require.NoError(t, err)
		require.Equal(t, domain.PairingCompleted, got.State)
		require.Equal(t, profile.ID, got.SubjectID)
		require.NotNil(t, got.Credentials)
		require.Equal(t, creds.AccessToken, got.Credentials.AccessToken)
		require.Equal(t, creds.RefreshToken, got.Credentials.RefreshToken)
		require.True(t, got.Credentials.AccessExpiresAt.Equal(creds.AccessExpiresAt))
		require.NotNil(t, got.CompletedAt)
		require.True(t, got.CompletedAt.Equal(at))

		err = sessions.CompletePairingSession(ctx, "tok-a", profile.ID, credentials(at), at)
		require.ErrorIs(t, err, store.ErrAlreadyCompleted)
	})

	t.Run("complete unknown token", func(t *testing.T) {
		err := sessions.CompletePairingSession(ctx, "nope", profile.ID, credentials(base), base)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("complete at and after deadline", func(t *testing.T) {
		require.NoError(t, sessions.CreatePairingSession(ctx, pending("tok-edge", base)))
		require.NoError(t, sessions.CreatePairingSession(ctx, pending("tok-late", base)))

		deadline := base.Add(domain.DefaultPairingTTL)
		require.NoError(t, sessions.CompletePairingSession(ctx, "tok-edge", profile.ID, credentials(deadline), deadline))

		late := deadline.Add(time.Millisecond)
		err := sessions.CompletePairingSession(ctx, "tok-late", profile.ID, credentials(late), late)
		require.ErrorIs(t, err, store.ErrExpired)

		got, err := sessions.GetPairingSession(ctx, "tok-late")
		require.NoError(t, err)
		require.Equal(t, domain.PairingPending, got.State)
		require.Equal(t, domain.PairingExpired, got.Status(late))
	})

	t.Run("consumed timestamp is set once", func(t *testing.T) {
		first := base.Add(2 * time.Minute)
		require.NoError(t, sessions.MarkPairingSessionConsumed(ctx, "tok-a", first))
		require.NoError(t, sessions.MarkPairingSessionConsumed(ctx, "tok-a", first.Add(time.Minute)))

		got, err := sessions.GetPairingSession(ctx, "tok-a")
		require.NoError(t, err)
		require.NotNil(t, got.ConsumedAt)
		require.True(t, got.ConsumedAt.Equal(first))
	})

	t.Run("delete expired", func(t *testing.T) {
		require.NoError(t, sessions.CreatePairingSession(ctx, pending("tok-new", base.Add(time.Hour))))

		n, err := sessions.DeletePairingSessionsExpiredBefore(ctx, base.Add(30*time.Minute))
		require.NoError(t, err)
		require.Equal(t, int64(3), n)

		_, err = sessions.GetPairingSession(ctx, "tok-a")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = sessions.GetPairingSession(ctx, "tok-new")
		require.NoError(t, err)
	})
}

func testConcurrentCompletion(t *testing.T, open Opener) {
	ctx := context.Background()
	s := openStore(t, open)

	profile, err := s.Profiles().UpsertProfile(ctx, "profile-1", identity(9, "Cy"), domain.DefaultRoles, base)
	require.NoError(t, err)
	require.NoError(t, s.PairingSessions().CreatePairingSession(ctx, pending("tok-race", base)))

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		lost      int
	)
	at := base.Add(time.Second)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.PairingSessions().CompletePairingSession(ctx, "tok-race", profile.ID, credentials(at), at)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, store.ErrAlreadyCompleted):
				lost++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, succeeded)
	require.Equal(t, workers-1, lost)
}

func testTransactions(t *testing.T, open Opener) {
	ctx := context.Background()
	s := openStore(t, open)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Profiles().UpsertProfile(ctx, "profile-tx", identity(11, "Dee"), domain.DefaultRoles, base); err != nil {
			return err
		}
		return tx.PairingSessions().CreatePairingSession(ctx, pending("tok-tx", base))
	})
	require.NoError(t, err)

	_, err = s.Profiles().GetProfileByID(ctx, "profile-tx")
	require.NoError(t, err)
	_, err = s.PairingSessions().GetPairingSession(ctx, "tok-tx")
	require.NoError(t, err)

	tx, err := s.Tx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()
	_, err = tx.Tx(ctx)
	require.Error(t, err)
}
