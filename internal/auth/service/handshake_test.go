package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/bonechkabonechka/tgauth/internal/auth/domain"
	"github.com/bonechkabonechka/tgauth/internal/auth/store"
)

func identityFor(tgID int64, first string) domain.Identity {
	return domain.Identity{TelegramID: tgID, FirstName: first, Username: strings.ToLower(first)}
}

func TestBegin(t *testing.T) {
	t.Parallel()
	h := newMemoryHarness(t)
	ctx := context.Background()

	hs, err := h.handshake.Begin(ctx)
	require.NoError(t, err)
	require.Len(t, hs.Token, 22)
	require.Equal(t, "https://t.me/tgauth_bot?start=auth_"+hs.Token, hs.ExternalActionURL)
	require.Equal(t, h.clock.Now().Add(5*time.Minute), hs.ExpiresAt)

	other, err := h.handshake.Begin(ctx)
	require.NoError(t, err)
	require.NotEqual(t, hs.Token, other.Token)

	session, err := h.store.PairingSessions().GetPairingSession(ctx, hs.Token)
	require.NoError(t, err)
	require.Equal(t, domain.PairingPending, session.State)

	expected := `
# HELP tgauth_handshake_begin_total Pairing sessions started.
# TYPE tgauth_handshake_begin_total counter
tgauth_handshake_begin_total 2
`
	require.NoError(t, testutil.GatherAndCompare(h.registry, strings.NewReader(expected), "tgauth_handshake_begin_total"))
}

func TestUnknownTokens(t *testing.T) {
	t.Parallel()
	forEachStore(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		for _, token := range []string{"", "never-issued", strings.Repeat("x", 22)} {
			res, err := h.handshake.Poll(ctx, token)
			require.NoError(t, err)
			require.Equal(t, PollNotFound, res.Status)
			require.Nil(t, res.Credentials)

			_, err = h.handshake.Complete(ctx, token, identityFor(1, "Ann"))
			require.ErrorIs(t, err, ErrSessionNotFound)

			_, err = h.handshake.Complete(ctx, token, domain.Identity{})
			require.ErrorIs(t, err, ErrSessionNotFound, "an unknown token wins over a bad identity")

			_, err = h.handshake.Redeem(ctx, token)
			require.ErrorIs(t, err, ErrSessionNotFound)
		}
	})
}

func TestHandshakeScenario(t *testing.T) {
	t.Parallel()
	forEachStore(t, func(t *testing.T, h *harness) {
		ctx := context.Background()

		hs, err := h.handshake.Begin(ctx)
		require.NoError(t, err)

		res, err := h.handshake.Poll(ctx, hs.Token)
		require.NoError(t, err)
		require.Equal(t, PollPending, res.Status)
		require.Nil(t, res.Credentials)

		_, err = h.handshake.Redeem(ctx, hs.Token)
		require.ErrorIs(t, err, ErrSessionNotCompleted)

		h.clock.Advance(time.Minute)
		done, err := h.handshake.Complete(ctx, hs.Token, identityFor(1001, "Uno"))
		require.NoError(t, err)
		require.Equal(t, "https://auth.example.com/v1/auth/callback?token="+hs.Token, done.ContinuationURL)
		require.Equal(t, int64(1001), done.Profile.TelegramID)

		first, err := h.handshake.Poll(ctx, hs.Token)
		require.NoError(t, err)
		require.Equal(t, PollCompleted, first.Status)
		require.NotNil(t, first.Credentials)
		require.NotEmpty(t, first.Credentials.AccessToken)
		require.NotEmpty(t, first.Credentials.RefreshToken)

		claims, err := h.issuer.VerifyAccess(first.Credentials.AccessToken)
		require.NoError(t, err)
		require.Equal(t, done.Profile.ID, claims.Subject)
		require.Equal(t, int64(1001), claims.TelegramID)

		_, err = h.handshake.Complete(ctx, hs.Token, identityFor(2002, "Dos"))
		require.ErrorIs(t, err, ErrSessionNotPending)

		for i := 0; i < 3; i++ {
			again, err := h.handshake.Poll(ctx, hs.Token)
			require.NoError(t, err)
			require.Equal(t, PollCompleted, again.Status)
			require.Equal(t, *first.Credentials, *again.Credentials)
		}

		redeemed, err := h.handshake.Redeem(ctx, hs.Token)
		require.NoError(t, err)
		require.Equal(t, *first.Credentials, redeemed)

		session, err := h.store.PairingSessions().GetPairingSession(ctx, hs.Token)
		require.NoError(t, err)
		require.Equal(t, done.Profile.ID, session.SubjectID)
		require.NotNil(t, session.ConsumedAt)

		// The second completion was refused before any profile was touched.
		_, err = h.store.Profiles().GetProfileByTelegramID(ctx, 2002)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestExpiryScenario(t *testing.T) {
	t.Parallel()
	forEachStore(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		h.handshake.TTL = time.Second

		hs, err := h.handshake.Begin(ctx)
		require.NoError(t, err)

		// Exactly at the deadline the session is still pending.
		h.clock.Advance(time.Second)
		res, err := h.handshake.Poll(ctx, hs.Token)
		require.NoError(t, err)
		require.Equal(t, PollPending, res.Status)

		h.clock.Advance(time.Millisecond)
		res, err = h.handshake.Poll(ctx, hs.Token)
		require.NoError(t, err)
		require.Equal(t, PollExpired, res.Status)

		_, err = h.handshake.Complete(ctx, hs.Token, identityFor(1, "Late"))
		require.ErrorIs(t, err, ErrSessionExpired)

		res, err = h.handshake.Poll(ctx, hs.Token)
		require.NoError(t, err)
		require.Equal(t, PollExpired, res.Status)

		_, err = h.handshake.Redeem(ctx, hs.Token)
		require.ErrorIs(t, err, ErrSessionExpired)

		session, err := h.store.PairingSessions().GetPairingSession(ctx, hs.Token)
		require.NoError(t, err)
		require.Equal(t, domain.PairingPending, session.State)
		require.Nil(t, session.Credentials)
	})
}

func TestCompletedSessionReadsExpiredAfterDeadline(t *testing.T) {
	t.Parallel()
	h := newMemoryHarness(t)
	ctx := context.Background()

	hs, err := h.handshake.Begin(ctx)
	require.NoError(t, err)
	_, err = h.handshake.Complete(ctx, hs.Token, identityFor(5, "Cy"))
	require.NoError(t, err)

	h.clock.Advance(5*time.Minute + time.Second)
	res, err := h.handshake.Poll(ctx, hs.Token)
	require.NoError(t, err)
	require.Equal(t, PollExpired, res.Status)
	require.Nil(t, res.Credentials)
}

func TestCompleteRejectsInvalidIdentity(t *testing.T) {
	t.Parallel()
	h := newMemoryHarness(t)
	ctx := context.Background()

	hs, err := h.handshake.Begin(ctx)
	require.NoError(t, err)

	_, err = h.handshake.Complete(ctx, hs.Token, domain.Identity{TelegramID: 0, FirstName: "x"})
	require.ErrorIs(t, err, ErrInvalidIdentity)
	_, err = h.handshake.Complete(ctx, hs.Token, domain.Identity{TelegramID: 9})
	require.ErrorIs(t, err, ErrInvalidIdentity)

	res, err := h.handshake.Poll(ctx, hs.Token)
	require.NoError(t, err)
	require.Equal(t, PollPending, res.Status)
}

func TestConcurrentCompletionHasOneWinner(t *testing.T) {
	t.Parallel()
	forEachStore(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		hs, err := h.handshake.Begin(ctx)
		require.NoError(t, err)

		const workers = 12
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []int64
			losers  int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(tgID int64) {
				defer wg.Done()
				_, err := h.handshake.Complete(ctx, hs.Token, identityFor(tgID, "Racer"))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					winners = append(winners, tgID)
				case errors.Is(err, ErrSessionNotPending):
					losers++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(int64(100 + i))
		}
		wg.Wait()

		require.Len(t, winners, 1)
		require.Equal(t, workers-1, losers)

		res, err := h.handshake.Poll(ctx, hs.Token)
		require.NoError(t, err)
		require.Equal(t, PollCompleted, res.Status)

		claims, err := h.issuer.VerifyAccess(res.Credentials.AccessToken)
		require.NoError(t, err)
		require.Equal(t, winners[0], claims.TelegramID)
	})
}

func TestCompleteMetrics(t *testing.T) {
	t.Parallel()
	h := newMemoryHarness(t)
	ctx := context.Background()

	hs, err := h.handshake.Begin(ctx)
	require.NoError(t, err)
	_, _ = h.handshake.Complete(ctx, hs.Token, identityFor(1, "Ann"))
	_, _ = h.handshake.Complete(ctx, hs.Token, identityFor(1, "Ann"))
	_, _ = h.handshake.Complete(ctx, "missing", identityFor(1, "Ann"))

	expected := `
# HELP tgauth_handshake_complete_total Bot completion attempts by outcome.
# TYPE tgauth_handshake_complete_total counter
tgauth_handshake_complete_total{outcome="ok"} 1
tgauth_handshake_complete_total{outcome="session_not_found"} 1
tgauth_handshake_complete_total{outcome="session_not_pending"} 1
`
	require.NoError(t, testutil.GatherAndCompare(h.registry, strings.NewReader(expected), "tgauth_handshake_complete_total"))
}
