//go:build e2e

package auth_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/bonechkabonechka/tgauth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// defaultLimits drops the relaxed rate limit overrides so the production
// defaults apply.
var defaultLimits = map[string]string{
	"RATELIMIT_STRICT_REQUESTS":   "",
	"RATELIMIT_STRICT_WINDOW_SEC": "",
	"RATELIMIT_STRICT_BURST":      "",
	"RATELIMIT_MODERATE_REQUESTS": "",
	"RATELIMIT_MODERATE_BURST":    "",
}

// TestRateLimitHandshakeBegin verifies that creating pairing sessions is
// strictly limited (5 req/min).
func TestRateLimitHandshakeBegin(t *testing.T) {
	baseURL := setupAuthContainer(t, defaultLimits)
	client := authsdk.NewClient(baseURL)

	var lastErr error
	for i := range 6 {
		_, err := client.BeginHandshake(t.Context())
		if i < 5 {
			require.NoError(t, err, "Should not be rate limited yet (request %d)", i+1)
			continue
		}
		lastErr = err
	}

	require.ErrorIs(t, lastErr, authsdk.ErrRateLimited)
	var apiErr *authsdk.APIError
	require.ErrorAs(t, lastErr, &apiErr)
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

// TestRateLimitSignIn verifies that sign-in attempts are strictly limited
// even when every attempt fails.
func TestRateLimitSignIn(t *testing.T) {
	baseURL := setupAuthContainer(t, defaultLimits)
	client := authsdk.NewClient(baseURL)

	bad := signedInitData(t, telegramUser(3), time.Now().Add(-72*time.Hour))

	var lastErr error
	for i := range 6 {
		_, err := client.SignIn(t.Context(), bad)
		if i < 5 {
			require.ErrorIs(t, err, authsdk.ErrAssertionExpired, "request %d", i+1)
			continue
		}
		lastErr = err
	}

	require.ErrorIs(t, lastErr, authsdk.ErrRateLimited)
}

// TestRateLimitPollIsPerToken verifies polling one token does not throttle
// another.
func TestRateLimitPollIsPerToken(t *testing.T) {
	baseURL := setupAuthContainer(t, nil)
	client := authsdk.NewClient(baseURL)
	ctx := t.Context()

	first, err := client.BeginHandshake(ctx)
	require.NoError(t, err)
	second, err := client.BeginHandshake(ctx)
	require.NoError(t, err)

	var limited bool
	for range 200 {
		if _, err := client.PollHandshake(ctx, first.Token); err != nil {
			require.ErrorIs(t, err, authsdk.ErrRateLimited)
			limited = true
			break
		}
	}
	require.True(t, limited, "polling a single token should eventually be limited")

	poll, err := client.PollHandshake(ctx, second.Token)
	require.NoError(t, err)
	require.Equal(t, authsdk.StatusPending, poll.Status)
}
