package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bonechkabonechka/tgauth/pkg/jwtx"
)

func TestNewCredentialIssuerRejectsBadSecrets(t *testing.T) {
	t.Parallel()

	_, err := NewCredentialIssuer(IssuerOptions{AccessSecret: testAccessSecret})
	require.ErrorIs(t, err, ErrMissingSecret)

	_, err = NewCredentialIssuer(IssuerOptions{AccessSecret: testAccessSecret, RefreshSecret: testAccessSecret})
	require.ErrorIs(t, err, ErrSecretsNotDistinct)

	_, err = NewCredentialIssuer(IssuerOptions{AccessSecret: []byte("short"), RefreshSecret: []byte("other")})
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestMintAndVerify(t *testing.T) {
	t.Parallel()
	h := newMemoryHarness(t)
	subject := Subject{ID: "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", TelegramID: 42, Roles: []string{"user"}}

	pair, err := h.issuer.Mint(subject)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.Equal(t, h.clock.Now().Add(5*time.Minute), pair.AccessExpiresAt)
	require.Equal(t, h.clock.Now().Add(7*24*time.Hour), pair.RefreshExpiresAt)

	access, err := h.issuer.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, subject, SubjectFromClaims(access))
	require.Equal(t, "tgauth", access.Issuer)

	refresh, err := h.issuer.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	require.True(t, access.SameIdentity(refresh))

	t.Run("halves are not interchangeable", func(t *testing.T) {
		_, err := h.issuer.VerifyAccess(pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidCredential)
		_, err = h.issuer.VerifyRefresh(pair.AccessToken)
		require.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("every mint is fresh", func(t *testing.T) {
		again, err := h.issuer.Mint(subject)
		require.NoError(t, err)
		require.NotEqual(t, pair.AccessToken, again.AccessToken)
		require.NotEqual(t, pair.RefreshToken, again.RefreshToken)
	})

	t.Run("structurally invalid subject", func(t *testing.T) {
		_, err := h.issuer.Mint(Subject{ID: "", TelegramID: 1})
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})
}

func TestVerifyAccessRejectsForeignAndExpiredTokens(t *testing.T) {
	t.Parallel()
	h := newMemoryHarness(t)

	other, err := NewCredentialIssuer(IssuerOptions{
		AccessSecret:  []byte("another-access-secret-0123456789abcdef"),
		RefreshSecret: []byte("another-refresh-secret-0123456789abcdef"),
		Issuer:        "tgauth",
		Now:           h.clock.Now,
	})
	require.NoError(t, err)

	foreign, err := other.Mint(Subject{ID: "sub", TelegramID: 1})
	require.NoError(t, err)
	_, err = h.issuer.VerifyAccess(foreign.AccessToken)
	require.ErrorIs(t, err, ErrInvalidCredential)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)

	pair, err := h.issuer.Mint(Subject{ID: "sub", TelegramID: 1})
	require.NoError(t, err)

	h.clock.Advance(5*time.Minute + time.Second)
	_, err = h.issuer.VerifyAccess(pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidCredential)
	require.ErrorIs(t, err, jwtx.ErrExpired)

	for _, garbage := range []string{"", "x", "a.b.c", "\x00\x01"} {
		_, err := h.issuer.VerifyAccess(garbage)
		require.ErrorIs(t, err, ErrInvalidCredential)
	}
}

func TestRotate(t *testing.T) {
	t.Parallel()
	h := newMemoryHarness(t)
	subject := Subject{ID: "sub-1", TelegramID: 7, Roles: []string{"user", "admin"}}

	pair, err := h.issuer.Mint(subject)
	require.NoError(t, err)
	original, err := h.issuer.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)

	h.clock.Advance(time.Hour)
	rotated, got, err := h.issuer.Rotate(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, subject, SubjectFromClaims(got))
	require.True(t, original.SameIdentity(got), "the new access token carries the refresh identity")
	require.NotEqual(t, pair.AccessToken, rotated.AccessToken)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	next, err := h.issuer.VerifyRefresh(rotated.RefreshToken)
	require.NoError(t, err)
	require.True(t, original.SameIdentity(next))
	require.NotEqual(t, original.ID, next.ID)

	t.Run("access token cannot rotate", func(t *testing.T) {
		_, _, err := h.issuer.Rotate(rotated.AccessToken)
		require.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("expired refresh cannot rotate", func(t *testing.T) {
		h.clock.Advance(8 * 24 * time.Hour)
		_, _, err := h.issuer.Rotate(rotated.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidCredential)
	})
}
