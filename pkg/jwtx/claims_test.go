package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/bonechkabonechka/tgauth/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte(strings.Repeat("a", 32))
	refreshSecret = []byte(strings.Repeat("r", 32))
)

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "tgauth"}}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("tgauth"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateIssuer("other"), jwtx.ErrIssuer)
	})
}

func TestValidateStructure(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	valid := jwtx.NewClaims("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", 42, []string{"user"}, time.Minute, "tgauth", now)
	require.NoError(t, valid.ValidateStructure())

	t.Run("missing subject", func(t *testing.T) {
		c := valid
		c.Subject = ""
		require.ErrorIs(t, c.ValidateStructure(), jwtx.ErrInvalidClaim)
	})

	t.Run("missing telegram id", func(t *testing.T) {
		c := valid
		c.TelegramID = 0
		require.ErrorIs(t, c.ValidateStructure(), jwtx.ErrInvalidClaim)
	})

	t.Run("missing expiry", func(t *testing.T) {
		c := valid
		c.ExpiresAt = nil
		require.ErrorIs(t, c.ValidateStructure(), jwtx.ErrInvalidClaim)
	})

	t.Run("expiry before issue", func(t *testing.T) {
		c := valid
		c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
		require.ErrorIs(t, c.ValidateStructure(), jwtx.ErrInvalidClaim)
	})
}

func TestNewClaimsUniqueJTI(t *testing.T) {
	now := time.Now()
	a := jwtx.NewClaims("sub", 1, []string{"user"}, time.Minute, "tgauth", now)
	b := jwtx.NewClaims("sub", 1, []string{"user"}, time.Minute, "tgauth", now)

	require.NotEqual(t, a.ID, b.ID)
	require.True(t, a.SameIdentity(b))
	require.True(t, a.HasRole("user"))
	require.False(t, a.HasRole("admin"))
}

func TestHMACRoundTrip(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	clock := func() time.Time { return now }

	signer, err := jwtx.NewHMACSigner(accessSecret)
	require.NoError(t, err)
	require.Equal(t, "HS256", signer.Alg())

	verifier, err := jwtx.NewHMACVerifier(accessSecret, jwtx.VerifyOptions{Issuer: "tgauth", Now: clock})
	require.NoError(t, err)

	claims := jwtx.NewClaims("subject-1", 777, []string{"user", "admin"}, 5*time.Minute, "tgauth", now)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.True(t, got.SameIdentity(claims))
	require.Equal(t, claims.ID, got.ID)
}

func TestHMACVerifyFailures(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	claims := jwtx.NewClaims("subject-1", 777, []string{"user"}, 5*time.Minute, "tgauth", now)

	signer, err := jwtx.NewHMACSigner(accessSecret)
	require.NoError(t, err)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		v, err := jwtx.NewHMACVerifier(refreshSecret, jwtx.VerifyOptions{Now: func() time.Time { return now }})
		require.NoError(t, err)
		_, err = v.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("one second past expiry", func(t *testing.T) {
		later := now.Add(5*time.Minute + time.Second)
		v, err := jwtx.NewHMACVerifier(accessSecret, jwtx.VerifyOptions{Now: func() time.Time { return later }})
		require.NoError(t, err)
		_, err = v.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		v, err := jwtx.NewHMACVerifier(accessSecret, jwtx.VerifyOptions{Issuer: "someone-else", Now: func() time.Time { return now }})
		require.NoError(t, err)
		_, err = v.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("garbage input", func(t *testing.T) {
		v, err := jwtx.NewHMACVerifier(accessSecret, jwtx.VerifyOptions{Now: func() time.Time { return now }})
		require.NoError(t, err)
		for _, in := range []string{"", "a.b", "not.a.jwt", "....", token + "x"} {
			_, err := v.Verify(in)
			require.Error(t, err, "input %q", in)
		}
	})

	t.Run("alg none is rejected", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		v, err := jwtx.NewHMACVerifier(accessSecret, jwtx.VerifyOptions{Now: func() time.Time { return now }})
		require.NoError(t, err)
		_, err = v.Verify(unsigned)
		require.Error(t, err)
	})

	t.Run("structurally empty claims", func(t *testing.T) {
		empty := jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		}}
		tok, err := signer.Sign(empty)
		require.NoError(t, err)

		v, err := jwtx.NewHMACVerifier(accessSecret, jwtx.VerifyOptions{Now: func() time.Time { return now }})
		require.NoError(t, err)
		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})
}

func TestWeakSecretRejected(t *testing.T) {
	_, err := jwtx.NewHMACSigner([]byte("short"))
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)

	_, err = jwtx.NewHMACVerifier(nil, jwtx.VerifyOptions{})
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}
