package cryptox

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantLen int
	}{
		{"128-bit token", TokenSize128, 22},
		{"256-bit token", 32, 43},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.Len(t, token, tt.wantLen)

			token2, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEqual(t, token, token2, "tokens should be unique")
		})
	}
}

func TestGenerateToken_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestFingerprintToken(t *testing.T) {
	fp1a := FingerprintToken("test-token-1")
	fp1b := FingerprintToken("test-token-1")
	fp2 := FingerprintToken("test-token-2")

	require.Equal(t, fp1a, fp1b)
	require.NotEqual(t, fp1a, fp2)
	require.Len(t, fp1a, 43)
}

func TestEqualStrings(t *testing.T) {
	require.True(t, EqualStrings("secret", "secret"))
	require.False(t, EqualStrings("secret", "Secret"))
	require.False(t, EqualStrings("secret", "secret!"))
}

func TestHMACSHA256(t *testing.T) {
	// RFC 4231 test case 2.
	got := HMACSHA256Hex([]byte("Jefe"), []byte("what do ya want for nothing?"))
	require.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", got)

	raw := HMACSHA256([]byte("Jefe"), []byte("what do ya want for nothing?"))
	require.Equal(t, got, hex.EncodeToString(raw))

	require.True(t, EqualHex(got, got))
	require.False(t, EqualHex(got, got[:len(got)-1]+"0"))
	require.False(t, EqualHex(strings.ToUpper(got), got), "case is not folded")
}
