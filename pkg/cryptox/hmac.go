package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 returns HMAC-SHA256(key, msg).
func HMACSHA256(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// HMACSHA256Hex is HMACSHA256 encoded as lowercase hex.
func HMACSHA256Hex(key, msg []byte) string {
	return hex.EncodeToString(HMACSHA256(key, msg))
}

// EqualHex reports whether two hex digests are equal. Comparison is
// constant time over the exact bytes, so callers normalise case first.
func EqualHex(got, want string) bool {
	return hmac.Equal([]byte(got), []byte(want))
}
