package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// MinSecretLength is the shortest HMAC secret accepted.
const MinSecretLength = 32

// ErrWeakSecret is returned for empty or short HMAC secrets.
var ErrWeakSecret = errors.New("jwtx: hmac secret too short")

// HMACSigner signs tokens with HS256 and a shared secret.
type HMACSigner struct {
	secret []byte
}

// NewHMACSigner returns an HS256 signer. The secret is copied.
func NewHMACSigner(secret []byte) (*HMACSigner, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &HMACSigner{secret: append([]byte(nil), secret...)}, nil
}

func (s *HMACSigner) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HMACSigner) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
