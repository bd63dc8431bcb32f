// Package initdata verifies and parses the signed launch payload Telegram
// hands to Mini Apps (window.Telegram.WebApp.initData).
//
// The payload is a URL encoded query string. Its "hash" field is
//
//	hex(HMAC_SHA256(HMAC_SHA256("WebAppData", botToken), dataCheckString))
//
// where dataCheckString is every other field, sorted by key, rendered as
// key=value and joined with "\n".
package initdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bonechkabonechka/tgauth/pkg/cryptox"
)

const (
	hashField     = "hash"
	userField     = "user"
	authDateField = "auth_date"

	keyDerivationLabel = "WebAppData"
)

var (
	ErrEmpty             = errors.New("initdata: empty payload")
	ErrMalformed         = errors.New("initdata: malformed payload")
	ErrMissingHash       = errors.New("initdata: missing hash")
	ErrSignatureMismatch = errors.New("initdata: signature mismatch")
	ErrMissingUser       = errors.New("initdata: missing user")
	ErrMissingAuthDate   = errors.New("initdata: missing auth_date")
	ErrExpired           = errors.New("initdata: auth_date too old")
)

// User is the "user" object embedded in the payload.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	IsPremium    bool   `json:"is_premium,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
}

// Data is a parsed payload.
type Data struct {
	User     User
	AuthDate time.Time
	QueryID  string
	Hash     string
}

// SecretKey derives the HMAC key from the bot token.
func SecretKey(botToken string) []byte {
	return cryptox.HMACSHA256([]byte(keyDerivationLabel), []byte(botToken))
}

// DataCheckString renders every field except hash in the canonical form
// the signature is computed over.
func DataCheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == hashField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	return strings.Join(lines, "\n")
}

// Sign computes the hash for values under botToken. Tests and the dev CLI
// use it to build payloads the server accepts.
func Sign(values url.Values, botToken string) string {
	return cryptox.HMACSHA256Hex(SecretKey(botToken), []byte(DataCheckString(values)))
}

// Encode signs values and returns the raw query string with hash attached.
func Encode(values url.Values, botToken string) string {
	signed := url.Values{}
	for k, v := range values {
		if k == hashField {
			continue
		}
		signed[k] = append([]string(nil), v...)
	}
	signed.Set(hashField, Sign(signed, botToken))
	return signed.Encode()
}

// Verify checks the signature of raw against botToken. The hash field is
// accepted in either case.
func Verify(raw, botToken string) error {
	values, err := parseQuery(raw)
	if err != nil {
		return err
	}

	got := values.Get(hashField)
	if got == "" {
		return ErrMissingHash
	}

	// Sign emits lowercase hex.
	if !cryptox.EqualHex(strings.ToLower(got), Sign(values, botToken)) {
		return ErrSignatureMismatch
	}
	return nil
}

// Parse extracts the user and auth_date from raw. It does not verify the
// signature; call Verify first.
func Parse(raw string) (Data, error) {
	values, err := parseQuery(raw)
	if err != nil {
		return Data{}, err
	}

	userRaw := values.Get(userField)
	if userRaw == "" {
		return Data{}, ErrMissingUser
	}
	var user User
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil {
		return Data{}, fmt.Errorf("%w: user: %v", ErrMalformed, err)
	}
	if user.ID <= 0 || strings.TrimSpace(user.FirstName) == "" {
		return Data{}, fmt.Errorf("%w: user id and first_name are required", ErrMalformed)
	}

	authDateRaw := values.Get(authDateField)
	if authDateRaw == "" {
		return Data{}, ErrMissingAuthDate
	}
	authDate, err := strconv.ParseInt(authDateRaw, 10, 64)
	if err != nil {
		return Data{}, fmt.Errorf("%w: auth_date: %v", ErrMalformed, err)
	}

	return Data{
		User:     user,
		AuthDate: time.Unix(authDate, 0).UTC(),
		QueryID:  values.Get("query_id"),
		Hash:     values.Get(hashField),
	}, nil
}

// VerifyAndParse runs Verify then Parse. When maxAge is positive, payloads
// whose auth_date is older than maxAge relative to now are rejected.
func VerifyAndParse(raw, botToken string, maxAge time.Duration, now time.Time) (Data, error) {
	if err := Verify(raw, botToken); err != nil {
		return Data{}, err
	}
	data, err := Parse(raw)
	if err != nil {
		return Data{}, err
	}
	if maxAge > 0 && now.Sub(data.AuthDate) > maxAge {
		return Data{}, ErrExpired
	}
	return data, nil
}

func parseQuery(raw string) (url.Values, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmpty
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return values, nil
}
