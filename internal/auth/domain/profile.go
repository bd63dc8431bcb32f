package domain

import (
	"strings"
	"time"
)

// DefaultRoles are granted to newly created profiles.
var DefaultRoles = []string{"user"}

// Identity is what the messaging platform tells us about a person. It is
// the input to profile resolution.
type Identity struct {
	TelegramID int64
	FirstName  string
	LastName   string
	Username   string
	PhotoURL   string
}

// Validate reports whether the identity carries the required fields.
func (i Identity) Validate() bool {
	return i.TelegramID > 0 && strings.TrimSpace(i.FirstName) != ""
}

// Profile is a local account keyed on the platform subject id.
type Profile struct {
	ID         string
	TelegramID int64
	FirstName  string
	LastName   string
	Username   string
	PhotoURL   string
	Roles      []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
