package domain

import (
	"strings"
	"time"

	"github.com/aussiebroadwan/doorman/pkg/idx"
)

// Origin records how an account came to exist.
type Origin string

const (
	// OriginLocal accounts were registered with a local password.
	OriginLocal Origin = "local"

	// OriginDirectory accounts were provisioned from an LDAP directory
	// interaction and carry no local password.
	OriginDirectory Origin = "directory"
)

func (o Origin) Valid() bool {
	return o == OriginLocal || o == OriginDirectory
}

// Account is a local account record. Usernames are unique. The login flow
// only ever creates accounts, it never updates or deletes them.
type Account struct {
	ID           idx.ID
	Username     string
	PasswordHash string // argon2id PHC or bcrypt, empty when absent
	Origin       Origin
	DisplayName  string // from the directory, optional
	Email        string // from the directory, optional
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeUsername trims surrounding space and lowercases username. Directory
// uid matching is case-insensitive, so every spelling must map to one account.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// HasPassword reports whether a local password hash is present.
func (a Account) HasPassword() bool { return a.PasswordHash != "" }

// LoginAttempt is a single submitted username/password pair. It is never
// persisted.
type LoginAttempt struct {
	Username string
	Password string
}
