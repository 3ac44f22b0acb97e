package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/pkg/idx"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this and expose sub-repositories so each concern stays small and
// easy to fake in tests.
type Store interface {
	Accounts() Accounts

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Accounts is the credential store. There is deliberately no update or delete:
// accounts are created by registration or provisioning and left alone after.
type Accounts interface {
	// GetAccountByUsername returns ErrNotFound when no account has username.
	GetAccountByUsername(ctx context.Context, username string) (domain.Account, error)

	// GetAccountByID returns ErrNotFound when no account has id.
	GetAccountByID(ctx context.Context, id idx.ID) (domain.Account, error)

	// CreateAccount inserts a. It returns ErrAlreadyExists when the username
	// is taken, including when a concurrent insert won the race.
	CreateAccount(ctx context.Context, a domain.Account) error

	// ListAccounts returns every account ordered by creation.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	CountAccounts(ctx context.Context) (int64, error)
}
