package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/directory"
	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/aussiebroadwan/doorman/pkg/idx"
	"github.com/stretchr/testify/require"
)

const (
	ldapUsername = "ldap.user"
	ldapPassword = "directory-secret"
)

// countingStore wraps a Store and counts every account read and write made
// through it.
type countingStore struct {
	store.Store

	reads  atomic.Int64
	writes atomic.Int64
}

func (c *countingStore) Accounts() store.Accounts {
	return &countingAccounts{Accounts: c.Store.Accounts(), c: c}
}

type countingAccounts struct {
	store.Accounts
	c *countingStore
}

func (a *countingAccounts) GetAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	a.c.reads.Add(1)
	return a.Accounts.GetAccountByUsername(ctx, username)
}

func (a *countingAccounts) GetAccountByID(ctx context.Context, id idx.ID) (domain.Account, error) {
	a.c.reads.Add(1)
	return a.Accounts.GetAccountByID(ctx, id)
}

func (a *countingAccounts) CreateAccount(ctx context.Context, acct domain.Account) error {
	a.c.writes.Add(1)
	return a.Accounts.CreateAccount(ctx, acct)
}

func (a *countingAccounts) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	a.c.reads.Add(1)
	return a.Accounts.ListAccounts(ctx)
}

// newStore returns a migrated in-memory store wrapped for counting.
func newStore(t *testing.T) *countingStore {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	return &countingStore{Store: s}
}

// accountCount reads the row count without touching the counters.
func accountCount(t *testing.T, s *countingStore) int64 {
	t.Helper()
	n, err := s.Store.Accounts().CountAccounts(context.Background())
	require.NoError(t, err)
	return n
}

// localAccount builds a local account with a real argon2id hash.
func localAccount(t *testing.T, username, password string) domain.Account {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	return domain.Account{
		ID:           idx.NewAt(now),
		Username:     username,
		PasswordHash: hash,
		Origin:       domain.OriginLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// directoryAccount builds a provisioned account with no local password.
func directoryAccount(username string) domain.Account {
	now := time.Now().UTC()
	return domain.Account{
		ID:        idx.NewAt(now),
		Username:  username,
		Origin:    domain.OriginDirectory,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// seed inserts accounts without touching the counters.
func seed(t *testing.T, s *countingStore, accounts ...domain.Account) {
	t.Helper()
	for _, a := range accounts {
		require.NoError(t, s.Store.Accounts().CreateAccount(context.Background(), a))
	}
}

func ldapDirectory() *directory.Static {
	return directory.NewStatic(map[string]directory.Principal{
		ldapUsername: {Password: ldapPassword, DisplayName: "LDAP User", Email: "ldap.user@example.org"},
	})
}

// directBindDirectory hides Exists, like an LDAP directory in direct bind
// mode.
type directBindDirectory struct {
	directory.Directory
}

func (d directBindDirectory) Authenticate(ctx context.Context, username, password string) directory.Result {
	res := d.Directory.Authenticate(ctx, username, password)
	res.Exists = false
	return res
}

// barrierDirectory holds every caller until n callers have arrived, so all
// of them have already looked the account up before any provisions it.
type barrierDirectory struct {
	inner   directory.Directory
	arrived sync.WaitGroup
}

func newBarrierDirectory(inner directory.Directory, n int) *barrierDirectory {
	b := &barrierDirectory{inner: inner}
	b.arrived.Add(n)
	return b
}

func (b *barrierDirectory) Authenticate(ctx context.Context, username, password string) directory.Result {
	b.arrived.Done()
	b.arrived.Wait()
	return b.inner.Authenticate(ctx, username, password)
}

// brokenStore fails every account operation.
type brokenStore struct {
	store.Store
}

var errDiskGone = errors.New("disk I/O error")

func (brokenStore) Accounts() store.Accounts { return brokenAccounts{} }

type brokenAccounts struct {
	store.Accounts
}

func (brokenAccounts) GetAccountByUsername(context.Context, string) (domain.Account, error) {
	return domain.Account{}, errDiskGone
}

func (brokenAccounts) CreateAccount(context.Context, domain.Account) error {
	return errDiskGone
}

// readOnlyStore reads fine but cannot write.
type readOnlyStore struct {
	store.Store
}

func (r readOnlyStore) Accounts() store.Accounts {
	return readOnlyAccounts{Accounts: r.Store.Accounts()}
}

type readOnlyAccounts struct {
	store.Accounts
}

func (readOnlyAccounts) CreateAccount(context.Context, domain.Account) error {
	return errDiskGone
}
