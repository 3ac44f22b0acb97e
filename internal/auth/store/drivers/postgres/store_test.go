package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/doorman/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/sync/errgroup"
)

// newTestStore starts a throwaway postgres container. The tests are skipped
// in -short mode and when no Docker provider is reachable.
func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()

	if testing.Short() {
		t.Skip("postgres driver tests need docker")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("doorman_test"),
		tcpostgres.WithUsername("doorman_test"),
		tcpostgres.WithPassword("doorman_test"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := postgres.NewStore(ctx, postgres.Config{DSN: dsn, MaxConns: 8})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestPostgresAccounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, s.ApplyMigrations())
	})

	t.Run("create and fetch", func(t *testing.T) {
		at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
		a := domain.Account{
			ID:           idx.NewAt(at),
			Username:     "alice",
			PasswordHash: "$2y$10$abcdefghijklmnopqrstuu",
			Origin:       domain.OriginLocal,
			CreatedAt:    at,
			UpdatedAt:    at,
		}
		require.NoError(t, s.Accounts().CreateAccount(ctx, a))

		got, err := s.Accounts().GetAccountByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, a.ID, got.ID)
		require.Equal(t, a.PasswordHash, got.PasswordHash)
		require.True(t, at.Equal(got.CreatedAt))

		byID, err := s.Accounts().GetAccountByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", byID.Username)
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := s.Accounts().GetAccountByUsername(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := s.Accounts().CreateAccount(ctx, domain.Account{
			ID:        idx.New(),
			Username:  "alice",
			Origin:    domain.OriginDirectory,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("concurrent provisioning", func(t *testing.T) {
		const workers = 8
		results := make([]error, workers)

		var g errgroup.Group
		for i := range workers {
			g.Go(func() error {
				now := time.Now()
				results[i] = s.Accounts().CreateAccount(ctx, domain.Account{
					ID:        idx.New(),
					Username:  "racer",
					Origin:    domain.OriginDirectory,
					CreatedAt: now,
					UpdatedAt: now,
				})
				return nil
			})
		}
		require.NoError(t, g.Wait())

		var won int
		for _, err := range results {
			if err == nil {
				won++
				continue
			}
			require.ErrorIs(t, err, store.ErrAlreadyExists)
		}
		require.Equal(t, 1, won)
	})

	t.Run("list and count", func(t *testing.T) {
		list, err := s.Accounts().ListAccounts(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "alice", list[0].Username)

		n, err := s.Accounts().CountAccounts(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 2, n)
	})
}
