package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config tunes the connection pool. Zero values fall back to pgxpool defaults.
type Config struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
	QueryTimeout    time.Duration
}

type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to postgres and verifies the connection.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.QueryTimeout > 0 {
		poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%dms", cfg.QueryTimeout.Milliseconds())
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Accounts() store.Accounts { return &accountsRepo{pool: s.pool} }

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapNullString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func mapStringNull(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
