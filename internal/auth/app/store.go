package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/doorman/internal/auth/store/drivers/sqlite"
)

// OpenStore connects to the configured credential store. Migrations are not
// applied.
func OpenStore(ctx context.Context, cfg DatabaseConfig) (store.Store, error) {
	switch cfg.Driver {
	case DriverPostgres:
		st, err := postgres.NewStore(ctx, postgres.Config{
			DSN:          cfg.DSN,
			MaxConns:     cfg.MaxConns,
			QueryTimeout: cfg.QueryTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return st, nil

	case DriverSQLite, "":
		st, err := sqlite.NewStore(sqliteDSN(cfg.DSN))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// sqliteDSN turns a bare file path into a URI with WAL enabled. URIs and
// in-memory databases are passed through.
func sqliteDSN(dsn string) string {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	return "file:" + dsn + "?_pragma=journal_mode(WAL)"
}
