package commands

import (
	"fmt"

	"github.com/aussiebroadwan/doorman/internal/auth/app"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply pending migrations to the configured credential store
(SQLite or PostgreSQL). serve does this on start; run it separately when the
service account lacks DDL rights at runtime.

Examples:
  doorman migrate
  DOORMAN_DATABASE_DRIVER=postgres DOORMAN_DATABASE_DSN=postgres://... doorman migrate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger := app.NewLogger(cfg, cmd.ErrOrStderr())

			st, err := app.OpenStore(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			logger.Info("running database migrations", "driver", cfg.Database.Driver)
			if err := st.ApplyMigrations(); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Migrations completed successfully (driver: %s)\n", cfg.Database.Driver)
			return nil
		},
	}
}
