package commands

import (
	"github.com/aussiebroadwan/doorman/internal/auth/app"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the login service",
		Long: `Start the HTTP login service. Pending migrations are applied on start.

Examples:
  # Start with defaults (sqlite ./doorman.db, directory disabled)
  doorman serve

  # Start against an LDAP directory
  DOORMAN_DIRECTORY_MODE=ldap \
  DOORMAN_DIRECTORY_LDAP_URL=ldaps://ldap.example.org \
  DOORMAN_DIRECTORY_LDAP_USER_DN_TEMPLATE='uid=%s,ou=people,dc=example,dc=org' \
  doorman serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			application, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return application.Run()
		},
	}
}
