// Package commands implements the doorman CLI.
package commands

import (
	"github.com/aussiebroadwan/doorman/internal/auth/app"
	"github.com/spf13/cobra"
)

// options holds the global flags shared by every subcommand.
type options struct {
	configFile string
}

// NewRootCmd builds the command tree. Each call returns a fresh tree so
// tests can execute commands without sharing flag state.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "doorman",
		Short: "doorman - local and LDAP login service",
		Long: `doorman authenticates form logins against local accounts and falls back
to an LDAP directory, provisioning local accounts for directory users.

Configuration is read from an optional YAML file and DOORMAN_* environment
variables, e.g. DOORMAN_DATABASE_DSN or DOORMAN_DIRECTORY_LDAP_URL.

Use "doorman [command] --help" for more information about a command.`,
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (YAML)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newUserCmd(opts),
	)
	root.CompletionOptions.DisableDefaultCmd = true

	return root
}

func (o *options) load() (app.Config, error) {
	return app.LoadConfig(o.configFile)
}
