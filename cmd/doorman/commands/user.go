package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/app"
	"github.com/aussiebroadwan/doorman/internal/auth/service"
	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newUserCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local accounts",
	}
	cmd.AddCommand(newUserAddCmd(opts), newUserListCmd(opts))
	return cmd
}

func newUserAddCmd(opts *options) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a local account",
		Long: `Create a local account with an argon2id password hash.

The password is read from --password, or prompted for when omitted.
Piped input is read as a single line.

Examples:
  doorman user add alice
  echo 's3cret' | doorman user add alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("password") {
				p, err := promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				password = p
			}

			return withAccounts(cmd, opts, func(ctx context.Context, svc *service.AccountService) error {
				acct, err := svc.Register(ctx, args[0], password)
				switch {
				case errors.Is(err, service.ErrUsernameTaken):
					return fmt.Errorf("user %q already exists", args[0])
				case errors.Is(err, service.ErrInvalidUsername):
					return fmt.Errorf("invalid username %q: 1-64 printable ASCII characters without spaces", args[0])
				case errors.Is(err, service.ErrEmptyPassword):
					return errors.New("password must not be empty")
				case err != nil:
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", acct.Username, acct.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password for the account (prompted when omitted)")
	return cmd
}

type accountView struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Origin      string    `json:"origin"`
	DisplayName string    `json:"display_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	HasPassword bool      `json:"has_password"`
	CreatedAt   time.Time `json:"created_at"`
}

func newUserListCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List local and provisioned accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAccounts(cmd, opts, func(ctx context.Context, svc *service.AccountService) error {
				accounts, err := svc.List(ctx)
				if err != nil {
					return err
				}

				views := make([]accountView, 0, len(accounts))
				for _, a := range accounts {
					views = append(views, accountView{
						ID:          a.ID.String(),
						Username:    a.Username,
						Origin:      string(a.Origin),
						DisplayName: a.DisplayName,
						Email:       a.Email,
						HasPassword: a.HasPassword(),
						CreatedAt:   a.CreatedAt,
					})
				}

				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(views)
				}

				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.SetHeader([]string{"ID", "Username", "Origin", "Display Name", "Created"})
				table.SetAutoWrapText(false)
				table.SetAutoFormatHeaders(true)
				table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
				table.SetAlignment(tablewriter.ALIGN_LEFT)
				table.SetCenterSeparator("")
				table.SetColumnSeparator("")
				table.SetRowSeparator("")
				table.SetHeaderLine(false)
				table.SetBorder(false)
				table.SetTablePadding("  ")
				table.SetNoWhiteSpace(true)
				for _, v := range views {
					table.Append([]string{v.ID, v.Username, v.Origin, v.DisplayName, v.CreatedAt.Format(time.RFC3339)})
				}
				table.Render()
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// withAccounts loads config, opens and migrates the store and loads the
// pepper, so hashes written here verify in the running service.
func withAccounts(cmd *cobra.Command, opts *options, fn func(context.Context, *service.AccountService) error) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	app.NewLogger(cfg, cmd.ErrOrStderr())

	cryptox.SetPepperPath(cfg.PepperFile)
	if err := cryptox.LoadPepper(); err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	ctx := cmd.Context()
	st, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	return fn(ctx, &service.AccountService{Store: st})
}
