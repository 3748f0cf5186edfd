package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/service"
)

type userAddOptions struct {
	Name     string
	Password string
	Email    string
	Admin    bool
}

// NewUserCommand groups account commands.
func NewUserCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserAddCommand(rootOpts, open))
	return cmd
}

func newUserAddCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	opts := &userAddOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account without going through sign-up",
		Long: `Create an account directly in the database.

The same name, password and email rules as sign-up apply, but no invite
code is needed. Use --admin to create the first administrator.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserAdd(cmd, rootOpts, opts, open)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "user name")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (at least 8 characters)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().BoolVar(&opts.Admin, "admin", false, "grant the admin role")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runUserAdd(cmd *cobra.Command, rootOpts *RootOptions, opts *userAddOptions, open Opener) error {
	ctx := cmd.Context()
	env, err := open(ctx, rootOpts, newLogger(cmd.ErrOrStderr(), rootOpts.Verbose))
	if err != nil {
		return err
	}
	defer env.Close()

	role := domain.RoleMember
	if opts.Admin {
		role = domain.RoleAdmin
	}
	user, err := env.Users.Bootstrap(ctx, service.NewUserInput{
		Username:  opts.Name,
		Password:  opts.Password,
		Password2: opts.Password,
		Email:     opts.Email,
		Role:      role,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]string{"id": user.ID, "name": user.Name, "role": string(user.Role)})
	}
	_, err = fmt.Fprintf(out, "created %s %s (%s)\n", user.Role, user.Name, user.ID)
	return err
}
