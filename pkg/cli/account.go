package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/harrisonrobin/evertask/pkg/auth"
	"github.com/harrisonrobin/evertask/pkg/config"
	"github.com/harrisonrobin/evertask/pkg/model"
)

func newRegisterCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register USER",
		Short: "Create a password account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			users, err := b.usersOf()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("password") {
				if password, err = readPassword(cmd); err != nil {
					return err
				}
			}
			u, err := auth.Register(ctx, users, args[0], password)
			if err != nil {
				return err
			}
			if err := setUser(u.Username); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", u.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var (
		password string
		github   bool
	)
	cmd := &cobra.Command{
		Use:   "login [USER]",
		Short: "Sign in with a password or GitHub",
		Long: `Sign in and remember the user for later commands.

With the json store driver there are no accounts: the name given is simply
recorded as the owner of the tasks.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			var u model.User
			switch {
			case github:
				users, err := b.usersOf()
				if err != nil {
					return err
				}
				u, err = auth.GitHubLogin(ctx, cfg.GitHub, users)
				if err != nil {
					return err
				}
			case len(args) == 0:
				return fmt.Errorf("a user name is required unless --github is given")
			case b.users == nil:
				u = model.User{Username: strings.TrimSpace(args[0])}
				if u.Username == "" {
					return &model.ValidationError{Field: "username", Reason: "must not be empty"}
				}
			default:
				if !cmd.Flags().Changed("password") {
					if password, err = readPassword(cmd); err != nil {
						return err
					}
				}
				u, err = auth.Authenticate(ctx, b.users, args[0], password)
				if err != nil {
					return err
				}
			}

			if err := setUser(u.Username); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", u.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().BoolVar(&github, "github", false, "Sign in through GitHub in the browser")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setUser(""); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func setUser(name string) error {
	return config.Update(func(c *config.Config) { c.User = name })
}

// readPassword prompts on the command's output and reads one line. Input
// from a terminal is not echoed.
func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
