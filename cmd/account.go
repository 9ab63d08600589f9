package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pyquest/internal/identity"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Sign up, sign in and out to keep progress across devices",
}

var accountSignupCmd = &cobra.Command{
	Use:   "signup <email>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return signIn(cmd, args[0], true)
	},
}

var accountLoginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return signIn(cmd, args[0], false)
	},
}

var accountLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Save and sign out",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			if err := signOut(cmd.Context(), a); err != nil {
				if errors.Is(err, identity.ErrNotSignedIn) {
					fmt.Println("Not signed in.")
					return nil
				}
				return err
			}
			fmt.Println("Signed out. Progress on this device is now guest progress.")
			return nil
		})
	},
}

var accountStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is signed in",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			if !a.identity.Configured() {
				fmt.Println("Accounts unavailable: no remote database configured. Progress is kept on this device.")
				return nil
			}
			u := a.identity.Current()
			if u == nil {
				fmt.Println("Not signed in.")
				return nil
			}
			fmt.Printf("Signed in as %s (session valid until %s)\n", u.Email, u.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{accountSignupCmd, accountLoginCmd} {
		c.Flags().Bool("password-stdin", false, "Read the password from stdin")
	}
	accountCmd.AddCommand(accountSignupCmd)
	accountCmd.AddCommand(accountLoginCmd)
	accountCmd.AddCommand(accountLogoutCmd)
	accountCmd.AddCommand(accountStatusCmd)
}

func signIn(cmd *cobra.Command, email string, create bool) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	return withApp(cmd, func(a *app) error {
		u, err := switchAccount(cmd.Context(), a, email, password, create)
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s. Points: %d\n", u.Email, a.engine.Snapshot().Points)
		return nil
	})
}

// switchAccount signs in, creating the account first when create is set,
// and returns once the account's progress is loaded.
func switchAccount(ctx context.Context, a *app, email, password string, create bool) (*identity.User, error) {
	if cur := a.identity.Current(); cur != nil {
		return nil, fmt.Errorf("already signed in as %s; sign out first", cur.Email)
	}
	// Guest progress is saved locally first so the new account can
	// adopt it.
	if err := a.engine.Flush(ctx); err != nil {
		return nil, err
	}

	var (
		u   *identity.User
		err error
	)
	if create {
		u, err = a.identity.SignUp(ctx, email, password)
	} else {
		u, err = a.identity.SignIn(ctx, email, password)
	}
	if err != nil {
		return nil, err
	}
	if err := a.engine.Load(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// signOut saves, ends the session and switches to guest progress.
func signOut(ctx context.Context, a *app) error {
	if err := a.identity.SignOut(ctx, a.engine.Flush); err != nil {
		return err
	}
	return a.engine.Load(ctx, "")
}

func readPassword(cmd *cobra.Command) (string, error) {
	fromStdin, _ := cmd.Flags().GetBool("password-stdin")
	if !fromStdin {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
