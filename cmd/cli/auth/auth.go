package auth

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/good-deeds/board/cmd/cli/apiclient"
	"github.com/good-deeds/board/cmd/cli/config"
	"github.com/good-deeds/board/internal/models"
)

// InitAuth registers login, logout and whoami on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), logoutCmd(), whoamiCmd())
}

// loginCmd creates a command that logs in a user and stores the JWT token locally.
func loginCmd() *cobra.Command {
	var username, password, city string
	var register bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the Good Deeds server",
		Long: `Authenticate with the Good Deeds server and store the session token for
subsequent commands. The password is read from stdin when --password is not given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("username is required")
			}
			if password == "" {
				p, err := readPassword(cmd)
				if err != nil {
					return err
				}
				password = p
			}

			client := apiclient.New()

			// Optionally register the user first
			if register {
				payload := map[string]string{"username": username, "password": password, "city": city}
				if err := client.Post("/api/register", payload, nil); err != nil {
					return fmt.Errorf("failed to register user: %w", err)
				}
			}

			var loginResp struct {
				Token string      `json:"token"`
				User  models.User `json:"user"`
			}
			payload := map[string]string{"username": username, "password": password}
			if err := client.Post("/api/login", payload, &loginResp); err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}
			if loginResp.Token == "" {
				return fmt.Errorf("login succeeded but no token returned")
			}

			if err := config.SaveToken(loginResp.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s. Token stored in %s\n", loginResp.User.Username, config.TokenPath())
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username to authenticate as")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when empty)")
	cmd.Flags().BoolVar(&register, "register", false, "Register the user before logging in")
	cmd.Flags().StringVar(&city, "city", "", "City to store with a new registration")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the saved token",
		Long:  "Revoke the session on the server and remove the locally saved token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := apiclient.Authenticated()
			if errors.Is(err, config.ErrNotLoggedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "No user logged in.")
				return nil
			}
			if err != nil {
				return err
			}

			// An expired token is already unusable; still drop the file.
			var apiErr *apiclient.APIError
			if err := client.Post("/api/logout", nil, nil); err != nil && !errors.As(err, &apiErr) {
				return err
			}
			if _, err := config.ClearToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully.")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := apiclient.Authenticated()
			if err != nil {
				return err
			}
			var out struct {
				User models.User `json:"user"`
			}
			if err := client.Get("/api/me", &out); err != nil {
				return err
			}
			line := fmt.Sprintf("%s (id %d)", out.User.Username, out.User.ID)
			if out.User.City != "" {
				line += ", " + out.User.City
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}
}

// readPassword prompts without echo on a terminal and reads a plain line otherwise.
func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
