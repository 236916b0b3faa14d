package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/togglr/togglr-admin/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the Togglr backend",
	RunE:  withApp(appOptions{}, runLogin),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE:  withApp(appOptions{}, runLogout),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed in user",
	RunE:  withApp(appOptions{}, runWhoami),
}

var (
	loginUsername string
	loginPassword string
)

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username (will prompt if not provided)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (will prompt if not provided)")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

func runLogin(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	username := strings.TrimSpace(loginUsername)
	if username == "" {
		if err := promptInput("Username", &username); err != nil {
			return err
		}
	}
	password := loginPassword
	if password == "" {
		var err error
		if password, err = readPassword(cmd.ErrOrStderr(), "Password: "); err != nil {
			return err
		}
	}

	if _, err := a.session.Login(ctx, username, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return nil
}

func runLogout(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.session.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}

func runWhoami(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	s, err := a.requireSession(false)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "User: %s\n", s.User.Username)
	if s.User.Name != "" {
		fmt.Fprintf(out, "Name: %s\n", s.User.Name)
	}
	if s.User.Email != "" {
		fmt.Fprintf(out, "Email: %s\n", s.User.Email)
	}
	fmt.Fprintf(out, "Roles: %s\n", orDash(s.Roles.String()))
	fmt.Fprintf(out, "Root: %t\n", s.Roles.IsRoot())
	fmt.Fprintf(out, "API: %s\n", a.cfg.API.BaseURL)

	if exp, ok := session.TokenExpiry(s.Token); ok {
		left := time.Until(exp).Round(time.Minute)
		if left <= 0 {
			fmt.Fprintf(out, "Token: expired %s\n", formatTime(exp))
		} else {
			fmt.Fprintf(out, "Token: expires %s (in %s)\n", formatTime(exp), left)
		}
	}
	return nil
}
