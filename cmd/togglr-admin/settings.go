package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/togglr/togglr-admin/internal/api"
	"github.com/togglr/togglr-admin/internal/session"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Personal settings",
}

var themeCmd = &cobra.Command{
	Use:   "theme [name]",
	Short: "Show or change the console theme",
	Args:  cobra.MaximumNArgs(1),
	RunE:  withApp(appOptions{}, runTheme),
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change the password of the signed in user",
	RunE:  withApp(appOptions{}, runPassword),
}

const (
	msgPasswordChanged      = "Password changed successfully"
	msgPasswordChangeFailed = "Failed to change password"
)

func init() {
	settingsCmd.AddCommand(themeCmd, passwordCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runTheme(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	out := cmd.OutOrStdout()
	current := a.session.Theme(ctx)

	var name string
	switch {
	case len(args) == 1:
		name = args[0]
	case interactive():
		name = string(current)
		options := make([]huh.Option[string], 0, len(session.Themes))
		for _, t := range session.Themes {
			options = append(options, huh.NewOption(string(t), string(t)))
		}
		if err := huh.NewSelect[string]().Title("Theme").Options(options...).Value(&name).Run(); err != nil {
			return fmt.Errorf("failed to read theme: %w", err)
		}
	default:
		for _, t := range session.Themes {
			marker := " "
			if t == current {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, t)
		}
		return nil
	}

	theme, err := session.ParseTheme(name)
	if err != nil {
		return err
	}
	if err := a.session.SetTheme(ctx, theme); err != nil {
		a.notifier.Error("Failed to save theme")
		return err
	}
	a.notifier.Success(fmt.Sprintf("Theme changed to %s", theme))
	return nil
}

func runPassword(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	current, err := readPassword(errOut, "Current password: ")
	if err != nil {
		return err
	}
	next, err := readPassword(errOut, "New password: ")
	if err != nil {
		return err
	}
	again, err := readPassword(errOut, "Confirm new password: ")
	if err != nil {
		return err
	}
	if next != again {
		return errors.New("passwords do not match")
	}

	if err := a.client.ChangePassword(ctx, current, next); err != nil {
		a.notifier.Error(api.Message(err, msgPasswordChangeFailed))
		return err
	}
	a.notifier.Success(msgPasswordChanged)
	return nil
}
