package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/togglr/togglr-admin/internal/api"
	"github.com/togglr/togglr-admin/internal/listview"
)

var usersCmd = &cobra.Command{
	Use:     "users",
	Aliases: []string{"user"},
	Short:   "User management commands (administrators only)",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE:  withApp(appOptions{}, runUsersList),
}

var usersShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a user",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(appOptions{}, runUsersShow),
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	RunE:  withApp(appOptions{}, runUsersCreate),
}

var usersEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a user; only changed fields are sent",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(appOptions{}, runUsersEdit),
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(appOptions{}, runUsersDelete),
}

var (
	userSearch      string
	userName        string
	userUsername    string
	userEmail       string
	userPassword    string
	userRoles       string
	userDescription string
	userYes         bool
)

func init() {
	usersListCmd.Flags().StringVarP(&userSearch, "search", "s", "", "search name, username, email and roles")

	for _, c := range []*cobra.Command{usersCreateCmd, usersEditCmd} {
		c.Flags().StringVar(&userName, "name", "", "full name")
		c.Flags().StringVar(&userUsername, "username", "", "username")
		c.Flags().StringVar(&userEmail, "email", "", "email address")
		c.Flags().StringVar(&userPassword, "password", "", "password (create prompts if not provided)")
		c.Flags().StringVar(&userRoles, "roles", "", "comma separated roles, e.g. ADMIN")
	}
	usersEditCmd.Flags().StringVar(&userDescription, "description", "", "description")
	usersDeleteCmd.Flags().BoolVarP(&userYes, "yes", "y", false, "do not ask for confirmation")

	usersCmd.AddCommand(usersListCmd, usersShowCmd, usersCreateCmd, usersEditCmd, usersDeleteCmd)
	rootCmd.AddCommand(usersCmd)
}

func runUsersList(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(true); err != nil {
		return err
	}

	v := listview.New(listview.UserSchema)
	v.SetSearch(userSearch)
	if err := listview.Load(ctx, v, a.client.ListUsers, a.notifier, listview.MsgLoadUsersFailed); err != nil {
		return err
	}

	items := v.Items()
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No users found")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tEMAIL\tROLES\tCREATED")
	fmt.Fprintln(w, "--\t--------\t----\t-----\t-----\t-------")
	for _, u := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, orDash(u.Name), orDash(u.Email), orDash(u.Roles), formatTime(u.CreatedAt.Time))
	}
	return w.Flush()
}

func runUsersShow(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(true); err != nil {
		return err
	}

	u, err := a.client.GetUser(ctx, api.ID(args[0]))
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("user %s not found", args[0])
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "User: %s\n\n", u.Username)
	fmt.Fprintf(out, "ID: %s\n", u.ID)
	fmt.Fprintf(out, "Name: %s\n", orDash(u.Name))
	fmt.Fprintf(out, "Email: %s\n", orDash(u.Email))
	fmt.Fprintf(out, "Roles: %s\n", orDash(u.Roles))
	fmt.Fprintf(out, "Description: %s\n", orDash(u.Description))
	fmt.Fprintf(out, "Created: %s\n", formatTime(u.CreatedAt.Time))
	fmt.Fprintf(out, "Updated: %s\n", formatTime(u.UpdatedAt.Time))
	return nil
}

func runUsersCreate(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(true); err != nil {
		return err
	}

	password := userPassword
	if password == "" && interactive() {
		var err error
		if password, err = readPassword(cmd.ErrOrStderr(), "Enter password: "); err != nil {
			return err
		}
		again, err := readPassword(cmd.ErrOrStderr(), "Confirm password: ")
		if err != nil {
			return err
		}
		if password != again {
			return fmt.Errorf("passwords do not match")
		}
	}

	u, err := a.client.CreateUser(ctx, &api.UserCreate{
		Name:     strings.TrimSpace(userName),
		Username: strings.TrimSpace(userUsername),
		Email:    strings.TrimSpace(userEmail),
		Password: password,
		Roles:    strings.TrimSpace(userRoles),
	})
	if err != nil {
		a.notifier.Error(api.Message(err, listview.MsgUserCreateFailed))
		return err
	}
	a.notifier.Success(listview.MsgUserCreated)
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", u.ID, u.Username)
	return nil
}

func runUsersEdit(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(true); err != nil {
		return err
	}

	prev, err := a.client.GetUser(ctx, api.ID(args[0]))
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("user %s not found", args[0])
		}
		return err
	}

	next := *prev
	flags := cmd.Flags()
	if flags.Changed("name") {
		next.Name = userName
	}
	if flags.Changed("username") {
		next.Username = userUsername
	}
	if flags.Changed("email") {
		next.Email = userEmail
	}
	if flags.Changed("description") {
		next.Description = userDescription
	}
	if flags.Changed("roles") {
		next.Roles = userRoles
	}

	update := api.Diff(*prev, next, userPassword)
	if update.Empty() {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to update")
		return nil
	}
	if _, err := a.client.UpdateUser(ctx, prev.ID, &update); err != nil {
		a.notifier.Error(api.Message(err, listview.MsgUserUpdateFailed))
		return err
	}
	a.notifier.Success(listview.MsgUserUpdated)
	return nil
}

func runUsersDelete(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	s, err := a.requireSession(true)
	if err != nil {
		return err
	}
	if api.ID(args[0]) == s.User.ID {
		return fmt.Errorf("refusing to delete the signed in user")
	}

	if err := confirm(fmt.Sprintf("Delete user %s?", args[0]), userYes); err != nil {
		if errors.Is(err, errNotConfirmed) {
			return nil
		}
		return err
	}

	if err := a.client.DeleteUser(ctx, api.ID(args[0])); err != nil {
		a.notifier.Error(api.Message(err, listview.MsgUserDeleteFailed))
		return err
	}
	a.notifier.Success(listview.MsgUserDeleted)
	return nil
}
