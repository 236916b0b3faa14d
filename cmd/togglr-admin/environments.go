package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/togglr/togglr-admin/internal/api"
	"github.com/togglr/togglr-admin/internal/listview"
	"github.com/togglr/togglr-admin/internal/routes"
)

var envsCmd = &cobra.Command{
	Use:     "envs",
	Aliases: []string{"environments", "env"},
	Short:   "Environment management commands",
}

var envsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List environments with feature counts",
	RunE:  withApp(appOptions{}, runEnvsList),
}

var envsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an environment",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(appOptions{}, runEnvsShow),
}

var envsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an environment",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(appOptions{}, runEnvsCreate),
}

var envsRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename an environment",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(appOptions{}, runEnvsRename),
}

var envsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an environment",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(appOptions{}, runEnvsDelete),
}

const msgEnvironmentNameRequired = "Environment name is required"

var (
	envSearch string
	envYes    bool
)

func init() {
	envsListCmd.Flags().StringVarP(&envSearch, "search", "s", "", "search by name")
	envsDeleteCmd.Flags().BoolVarP(&envYes, "yes", "y", false, "do not ask for confirmation")

	envsCmd.AddCommand(envsListCmd, envsShowCmd, envsCreateCmd, envsRenameCmd, envsDeleteCmd)
	rootCmd.AddCommand(envsCmd)
}

func runEnvsList(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}

	v := listview.New(listview.EnvironmentSchema)
	v.SetSearch(envSearch)
	if err := listview.Load(ctx, v, a.client.ListEnvironments, a.notifier, listview.MsgLoadEnvironmentsFailed); err != nil {
		return err
	}

	items := v.Items()
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No environments found")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "ID\tNAME\tFEATURES\tACTIVE\tINACTIVE\tCREATED")
	fmt.Fprintln(w, "--\t----\t--------\t------\t--------\t-------")
	for _, e := range items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n", e.ID, e.Name, e.TotalFeatures, e.ActiveFeatures, e.InactiveFeatures, formatTime(e.CreatedAt.Time))
	}
	return w.Flush()
}

func runEnvsShow(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}

	e, err := a.client.GetEnvironment(ctx, api.ID(args[0]))
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("environment %s not found", args[0])
		}
		a.notifier.Error(listview.MsgLoadEnvironmentFailed)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Environment: %s\n\n", e.Name)
	fmt.Fprintf(out, "ID: %s\n", e.ID)
	fmt.Fprintf(out, "Features: %d (%d active, %d inactive)\n", e.TotalFeatures, e.ActiveFeatures, e.InactiveFeatures)
	fmt.Fprintf(out, "Created: %s\n", formatTime(e.CreatedAt.Time))
	fmt.Fprintf(out, "Features address: %s\n", routes.FeaturesFiltered("", e.Name, nil))
	return nil
}

func runEnvsCreate(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}

	name := strings.TrimSpace(args[0])
	if name == "" {
		a.notifier.Error(msgEnvironmentNameRequired)
		return errors.New(msgEnvironmentNameRequired)
	}

	e, err := a.client.CreateEnvironment(ctx, name)
	if err != nil {
		a.notifier.Error(api.Message(err, listview.MsgEnvironmentCreateFailed))
		return err
	}
	a.notifier.Success(listview.MsgEnvironmentCreated)
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.ID, e.Name)
	return nil
}

func runEnvsRename(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}

	name := strings.TrimSpace(args[1])
	if name == "" {
		a.notifier.Error(msgEnvironmentNameRequired)
		return errors.New(msgEnvironmentNameRequired)
	}

	if _, err := a.client.UpdateEnvironment(ctx, api.ID(args[0]), name); err != nil {
		a.notifier.Error(api.Message(err, "Failed to rename environment"))
		return err
	}
	a.notifier.Success("Environment renamed")
	return nil
}

func runEnvsDelete(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}

	if err := confirm(fmt.Sprintf("Delete environment %s?", args[0]), envYes); err != nil {
		if errors.Is(err, errNotConfirmed) {
			return nil
		}
		return err
	}

	if err := a.client.DeleteEnvironment(ctx, api.ID(args[0])); err != nil {
		a.notifier.Error(api.Message(err, listview.MsgEnvironmentDeleteFailed))
		return err
	}
	a.notifier.Success(listview.MsgEnvironmentDeleted)
	return nil
}
