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

var nsCmd = &cobra.Command{
	Use:     "namespaces",
	Aliases: []string{"namespace", "ns"},
	Short:   "Namespace management commands",
}

var nsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List namespaces with feature counts",
	RunE:  withApp(appOptions{}, runNamespacesList),
}

var nsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a namespace",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(appOptions{}, runNamespacesShow),
}

var nsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a namespace",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(appOptions{}, runNamespacesCreate),
}

var nsRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a namespace",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(appOptions{}, runNamespacesRename),
}

var nsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a namespace",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(appOptions{}, runNamespacesDelete),
}

const msgNamespaceNameRequired = "Namespace name is required"

var (
	nsSearch string
	nsYes    bool
)

func init() {
	nsListCmd.Flags().StringVarP(&nsSearch, "search", "s", "", "search by name")
	nsDeleteCmd.Flags().BoolVarP(&nsYes, "yes", "y", false, "do not ask for confirmation")

	nsCmd.AddCommand(nsListCmd, nsShowCmd, nsCreateCmd, nsRenameCmd, nsDeleteCmd)
	rootCmd.AddCommand(nsCmd)
}

func runNamespacesList(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}

	v := listview.New(listview.NamespaceSchema)
	v.SetSearch(nsSearch)
	if err := listview.Load(ctx, v, a.client.ListNamespaces, a.notifier, listview.MsgLoadNamespacesFailed); err != nil {
		return err
	}

	items := v.Items()
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No namespaces found")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "ID\tNAME\tFEATURES\tACTIVE\tINACTIVE\tCREATED")
	fmt.Fprintln(w, "--\t----\t--------\t------\t--------\t-------")
	for _, n := range items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n", n.ID, n.Name, n.TotalFeatures, n.ActiveFeatures, n.InactiveFeatures, formatTime(n.CreatedAt.Time))
	}
	return w.Flush()
}

func runNamespacesShow(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}

	n, err := a.client.GetNamespace(ctx, api.ID(args[0]))
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("namespace %s not found", args[0])
		}
		a.notifier.Error(listview.MsgLoadNamespaceFailed)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Namespace: %s\n\n", n.Name)
	fmt.Fprintf(out, "ID: %s\n", n.ID)
	fmt.Fprintf(out, "Features: %d (%d active, %d inactive)\n", n.TotalFeatures, n.ActiveFeatures, n.InactiveFeatures)
	fmt.Fprintf(out, "Created: %s\n", formatTime(n.CreatedAt.Time))
	fmt.Fprintf(out, "Features address: %s\n", routes.FeaturesFiltered(n.Name, "", nil))
	return nil
}

func runNamespacesCreate(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}

	name := strings.TrimSpace(args[0])
	if name == "" {
		a.notifier.Error(msgNamespaceNameRequired)
		return errors.New(msgNamespaceNameRequired)
	}

	n, err := a.client.CreateNamespace(ctx, name)
	if err != nil {
		a.notifier.Error(api.Message(err, listview.MsgNamespaceCreateFailed))
		return err
	}
	a.notifier.Success(listview.MsgNamespaceCreated)
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", n.ID, n.Name)
	return nil
}

func runNamespacesRename(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}

	name := strings.TrimSpace(args[1])
	if name == "" {
		a.notifier.Error(msgNamespaceNameRequired)
		return errors.New(msgNamespaceNameRequired)
	}

	if _, err := a.client.UpdateNamespace(ctx, api.ID(args[0]), name); err != nil {
		a.notifier.Error(api.Message(err, "Failed to rename namespace"))
		return err
	}
	a.notifier.Success("Namespace renamed")
	return nil
}

func runNamespacesDelete(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}

	if err := confirm(fmt.Sprintf("Delete namespace %s?", args[0]), nsYes); err != nil {
		if errors.Is(err, errNotConfirmed) {
			return nil
		}
		return err
	}

	if err := a.client.DeleteNamespace(ctx, api.ID(args[0])); err != nil {
		a.notifier.Error(api.Message(err, listview.MsgNamespaceDeleteFailed))
		return err
	}
	a.notifier.Success(listview.MsgNamespaceDeleted)
	return nil
}
