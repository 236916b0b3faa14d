package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/togglr/togglr-admin/internal/listview"
	"github.com/togglr/togglr-admin/internal/routes"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"stats"},
	Short:   "Show aggregate counts",
	RunE:    withApp(appOptions{}, runDashboard),
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}

	d, err := a.client.Dashboard(ctx)
	if err != nil {
		a.notifier.Error(listview.MsgLoadDashboardFailed)
		return err
	}

	active, inactive := true, false
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "METRIC\tCOUNT\tADDRESS")
	fmt.Fprintln(w, "------\t-----\t-------")
	fmt.Fprintf(w, "Total features\t%d\t%s\n", d.TotalFeatures, routes.Features)
	fmt.Fprintf(w, "Active features\t%d\t%s\n", d.ActiveFeatures, routes.FeaturesFiltered("", "", &active))
	fmt.Fprintf(w, "Inactive features\t%d\t%s\n", d.InactiveFeatures(), routes.FeaturesFiltered("", "", &inactive))
	fmt.Fprintf(w, "Environments\t%d\t%s\n", d.TotalEnvironments, routes.Environments)
	fmt.Fprintf(w, "Namespaces\t%d\t%s\n", d.TotalNamespaces, routes.Namespaces)
	fmt.Fprintf(w, "Users\t%d\t%s\n", d.TotalUsers, routes.Users)
	return w.Flush()
}
