package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/togglr/togglr-admin/internal/api"
	"github.com/togglr/togglr-admin/internal/listview"
	"github.com/togglr/togglr-admin/internal/routes"
)

var featuresCmd = &cobra.Command{
	Use:     "features",
	Aliases: []string{"feature", "f"},
	Short:   "Feature management commands",
}

var featuresListCmd = &cobra.Command{
	Use:   "list",
	Short: "List features",
	RunE:  withApp(appOptions{}, runFeaturesList),
}

var featuresShowCmd = &cobra.Command{
	Use:   "show <name|namespace|environment>",
	Short: "Show a feature",
	Long: `Show a feature. The feature is named by its composite key
name|namespace|environment or by its console address /features/<key>.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(appOptions{}, runFeaturesShow),
}

var featuresCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a feature",
	RunE:  withApp(appOptions{}, runFeaturesCreate),
}

var featuresEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit the enabled state or metadata of a feature",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(appOptions{}, runFeaturesEdit),
}

var featuresToggleCmd = &cobra.Command{
	Use:   "toggle <name|namespace|environment>",
	Short: "Enable a disabled feature or disable an enabled one",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(appOptions{}, runFeaturesToggle),
}

var featuresDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a feature",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(appOptions{}, runFeaturesDelete),
}

var (
	featNamespace   string
	featEnvironment string
	featEnabled     string
	featSearch      string
	featSort        string
	featOrder       string

	featName       string
	featNewNS      string
	featNewEnv     string
	featMetadata   string
	featSetEnabled bool
	featYes        bool
)

func init() {
	featuresListCmd.Flags().StringVarP(&featNamespace, "namespace", "n", listview.FilterAll, "filter by namespace")
	featuresListCmd.Flags().StringVarP(&featEnvironment, "environment", "e", listview.FilterAll, "filter by environment")
	featuresListCmd.Flags().StringVar(&featEnabled, "enabled", listview.FilterAll, "filter by state (all, true, false)")
	featuresListCmd.Flags().StringVarP(&featSearch, "search", "s", "", "search name and description")
	featuresListCmd.Flags().StringVar(&featSort, "sort", listview.FieldName, "sort by name, namespace, environment, enabled or createdAt")
	featuresListCmd.Flags().StringVar(&featOrder, "order", string(listview.Asc), "sort order (asc, desc)")

	featuresCreateCmd.Flags().StringVar(&featName, "name", "", "feature name")
	featuresCreateCmd.Flags().StringVarP(&featNewNS, "namespace", "n", "", "namespace")
	featuresCreateCmd.Flags().StringVarP(&featNewEnv, "environment", "e", "", "environment")
	featuresCreateCmd.Flags().BoolVar(&featSetEnabled, "enabled", false, "create the feature enabled")
	featuresCreateCmd.Flags().StringVar(&featMetadata, "metadata", "", "metadata JSON; other text is stored as a string")

	featuresEditCmd.Flags().BoolVar(&featSetEnabled, "enabled", false, "enabled state")
	featuresEditCmd.Flags().StringVar(&featMetadata, "metadata", "", "metadata JSON; empty means {}")

	featuresToggleCmd.Flags().BoolVarP(&featYes, "yes", "y", false, "do not ask for confirmation")
	featuresDeleteCmd.Flags().BoolVarP(&featYes, "yes", "y", false, "do not ask for confirmation")

	featuresCmd.AddCommand(featuresListCmd, featuresShowCmd, featuresCreateCmd, featuresEditCmd, featuresToggleCmd, featuresDeleteCmd)
	rootCmd.AddCommand(featuresCmd)
}

// featureQuery turns the list flags into the query a features page is
// seeded from
func featureQuery() url.Values {
	q := url.Values{}
	q.Set(listview.FieldNamespace, featNamespace)
	q.Set(listview.FieldEnvironment, featEnvironment)
	q.Set(listview.FieldEnabled, featEnabled)
	return q
}

func runFeaturesList(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}
	if featEnabled != listview.FilterAll && featEnabled != "true" && featEnabled != "false" {
		return fmt.Errorf("invalid --enabled %q (must be all, true or false)", featEnabled)
	}

	v := listview.New(listview.FeatureSchema)
	v.SeedFromQuery(featureQuery())
	v.SetSearch(featSearch)
	v.SetSort(featSort, listview.Order(strings.ToLower(featOrder)))

	if err := listview.Load(ctx, v, func(ctx context.Context) ([]api.Feature, error) {
		return a.client.ListFeatures(ctx, api.FeatureFilter{})
	}, a.notifier, listview.MsgLoadFeaturesFailed); err != nil {
		return err
	}

	items := v.Items()
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No features found")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "ID\tNAME\tNAMESPACE\tENVIRONMENT\tSTATUS\tDESCRIPTION")
	fmt.Fprintln(w, "--\t----\t---------\t-----------\t------\t-----------")
	for _, f := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", f.ID, f.Name, f.Namespace, f.Environment, status(f.Enabled), orDash(f.Description()))
	}
	return w.Flush()
}

// parseFeatureKey accepts "name|namespace|environment" or a /features/ address
func parseFeatureKey(arg string) (api.FeatureKey, error) {
	if strings.Count(arg, "|") == 2 && !strings.Contains(arg, "/") {
		parts := strings.SplitN(arg, "|", 3)
		key := api.FeatureKey{Name: parts[0], Namespace: parts[1], Environment: parts[2]}
		if key.Name == "" || key.Namespace == "" || key.Environment == "" {
			return api.FeatureKey{}, fmt.Errorf("invalid feature key %q", arg)
		}
		return key, nil
	}
	return routes.ParseFeatureDetail(arg)
}

func parseFeatureID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid feature id %q", arg)
	}
	return id, nil
}

func runFeaturesShow(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}
	key, err := parseFeatureKey(args[0])
	if err != nil {
		return err
	}

	f, err := a.client.GetFeatureByKey(ctx, key)
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("feature %s not found", key)
		}
		a.notifier.Error(listview.MsgLoadFeatureFailed)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Feature: %s\n\n", f.Name)
	fmt.Fprintf(out, "ID: %d\n", f.ID)
	fmt.Fprintf(out, "Namespace: %s\n", f.Namespace)
	fmt.Fprintf(out, "Environment: %s\n", f.Environment)
	fmt.Fprintf(out, "Status: %s\n", status(f.Enabled))
	fmt.Fprintf(out, "Description: %s\n", orDash(f.Description()))
	metadata := string(f.Metadata)
	if metadata == "" {
		metadata = "{}"
	}
	fmt.Fprintf(out, "Metadata: %s\n", metadata)
	fmt.Fprintf(out, "Created: %s\n", formatTime(f.CreatedAt.Time))
	fmt.Fprintf(out, "Updated: %s\n", formatTime(f.UpdatedAt.Time))
	fmt.Fprintf(out, "Address: %s\n", routes.FeatureDetail(f.Key()))
	return nil
}

func runFeaturesCreate(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}

	metadata, err := api.ParseMetadata(featMetadata, true)
	if err != nil {
		return err
	}
	req := &api.FeatureCreate{
		Name:        strings.TrimSpace(featName),
		Namespace:   strings.TrimSpace(featNewNS),
		Environment: strings.TrimSpace(featNewEnv),
		Enabled:     featSetEnabled,
		Metadata:    metadata,
	}

	f, err := a.client.CreateFeature(ctx, req)
	if err != nil {
		a.notifier.Error(api.Message(err, listview.MsgFeatureCreateFailed))
		return err
	}
	a.notifier.Success(listview.MsgFeatureCreated)
	fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", f.ID, f.Key())
	return nil
}

func runFeaturesEdit(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}
	id, err := parseFeatureID(args[0])
	if err != nil {
		return err
	}

	enabledSet := cmd.Flags().Changed("enabled")
	metadataSet := cmd.Flags().Changed("metadata")
	if !enabledSet && !metadataSet {
		return fmt.Errorf("nothing to update (use --enabled or --metadata)")
	}

	// the update endpoint replaces both fields, so start from the current ones
	features, err := a.client.ListFeatures(ctx, api.FeatureFilter{})
	if err != nil {
		a.notifier.Error(listview.MsgLoadFeatureFailed)
		return err
	}
	v := listview.New(listview.FeatureSchema)
	v.Replace(features)
	current, ok := v.Find(strconv.FormatInt(id, 10))
	if !ok {
		return fmt.Errorf("feature %d not found", id)
	}

	enabled := current.Enabled
	if enabledSet {
		enabled = featSetEnabled
	}
	metadata := current.Metadata
	if metadataSet {
		if metadata, err = api.EditMetadata(featMetadata); err != nil {
			a.notifier.Error(api.Message(err, listview.MsgFeatureUpdateFailed))
			return err
		}
	}

	if _, err := a.client.UpdateFeature(ctx, id, &api.FeatureUpdate{Enabled: &enabled, Metadata: metadata}); err != nil {
		a.notifier.Error(api.Message(err, listview.MsgFeatureUpdateFailed))
		return err
	}
	a.notifier.Success(listview.MsgFeatureUpdated)
	return nil
}

func runFeaturesToggle(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}
	key, err := parseFeatureKey(args[0])
	if err != nil {
		return err
	}

	f, err := a.client.GetFeatureByKey(ctx, key)
	if err != nil {
		a.notifier.Error(listview.MsgLoadFeatureFailed)
		return err
	}

	v := listview.New(listview.FeatureSchema)
	v.Replace([]api.Feature{*f})
	v.RequestToggle(listview.FeatureID(*f))

	verb := "Enable"
	if f.Enabled {
		verb = "Disable"
	}
	if err := confirm(fmt.Sprintf("%s feature %s?", verb, key), featYes); err != nil {
		v.CancelToggle()
		if errors.Is(err, errNotConfirmed) {
			return nil
		}
		return err
	}

	if err := listview.ConfirmFeatureToggle(ctx, v, a.client, a.notifier); err != nil {
		return err
	}
	if updated, ok := v.Find(listview.FeatureID(*f)); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key, status(updated.Enabled))
	}
	return nil
}

func runFeaturesDelete(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}
	id, err := parseFeatureID(args[0])
	if err != nil {
		return err
	}

	if err := confirm(fmt.Sprintf("Delete feature %d?", id), featYes); err != nil {
		if errors.Is(err, errNotConfirmed) {
			return nil
		}
		return err
	}

	if err := a.client.DeleteFeature(ctx, id); err != nil {
		a.notifier.Error(api.Message(err, listview.MsgFeatureDeleteFailed))
		return err
	}
	a.notifier.Success(listview.MsgFeatureDeleted)
	return nil
}
