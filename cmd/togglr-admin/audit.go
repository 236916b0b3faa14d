package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/togglr/togglr-admin/internal/api"
	"github.com/togglr/togglr-admin/internal/auditview"
	"github.com/togglr/togglr-admin/internal/listview"
)

var auditCmd = &cobra.Command{
	Use:   "audit <feature>",
	Short: "Show the audit log of a feature",
	Long: `Show the audit log of a feature, newest first. The feature is given by
id, by name|namespace|environment or by its /features/... address.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(appOptions{}, runAudit),
}

var (
	auditPage       int
	auditSize       int
	auditActions    []string
	auditUserType   string
	auditUsername   string
	auditDataSource string
	auditWidth      int
)

func init() {
	auditCmd.Flags().IntVar(&auditPage, "page", 1, "page number, starting at 1")
	auditCmd.Flags().IntVar(&auditSize, "size", 0, "entries per page (default from config)")
	auditCmd.Flags().StringSliceVar(&auditActions, "action", nil, "only these actions (CREATE, UPDATE, DELETE, ACCESS)")
	auditCmd.Flags().StringVar(&auditUserType, "user-type", api.FilterAll, "all, USER or CLIENT")
	auditCmd.Flags().StringVar(&auditUsername, "username", "", "only entries by this user")
	auditCmd.Flags().StringVar(&auditDataSource, "data-source", api.FilterAll, "all, CACHE or DATABASE")
	auditCmd.Flags().IntVar(&auditWidth, "width", 80, "truncate values longer than this; 0 shows them in full")

	rootCmd.AddCommand(auditCmd)
}

func auditQuery(pageSize int) (api.AuditQuery, error) {
	if auditPage < 1 {
		return api.AuditQuery{}, fmt.Errorf("--page must be at least 1")
	}
	size := auditSize
	if size <= 0 {
		size = pageSize
	}

	var actions []string
	for _, action := range auditActions {
		action = strings.ToUpper(strings.TrimSpace(action))
		if !isAuditAction(action) {
			return api.AuditQuery{}, fmt.Errorf("unknown action %q", action)
		}
		actions = append(actions, action)
	}

	userType, err := auditChoice(auditUserType, api.UserTypeUser, api.UserTypeClient)
	if err != nil {
		return api.AuditQuery{}, fmt.Errorf("unknown user type %q", auditUserType)
	}
	dataSource, err := auditChoice(auditDataSource, api.DataSourceCache, api.DataSourceDatabase)
	if err != nil {
		return api.AuditQuery{}, fmt.Errorf("unknown data source %q", auditDataSource)
	}

	return api.AuditQuery{
		Page:       auditPage - 1,
		Size:       size,
		Actions:    actions,
		UserType:   userType,
		Username:   auditUsername,
		DataSource: dataSource,
	}, nil
}

// auditChoice matches v case-insensitively against "all" and choices
func auditChoice(v string, choices ...string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, api.FilterAll) {
		return api.FilterAll, nil
	}
	for _, c := range choices {
		if strings.EqualFold(v, c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown value %q", v)
}

func isAuditAction(action string) bool {
	for _, a := range api.AuditActions {
		if a == action {
			return true
		}
	}
	return false
}

// resolveFeatureID accepts a numeric id as is and looks anything else up
// by key
func resolveFeatureID(ctx context.Context, a *app, arg string) (string, error) {
	if _, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return arg, nil
	}
	key, err := parseFeatureKey(arg)
	if err != nil {
		return "", err
	}
	f, err := a.client.GetFeatureByKey(ctx, key)
	if err != nil {
		if api.IsNotFound(err) {
			return "", fmt.Errorf("feature %s not found", key)
		}
		a.notifier.Error(listview.MsgLoadFeatureFailed)
		return "", err
	}
	return listview.FeatureID(*f), nil
}

func runAudit(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if _, err := a.requireSession(false); err != nil {
		return err
	}
	q, err := auditQuery(a.cfg.Audit.PageSize)
	if err != nil {
		return err
	}
	id, err := resolveFeatureID(ctx, a, args[0])
	if err != nil {
		return err
	}

	page, err := a.client.AuditByFeature(ctx, id, q)
	if err != nil {
		if api.IsForbidden(err) {
			return fmt.Errorf("you don't have permission to view the audit log of this feature")
		}
		return err
	}

	out := cmd.OutOrStdout()
	if len(page.Content) == 0 {
		fmt.Fprintln(out, "No audit entries found")
		return nil
	}

	now := time.Now()
	w := newTable(out)
	fmt.Fprintln(w, "WHEN\tACTION\tENTITY\tUSER\tTYPE\tSOURCE\tIP")
	fmt.Fprintln(w, "----\t------\t------\t----\t----\t------\t--")
	for _, log := range page.Content {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			auditview.TimeAgo(log.CreatedAt.Time, now), log.Action, orDash(log.EntityType),
			orDash(log.Username), orDash(log.UserType), orDash(log.DataSource), orDash(log.IPAddress))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, log := range page.Content {
		if log.OldValues == "" && log.NewValues == "" {
			continue
		}
		fmt.Fprintf(out, "\n%s %s by %s (%s)\n", log.Action, orDash(log.EntityName), orDash(log.Username), formatTime(log.CreatedAt.Time))
		if log.OldValues != "" {
			fmt.Fprintf(out, "  old: %s\n", auditValue(string(log.OldValues)))
		}
		if log.NewValues != "" {
			fmt.Fprintf(out, "  new: %s\n", auditValue(string(log.NewValues)))
		}
	}

	fmt.Fprintf(out, "\nPage %d of %d (%d entries)\n", page.Number+1, max(page.TotalPages, 1), page.TotalElements)
	return nil
}

func auditValue(s string) string {
	if auditWidth <= 0 {
		return s
	}
	v, _ := auditview.Truncate(s, auditWidth)
	return v
}
