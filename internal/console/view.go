package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/togglr/togglr-admin/internal/api"
	"github.com/togglr/togglr-admin/internal/auditview"
	"github.com/togglr/togglr-admin/internal/listview"
	"github.com/togglr/togglr-admin/internal/notify"
	"github.com/togglr/togglr-admin/internal/routes"
	"github.com/togglr/togglr-admin/internal/session"
)

// View implements tea.Model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch {
	case m.sessionState == session.StateLoading:
		body = m.spinner.View() + " Loading..."
	case m.page == routes.PageLogin:
		body = m.loginView()
	default:
		body = m.pageView()
	}

	parts := []string{m.headerView(), body, m.footerView()}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) headerView() string {
	title := m.styles.title.Render("Togglr Admin")
	s, ok := m.opts.Session.Session()
	if !ok {
		return title + "\n"
	}

	var items []string
	for _, t := range tabs {
		if t.root && !s.Roles.IsRoot() {
			continue
		}
		label := t.key + " " + t.label
		if routes.Resolve(t.path).Page == m.page ||
			(m.page == routes.PageFeatureDetail && t.path == routes.Features) {
			items = append(items, m.styles.tabOn.Render(label))
		} else {
			items = append(items, m.styles.tab.Render(label))
		}
	}
	user := m.styles.muted.Render(s.User.DisplayName() + " (" + s.Roles.String() + ")")
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", strings.Join(items, ""), "  ", user) + "\n"
}

func (m *Model) footerView() string {
	if m.toast != nil {
		return "\n" + m.toastView(*m.toast)
	}
	return "\n" + m.styles.help.Render(m.help())
}

func (m *Model) toastView(n notify.Notification) string {
	switch n.Level {
	case notify.LevelSuccess:
		return m.styles.success.Render("✓ " + n.Message)
	case notify.LevelError:
		return m.styles.danger.Render("✗ " + n.Message)
	default:
		return m.styles.info.Render("i " + n.Message)
	}
}

func (m *Model) help() string {
	switch {
	case m.page == routes.PageLogin:
		return "tab switch field • enter sign in • esc quit"
	case m.searching:
		return "type to filter • enter/esc done"
	case m.editingUser:
		return "type a username • enter/esc done"
	case m.confirming, m.removing != nil:
		return "y confirm • n cancel"
	case m.creating != nil:
		return "tab next field • enter create • esc cancel"
	}
	common := "1-6 pages • x logout • q quit"
	switch m.page {
	case routes.PageDashboard:
		return "enter features • a active • i inactive • r reload • " + common
	case routes.PageFeatures:
		return "↑/↓ move • enter open • t toggle • a add • d delete • / search • e enabled • n namespace • v environment • s sort • o order • c clear • " + common
	case routes.PageFeatureDetail:
		if m.audit != nil && m.audit.State().Expanded {
			return "a hide audit • [/] page • C/U/D/X actions • T user type • S source • / username • v values • r refresh • esc back"
		}
		return "a audit log • t toggle • r reload • esc back • " + common
	case routes.PageEnvironments, routes.PageNamespaces:
		return "↑/↓ move • enter features • d delete • / search • r reload • " + common
	case routes.PageSettings:
		return "↑/↓ choose • enter apply • " + common
	}
	return "d delete • / search • r reload • " + common
}

func (m *Model) pageView() string {
	if m.loading {
		return m.spinner.View() + " Loading..."
	}
	switch m.page {
	case routes.PageDashboard:
		return m.dashboardView()
	case routes.PageFeatures:
		return m.featuresView()
	case routes.PageFeatureDetail:
		return m.detailView()
	case routes.PageUsers:
		return m.usersView()
	case routes.PageEnvironments:
		return m.envsView()
	case routes.PageNamespaces:
		return m.namespacesView()
	case routes.PageSettings:
		return m.settingsView()
	}
	return m.styles.muted.Render("Page not found")
}

func (m *Model) dashboardView() string {
	d := m.dashboard
	if d == nil {
		return m.styles.muted.Render("No statistics available")
	}
	card := func(label string, value int) string {
		return m.styles.box.Render(m.styles.muted.Render(label) + "\n" + m.styles.header.Render(strconv.Itoa(value)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Features", d.TotalFeatures),
		card("Active", d.ActiveFeatures),
		card("Inactive", d.InactiveFeatures()),
		card("Environments", d.TotalEnvironments),
		card("Namespaces", d.TotalNamespaces),
		card("Users", d.TotalUsers),
	)
}

// table renders rows with padded columns, highlighting the cursor row
func (m *Model) table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	line := func(cells []string) string {
		padded := make([]string, len(cells))
		for i, c := range cells {
			padded[i] = c + strings.Repeat(" ", widths[i]-lipgloss.Width(c))
		}
		return strings.Join(padded, "  ")
	}

	var b strings.Builder
	b.WriteString(m.styles.header.Render("  "+line(header)) + "\n")
	for i, row := range rows {
		if i == m.cursor {
			b.WriteString(m.styles.selected.Render("> "+line(row)) + "\n")
		} else {
			b.WriteString(m.styles.text.Render("  "+line(row)) + "\n")
		}
	}
	return b.String()
}

func (m *Model) searchLine(search string) string {
	if m.searching {
		return m.searchInput.View() + "\n"
	}
	if search != "" {
		return m.styles.muted.Render("search: "+search) + "\n"
	}
	return ""
}

func (m *Model) featuresView() string {
	if m.features == nil {
		return ""
	}
	v := m.features.Features
	sortKey, order := v.Sort()
	filters := fmt.Sprintf("namespace: %s  environment: %s  enabled: %s  sort: %s %s",
		v.Filter(listview.FieldNamespace), v.Filter(listview.FieldEnvironment),
		v.Filter(listview.FieldEnabled), sortKey, order)

	var b strings.Builder
	b.WriteString(m.styles.muted.Render(filters) + "\n")
	b.WriteString(m.searchLine(v.Search()))

	items := v.Items()
	if len(items) == 0 {
		b.WriteString(m.styles.muted.Render("No features found"))
		b.WriteString(m.createView())
		return b.String()
	}
	rows := make([][]string, len(items))
	for i, f := range items {
		rows[i] = []string{f.Name, f.Namespace, f.Environment, m.enabledLabel(f.Enabled), f.Description()}
	}
	b.WriteString(m.table([]string{"NAME", "NAMESPACE", "ENVIRONMENT", "STATUS", "DESCRIPTION"}, rows))

	if m.confirming {
		if f, ok := v.Pending(); ok {
			b.WriteString("\n" + m.confirmLine(f))
		}
	}
	b.WriteString(m.removalView())
	b.WriteString(m.createView())
	return b.String()
}

func (m *Model) enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func (m *Model) confirmLine(f api.Feature) string {
	verb := "Enable"
	if f.Enabled {
		verb = "Disable"
	}
	return m.styles.box.Render(fmt.Sprintf("%s feature %q in %s/%s? [y/n]", verb, f.Name, f.Namespace, f.Environment))
}

func (m *Model) detailView() string {
	f := m.feature
	if f == nil {
		return m.styles.muted.Render("Feature not found")
	}

	status := m.styles.danger.Render("disabled")
	if f.Enabled {
		status = m.styles.success.Render("enabled")
	}
	metadata := string(f.Metadata)
	if metadata == "" {
		metadata = "{}"
	}

	var b strings.Builder
	b.WriteString(m.styles.header.Render(f.Name) + "  " + status + "\n")
	fmt.Fprintf(&b, "namespace:   %s\nenvironment: %s\n", f.Namespace, f.Environment)
	if desc := f.Description(); desc != "" {
		fmt.Fprintf(&b, "description: %s\n", desc)
	}
	fmt.Fprintf(&b, "metadata:    %s\n", metadata)
	if !f.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "created:     %s\n", f.CreatedAt.Format("2006-01-02 15:04"))
	}
	if !f.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "updated:     %s\n", f.UpdatedAt.Format("2006-01-02 15:04"))
	}
	if m.confirming {
		b.WriteString("\n" + m.confirmLine(*f) + "\n")
	}

	if m.audit == nil {
		return b.String()
	}
	st := m.audit.State()
	b.WriteString("\n")
	if !st.Expanded {
		b.WriteString(m.styles.muted.Render("▸ Audit log (a to expand)"))
		return b.String()
	}
	b.WriteString(m.styles.header.Render("▾ Audit log") + "\n")
	b.WriteString(m.auditFilters(st) + "\n")
	b.WriteString(m.viewport.View() + "\n")
	b.WriteString(m.auditPager(st))
	return b.String()
}

func (m *Model) auditFilters(st auditview.State) string {
	actions := "all"
	if len(st.Actions) > 0 {
		actions = strings.Join(st.Actions, ",")
	}
	username := st.Username
	if m.editingUser {
		username = m.usernameInput.View()
	} else if username == "" {
		username = "any"
	}
	return m.styles.muted.Render(fmt.Sprintf("actions: %s  user type: %s  source: %s  username: ", actions, st.UserType, st.DataSource)) + username
}

func (m *Model) auditPager(st auditview.State) string {
	if st.TotalPages <= 1 {
		return ""
	}
	return m.styles.muted.Render(fmt.Sprintf("page %d of %d (%d entries)", st.Page+1, st.TotalPages, st.TotalElements))
}

// auditContent renders the timeline into the viewport
func (m *Model) auditContent(st auditview.State) string {
	switch {
	case st.Loading:
		return m.spinner.View() + " Loading audit log..."
	case st.AccessDenied:
		return m.styles.danger.Render("You don't have permission to view the audit log of this feature.")
	case st.Empty():
		return m.styles.muted.Render("No audit entries found")
	case !st.Loaded:
		return ""
	}

	var b strings.Builder
	for _, log := range st.Logs {
		fmt.Fprintf(&b, "%s  %s by %s  %s\n",
			m.styles.header.Render(log.Action),
			log.EntityType,
			log.Username,
			m.styles.muted.Render(m.audit.Ago(log.CreatedAt.Time)))
		meta := []string{}
		if log.UserType != "" {
			meta = append(meta, log.UserType)
		}
		if log.DataSource != "" {
			meta = append(meta, log.DataSource)
		}
		if log.IPAddress != "" {
			meta = append(meta, log.IPAddress)
		}
		if log.TraceID != "" {
			meta = append(meta, "trace "+log.TraceID)
		}
		if len(meta) > 0 {
			b.WriteString("  " + m.styles.muted.Render(strings.Join(meta, " · ")) + "\n")
		}
		for _, side := range []auditview.Side{auditview.SideOld, auditview.SideNew} {
			text, truncated := m.audit.Value(log, side)
			if text == "" {
				continue
			}
			if truncated {
				text += m.styles.muted.Render(" (v for more)")
			}
			fmt.Fprintf(&b, "  %s: %s\n", side, text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) usersView() string {
	if m.users == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.searchLine(m.users.Search()))
	items := m.users.Items()
	if len(items) == 0 {
		b.WriteString(m.styles.muted.Render("No users found"))
		return b.String()
	}
	rows := make([][]string, len(items))
	for i, u := range items {
		rows[i] = []string{u.Name, u.Username, u.Email, u.Roles}
	}
	b.WriteString(m.table([]string{"NAME", "USERNAME", "EMAIL", "ROLES"}, rows))
	b.WriteString(m.removalView())
	return b.String()
}

func (m *Model) countsRows(name string, total, active, inactive int) []string {
	return []string{name, strconv.Itoa(total), strconv.Itoa(active), strconv.Itoa(inactive)}
}

func (m *Model) envsView() string {
	if m.envs == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.searchLine(m.envs.Search()))
	items := m.envs.Items()
	if len(items) == 0 {
		b.WriteString(m.styles.muted.Render("No environments found"))
		return b.String()
	}
	rows := make([][]string, len(items))
	for i, e := range items {
		rows[i] = m.countsRows(e.Name, e.TotalFeatures, e.ActiveFeatures, e.InactiveFeatures)
	}
	b.WriteString(m.table([]string{"NAME", "FEATURES", "ACTIVE", "INACTIVE"}, rows))
	b.WriteString(m.removalView())
	return b.String()
}

func (m *Model) namespacesView() string {
	if m.namespaces == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.searchLine(m.namespaces.Search()))
	items := m.namespaces.Items()
	if len(items) == 0 {
		b.WriteString(m.styles.muted.Render("No namespaces found"))
		return b.String()
	}
	rows := make([][]string, len(items))
	for i, n := range items {
		rows[i] = m.countsRows(n.Name, n.TotalFeatures, n.ActiveFeatures, n.InactiveFeatures)
	}
	b.WriteString(m.table([]string{"NAME", "FEATURES", "ACTIVE", "INACTIVE"}, rows))
	b.WriteString(m.removalView())
	return b.String()
}

func (m *Model) settingsView() string {
	var b strings.Builder
	b.WriteString(m.styles.header.Render("Theme") + "\n")
	for i, t := range session.Themes {
		marker := "  "
		if t == m.theme {
			marker = "● "
		}
		line := marker + string(t)
		if i == m.cursor {
			b.WriteString(m.styles.selected.Render("> "+line) + "\n")
		} else {
			b.WriteString(m.styles.text.Render("  "+line) + "\n")
		}
	}
	return b.String()
}

func (m *Model) loginView() string {
	var b strings.Builder
	b.WriteString(m.styles.header.Render("Sign in") + "\n\n")
	b.WriteString(m.loginInputs[0].View() + "\n")
	b.WriteString(m.loginInputs[1].View() + "\n\n")
	if m.loggingIn {
		b.WriteString(m.spinner.View() + " Signing in...")
	}
	return m.styles.box.Render(b.String())
}
