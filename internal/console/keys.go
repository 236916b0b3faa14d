package console

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/togglr/togglr-admin/internal/api"
	"github.com/togglr/togglr-admin/internal/auditview"
	"github.com/togglr/togglr-admin/internal/listview"
	"github.com/togglr/togglr-admin/internal/routes"
	"github.com/togglr/togglr-admin/internal/session"
)

var tabs = []struct {
	key   string
	label string
	path  string
	root  bool
}{
	{"1", "Dashboard", routes.Dashboard, false},
	{"2", "Features", routes.Features, false},
	{"3", "Users", routes.Users, true},
	{"4", "Environments", routes.Environments, false},
	{"5", "Namespaces", routes.Namespaces, false},
	{"6", "Settings", routes.Settings, false},
}

var featureSorts = []string{
	listview.FieldName,
	listview.FieldNamespace,
	listview.FieldEnvironment,
	listview.FieldEnabled,
	listview.FieldCreatedAt,
}

var (
	userTypes   = []string{api.FilterAll, api.UserTypeUser, api.UserTypeClient}
	dataSources = []string{api.FilterAll, api.DataSourceCache, api.DataSourceDatabase}
)

// next returns the value following cur in values, wrapping around
func next(values []string, cur string) string {
	for i, v := range values {
		if v == cur {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return tea.Quit
	}

	switch {
	case m.page == routes.PageLogin:
		return m.loginKey(msg)
	case m.searching:
		return m.searchKey(msg)
	case m.editingUser:
		return m.usernameKey(msg)
	case m.confirming:
		return m.confirmKey(msg)
	case m.removing != nil:
		return m.removeKey(msg)
	case m.creating != nil:
		return m.createKey(msg)
	}

	key := msg.String()
	switch key {
	case "q":
		m.quitting = true
		return tea.Quit
	case "x":
		ctx, mgr := m.ctx, m.opts.Session
		return func() tea.Msg {
			route, err := mgr.Logout(ctx)
			return logoutDoneMsg{route: route, err: err}
		}
	}
	for _, t := range tabs {
		if key == t.key {
			return m.navigate(t.path)
		}
	}

	switch m.page {
	case routes.PageDashboard:
		return m.dashboardKey(key)
	case routes.PageFeatures:
		return m.featuresKey(key)
	case routes.PageFeatureDetail:
		return m.detailKey(key)
	case routes.PageUsers, routes.PageEnvironments, routes.PageNamespaces:
		return m.listKey(key)
	case routes.PageSettings:
		return m.settingsKey(key)
	}
	return nil
}

func (m *Model) loginKey(msg tea.KeyMsg) tea.Cmd {
	if m.loggingIn {
		return nil
	}
	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		m.loginInputs[m.loginFocus].Blur()
		m.loginFocus = (m.loginFocus + 1) % len(m.loginInputs)
		return m.loginInputs[m.loginFocus].Focus()
	case tea.KeyEnter:
		username := strings.TrimSpace(m.loginInputs[0].Value())
		password := m.loginInputs[1].Value()
		if username == "" || password == "" {
			m.loginInputs[m.loginFocus].Blur()
			m.loginFocus = 0
			if username != "" {
				m.loginFocus = 1
			}
			return m.loginInputs[m.loginFocus].Focus()
		}
		m.loggingIn = true
		ctx, mgr := m.ctx, m.opts.Session
		return tea.Batch(m.spinner.Tick, func() tea.Msg {
			route, err := mgr.Login(ctx, username, password)
			return loginDoneMsg{route: route, err: err}
		})
	case tea.KeyEsc:
		m.quitting = true
		return tea.Quit
	}

	var cmd tea.Cmd
	m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(msg)
	return cmd
}

func (m *Model) dashboardKey(key string) tea.Cmd {
	active, inactive := true, false
	switch key {
	case "r":
		return m.reload()
	case "enter", "f":
		return m.navigateFresh(routes.Features)
	case "a":
		return m.navigateFresh(routes.FeaturesFiltered("", "", &active))
	case "i":
		return m.navigateFresh(routes.FeaturesFiltered("", "", &inactive))
	}
	return nil
}

// navigateFresh navigates to path and reloads it when it is already open
func (m *Model) navigateFresh(path string) tea.Cmd {
	if path == m.path {
		return m.reload()
	}
	return m.navigate(path)
}

func (m *Model) moveCursor(key string) bool {
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return true
	case "down", "j":
		if m.cursor < m.rows()-1 {
			m.cursor++
		}
		return true
	case "home", "g":
		m.cursor = 0
		return true
	case "end", "G":
		m.cursor = max(m.rows()-1, 0)
		return true
	}
	return false
}

func (m *Model) startSearch(current string) tea.Cmd {
	m.searching = true
	m.searchInput.SetValue(current)
	m.searchInput.CursorEnd()
	return m.searchInput.Focus()
}

func (m *Model) featuresKey(key string) tea.Cmd {
	if m.features == nil || m.moveCursor(key) {
		return nil
	}
	v := m.features.Features

	switch key {
	case "r":
		return m.reload()
	case "/":
		return m.startSearch(v.Search())
	case "c":
		v.ClearFilters()
	case "e":
		_ = v.SetFilter(listview.FieldEnabled, next([]string{listview.FilterAll, "true", "false"}, v.Filter(listview.FieldEnabled)))
	case "n":
		_ = v.SetFilter(listview.FieldNamespace, next(names(m.features.Namespaces.Items(), func(n api.Namespace) string { return n.Name }), v.Filter(listview.FieldNamespace)))
	case "v":
		_ = v.SetFilter(listview.FieldEnvironment, next(names(m.features.Environments.Items(), func(e api.Environment) string { return e.Name }), v.Filter(listview.FieldEnvironment)))
	case "s":
		field, _ := v.Sort()
		v.SetSort(next(featureSorts, field), listview.Asc)
	case "o":
		field, _ := v.Sort()
		v.ToggleSort(field)
	case "t", " ":
		if f, ok := m.selectedFeature(); ok && v.RequestToggle(listview.FeatureID(f)) {
			m.confirming = true
		}
	case "a":
		return m.startCreate()
	case "d":
		m.requestDelete()
	case "enter":
		if f, ok := m.selectedFeature(); ok {
			return m.navigate(routes.FeatureDetail(f.Key()))
		}
	}
	m.clampCursor()
	return nil
}

// names returns "all" followed by the name of every item
func names[T any](items []T, name func(T) string) []string {
	out := []string{listview.FilterAll}
	for _, it := range items {
		out = append(out, name(it))
	}
	return out
}

func (m *Model) selectedFeature() (api.Feature, bool) {
	items := m.features.Features.Items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return api.Feature{}, false
	}
	return items[m.cursor], true
}

func (m *Model) confirmKey(msg tea.KeyMsg) tea.Cmd {
	ctx, b, n := m.ctx, m.opts.Backend, m.notifier()

	switch msg.String() {
	case "y", "Y", "enter":
		m.confirming = false
		if m.page == routes.PageFeatureDetail && m.feature != nil {
			f := *m.feature
			return func() tea.Msg {
				updated, err := listview.FlipEnabled(b)(ctx, f)
				if err != nil {
					n.Error(listview.MsgToggleFailed)
					return detailToggleMsg{err: err}
				}
				if updated.Enabled {
					n.Success(listview.MsgFeatureEnabled)
				} else {
					n.Success(listview.MsgFeatureDisabled)
				}
				return detailToggleMsg{feature: &updated}
			}
		}
		if m.features != nil {
			v := m.features.Features
			return func() tea.Msg {
				return toggleDoneMsg{err: listview.ConfirmFeatureToggle(ctx, v, b, n)}
			}
		}
	case "n", "N", "esc":
		m.confirming = false
		if m.features != nil {
			m.features.Features.CancelToggle()
		}
	}
	return nil
}

func (m *Model) searchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.searching = false
		m.searchInput.Blur()
		return nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	text := m.searchInput.Value()
	switch m.page {
	case routes.PageFeatures:
		if m.features != nil {
			m.features.Features.SetSearch(text)
		}
	case routes.PageUsers:
		if m.users != nil {
			m.users.SetSearch(text)
		}
	case routes.PageEnvironments:
		if m.envs != nil {
			m.envs.SetSearch(text)
		}
	case routes.PageNamespaces:
		if m.namespaces != nil {
			m.namespaces.SetSearch(text)
		}
	}
	m.clampCursor()
	return cmd
}

func (m *Model) listKey(key string) tea.Cmd {
	if m.moveCursor(key) {
		return nil
	}
	switch key {
	case "r":
		return m.reload()
	case "d":
		m.requestDelete()
	case "/":
		switch m.page {
		case routes.PageUsers:
			return m.startSearch(m.users.Search())
		case routes.PageEnvironments:
			return m.startSearch(m.envs.Search())
		case routes.PageNamespaces:
			return m.startSearch(m.namespaces.Search())
		}
	case "enter":
		switch m.page {
		case routes.PageEnvironments:
			if items := m.envs.Items(); m.cursor < len(items) {
				return m.navigate(routes.FeaturesFiltered("", items[m.cursor].Name, nil))
			}
		case routes.PageNamespaces:
			if items := m.namespaces.Items(); m.cursor < len(items) {
				return m.navigate(routes.FeaturesFiltered(items[m.cursor].Name, "", nil))
			}
		}
	}
	return nil
}

func (m *Model) detailKey(key string) tea.Cmd {
	switch key {
	case "esc", "backspace":
		return m.navigate(routes.Features)
	case "r":
		if m.audit != nil && m.audit.State().Expanded {
			m.audit.Refresh()
			return nil
		}
		return m.reload()
	}
	if m.feature == nil || m.audit == nil {
		return nil
	}

	switch key {
	case "t":
		s, _ := m.opts.Session.Session()
		if s.Roles.CanEditFeature() {
			m.confirming = true
		}
		return nil
	case "a":
		m.audit.Toggle()
		return nil
	}

	if !m.audit.State().Expanded {
		return nil
	}
	st := m.audit.State()
	switch key {
	case "[", "h", "left":
		m.audit.Prev()
	case "]", "l", "right":
		m.audit.Next()
	case "C":
		m.audit.ToggleAction(api.ActionCreate)
	case "U":
		m.audit.ToggleAction(api.ActionUpdate)
	case "D":
		m.audit.ToggleAction(api.ActionDelete)
	case "X":
		m.audit.ToggleAction(api.ActionAccess)
	case "T":
		m.audit.SetUserType(next(userTypes, st.UserType))
	case "S":
		m.audit.SetDataSource(next(dataSources, st.DataSource))
	case "/":
		m.editingUser = true
		m.usernameInput.SetValue(st.Username)
		m.usernameInput.CursorEnd()
		return m.usernameInput.Focus()
	case "v":
		m.valuesOpen = !m.valuesOpen
		for _, log := range st.Logs {
			for _, side := range []auditview.Side{auditview.SideOld, auditview.SideNew} {
				if _, truncated := m.audit.Value(log, side); truncated == m.valuesOpen {
					m.audit.ToggleValue(log.ID, side)
				}
			}
		}
	case "up", "k":
		m.viewport.SetYOffset(m.viewport.YOffset - 1)
		m.scroll.track(m.viewport.YOffset)
	case "down", "j":
		m.viewport.SetYOffset(m.viewport.YOffset + 1)
		m.scroll.track(m.viewport.YOffset)
	case "pgup":
		m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height)
		m.scroll.track(m.viewport.YOffset)
	case "pgdown":
		m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height)
		m.scroll.track(m.viewport.YOffset)
	}
	return nil
}

func (m *Model) usernameKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.editingUser = false
		m.usernameInput.Blur()
		return nil
	}

	before := m.usernameInput.Value()
	var cmd tea.Cmd
	m.usernameInput, cmd = m.usernameInput.Update(msg)
	if value := m.usernameInput.Value(); value != before && m.audit != nil {
		m.audit.SetUsername(value)
	}
	return cmd
}

func (m *Model) settingsKey(key string) tea.Cmd {
	if m.moveCursor(key) {
		return nil
	}
	if key != "enter" {
		return nil
	}
	theme := session.Themes[m.cursor]
	ctx, mgr := m.ctx, m.opts.Session
	return func() tea.Msg {
		return themeMsg{theme: theme, err: mgr.SetTheme(ctx, theme)}
	}
}
