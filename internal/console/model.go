// Package console is the interactive terminal client.
//
// The bubbletea event loop owns all model state. Network calls run as
// commands and report back as messages; the audit viewer and the session
// manager post into the loop through an event channel.
package console

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/togglr/togglr-admin/internal/api"
	"github.com/togglr/togglr-admin/internal/auditview"
	"github.com/togglr/togglr-admin/internal/listview"
	"github.com/togglr/togglr-admin/internal/notify"
	"github.com/togglr/togglr-admin/internal/routes"
	"github.com/togglr/togglr-admin/internal/session"
)

const defaultNotificationTTL = 4 * time.Second

// Backend is the part of the Togglr API used by the console
type Backend interface {
	listview.FeatureLister
	listview.FeatureUpdater
	auditview.Fetcher
	GetFeatureByKey(ctx context.Context, key api.FeatureKey) (*api.Feature, error)
	CreateFeature(ctx context.Context, req *api.FeatureCreate) (*api.Feature, error)
	DeleteFeature(ctx context.Context, id int64) error
	DeleteUser(ctx context.Context, id api.ID) error
	DeleteEnvironment(ctx context.Context, id api.ID) error
	DeleteNamespace(ctx context.Context, id api.ID) error
	ListUsers(ctx context.Context) ([]api.User, error)
	Dashboard(ctx context.Context) (*api.Dashboard, error)
}

// Options configures the console
type Options struct {
	Backend Backend
	Session *session.Manager
	// Notifications is drained into the status line. The session manager
	// should notify through the same channel.
	Notifications    *notify.Channel
	NotificationTTL  time.Duration
	AuditPageSize    int
	UsernameDebounce time.Duration
	// Start is the page opened once the session settles
	Start  string
	Logger *slog.Logger
}

// ─── Messages ────────────────────────────────────────────────────────────────

type eventMsg struct{ msg tea.Msg }
type sessionMsg struct{ state session.State }
type loginDoneMsg struct {
	route string
	err   error
}
type logoutDoneMsg struct {
	route string
	err   error
}
type dashboardMsg struct {
	dashboard *api.Dashboard
	err       error
}
type listLoadedMsg struct{ page routes.Page }
type featureMsg struct {
	feature *api.Feature
	err     error
}
type toggleDoneMsg struct{ err error }
type detailToggleMsg struct {
	feature *api.Feature
	err     error
}
type auditMsg struct{}
type toastMsg notify.Notification
type toastExpiredMsg struct{ at time.Time }
type themeMsg struct {
	theme session.Theme
	err   error
}

// scrollState mirrors the audit viewport offset so the viewer can read and
// restore it from its fetch goroutine
type scrollState struct {
	mu      sync.Mutex
	offset  int
	restore bool
}

func (s *scrollState) ScrollOffset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

func (s *scrollState) SetScrollOffset(offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = offset
	s.restore = true
}

func (s *scrollState) track(offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = offset
}

func (s *scrollState) take() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	restore := s.restore
	s.restore = false
	return s.offset, restore
}

// ─── Model ───────────────────────────────────────────────────────────────────

// Model is the bubbletea model of the console
type Model struct {
	ctx    context.Context
	opts   Options
	logger *slog.Logger
	events chan tea.Msg

	width, height int
	theme         session.Theme
	styles        styles
	spinner       spinner.Model

	sessionState session.State
	pending      string
	path         string
	page         routes.Page
	loading      bool

	// Login form
	loginInputs [2]textinput.Model
	loginFocus  int
	loggingIn   bool

	dashboard *api.Dashboard

	features   *listview.FeaturesPage
	users      *listview.View[api.User]
	envs       *listview.View[api.Environment]
	namespaces *listview.View[api.Namespace]
	cursor     int

	searchInput textinput.Model
	searching   bool
	confirming  bool
	removing    *removal
	creating    *createForm

	// Feature detail
	feature       *api.Feature
	audit         *auditview.Viewer
	scroll        *scrollState
	viewport      viewport.Model
	usernameInput textinput.Model
	editingUser   bool
	valuesOpen    bool

	toast    *notify.Notification
	quitting bool
}

// New creates the console model. ctx bounds every request it issues.
func New(ctx context.Context, opts Options) *Model {
	if opts.NotificationTTL <= 0 {
		opts.NotificationTTL = defaultNotificationTTL
	}
	if opts.Start == "" {
		opts.Start = routes.Landing
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	m := &Model{
		ctx:     ctx,
		opts:    opts,
		logger:  opts.Logger,
		events:  make(chan tea.Msg, 64),
		pending: opts.Start,
		scroll:  &scrollState{},
	}

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot
	m.setTheme(opts.Session.Theme(ctx))

	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 128
	username.Focus()
	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128
	m.loginInputs = [2]textinput.Model{username, password}

	m.searchInput = textinput.New()
	m.searchInput.Placeholder = "search"
	m.usernameInput = textinput.New()
	m.usernameInput.Placeholder = "username filter"
	m.viewport = viewport.New(80, 10)

	opts.Session.OnChange(func(s session.State) {
		m.post(sessionMsg{state: s})
	})
	return m
}

func (m *Model) notifier() notify.Notifier {
	if m.opts.Notifications == nil {
		return notify.Discard
	}
	return m.opts.Notifications
}

// post hands msg to the event loop, dropping it when the buffer is full
func (m *Model) post(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

func (m *Model) waitEvent() tea.Cmd {
	ctx, ch := m.ctx, m.events
	return func() tea.Msg {
		select {
		case msg := <-ch:
			return eventMsg{msg: msg}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Model) waitToast() tea.Cmd {
	if m.opts.Notifications == nil {
		return nil
	}
	ctx, ch := m.ctx, m.opts.Notifications.C
	return func() tea.Msg {
		select {
		case n := <-ch:
			return toastMsg(n)
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Model) setTheme(theme session.Theme) {
	m.theme = theme
	m.styles = newStyles(theme)
	m.spinner.Style = m.styles.title
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	ctx, mgr, logger := m.ctx, m.opts.Session, m.logger
	return tea.Batch(m.waitEvent(), m.waitToast(), func() tea.Msg {
		if err := mgr.Init(ctx); err != nil {
			logger.Warn("failed to restore session", "error", err)
		}
		return sessionMsg{state: mgr.State()}
	})
}

func (m *Model) busy() bool {
	if m.loading || m.loggingIn {
		return true
	}
	return m.audit != nil && m.audit.State().Loading
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(msg.Width-4, 20)
		m.viewport.Height = max(msg.Height-14, 5)
		m.renderAudit()
		return m, nil

	case eventMsg:
		_, cmd := m.Update(msg.msg)
		return m, tea.Batch(m.waitEvent(), cmd)

	case toastMsg:
		n := notify.Notification(msg)
		m.toast = &n
		return m, tea.Batch(m.waitToast(), tea.Tick(m.opts.NotificationTTL, func(time.Time) tea.Msg {
			return toastExpiredMsg{at: n.At}
		}))

	case toastExpiredMsg:
		if m.toast != nil && m.toast.At.Equal(msg.at) {
			m.toast = nil
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionMsg:
		return m, m.sessionChanged(msg.state)

	case loginDoneMsg:
		m.loggingIn = false
		if msg.err != nil {
			m.loginInputs[1].SetValue("")
			return m, nil
		}
		m.resetLogin()
		return m, m.navigate(msg.route)

	case logoutDoneMsg:
		if msg.err != nil {
			m.logger.Error("logout failed", "error", msg.err)
			return m, nil
		}
		return m, m.navigate(msg.route)

	case dashboardMsg:
		if m.page == routes.PageDashboard {
			m.loading = false
			m.dashboard = msg.dashboard
		}
		return m, nil

	case listLoadedMsg:
		if msg.page == m.page {
			m.loading = false
			m.clampCursor()
		}
		return m, nil

	case featureMsg:
		if m.page != routes.PageFeatureDetail {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.feature = nil
			return m, nil
		}
		m.openFeature(msg.feature)
		return m, nil

	case toggleDoneMsg:
		m.clampCursor()
		return m, nil

	case mutationDoneMsg:
		return m, m.mutationDone(msg)

	case detailToggleMsg:
		if msg.err == nil && m.feature != nil && msg.feature.ID == m.feature.ID {
			m.feature = msg.feature
		}
		return m, nil

	case auditMsg:
		m.renderAudit()
		if m.busy() {
			return m, m.spinner.Tick
		}
		return m, nil

	case themeMsg:
		if msg.err != nil {
			m.logger.Error("failed to save theme", "error", msg.err)
			m.notifier().Error("Failed to save theme")
			return m, nil
		}
		m.setTheme(msg.theme)
		m.notifier().Success("Theme changed to " + string(msg.theme))
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

// sessionChanged follows session transitions made here or by another
// process sharing the state file
func (m *Model) sessionChanged(state session.State) tea.Cmd {
	if state == m.sessionState {
		return nil
	}
	m.sessionState = state
	if state == session.StateLoading {
		return nil
	}

	if m.pending != "" {
		path := m.pending
		m.pending = ""
		return m.navigate(path)
	}

	switch state {
	case session.StateUnauthenticated:
		if m.page != routes.PageLogin {
			return m.navigate(routes.Login)
		}
	case session.StateAuthenticated:
		if m.page == routes.PageLogin {
			m.resetLogin()
			return m.navigate(routes.Landing)
		}
	}
	return nil
}

// navigate opens path after running the route guard. Navigating to the
// current path is a no-op.
func (m *Model) navigate(path string) tea.Cmd {
	match := routes.Resolve(path)
	if !match.Public {
		switch m.opts.Session.Guard(match.RequireRoot) {
		case session.Block:
			m.pending = path
			return nil
		case session.RedirectLogin:
			return m.navigate(routes.Login)
		case session.RedirectLanding:
			return m.navigate(routes.Landing)
		}
	}
	if path == m.path {
		return nil
	}

	m.leave()
	m.path = path
	m.page = match.Page
	m.cursor = 0
	m.searching = false
	m.confirming = false
	m.removing = nil
	m.creating = nil
	m.searchInput.SetValue("")
	m.searchInput.Blur()
	return m.load()
}

// leave releases the state of the current page
func (m *Model) leave() {
	if m.audit != nil {
		m.audit.Close()
		m.audit = nil
	}
	m.feature = nil
	m.editingUser = false
	m.valuesOpen = false
	m.loading = false
}

func (m *Model) load() tea.Cmd {
	ctx, b, n := m.ctx, m.opts.Backend, m.notifier()

	switch m.page {
	case routes.PageDashboard:
		m.loading = true
		return tea.Batch(m.spinner.Tick, func() tea.Msg {
			d, err := b.Dashboard(ctx)
			if err != nil {
				n.Error(listview.MsgLoadDashboardFailed)
			}
			return dashboardMsg{dashboard: d, err: err}
		})

	case routes.PageFeatures:
		page := listview.NewFeaturesPage()
		page.Features.SeedFromQuery(routes.Query(m.path))
		m.features = page
		m.loading = true
		return tea.Batch(m.spinner.Tick, func() tea.Msg {
			page.Load(ctx, b, n)
			return listLoadedMsg{page: routes.PageFeatures}
		})

	case routes.PageUsers:
		v := listview.New(listview.UserSchema)
		m.users = v
		return m.loadList(routes.PageUsers, func() {
			listview.Load(ctx, v, b.ListUsers, n, listview.MsgLoadUsersFailed)
		})

	case routes.PageEnvironments:
		v := listview.New(listview.EnvironmentSchema)
		m.envs = v
		return m.loadList(routes.PageEnvironments, func() {
			listview.Load(ctx, v, b.ListEnvironments, n, listview.MsgLoadEnvironmentsFailed)
		})

	case routes.PageNamespaces:
		v := listview.New(listview.NamespaceSchema)
		m.namespaces = v
		return m.loadList(routes.PageNamespaces, func() {
			listview.Load(ctx, v, b.ListNamespaces, n, listview.MsgLoadNamespacesFailed)
		})

	case routes.PageFeatureDetail:
		key, err := routes.ParseFeatureDetail(m.path)
		if err != nil {
			n.Error(listview.MsgLoadFeatureFailed)
			return nil
		}
		m.loading = true
		return tea.Batch(m.spinner.Tick, func() tea.Msg {
			f, err := b.GetFeatureByKey(ctx, key)
			if err != nil {
				n.Error(listview.MsgLoadFeatureFailed)
			}
			return featureMsg{feature: f, err: err}
		})

	case routes.PageSettings:
		for i, t := range session.Themes {
			if t == m.theme {
				m.cursor = i
			}
		}
	}
	return nil
}

func (m *Model) loadList(page routes.Page, fetch func()) tea.Cmd {
	m.loading = true
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		fetch()
		return listLoadedMsg{page: page}
	})
}

func (m *Model) reload() tea.Cmd {
	if m.page == routes.PageFeatureDetail {
		m.leave()
	}
	return m.load()
}

func (m *Model) openFeature(f *api.Feature) {
	m.feature = f
	m.scroll = &scrollState{}
	m.usernameInput.SetValue("")
	m.audit = auditview.New(m.ctx, strconv.FormatInt(f.ID, 10), m.opts.Backend, auditview.Options{
		PageSize:         m.opts.AuditPageSize,
		UsernameDebounce: m.opts.UsernameDebounce,
		Scroller:         m.scroll,
		OnChange:         func() { m.post(auditMsg{}) },
		Logger:           m.logger,
	})
	m.viewport.SetContent("")
	m.viewport.GotoTop()
}

func (m *Model) renderAudit() {
	if m.audit == nil {
		return
	}
	m.viewport.SetContent(m.auditContent(m.audit.State()))
	if offset, ok := m.scroll.take(); ok {
		m.viewport.SetYOffset(offset)
	}
}

func (m *Model) resetLogin() {
	for i := range m.loginInputs {
		m.loginInputs[i].SetValue("")
		m.loginInputs[i].Blur()
	}
	m.loginFocus = 0
	m.loginInputs[0].Focus()
}

// rows returns the number of visible rows of the current list page
func (m *Model) rows() int {
	switch m.page {
	case routes.PageFeatures:
		if m.features != nil {
			return m.features.Features.Len()
		}
	case routes.PageUsers:
		if m.users != nil {
			return m.users.Len()
		}
	case routes.PageEnvironments:
		if m.envs != nil {
			return m.envs.Len()
		}
	case routes.PageNamespaces:
		if m.namespaces != nil {
			return m.namespaces.Len()
		}
	case routes.PageSettings:
		return len(session.Themes)
	}
	return 0
}

func (m *Model) clampCursor() {
	n := m.rows()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
