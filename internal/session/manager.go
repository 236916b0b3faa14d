// Package session holds the authentication state of the admin client and
// persists it between runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/togglr/togglr-admin/internal/api"
	"github.com/togglr/togglr-admin/internal/notify"
	"github.com/togglr/togglr-admin/internal/routes"
)

// ErrNotAuthenticated is returned when an operation needs a session
var ErrNotAuthenticated = errors.New("not logged in")

// Notification texts
const (
	MsgLoginSuccess = "Login successful!"
	MsgLoginFailed  = "Login failed. Please check your credentials."
	MsgLoggedOut    = "Logged out successfully"
)

// State is the authentication state
type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is the current token and user
type Session struct {
	Token string
	User  api.User
	Roles RoleSet
}

// Authenticator exchanges credentials for a token
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*api.LoginResponse, error)
}

// Manager owns the session state machine
type Manager struct {
	store    *Store
	auth     Authenticator
	notifier notify.Notifier
	logger   *slog.Logger

	mu        sync.RWMutex
	state     State
	token     string
	user      *api.User
	listeners []func(State)
}

// NewManager creates a manager in the loading state
func NewManager(store *Store, auth Authenticator, notifier notify.Notifier, logger *slog.Logger) *Manager {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    store,
		auth:     auth,
		notifier: notifier,
		logger:   logger,
		state:    StateLoading,
	}
}

// OnChange registers fn to be called after every state transition
func (m *Manager) OnChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Init probes the store once and settles into authenticated or
// unauthenticated
func (m *Manager) Init(ctx context.Context) error {
	return m.Resync(ctx)
}

// Resync re-reads the store, picking up logins and logouts made by other
// processes
func (m *Manager) Resync(ctx context.Context) error {
	rec, err := m.store.Load(ctx)
	if err != nil {
		m.set(StateUnauthenticated, "", nil)
		return fmt.Errorf("load session: %w", err)
	}
	if rec.Authenticated() {
		m.set(StateAuthenticated, rec.Token, rec.User)
	} else {
		m.set(StateUnauthenticated, "", nil)
	}
	return nil
}

func (m *Manager) set(state State, token string, user *api.User) {
	m.mu.Lock()
	changed := m.state != state || m.token != token
	m.state = state
	m.token = token
	m.user = user
	listeners := append([]func(State){}, m.listeners...)
	m.mu.Unlock()

	if changed {
		m.logger.Debug("session state changed", "state", state.String())
		for _, fn := range listeners {
			fn(state)
		}
	}
}

// State returns the current state
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Session returns the current session when authenticated
func (m *Manager) Session() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateAuthenticated || m.user == nil {
		return Session{}, false
	}
	return Session{Token: m.token, User: *m.user, Roles: ParseRoles(m.user.Roles)}, true
}

// Require returns the session or ErrNotAuthenticated
func (m *Manager) Require() (Session, error) {
	s, ok := m.Session()
	if !ok {
		return Session{}, ErrNotAuthenticated
	}
	return s, nil
}

// Token implements api.TokenSource from the in-memory session
func (m *Manager) Token(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

// Login exchanges credentials and returns the landing route
func (m *Manager) Login(ctx context.Context, username, password string) (string, error) {
	resp, err := m.auth.Login(ctx, username, password)
	if err != nil {
		m.logger.Warn("login failed", "username", username, "error", err)
		m.notifier.Error(MsgLoginFailed)
		m.set(StateUnauthenticated, "", nil)
		return "", err
	}

	user := resp.User
	if err := m.store.SaveSession(ctx, resp.Token, &user); err != nil {
		m.logger.Error("failed to persist session", "error", err)
		m.notifier.Error(MsgLoginFailed)
		return "", fmt.Errorf("save session: %w", err)
	}

	m.set(StateAuthenticated, resp.Token, &user)
	m.logger.Info("logged in", "username", user.Username)
	m.notifier.Success(MsgLoginSuccess)
	return routes.Landing, nil
}

// Logout clears the session and returns the login route
func (m *Manager) Logout(ctx context.Context) (string, error) {
	if err := m.store.ClearSession(ctx); err != nil {
		return "", fmt.Errorf("clear session: %w", err)
	}
	m.set(StateUnauthenticated, "", nil)
	m.notifier.Info(MsgLoggedOut)
	return routes.Login, nil
}

// Guard evaluates the route guard for the current state
func (m *Manager) Guard(requireRoot bool) Decision {
	s, _ := m.Session()
	return Guard(m.State(), s, requireRoot)
}

// Theme returns the persisted theme
func (m *Manager) Theme(ctx context.Context) Theme {
	rec, err := m.store.Load(ctx)
	if err != nil {
		return DefaultTheme
	}
	return rec.Theme
}

// SetTheme persists theme
func (m *Manager) SetTheme(ctx context.Context, theme Theme) error {
	return m.store.SetTheme(ctx, theme)
}
