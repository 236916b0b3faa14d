package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/togglr/togglr-admin/internal/api"
	"github.com/togglr/togglr-admin/internal/listview"
	"github.com/togglr/togglr-admin/internal/routes"
)

// removal is a delete awaiting confirmation
type removal struct {
	label string
	run   tea.Cmd
}

type mutationDoneMsg struct {
	page   routes.Page
	reload bool
	err    error
}

// createForm collects a new feature
type createForm struct {
	inputs [3]textinput.Model
	focus  int
}

func newCreateForm() *createForm {
	f := &createForm{}
	for i, placeholder := range []string{"name", "namespace", "environment"} {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = 128
		f.inputs[i] = in
	}
	f.inputs[0].Focus()
	return f
}

func (f *createForm) request() *api.FeatureCreate {
	return &api.FeatureCreate{
		Name:        strings.TrimSpace(f.inputs[0].Value()),
		Namespace:   strings.TrimSpace(f.inputs[1].Value()),
		Environment: strings.TrimSpace(f.inputs[2].Value()),
	}
}

// requestDelete opens a confirmation for deleting the selected row
func (m *Model) requestDelete() {
	ctx, b, n, page := m.ctx, m.opts.Backend, m.notifier(), m.page
	done := func(err error) tea.Msg { return mutationDoneMsg{page: page, err: err} }

	switch page {
	case routes.PageFeatures:
		s, _ := m.opts.Session.Session()
		f, ok := m.selectedFeature()
		if !ok || !s.Roles.CanEditFeature() {
			return
		}
		v := m.features.Features
		m.removing = &removal{
			label: fmt.Sprintf("feature %q in %s/%s", f.Name, f.Namespace, f.Environment),
			run: func() tea.Msg {
				return done(listview.Delete(ctx, v, listview.FeatureID(f), func(ctx context.Context) error {
					return b.DeleteFeature(ctx, f.ID)
				}, n, listview.FeatureDeleted))
			},
		}

	case routes.PageUsers:
		items := m.users.Items()
		if m.cursor >= len(items) {
			return
		}
		u := items[m.cursor]
		if s, _ := m.opts.Session.Session(); s.User.ID == u.ID {
			n.Error("You cannot delete your own account")
			return
		}
		v := m.users
		m.removing = &removal{
			label: fmt.Sprintf("user %q", u.Username),
			run: func() tea.Msg {
				return done(listview.Delete(ctx, v, u.ID.String(), func(ctx context.Context) error {
					return b.DeleteUser(ctx, u.ID)
				}, n, listview.UserDeleted))
			},
		}

	case routes.PageEnvironments:
		items := m.envs.Items()
		if m.cursor >= len(items) {
			return
		}
		e, v := items[m.cursor], m.envs
		m.removing = &removal{
			label: fmt.Sprintf("environment %q", e.Name),
			run: func() tea.Msg {
				return done(listview.Delete(ctx, v, e.ID.String(), func(ctx context.Context) error {
					return b.DeleteEnvironment(ctx, e.ID)
				}, n, listview.EnvironmentDeleted))
			},
		}

	case routes.PageNamespaces:
		items := m.namespaces.Items()
		if m.cursor >= len(items) {
			return
		}
		ns, v := items[m.cursor], m.namespaces
		m.removing = &removal{
			label: fmt.Sprintf("namespace %q", ns.Name),
			run: func() tea.Msg {
				return done(listview.Delete(ctx, v, ns.ID.String(), func(ctx context.Context) error {
					return b.DeleteNamespace(ctx, ns.ID)
				}, n, listview.NamespaceDeleted))
			},
		}
	}
}

func (m *Model) removeKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y", "enter":
		run := m.removing.run
		m.removing = nil
		return run
	case "n", "N", "esc":
		m.removing = nil
	}
	return nil
}

// startCreate opens the new feature form
func (m *Model) startCreate() tea.Cmd {
	s, _ := m.opts.Session.Session()
	if !s.Roles.CanEditFeature() {
		return nil
	}
	m.creating = newCreateForm()
	return textinput.Blink
}

func (m *Model) createKey(msg tea.KeyMsg) tea.Cmd {
	f := m.creating
	switch msg.Type {
	case tea.KeyEsc:
		m.creating = nil
		return nil
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		f.inputs[f.focus].Blur()
		if msg.Type == tea.KeyShiftTab || msg.Type == tea.KeyUp {
			f.focus = (f.focus + len(f.inputs) - 1) % len(f.inputs)
		} else {
			f.focus = (f.focus + 1) % len(f.inputs)
		}
		return f.inputs[f.focus].Focus()
	case tea.KeyEnter:
		req := f.request()
		if err := api.Validate(req); err != nil {
			m.notifier().Error(err.Error())
			return nil
		}
		m.creating = nil
		ctx, b, n, v := m.ctx, m.opts.Backend, m.notifier(), m.features.Features
		return func() tea.Msg {
			appended, err := listview.Create(ctx, v, func(ctx context.Context) (*api.Feature, error) {
				return b.CreateFeature(ctx, req)
			}, n, listview.FeatureCreated)
			return mutationDoneMsg{page: routes.PageFeatures, reload: err == nil && !appended, err: err}
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (m *Model) mutationDone(msg mutationDoneMsg) tea.Cmd {
	if msg.page != m.page {
		return nil
	}
	if msg.reload {
		return m.reload()
	}
	m.clampCursor()
	return nil
}

func (m *Model) removalView() string {
	if m.removing == nil {
		return ""
	}
	return "\n" + m.styles.box.Render(fmt.Sprintf("Delete %s? This cannot be undone. [y/n]", m.removing.label))
}

func (m *Model) createView() string {
	if m.creating == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.header.Render("New feature") + "\n")
	for _, in := range m.creating.inputs {
		b.WriteString(in.View() + "\n")
	}
	return "\n" + m.styles.box.Render(strings.TrimRight(b.String(), "\n"))
}
