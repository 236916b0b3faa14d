// Package auditview implements the audit timeline shown on the feature
// detail page: lazy first load, filters with debounced re-fetch, pagination
// and per-value expansion.
package auditview

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/togglr/togglr-admin/internal/api"
)

// DefaultUsernameDebounce delays the re-fetch after username typing
const DefaultUsernameDebounce = 500 * time.Millisecond

// Fetcher loads a page of audit logs
type Fetcher interface {
	AuditByFeature(ctx context.Context, featureID string, q api.AuditQuery) (*api.Page[api.AuditLog], error)
}

// Scroller exposes the scroll position of the surface showing the timeline
type Scroller interface {
	ScrollOffset() int
	SetScrollOffset(offset int)
}

// Options configures a Viewer
type Options struct {
	PageSize         int
	UsernameDebounce time.Duration
	Clock            Clock
	Scroller         Scroller
	// OnChange is called after every state change, outside the lock
	OnChange func()
	// Run executes a fetch; the default runs it on a new goroutine
	Run    func(func())
	Logger *slog.Logger
}

// State is a snapshot of the viewer for rendering
type State struct {
	Expanded      bool
	Loading       bool
	Loaded        bool
	AccessDenied  bool
	Logs          []api.AuditLog
	Page          int
	TotalPages    int
	TotalElements int
	Actions       []string
	UserType      string
	Username      string
	DataSource    string
}

// Empty reports whether the generic empty state applies
func (s State) Empty() bool {
	return s.Loaded && !s.Loading && !s.AccessDenied && len(s.Logs) == 0
}

// Viewer is the audit timeline of one feature
type Viewer struct {
	ctx       context.Context
	featureID string
	fetcher   Fetcher
	opts      Options

	mu       sync.Mutex
	expanded bool
	started  bool
	loaded   bool
	loading  bool
	denied   bool
	logs     []api.AuditLog
	page     int
	pages    int
	total    int

	actions    []string
	userType   string
	username   string
	dataSource string

	values map[valueKey]bool
	seq    uint64
	timer  Timer
	// timerGen identifies the current timer; a callback that fired after
	// being replaced or stopped sees a newer generation and does nothing
	timerGen uint64
}

// New creates a collapsed viewer. ctx bounds every fetch.
func New(ctx context.Context, featureID string, fetcher Fetcher, opts Options) *Viewer {
	if opts.PageSize <= 0 {
		opts.PageSize = api.DefaultAuditPageSize
	}
	if opts.UsernameDebounce <= 0 {
		opts.UsernameDebounce = DefaultUsernameDebounce
	}
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	if opts.Run == nil {
		opts.Run = func(f func()) { go f() }
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Viewer{
		ctx:        ctx,
		featureID:  featureID,
		fetcher:    fetcher,
		opts:       opts,
		userType:   api.FilterAll,
		dataSource: api.FilterAll,
		values:     make(map[valueKey]bool),
	}
}

// State returns a snapshot of the viewer
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State{
		Expanded:      v.expanded,
		Loading:       v.loading,
		Loaded:        v.loaded,
		AccessDenied:  v.denied,
		Logs:          append([]api.AuditLog(nil), v.logs...),
		Page:          v.page,
		TotalPages:    v.pages,
		TotalElements: v.total,
		Actions:       append([]string(nil), v.actions...),
		UserType:      v.userType,
		Username:      v.username,
		DataSource:    v.dataSource,
	}
}

// Toggle expands or collapses the timeline. The first expansion loads page
// 0; collapsing keeps the loaded data.
func (v *Viewer) Toggle() {
	v.mu.Lock()
	v.expanded = !v.expanded
	load := v.expanded && !v.started
	v.mu.Unlock()

	if load {
		v.load(0, false)
		return
	}
	v.changed()
}

// ToggleAction adds or removes an action filter
func (v *Viewer) ToggleAction(action string) {
	v.mu.Lock()
	if i := slices.Index(v.actions, action); i >= 0 {
		v.actions = slices.Delete(v.actions, i, i+1)
	} else {
		v.actions = append(v.actions, action)
	}
	v.mu.Unlock()
	v.filterChanged(0)
}

// SetUserType sets the user type filter; "all" clears it
func (v *Viewer) SetUserType(userType string) {
	v.mu.Lock()
	v.userType = orAll(userType)
	v.mu.Unlock()
	v.filterChanged(0)
}

// SetDataSource sets the data source filter; "all" clears it
func (v *Viewer) SetDataSource(dataSource string) {
	v.mu.Lock()
	v.dataSource = orAll(dataSource)
	v.mu.Unlock()
	v.filterChanged(0)
}

// SetUsername sets the username filter. The re-fetch is debounced.
func (v *Viewer) SetUsername(username string) {
	v.mu.Lock()
	v.username = username
	v.mu.Unlock()
	v.filterChanged(v.opts.UsernameDebounce)
}

func orAll(s string) string {
	if s == "" {
		return api.FilterAll
	}
	return s
}

// filterChanged resets to page 0 and schedules a re-fetch after delay.
// Before the first load only the state changes.
func (v *Viewer) filterChanged(delay time.Duration) {
	v.mu.Lock()
	if !v.started {
		v.mu.Unlock()
		v.changed()
		return
	}
	v.page = 0
	v.stopTimer()
	if delay > 0 {
		gen := v.timerGen
		v.timer = v.opts.Clock.AfterFunc(delay, func() {
			v.mu.Lock()
			if v.timerGen != gen {
				v.mu.Unlock()
				return
			}
			v.timer = nil
			v.mu.Unlock()
			v.load(0, true)
		})
		v.mu.Unlock()
		v.changed()
		return
	}
	v.mu.Unlock()
	v.load(0, true)
}

// Prev loads the previous page
func (v *Viewer) Prev() {
	v.mu.Lock()
	if v.page <= 0 {
		v.mu.Unlock()
		return
	}
	page := v.page - 1
	v.mu.Unlock()
	v.load(page, false)
}

// Next loads the next page
func (v *Viewer) Next() {
	v.mu.Lock()
	if v.page >= v.pages-1 {
		v.mu.Unlock()
		return
	}
	page := v.page + 1
	v.mu.Unlock()
	v.load(page, false)
}

// CanPrev reports whether a previous page exists
func (v *Viewer) CanPrev() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page > 0
}

// CanNext reports whether a next page exists
func (v *Viewer) CanNext() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page < v.pages-1
}

// Refresh reloads page 0 with the current filters
func (v *Viewer) Refresh() {
	v.load(0, false)
}

// Close cancels a pending debounced re-fetch
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopTimer()
}

// stopTimer cancels the pending re-fetch; callers hold the lock
func (v *Viewer) stopTimer() {
	v.timerGen++
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

func (v *Viewer) load(page int, keepScroll bool) {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.started = true
	v.loading = true
	v.page = page
	q := api.AuditQuery{
		Page:       page,
		Size:       v.opts.PageSize,
		Actions:    append([]string(nil), v.actions...),
		UserType:   v.userType,
		Username:   v.username,
		DataSource: v.dataSource,
	}
	v.mu.Unlock()

	offset := 0
	if keepScroll && v.opts.Scroller != nil {
		offset = v.opts.Scroller.ScrollOffset()
	}
	v.changed()

	v.opts.Run(func() {
		resp, err := v.fetcher.AuditByFeature(v.ctx, v.featureID, q)
		if !v.apply(seq, resp, err) {
			return
		}
		if keepScroll && v.opts.Scroller != nil {
			v.opts.Scroller.SetScrollOffset(offset)
		}
		v.changed()
	})
}

// apply stores a fetch result unless a newer fetch was issued since
func (v *Viewer) apply(seq uint64, resp *api.Page[api.AuditLog], err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if seq != v.seq {
		v.opts.Logger.Debug("dropping stale audit response", "feature_id", v.featureID, "seq", seq)
		return false
	}

	v.loading = false
	v.loaded = true
	if err != nil {
		v.logs = nil
		v.denied = api.IsForbidden(err)
		if !v.denied {
			v.opts.Logger.Warn("failed to load audit logs", "feature_id", v.featureID, "error", err)
		}
		return true
	}

	v.denied = false
	v.logs = resp.Content
	v.page = resp.Number
	v.pages = resp.TotalPages
	v.total = resp.TotalElements
	return true
}

func (v *Viewer) changed() {
	if v.opts.OnChange != nil {
		v.opts.OnChange()
	}
}
