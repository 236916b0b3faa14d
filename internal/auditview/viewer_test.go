package auditview

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/togglr/togglr-admin/internal/api"
)

// fakeClock fires timers when advanced
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

// mockFetcher implements Fetcher for testing
type mockFetcher struct {
	mu      sync.Mutex
	queries []api.AuditQuery
	pages   int
	err     error
}

func (m *mockFetcher) AuditByFeature(ctx context.Context, featureID string, q api.AuditQuery) (*api.Page[api.AuditLog], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if m.err != nil {
		return nil, m.err
	}
	pages := m.pages
	if pages == 0 {
		pages = 1
	}
	return &api.Page[api.AuditLog]{
		Content:       []api.AuditLog{{ID: "1", Action: api.ActionUpdate}},
		Number:        q.Page,
		TotalPages:    pages,
		TotalElements: pages * 10,
	}, nil
}

func (m *mockFetcher) calls() []api.AuditQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]api.AuditQuery(nil), m.queries...)
}

// fakeScroller records scroll restores
type fakeScroller struct {
	offset   int
	restored []int
}

func (s *fakeScroller) ScrollOffset() int { return s.offset }
func (s *fakeScroller) SetScrollOffset(o int) {
	s.offset = o
	s.restored = append(s.restored, o)
}

func syncRun(f func()) { f() }

func newTestViewer(f Fetcher, clock Clock, opts Options) *Viewer {
	opts.Clock = clock
	opts.Run = syncRun
	return New(context.Background(), "42", f, opts)
}

func TestToggleLoadsOnce(t *testing.T) {
	f := &mockFetcher{}
	v := newTestViewer(f, newFakeClock(), Options{})

	v.Toggle()
	if len(f.calls()) != 1 {
		t.Fatalf("expected 1 fetch after expand, got %d", len(f.calls()))
	}
	s := v.State()
	if !s.Expanded || !s.Loaded || len(s.Logs) != 1 {
		t.Errorf("State() = %+v", s)
	}

	v.Toggle()
	v.Toggle()
	if len(f.calls()) != 1 {
		t.Errorf("re-expanding should not re-fetch, got %d fetches", len(f.calls()))
	}
	if len(v.State().Logs) != 1 {
		t.Error("collapse should keep data")
	}
}

func TestFiltersBeforeFirstLoad(t *testing.T) {
	f := &mockFetcher{}
	clock := newFakeClock()
	v := newTestViewer(f, clock, Options{})

	v.ToggleAction(api.ActionCreate)
	v.SetUsername("ada")
	clock.Advance(time.Second)
	if len(f.calls()) != 0 {
		t.Fatalf("filters before first load should not fetch, got %d", len(f.calls()))
	}

	v.Toggle()
	calls := f.calls()
	if len(calls) != 1 || calls[0].Username != "ada" || calls[0].Actions[0] != api.ActionCreate {
		t.Errorf("first fetch = %+v", calls)
	}
}

func TestUsernameDebounce(t *testing.T) {
	f := &mockFetcher{}
	clock := newFakeClock()
	v := newTestViewer(f, clock, Options{})
	v.Toggle()

	v.SetUsername("a")
	clock.Advance(100 * time.Millisecond)
	v.SetUsername("ad")
	clock.Advance(100 * time.Millisecond)
	v.SetUsername("ada")
	clock.Advance(499 * time.Millisecond)
	if n := len(f.calls()); n != 1 {
		t.Fatalf("fetch before debounce elapsed, got %d calls", n)
	}

	clock.Advance(time.Millisecond)
	calls := f.calls()
	if len(calls) != 2 {
		t.Fatalf("expected exactly one debounced fetch, got %d calls", len(calls)-1)
	}
	if calls[1].Username != "ada" || calls[1].Page != 0 {
		t.Errorf("debounced query = %+v", calls[1])
	}
}

func TestReplacedDebounceCallbackIgnored(t *testing.T) {
	f := &mockFetcher{}
	clock := newFakeClock()
	v := newTestViewer(f, clock, Options{})
	v.Toggle()

	v.SetUsername("a")
	clock.mu.Lock()
	first := clock.timers[len(clock.timers)-1]
	clock.mu.Unlock()
	v.SetUsername("ab")

	// the first timer fired before it could be stopped
	first.f()
	if n := len(f.calls()); n != 1 {
		t.Fatalf("replaced timer fetched, got %d calls", n)
	}

	v.SetUsername("abc")
	clock.Advance(time.Second)
	calls := f.calls()
	if len(calls) != 2 {
		t.Fatalf("expected one debounced fetch, got %d", len(calls)-1)
	}
	if calls[1].Username != "abc" {
		t.Errorf("debounced query = %+v", calls[1])
	}
}

func TestCloseCancelsDebounce(t *testing.T) {
	f := &mockFetcher{}
	clock := newFakeClock()
	v := newTestViewer(f, clock, Options{})
	v.Toggle()

	v.SetUsername("ada")
	clock.mu.Lock()
	pending := clock.timers[len(clock.timers)-1]
	clock.mu.Unlock()
	v.Close()
	pending.f()
	clock.Advance(time.Second)
	if n := len(f.calls()); n != 1 {
		t.Errorf("fetch after Close, got %d calls", n)
	}
}

func TestOtherFiltersFetchImmediately(t *testing.T) {
	f := &mockFetcher{}
	clock := newFakeClock()
	v := newTestViewer(f, clock, Options{})
	v.Toggle()

	v.SetUsername("ad")
	v.SetUserType(api.UserTypeClient)
	calls := f.calls()
	if len(calls) != 2 {
		t.Fatalf("expected immediate fetch, got %d calls", len(calls))
	}
	if calls[1].UserType != api.UserTypeClient || calls[1].Username != "ad" {
		t.Errorf("query = %+v", calls[1])
	}

	// the pending username timer was replaced
	clock.Advance(time.Second)
	if len(f.calls()) != 2 {
		t.Errorf("cancelled timer fired, got %d calls", len(f.calls()))
	}
}

func TestFilterChangeKeepsScroll(t *testing.T) {
	f := &mockFetcher{}
	sc := &fakeScroller{}
	v := newTestViewer(f, newFakeClock(), Options{Scroller: sc})
	v.Toggle()

	sc.offset = 37
	v.ToggleAction(api.ActionDelete)
	if len(sc.restored) != 1 || sc.restored[0] != 37 {
		t.Errorf("restored = %v", sc.restored)
	}
}

func TestPaginationBounds(t *testing.T) {
	f := &mockFetcher{pages: 3}
	v := newTestViewer(f, newFakeClock(), Options{})
	v.Toggle()

	v.Prev()
	if len(f.calls()) != 1 {
		t.Error("Prev at page 0 should not fetch")
	}
	if v.CanPrev() || !v.CanNext() {
		t.Error("bounds wrong at page 0")
	}

	v.Next()
	v.Next()
	if v.State().Page != 2 {
		t.Errorf("Page = %d", v.State().Page)
	}
	v.Next()
	if len(f.calls()) != 3 {
		t.Errorf("Next at last page should not fetch, got %d calls", len(f.calls()))
	}
	if v.CanNext() {
		t.Error("CanNext at last page")
	}

	v.ToggleAction(api.ActionAccess)
	if v.State().Page != 0 {
		t.Error("filter change should reset to page 0")
	}

	v.Next()
	v.Refresh()
	last := f.calls()[len(f.calls())-1]
	if last.Page != 0 {
		t.Errorf("Refresh loaded page %d", last.Page)
	}
}

func TestAccessDeniedExclusive(t *testing.T) {
	f := &mockFetcher{err: &api.APIError{Status: 403, Message: "Forbidden"}}
	v := newTestViewer(f, newFakeClock(), Options{})
	v.Toggle()

	s := v.State()
	if !s.AccessDenied || s.Empty() || len(s.Logs) != 0 {
		t.Errorf("403 state = %+v", s)
	}

	f.mu.Lock()
	f.err = &api.APIError{Status: 500, Message: "boom"}
	f.mu.Unlock()
	v.Refresh()

	s = v.State()
	if s.AccessDenied || !s.Empty() {
		t.Errorf("500 state = %+v", s)
	}
}

func TestStaleResponseDropped(t *testing.T) {
	f := &mockFetcher{}
	var pending []func()
	v := New(context.Background(), "42", f, Options{
		Clock: newFakeClock(),
		Run:   func(fn func()) { pending = append(pending, fn) },
	})

	v.Toggle()
	v.SetUserType(api.UserTypeUser)

	// newest completes first, then the stale one
	pending[1]()
	pending[0]()

	calls := f.calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 fetches, got %d", len(calls))
	}
	s := v.State()
	if s.Loading {
		t.Error("loading should clear after latest response")
	}
	if !s.Loaded || len(s.Logs) != 1 {
		t.Errorf("State() = %+v", s)
	}
}

func TestOnChangeCalled(t *testing.T) {
	var n int
	v := newTestViewer(&mockFetcher{}, newFakeClock(), Options{OnChange: func() { n++ }})
	v.Toggle()
	if n < 2 {
		t.Errorf("OnChange called %d times, want loading and loaded", n)
	}
}

func TestValueTruncation(t *testing.T) {
	v := newTestViewer(&mockFetcher{}, newFakeClock(), Options{})
	long := strings.Repeat("x", 150)
	log := api.AuditLog{ID: "7", OldValues: api.Snapshot(long), NewValues: "short"}

	text, truncated := v.Value(log, SideOld)
	if !truncated || len(text) != MaxValueLength+3 || !strings.HasSuffix(text, "...") {
		t.Errorf("Value() = %q, %v", text, truncated)
	}
	if text, truncated := v.Value(log, SideNew); truncated || text != "short" {
		t.Errorf("short value = %q, %v", text, truncated)
	}

	v.ToggleValue("7", SideOld)
	if text, truncated := v.Value(log, SideOld); truncated || text != long {
		t.Error("expanded value should be full")
	}
	v.ToggleValue("7", SideOld)
	if _, truncated := v.Value(log, SideOld); !truncated {
		t.Error("collapsing should truncate again")
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "Just now"},
		{5 * time.Minute, "5m ago"},
		{59 * time.Minute, "59m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		if got := TimeAgo(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("TimeAgo(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}
