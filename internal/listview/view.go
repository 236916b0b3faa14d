// Package listview implements the filter, search and sort state shared by the
// collection pages.
package listview

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FilterAll is the filter value meaning "no filter"
const FilterAll = "all"

// Order is a sort direction
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Kind says how a field is compared
type Kind int

const (
	KindText Kind = iota
	KindBool
	KindTime
)

// Field projects an entity onto a filterable and sortable value
type Field[T any] struct {
	Kind   Kind
	textFn func(T) string
	boolFn func(T) bool
	timeFn func(T) time.Time
}

// Text returns a text field, compared case-insensitively
func Text[T any](fn func(T) string) Field[T] {
	return Field[T]{Kind: KindText, textFn: fn}
}

// Bool returns a boolean field; true sorts after false
func Bool[T any](fn func(T) bool) Field[T] {
	return Field[T]{Kind: KindBool, boolFn: fn}
}

// Time returns a time field
func Time[T any](fn func(T) time.Time) Field[T] {
	return Field[T]{Kind: KindTime, timeFn: fn}
}

func (f Field[T]) less(a, b T) bool {
	switch f.Kind {
	case KindBool:
		return !f.boolFn(a) && f.boolFn(b)
	case KindTime:
		return f.timeFn(a).Before(f.timeFn(b))
	default:
		return strings.ToLower(f.textFn(a)) < strings.ToLower(f.textFn(b))
	}
}

// matches reports whether the projection of v equals the filter value
func (f Field[T]) matches(v T, value string) bool {
	switch f.Kind {
	case KindBool:
		want, err := strconv.ParseBool(value)
		if err != nil {
			return false
		}
		return f.boolFn(v) == want
	case KindTime:
		return f.timeFn(v).Format(time.DateOnly) == value
	default:
		return f.textFn(v) == value
	}
}

// Schema describes an entity to a View
type Schema[T any] struct {
	// ID returns the identity used by Patch, Remove and the toggle flow
	ID func(T) string
	// Search returns the texts the search box matches against
	Search func(T) []string
	// Fields are the filterable and sortable projections by name
	Fields map[string]Field[T]
	// Seed lists the fields initialized from the page query
	Seed []string

	DefaultSort  string
	DefaultOrder Order
}

// View is the list page state machine. Every mutation rebuilds Items
// synchronously.
type View[T any] struct {
	mu sync.RWMutex

	schema  Schema[T]
	source  []T
	items   []T
	filters map[string]string
	search  string
	sortKey string
	order   Order
	loading bool
	seeded  bool
	pending *T
}

// New creates an empty view in the loading state
func New[T any](schema Schema[T]) *View[T] {
	order := schema.DefaultOrder
	if order == "" {
		order = Asc
	}
	return &View[T]{
		schema:  schema,
		filters: make(map[string]string),
		sortKey: schema.DefaultSort,
		order:   order,
		loading: true,
	}
}

// Items returns the visible items
func (v *View[T]) Items() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]T(nil), v.items...)
}

// Source returns every loaded item in source order
func (v *View[T]) Source() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]T(nil), v.source...)
}

// Len returns the number of visible items
func (v *View[T]) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.items)
}

// Find returns the loaded item with the given id
func (v *View[T]) Find(id string) (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, item := range v.source {
		if v.schema.ID(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Loading reports whether the initial load is in flight
func (v *View[T]) Loading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loading
}

// SetLoading sets the loading flag
func (v *View[T]) SetLoading(loading bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = loading
}

// Replace swaps the source collection
func (v *View[T]) Replace(items []T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.source = append([]T(nil), items...)
	v.recompute()
}

// Append adds a created item
func (v *View[T]) Append(item T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.source = append(v.source, item)
	v.recompute()
}

// Patch applies fn to the item with the given id
func (v *View[T]) Patch(id string, fn func(*T)) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.source {
		if v.schema.ID(v.source[i]) == id {
			fn(&v.source[i])
			v.recompute()
			return true
		}
	}
	return false
}

// Remove drops the item with the given id
func (v *View[T]) Remove(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.source {
		if v.schema.ID(v.source[i]) == id {
			v.source = append(v.source[:i], v.source[i+1:]...)
			v.recompute()
			return true
		}
	}
	return false
}

// SetFilter sets an equality filter. Empty or "all" clears it.
func (v *View[T]) SetFilter(field, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.schema.Fields[field]; !ok {
		return fmt.Errorf("unknown filter field %q", field)
	}
	if value == "" || value == FilterAll {
		delete(v.filters, field)
	} else {
		v.filters[field] = value
	}
	v.recompute()
	return nil
}

// Filter returns the value of a filter, or "all" when inactive
func (v *View[T]) Filter(field string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if value, ok := v.filters[field]; ok {
		return value
	}
	return FilterAll
}

// ClearFilters removes every filter and the search text
func (v *View[T]) ClearFilters() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = make(map[string]string)
	v.search = ""
	v.recompute()
}

// SetSearch sets the free-text search
func (v *View[T]) SetSearch(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = text
	v.recompute()
}

// Search returns the search text
func (v *View[T]) Search() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.search
}

// SetSort sets the sort key and order. An unknown key keeps source order.
func (v *View[T]) SetSort(key string, order Order) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if order != Desc {
		order = Asc
	}
	v.sortKey = key
	v.order = order
	v.recompute()
}

// ToggleSort sorts by key, flipping the order when key is already active
func (v *View[T]) ToggleSort(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sortKey == key {
		if v.order == Asc {
			v.order = Desc
		} else {
			v.order = Asc
		}
	} else {
		v.sortKey = key
		v.order = Asc
	}
	v.recompute()
}

// Sort returns the sort key and order
func (v *View[T]) Sort() (string, Order) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.sortKey, v.order
}

// SeedFromQuery initializes the seed filters from page query parameters.
// Only the first call has any effect; later filter changes are not written
// back to the query.
func (v *View[T]) SeedFromQuery(q url.Values) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.seeded {
		return false
	}
	v.seeded = true
	for _, field := range v.schema.Seed {
		value := strings.TrimSpace(q.Get(field))
		if value == "" || value == FilterAll {
			continue
		}
		if _, ok := v.schema.Fields[field]; ok {
			v.filters[field] = value
		}
	}
	v.recompute()
	return true
}

// recompute rebuilds items; callers hold the write lock
func (v *View[T]) recompute() {
	needle := strings.ToLower(v.search)

	items := make([]T, 0, len(v.source))
	for _, item := range v.source {
		if v.visible(item, needle) {
			items = append(items, item)
		}
	}

	if field, ok := v.schema.Fields[v.sortKey]; ok {
		desc := v.order == Desc
		sort.SliceStable(items, func(i, j int) bool {
			if desc {
				return field.less(items[j], items[i])
			}
			return field.less(items[i], items[j])
		})
	}
	v.items = items
}

func (v *View[T]) visible(item T, needle string) bool {
	for name, value := range v.filters {
		if !v.schema.Fields[name].matches(item, value) {
			return false
		}
	}
	if needle == "" || v.schema.Search == nil {
		return true
	}
	for _, text := range v.schema.Search(item) {
		if strings.Contains(strings.ToLower(text), needle) {
			return true
		}
	}
	return false
}

// RequestToggle opens a confirmation for the item with the given id
func (v *View[T]) RequestToggle(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, item := range v.source {
		if v.schema.ID(item) == id {
			it := item
			v.pending = &it
			return true
		}
	}
	return false
}

// Pending returns the item awaiting confirmation
func (v *View[T]) Pending() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.pending == nil {
		var zero T
		return zero, false
	}
	return *v.pending, true
}

// CancelToggle drops the pending confirmation
func (v *View[T]) CancelToggle() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = nil
}

// ConfirmToggle applies the pending toggle through apply and stores the
// item it returns. apply receives the pending item and returns it with its
// changed fields set. Without a pending confirmation it does nothing.
// The pending confirmation is closed whatever the outcome.
func (v *View[T]) ConfirmToggle(ctx context.Context, apply func(context.Context, T) (T, error)) (T, bool, error) {
	v.mu.Lock()
	pending := v.pending
	v.pending = nil
	v.mu.Unlock()

	var zero T
	if pending == nil {
		return zero, false, nil
	}

	updated, err := apply(ctx, *pending)
	if err != nil {
		return zero, true, err
	}
	v.Patch(v.schema.ID(*pending), func(item *T) { *item = updated })
	return updated, true, nil
}
