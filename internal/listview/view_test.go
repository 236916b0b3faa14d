package listview

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/togglr/togglr-admin/internal/api"
	"github.com/togglr/togglr-admin/internal/notify"
)

func features() []api.Feature {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []api.Feature{
		{ID: 1, Name: "beta", Namespace: "core", Environment: "prod", Enabled: true, CreatedAt: api.Timestamp{Time: base.Add(2 * time.Hour)}},
		{ID: 2, Name: "Alpha", Namespace: "core", Environment: "dev", Enabled: false, CreatedAt: api.Timestamp{Time: base}},
		{ID: 3, Name: "gamma", Namespace: "billing", Environment: "prod", Enabled: true,
			Metadata: json.RawMessage(`{"description":"Invoice rework"}`), CreatedAt: api.Timestamp{Time: base.Add(time.Hour)}},
		{ID: 4, Name: "alpha", Namespace: "billing", Environment: "dev", Enabled: false, CreatedAt: api.Timestamp{Time: base.Add(3 * time.Hour)}},
	}
}

func ids(items []api.Feature) []int64 {
	out := make([]int64, len(items))
	for i, f := range items {
		out[i] = f.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestViewFilterConjunction(t *testing.T) {
	v := New(FeatureSchema)
	v.Replace(features())

	if err := v.SetFilter(FieldNamespace, "core"); err != nil {
		t.Fatal(err)
	}
	if err := v.SetFilter(FieldEnabled, "true"); err != nil {
		t.Fatal(err)
	}
	if got := ids(v.Items()); !equalIDs(got, []int64{1}) {
		t.Errorf("Items() = %v", got)
	}

	_ = v.SetFilter(FieldEnabled, FilterAll)
	if got := ids(v.Items()); !equalIDs(got, []int64{2, 1}) {
		t.Errorf("Items() = %v", got)
	}
	if v.Filter(FieldEnabled) != FilterAll {
		t.Errorf("Filter() = %q", v.Filter(FieldEnabled))
	}

	if err := v.SetFilter("color", "red"); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestViewSearch(t *testing.T) {
	v := New(FeatureSchema)
	v.Replace(features())

	v.SetSearch("INVOICE")
	if got := ids(v.Items()); !equalIDs(got, []int64{3}) {
		t.Errorf("search by description = %v", got)
	}

	v.SetSearch("alp")
	if got := ids(v.Items()); !equalIDs(got, []int64{2, 4}) {
		t.Errorf("search by name = %v", got)
	}

	v.ClearFilters()
	if v.Len() != 4 {
		t.Errorf("Len() = %d after ClearFilters", v.Len())
	}
}

func TestViewSortStable(t *testing.T) {
	v := New(FeatureSchema)
	v.Replace(features())

	// "Alpha" and "alpha" compare equal and keep source order
	if got := ids(v.Items()); !equalIDs(got, []int64{2, 4, 1, 3}) {
		t.Errorf("default sort = %v", got)
	}

	v.SetSort(FieldName, Desc)
	if got := ids(v.Items()); !equalIDs(got, []int64{3, 1, 2, 4}) {
		t.Errorf("desc sort = %v", got)
	}

	v.SetSort(FieldEnabled, Asc)
	if got := ids(v.Items()); !equalIDs(got, []int64{2, 4, 1, 3}) {
		t.Errorf("enabled sort = %v", got)
	}

	v.SetSort(FieldCreatedAt, Asc)
	if got := ids(v.Items()); !equalIDs(got, []int64{2, 3, 1, 4}) {
		t.Errorf("createdAt sort = %v", got)
	}

	v.SetSort("unknown", Asc)
	if got := ids(v.Items()); !equalIDs(got, []int64{1, 2, 3, 4}) {
		t.Errorf("unknown sort should keep source order, got %v", got)
	}
}

func TestViewToggleSort(t *testing.T) {
	v := New(FeatureSchema)
	v.ToggleSort(FieldName)
	if key, order := v.Sort(); key != FieldName || order != Desc {
		t.Errorf("Sort() = %s %s", key, order)
	}
	v.ToggleSort(FieldNamespace)
	if key, order := v.Sort(); key != FieldNamespace || order != Asc {
		t.Errorf("Sort() = %s %s", key, order)
	}
}

func TestSeedFromQueryOnce(t *testing.T) {
	v := New(FeatureSchema)
	v.Replace(features())

	q := url.Values{"namespace": {"billing"}, "enabled": {"true"}, "name": {"ignored"}}
	if !v.SeedFromQuery(q) {
		t.Fatal("first SeedFromQuery should apply")
	}
	if got := ids(v.Items()); !equalIDs(got, []int64{3}) {
		t.Errorf("Items() = %v", got)
	}
	if v.Filter(FieldName) != FilterAll {
		t.Error("non-seed field should not be seeded")
	}

	if v.SeedFromQuery(url.Values{"namespace": {"core"}}) {
		t.Error("second SeedFromQuery should be ignored")
	}
	if v.Filter(FieldNamespace) != "billing" {
		t.Errorf("Filter() = %q", v.Filter(FieldNamespace))
	}
}

func TestViewMutations(t *testing.T) {
	v := New(FeatureSchema)
	v.Replace(features())

	v.Append(api.Feature{ID: 5, Name: "delta"})
	if _, ok := v.Find("5"); !ok {
		t.Error("appended feature not found")
	}
	if !v.Patch("5", func(f *api.Feature) { f.Enabled = true }) {
		t.Error("Patch() returned false")
	}
	if f, _ := v.Find("5"); !f.Enabled {
		t.Error("patch not applied")
	}
	if !v.Remove("5") || v.Remove("5") {
		t.Error("Remove() should succeed exactly once")
	}
	if v.Patch("99", func(*api.Feature) {}) {
		t.Error("Patch() of unknown id should return false")
	}
}

// mockUpdater implements FeatureUpdater for testing
type mockUpdater struct {
	calls []api.FeatureUpdate
	err   error
}

func (m *mockUpdater) UpdateFeature(ctx context.Context, id int64, req *api.FeatureUpdate) (*api.Feature, error) {
	m.calls = append(m.calls, *req)
	if m.err != nil {
		return nil, m.err
	}
	f := api.Feature{ID: id, Enabled: *req.Enabled, Metadata: req.Metadata}
	return &f, nil
}

func TestToggleRoundTrip(t *testing.T) {
	v := New(FeatureSchema)
	v.Replace(features())
	up := &mockUpdater{}
	rec := &notify.Recorder{}
	ctx := context.Background()

	// confirm without a request does nothing
	if err := ConfirmFeatureToggle(ctx, v, up, rec); err != nil || len(up.calls) != 0 {
		t.Fatalf("unexpected update: %v %v", up.calls, err)
	}

	for i := 0; i < 2; i++ {
		if !v.RequestToggle("3") {
			t.Fatal("RequestToggle() returned false")
		}
		if err := ConfirmFeatureToggle(ctx, v, up, rec); err != nil {
			t.Fatalf("ConfirmFeatureToggle() error = %v", err)
		}
	}

	if len(up.calls) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(up.calls))
	}
	if *up.calls[0].Enabled != false || *up.calls[1].Enabled != true {
		t.Errorf("enabled sequence wrong: %v %v", *up.calls[0].Enabled, *up.calls[1].Enabled)
	}
	for _, c := range up.calls {
		if string(c.Metadata) != `{"description":"Invoice rework"}` {
			t.Errorf("metadata changed: %s", c.Metadata)
		}
	}
	if f, _ := v.Find("3"); !f.Enabled {
		t.Error("feature should be back to enabled")
	}
	if last, _ := rec.Last(); last.Message != MsgFeatureEnabled {
		t.Errorf("last notification = %+v", last)
	}
}

func TestToggleKeepsRecordOnEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	v := New(FeatureSchema)
	v.Replace([]api.Feature{{ID: 7, Name: "checkout", Namespace: "core", Environment: "prod",
		Metadata: json.RawMessage(`{"owner":"pay"}`)}})
	rec := &notify.Recorder{}

	v.RequestToggle("7")
	if err := ConfirmFeatureToggle(context.Background(), v, api.NewClient(srv.URL), rec); err != nil {
		t.Fatalf("ConfirmFeatureToggle() error = %v", err)
	}

	f, ok := v.Find("7")
	if !ok {
		t.Fatal("toggled feature lost from the list")
	}
	if !f.Enabled || f.Name != "checkout" || f.Namespace != "core" || string(f.Metadata) != `{"owner":"pay"}` {
		t.Errorf("feature after toggle = %+v", f)
	}
	if last, _ := rec.Last(); last.Message != MsgFeatureEnabled {
		t.Errorf("last notification = %+v", last)
	}
}

func TestToggleCancelAndFailure(t *testing.T) {
	v := New(FeatureSchema)
	v.Replace(features())
	ctx := context.Background()

	v.RequestToggle("1")
	v.CancelToggle()
	if _, ok := v.Pending(); ok {
		t.Error("pending should be cleared")
	}

	up := &mockUpdater{err: errors.New("boom")}
	rec := &notify.Recorder{}
	v.RequestToggle("1")
	if err := ConfirmFeatureToggle(ctx, v, up, rec); err == nil {
		t.Fatal("expected error")
	}
	if f, _ := v.Find("1"); !f.Enabled {
		t.Error("failed toggle must not change state")
	}
	if last, _ := rec.Last(); last.Level != notify.LevelError || last.Message != MsgToggleFailed {
		t.Errorf("last notification = %+v", last)
	}
	if _, ok := v.Pending(); ok {
		t.Error("pending should be closed after failure")
	}
}

func TestSearchMatchesRawText(t *testing.T) {
	v := New(FeatureSchema)
	v.Replace(features())

	v.SetSearch("alpha ")
	if v.Len() != 0 {
		t.Errorf("trailing space should be part of the needle, got %v", ids(v.Items()))
	}
	v.SetSearch("invoice ")
	if items := v.Items(); len(items) != 1 || items[0].ID != 3 {
		t.Errorf("description search = %v", ids(items))
	}
}

func TestUserSchemaSearch(t *testing.T) {
	v := New(UserSchema)
	v.Replace([]api.User{
		{ID: "1", Name: "Ada", Username: "ada", Email: "ada@x.io", Roles: "ADMIN"},
		{ID: "2", Name: "Bob", Username: "bob", Email: "bob@y.io", Roles: "USER"},
	})
	v.SetSearch("admin")
	if items := v.Items(); len(items) != 1 || items[0].ID != "1" {
		t.Errorf("role search = %v", items)
	}
	v.SetSearch("y.io")
	if items := v.Items(); len(items) != 1 || items[0].ID != "2" {
		t.Errorf("email search = %v", items)
	}
}
