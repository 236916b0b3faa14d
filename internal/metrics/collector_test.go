package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/togglr/togglr-admin/internal/api"
)

type mockDashboard struct {
	d   *api.Dashboard
	err error
}

func (m *mockDashboard) Dashboard(ctx context.Context) (*api.Dashboard, error) {
	return m.d, m.err
}

func TestCollectorCollect(t *testing.T) {
	m := New()
	src := &mockDashboard{d: &api.Dashboard{
		TotalFeatures:     12,
		ActiveFeatures:    9,
		TotalEnvironments: 3,
		TotalNamespaces:   4,
		TotalUsers:        5,
	}}
	c := NewCollector(m, src, 0, newTestLogger())

	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	checks := map[string]float64{
		"features_total":    testutil.ToFloat64(m.FeaturesTotal),
		"features_active":   testutil.ToFloat64(m.FeaturesActive),
		"features_inactive": testutil.ToFloat64(m.FeaturesInactive),
		"environments":      testutil.ToFloat64(m.EnvironmentsTotal),
		"namespaces":        testutil.ToFloat64(m.NamespacesTotal),
		"users":             testutil.ToFloat64(m.UsersTotal),
		"up":                testutil.ToFloat64(m.DashboardUp),
	}
	want := map[string]float64{
		"features_total": 12, "features_active": 9, "features_inactive": 3,
		"environments": 3, "namespaces": 4, "users": 5, "up": 1,
	}
	if !c.Up() {
		t.Error("Up() = false after a successful poll")
	}
	for k, v := range want {
		if checks[k] != v {
			t.Errorf("%s = %v, want %v", k, checks[k], v)
		}
	}

	src.err = errors.New("unreachable")
	if err := c.Collect(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if testutil.ToFloat64(m.DashboardUp) != 0 || c.Up() {
		t.Error("up should drop to 0")
	}
	if testutil.ToFloat64(m.FeaturesTotal) != 12 {
		t.Error("counts should keep their last values")
	}
}

func TestCollectorStartStop(t *testing.T) {
	m := New()
	c := NewCollector(m, &mockDashboard{d: &api.Dashboard{TotalUsers: 2}}, 0, newTestLogger())
	c.Start(context.Background())
	c.Stop()

	if testutil.ToFloat64(m.UsersTotal) != 2 {
		t.Error("Start should poll immediately")
	}
}
