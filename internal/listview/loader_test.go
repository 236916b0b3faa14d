package listview

import (
	"context"
	"errors"
	"testing"

	"github.com/togglr/togglr-admin/internal/api"
	"github.com/togglr/togglr-admin/internal/notify"
)

// mockLister implements FeatureLister for testing
type mockLister struct {
	featuresErr error
}

func (m *mockLister) ListFeatures(ctx context.Context, filter api.FeatureFilter) ([]api.Feature, error) {
	if m.featuresErr != nil {
		return nil, m.featuresErr
	}
	return []api.Feature{{ID: 1, Name: "a"}}, nil
}

func (m *mockLister) ListNamespaces(ctx context.Context) ([]api.Namespace, error) {
	return []api.Namespace{{ID: "1", Name: "core"}}, nil
}

func (m *mockLister) ListEnvironments(ctx context.Context) ([]api.Environment, error) {
	return []api.Environment{{ID: "1", Name: "prod"}, {ID: "2", Name: "dev"}}, nil
}

func TestFeaturesPageLoad(t *testing.T) {
	p := NewFeaturesPage()
	if !p.Features.Loading() {
		t.Error("new page should be loading")
	}

	p.Load(context.Background(), &mockLister{}, nil)
	if p.Features.Loading() {
		t.Error("loading should clear")
	}
	if p.Features.Len() != 1 || p.Namespaces.Len() != 1 || p.Environments.Len() != 2 {
		t.Errorf("unexpected lengths %d %d %d", p.Features.Len(), p.Namespaces.Len(), p.Environments.Len())
	}
}

func TestFeaturesPagePartialFailure(t *testing.T) {
	p := NewFeaturesPage()
	p.Features.Replace([]api.Feature{{ID: 9}})
	rec := &notify.Recorder{}

	p.Load(context.Background(), &mockLister{featuresErr: errors.New("down")}, rec)
	if p.Features.Len() != 0 {
		t.Error("failed load should empty the list")
	}
	if p.Environments.Len() != 2 {
		t.Error("other fetches should complete")
	}
	all := rec.All()
	if len(all) != 1 || all[0].Message != MsgLoadFeaturesFailed {
		t.Errorf("notifications = %+v", all)
	}
}
