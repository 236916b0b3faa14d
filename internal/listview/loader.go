package listview

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/togglr/togglr-admin/internal/api"
	"github.com/togglr/togglr-admin/internal/notify"
)

// FeaturesPage is the state of the features page: the feature list and the
// namespace and environment filter choices
type FeaturesPage struct {
	Features     *View[api.Feature]
	Namespaces   *View[api.Namespace]
	Environments *View[api.Environment]
}

// NewFeaturesPage creates empty views for the features page
func NewFeaturesPage() *FeaturesPage {
	return &FeaturesPage{
		Features:     New(FeatureSchema),
		Namespaces:   New(NamespaceSchema),
		Environments: New(EnvironmentSchema),
	}
}

// FeatureLister is the subset of the API used by the features page
type FeatureLister interface {
	ListFeatures(ctx context.Context, filter api.FeatureFilter) ([]api.Feature, error)
	ListNamespaces(ctx context.Context) ([]api.Namespace, error)
	ListEnvironments(ctx context.Context) ([]api.Environment, error)
}

// Load fetches features, namespaces and environments in parallel. A failed
// fetch empties its view and notifies; the others are unaffected. Loading
// clears once all three have settled.
func (p *FeaturesPage) Load(ctx context.Context, c FeatureLister, n notify.Notifier) {
	if n == nil {
		n = notify.Discard
	}
	p.Features.SetLoading(true)
	p.Namespaces.SetLoading(true)
	p.Environments.SetLoading(true)

	var g errgroup.Group
	g.Go(func() error {
		LoadInto(ctx, p.Features, func(ctx context.Context) ([]api.Feature, error) {
			return c.ListFeatures(ctx, api.FeatureFilter{})
		}, n, MsgLoadFeaturesFailed)
		return nil
	})
	g.Go(func() error {
		LoadInto(ctx, p.Namespaces, c.ListNamespaces, n, MsgLoadNamespacesFailed)
		return nil
	})
	g.Go(func() error {
		LoadInto(ctx, p.Environments, c.ListEnvironments, n, MsgLoadEnvironmentsFailed)
		return nil
	})

	_ = g.Wait()
	p.Features.SetLoading(false)
	p.Namespaces.SetLoading(false)
	p.Environments.SetLoading(false)
}

// Load fills v from fetch, holding the loading flag until it settles
func Load[T any](ctx context.Context, v *View[T], fetch func(context.Context) ([]T, error), n notify.Notifier, message string) error {
	v.SetLoading(true)
	defer v.SetLoading(false)
	return LoadInto(ctx, v, fetch, n, message)
}

// LoadInto fills v from fetch. On failure the view is emptied and the
// failure is reported through n with message.
func LoadInto[T any](ctx context.Context, v *View[T], fetch func(context.Context) ([]T, error), n notify.Notifier, message string) error {
	if n == nil {
		n = notify.Discard
	}
	items, err := fetch(ctx)
	if err != nil {
		v.Replace(nil)
		n.Error(message)
		return err
	}
	v.Replace(items)
	return nil
}

// FeatureUpdater updates features by id
type FeatureUpdater interface {
	UpdateFeature(ctx context.Context, id int64, req *api.FeatureUpdate) (*api.Feature, error)
}

// FlipEnabled returns the toggle action for ConfirmToggle: one update
// inverting enabled and resending the current metadata. The result is f
// with only Enabled changed; the response body is not trusted, since the
// backend may answer with 204 or a partial record.
func FlipEnabled(u FeatureUpdater) func(context.Context, api.Feature) (api.Feature, error) {
	return func(ctx context.Context, f api.Feature) (api.Feature, error) {
		enabled := !f.Enabled
		if _, err := u.UpdateFeature(ctx, f.ID, &api.FeatureUpdate{Enabled: &enabled, Metadata: f.Metadata}); err != nil {
			return api.Feature{}, err
		}
		f.Enabled = enabled
		return f, nil
	}
}

// ConfirmFeatureToggle confirms the pending toggle of the features view and
// reports the outcome
func ConfirmFeatureToggle(ctx context.Context, v *View[api.Feature], u FeatureUpdater, n notify.Notifier) error {
	if n == nil {
		n = notify.Discard
	}
	updated, ok, err := v.ConfirmToggle(ctx, FlipEnabled(u))
	if !ok {
		return nil
	}
	if err != nil {
		n.Error(MsgToggleFailed)
		return err
	}
	if updated.Enabled {
		n.Success(MsgFeatureEnabled)
	} else {
		n.Success(MsgFeatureDisabled)
	}
	return nil
}
