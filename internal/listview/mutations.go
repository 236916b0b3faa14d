package listview

import (
	"context"

	"github.com/togglr/togglr-admin/internal/notify"
)

// Outcome is the pair of notifications reported by a mutation
type Outcome struct {
	Success string
	Failure string
}

var (
	FeatureCreated     = Outcome{MsgFeatureCreated, MsgFeatureCreateFailed}
	FeatureDeleted     = Outcome{MsgFeatureDeleted, MsgFeatureDeleteFailed}
	UserDeleted        = Outcome{MsgUserDeleted, MsgUserDeleteFailed}
	EnvironmentDeleted = Outcome{MsgEnvironmentDeleted, MsgEnvironmentDeleteFailed}
	NamespaceDeleted   = Outcome{MsgNamespaceDeleted, MsgNamespaceDeleteFailed}
)

// Create runs create and appends the record the server returns. A response
// without an identifiable record leaves the source untouched and reports
// appended false, so the caller can reload instead.
func Create[T any](ctx context.Context, v *View[T], create func(context.Context) (*T, error), n notify.Notifier, o Outcome) (appended bool, err error) {
	if n == nil {
		n = notify.Discard
	}
	created, err := create(ctx)
	if err != nil {
		n.Error(o.Failure)
		return false, err
	}
	n.Success(o.Success)
	if created == nil || v.schema.ID(*created) == "" || v.schema.ID(*created) == "0" {
		return false, nil
	}
	v.Append(*created)
	return true, nil
}

// Delete runs del for the item with the given id and drops it from the
// source once the server confirms. On failure the source is unchanged.
func Delete[T any](ctx context.Context, v *View[T], id string, del func(context.Context) error, n notify.Notifier, o Outcome) error {
	if n == nil {
		n = notify.Discard
	}
	if err := del(ctx); err != nil {
		n.Error(o.Failure)
		return err
	}
	v.Remove(id)
	n.Success(o.Success)
	return nil
}
