package listview

import (
	"context"
	"errors"
	"testing"

	"github.com/togglr/togglr-admin/internal/api"
	"github.com/togglr/togglr-admin/internal/notify"
)

func TestCreateAppends(t *testing.T) {
	tests := []struct {
		name     string
		created  *api.Feature
		err      error
		appended bool
		length   int
		message  string
	}{
		{"record returned", &api.Feature{ID: 9, Name: "new"}, nil, true, 5, MsgFeatureCreated},
		{"empty body", &api.Feature{}, nil, false, 4, MsgFeatureCreated},
		{"nil record", nil, nil, false, 4, MsgFeatureCreated},
		{"failure", nil, errors.New("boom"), false, 4, MsgFeatureCreateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(FeatureSchema)
			v.Replace(features())
			rec := &notify.Recorder{}

			appended, err := Create(context.Background(), v, func(context.Context) (*api.Feature, error) {
				return tt.created, tt.err
			}, rec, FeatureCreated)
			if (err != nil) != (tt.err != nil) {
				t.Fatalf("Create() error = %v", err)
			}
			if appended != tt.appended || v.Len() != tt.length {
				t.Errorf("appended = %v, Len() = %d", appended, v.Len())
			}
			if last, _ := rec.Last(); last.Message != tt.message {
				t.Errorf("last notification = %+v", last)
			}
		})
	}
}

func TestDeleteRemovesAfterConfirmation(t *testing.T) {
	v := New(FeatureSchema)
	v.Replace(features())
	rec := &notify.Recorder{}
	ctx := context.Background()

	err := Delete(ctx, v, "2", func(context.Context) error { return errors.New("down") }, rec, FeatureDeleted)
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := v.Find("2"); !ok {
		t.Error("failed delete must keep the item")
	}
	if last, _ := rec.Last(); last.Message != MsgFeatureDeleteFailed {
		t.Errorf("last notification = %+v", last)
	}

	if err := Delete(ctx, v, "2", func(context.Context) error { return nil }, rec, FeatureDeleted); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := v.Find("2"); ok {
		t.Error("deleted item still listed")
	}
	if last, _ := rec.Last(); last.Message != MsgFeatureDeleted {
		t.Errorf("last notification = %+v", last)
	}
}
