package session_test

import (
	"context"
	"testing"

	"github.com/libris-dev/libris/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func TestRequestDeleteStore(t *testing.T) {
	ctx := context.Background()

	remote := &mockFileSearch{
		listFunc: func(ctx context.Context, pageSize int) ([]*model.Store, error) {
			return []*model.Store{{ID: "store/7", DisplayName: "Handbook"}}, nil
		},
	}
	f := newFixture(t, remote, &mockGemini{})
	gt.NoError(t, f.ctl.Init(ctx))

	confirm, err := f.ctl.RequestDeleteStore("store/7")
	gt.NoError(t, err)
	gt.V(t, confirm.Kind).Equal(model.TargetStore)
	gt.V(t, confirm.ID).Equal("store/7")
	gt.V(t, confirm.DisplayName).Equal("Handbook")

	// Requesting does not mutate anything.
	gt.A(t, f.lib.Stores()).Length(1)

	_, err = f.ctl.RequestDeleteStore("store/ghost")
	gt.Error(t, err)
}

func TestConfirmDeleteStore(t *testing.T) {
	ctx := context.Background()

	deleted := []model.StoreID{}
	remote := &mockFileSearch{
		listFunc: func(ctx context.Context, pageSize int) ([]*model.Store, error) {
			kept := []*model.Store{{ID: "store/7", DisplayName: "Handbook"}, {ID: "store/8", DisplayName: "Specs"}}
			out := kept[:0]
			for _, s := range kept {
				removed := false
				for _, id := range deleted {
					if s.ID == id {
						removed = true
					}
				}
				if !removed {
					out = append(out, s)
				}
			}
			return out, nil
		},
		deleteStoreFunc: func(ctx context.Context, storeID model.StoreID) error {
			deleted = append(deleted, storeID)
			return nil
		},
	}
	f := newFixture(t, remote, &mockGemini{})
	gt.NoError(t, f.ctl.Init(ctx))

	gt.NoError(t, f.ctl.ConfirmDeleteStore(ctx, "store/7"))

	stores := f.lib.Stores()
	gt.A(t, stores).Length(1)
	gt.V(t, stores[0].ID).Equal(model.StoreID("store/8"))
}

// A failed remote delete does not revert the optimistic removal; only the
// authoritative refresh can bring the entry back.
func TestDeleteStoreFailureKeepsOptimisticRemoval(t *testing.T) {
	ctx := context.Background()

	refreshable := false
	remote := &mockFileSearch{
		listFunc: func(ctx context.Context, pageSize int) ([]*model.Store, error) {
			if !refreshable {
				return []*model.Store{{ID: "store/7", DisplayName: "Handbook"}}, nil
			}
			return nil, goerr.New("listing is down")
		},
		deleteStoreFunc: func(ctx context.Context, storeID model.StoreID) error {
			return goerr.New("deletion refused")
		},
	}
	f := newFixture(t, remote, &mockGemini{})
	gt.NoError(t, f.ctl.Init(ctx))
	refreshable = true

	err := f.ctl.ConfirmDeleteStore(ctx, "store/7")
	gt.Error(t, err)

	// The reconciling refresh failed too, so the stale cache keeps the
	// optimistic removal: the store does not reappear on its own.
	gt.A(t, f.lib.Stores()).Length(0)
	gt.V(t, f.ctl.Status()).Equal(model.StatusWelcome)
}

// When the refresh does succeed after a failed delete, the remote listing is
// authoritative and restores the entry.
func TestDeleteStoreFailureRestoredByRefresh(t *testing.T) {
	ctx := context.Background()

	remote := &mockFileSearch{
		listFunc: func(ctx context.Context, pageSize int) ([]*model.Store, error) {
			return []*model.Store{{ID: "store/7", DisplayName: "Handbook"}}, nil
		},
		deleteStoreFunc: func(ctx context.Context, storeID model.StoreID) error {
			return goerr.New("deletion refused")
		},
	}
	f := newFixture(t, remote, &mockGemini{})
	gt.NoError(t, f.ctl.Init(ctx))

	err := f.ctl.ConfirmDeleteStore(ctx, "store/7")
	gt.Error(t, err)
	gt.A(t, f.lib.Stores()).Length(1)
}
