package session

import (
	"context"

	"github.com/libris-dev/libris/pkg/model"
	"github.com/libris-dev/libris/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// RequestDeleteStore prepares the confirmation that gates store deletion.
// Nothing is mutated until ConfirmDeleteStore.
func (c *Controller) RequestDeleteStore(id model.StoreID) (*model.ConfirmationRequest, error) {
	if c.status != model.StatusWelcome {
		return nil, goerr.Wrap(model.ErrInvalidTransition, "request store deletion", goerr.V("status", c.status.String()))
	}

	store := c.library.Get(id)
	if store == nil {
		return nil, goerr.Wrap(model.ErrNotFound, "store is not in the library", goerr.V("store_id", id))
	}

	return &model.ConfirmationRequest{
		Kind:        model.TargetStore,
		ID:          string(store.ID),
		DisplayName: store.DisplayName,
	}, nil
}

// ConfirmDeleteStore removes the entry optimistically, issues the remote
// delete, then refreshes against the authoritative list. A remote failure
// does NOT revert the optimistic removal: the follow-up refresh restores the
// entry if the deletion actually failed.
func (c *Controller) ConfirmDeleteStore(ctx context.Context, id model.StoreID) error {
	if c.status != model.StatusWelcome {
		return goerr.Wrap(model.ErrInvalidTransition, "delete store", goerr.V("status", c.status.String()))
	}

	c.library.RemoveOptimistic(id)

	delErr := c.remote.DeleteStore(ctx, id)

	if _, err := c.library.Refresh(ctx); err != nil {
		logging.From(ctx).Warn("library refresh after store deletion failed", "error", err)
	}

	if delErr != nil {
		return goerr.Wrap(delErr, "failed to delete store", goerr.V("store_id", id))
	}
	return nil
}
