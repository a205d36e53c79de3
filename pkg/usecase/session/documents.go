package session

import (
	"context"

	"github.com/libris-dev/libris/pkg/model"
	"github.com/libris-dev/libris/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const documentPageSize = 50

// OpenDocuments fetches the document list for a store and opens the
// management view. A fetch failure closes the view.
func (c *Controller) OpenDocuments(ctx context.Context, storeID model.StoreID) ([]*model.Document, error) {
	if c.status != model.StatusWelcome {
		return nil, goerr.Wrap(model.ErrInvalidTransition, "open documents", goerr.V("status", c.status.String()))
	}

	docs, err := c.remote.ListDocuments(ctx, storeID, documentPageSize)
	if err != nil {
		c.CloseDocuments()
		return nil, goerr.Wrap(err, "failed to list documents", goerr.V("store_id", storeID))
	}

	c.docStore = storeID
	c.documents = docs
	return c.Documents(), nil
}

// CloseDocuments drops the management view. Documents are never cached
// beyond the currently open view.
func (c *Controller) CloseDocuments() {
	c.docStore = ""
	c.documents = nil
	c.docBusy = false
}

// Documents returns a copy of the open view's document list.
func (c *Controller) Documents() []*model.Document {
	out := make([]*model.Document, len(c.documents))
	copy(out, c.documents)
	return out
}

// DocumentsOpen reports whether a management view is open, and for which
// store.
func (c *Controller) DocumentsOpen() (model.StoreID, bool) {
	return c.docStore, c.docStore != ""
}

// DocumentBusy reports whether an add-document upload is in progress.
func (c *Controller) DocumentBusy() bool {
	return c.docBusy
}

// AddDocument uploads a file into the open store and re-fetches the list.
// On failure the view stays open with the in-progress indicator cleared.
func (c *Controller) AddDocument(ctx context.Context, file *model.StagedFile) error {
	if c.docStore == "" {
		return goerr.Wrap(model.ErrInvalidTransition, "add document: no open view")
	}

	c.docBusy = true
	defer func() {
		c.docBusy = false
	}()

	op, err := c.remote.UploadFile(ctx, c.docStore, file)
	if err != nil {
		return goerr.Wrap(err, "failed to upload document", goerr.V("file", file.Name))
	}
	if err := c.remote.WaitOperation(ctx, op); err != nil {
		return goerr.Wrap(err, "document processing failed", goerr.V("file", file.Name))
	}

	docs, err := c.remote.ListDocuments(ctx, c.docStore, documentPageSize)
	if err != nil {
		return goerr.Wrap(err, "failed to re-list documents", goerr.V("store_id", c.docStore))
	}

	c.documents = docs
	return nil
}

// RemoveDocument removes the document locally, issues the remote delete, and
// reverts the local removal at its original position if the remote call
// fails. Unlike store deletion, this sub-flow does roll back; the failure is
// logged rather than surfaced modally.
func (c *Controller) RemoveDocument(ctx context.Context, docID model.DocumentID) error {
	if c.docStore == "" {
		return goerr.Wrap(model.ErrInvalidTransition, "remove document: no open view")
	}

	idx := -1
	for i, d := range c.documents {
		if d.ID == docID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return goerr.Wrap(model.ErrNotFound, "document is not in the open view", goerr.V("document_id", docID))
	}

	removed := c.documents[idx]
	c.documents = append(c.documents[:idx:idx], c.documents[idx+1:]...)

	if err := c.remote.DeleteDocument(ctx, docID); err != nil {
		rest := c.documents
		c.documents = make([]*model.Document, 0, len(rest)+1)
		c.documents = append(c.documents, rest[:idx]...)
		c.documents = append(c.documents, removed)
		c.documents = append(c.documents, rest[idx:]...)

		logging.From(ctx).Warn("document deletion failed, restoring entry",
			"error", err, "document_id", docID)
		return goerr.Wrap(err, "failed to delete document", goerr.V("document_id", docID))
	}

	return nil
}
