package session

import (
	"context"
	"fmt"
	"time"

	"github.com/libris-dev/libris/pkg/model"
	"github.com/libris-dev/libris/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// DeriveStoreName builds a human-recognizable display name from the staged
// files without asking the user for one: a single file keeps its filename,
// several are labeled "<first> + <N-1> others".
func DeriveStoreName(files []*model.StagedFile) string {
	switch len(files) {
	case 0:
		return ""
	case 1:
		return files[0].Name
	default:
		return fmt.Sprintf("%s + %d others", files[0].Name, len(files)-1)
	}
}

// Stage adds a local file to the staging set. Only available in Welcome; a
// file with the same name replaces the earlier staging.
func (c *Controller) Stage(file *model.StagedFile) error {
	if c.status != model.StatusWelcome {
		return goerr.Wrap(model.ErrInvalidTransition, "stage file", goerr.V("status", c.status.String()))
	}

	for i, f := range c.staged {
		if f.Name == file.Name {
			c.staged[i] = file
			return nil
		}
	}
	c.staged = append(c.staged, file)
	return nil
}

// Unstage removes a staged file by name.
func (c *Controller) Unstage(name string) {
	kept := c.staged[:0]
	for _, f := range c.staged {
		if f.Name != name {
			kept = append(kept, f)
		}
	}
	c.staged = kept
}

// Staged returns a copy of the staging set in staging order.
func (c *Controller) Staged() []*model.StagedFile {
	out := make([]*model.StagedFile, len(c.staged))
	copy(out, c.staged)
	return out
}

// CreateStore runs the Welcome -> Uploading -> Welcome transition: create
// the remote store, upload the staged files sequentially with progress
// after each completed upload, then optimistically insert the new store
// into the library. The whole run is all-or-nothing from the session's view:
// any failure leaves the staging set intact and no store id behind.
//
// An authoritative refresh is deliberately not issued here; the listing
// service may not index a just-created store yet, and the optimistic entry
// avoids a false "empty library" flash.
func (c *Controller) CreateStore(ctx context.Context) error {
	if c.status != model.StatusWelcome {
		return goerr.Wrap(model.ErrInvalidTransition, "create store", goerr.V("status", c.status.String()))
	}

	if !c.gate.Selected() {
		c.fieldMsg = "Select an API credential before creating a store."
		return goerr.Wrap(model.ErrNoCredential, "create store")
	}
	if len(c.staged) == 0 {
		c.fieldMsg = "Add at least one document first."
		return goerr.Wrap(model.ErrNothingStaged, "create store")
	}
	c.fieldMsg = ""

	files := c.staged
	displayName := DeriveStoreName(files)
	total := len(files) + 2

	c.status = model.StatusUploading
	c.setProgress(0, total, fmt.Sprintf("Creating store %q...", displayName), "")

	store, err := c.remote.CreateStore(ctx, displayName)
	if err != nil {
		return c.failCreate(ctx, goerr.Wrap(err, "failed to create store", goerr.V("display_name", displayName)))
	}

	for i, file := range files {
		op, err := c.remote.UploadFile(ctx, store.ID, file)
		if err != nil {
			return c.failCreate(ctx, goerr.Wrap(err, "failed to upload file", goerr.V("file", file.Name)))
		}
		if err := c.remote.WaitOperation(ctx, op); err != nil {
			return c.failCreate(ctx, goerr.Wrap(err, "file processing failed", goerr.V("file", file.Name)))
		}

		c.setProgress(i+1, total,
			fmt.Sprintf("Uploaded %s", file.Name),
			fmt.Sprintf("(%d/%d) %s", i+1, len(files), file.Name))
	}

	c.setProgress(total-1, total, fmt.Sprintf("Store %q registered", displayName), "")
	if c.completionPause > 0 {
		// Let the UI present the completed state before it disappears.
		time.Sleep(c.completionPause)
	}

	c.library.InsertOptimistic(store)
	c.staged = nil
	c.progress = nil
	c.status = model.StatusWelcome
	return nil
}

// failCreate aborts the whole create run. The staging set is untouched and
// the created store id, if any, is dropped; the remote store itself is not
// cleaned up (the next refresh shows it if it exists). Credential-shaped
// failures clear the gate and return to Welcome so the user can re-select
// without losing staged files; everything else is fatal.
func (c *Controller) failCreate(ctx context.Context, err error) error {
	c.progress = nil

	if model.IsCredentialError(err) {
		logging.From(ctx).Warn("store creation rejected the credential", "error", err)
		c.gate.Drop()
		c.fieldMsg = "Your API credential was rejected. Select another one and retry."
		c.status = model.StatusWelcome
		return err
	}

	logging.From(ctx).Error("store creation failed", "error", err)
	c.fatalMsg = "Could not create the document store. " + err.Error()
	c.status = model.StatusError
	return err
}

func (c *Controller) setProgress(current, total int, message, fileName string) {
	c.progress = &model.UploadProgress{
		Current:  current,
		Total:    total,
		Message:  message,
		FileName: fileName,
	}
	if c.notify != nil {
		c.notify(*c.progress)
	}
}
