package session

import (
	"context"
	"time"

	"github.com/libris-dev/libris/pkg/adapter"
	"github.com/libris-dev/libris/pkg/model"
	"github.com/libris-dev/libris/pkg/usecase/chat"
	"github.com/libris-dev/libris/pkg/usecase/credential"
	"github.com/libris-dev/libris/pkg/usecase/library"
	"github.com/libris-dev/libris/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Controller is the session state machine:
//
//	Initializing -> Welcome <-> Uploading
//	                Welcome  -> Chatting -> Welcome
//	                (any)    -> Error    -> Welcome
//
// All transitions funnel through the event methods below; the status value
// itself enforces at-most-one active transition, so a second create request
// while one is uploading is rejected rather than interleaved.
type Controller struct {
	gate    *credential.Gate
	library *library.Cache
	remote  adapter.FileSearch
	gemini  adapter.Gemini
	chat    *chat.Session

	status    model.Status
	staged    []*model.StagedFile
	active    *model.Store
	questions []string

	documents []*model.Document
	docStore  model.StoreID
	docBusy   bool

	progress *model.UploadProgress
	fatalMsg string
	fieldMsg string

	notify          func(model.UploadProgress)
	completionPause time.Duration
}

type Option func(*Controller)

// WithNotify installs a hook called on every upload progress advancement.
func WithNotify(fn func(model.UploadProgress)) Option {
	return func(c *Controller) {
		c.notify = fn
	}
}

// WithCompletionPause overrides the short pause that lets the UI show the
// final "registered" progress state before returning to the welcome screen.
func WithCompletionPause(d time.Duration) Option {
	return func(c *Controller) {
		c.completionPause = d
	}
}

func New(gate *credential.Gate, lib *library.Cache, remote adapter.FileSearch, gemini adapter.Gemini, opts ...Option) *Controller {
	c := &Controller{
		gate:            gate,
		library:         lib,
		remote:          remote,
		gemini:          gemini,
		chat:            chat.New(gemini),
		status:          model.StatusInitializing,
		completionPause: 1500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Init runs the startup sequence: a credential presence check gates the
// first library load, then the session enters Welcome unconditionally,
// whether or not that load attempt succeeded.
func (c *Controller) Init(ctx context.Context) error {
	if c.status != model.StatusInitializing {
		return goerr.Wrap(model.ErrInvalidTransition, "init", goerr.V("status", c.status.String()))
	}

	if c.gate.Check() {
		if _, err := c.library.Refresh(ctx); err != nil {
			logging.From(ctx).Warn("initial library load failed", "error", err)
		}
	}

	c.status = model.StatusWelcome
	return nil
}

// SelectStore activates an existing store and enters Chatting. Example
// questions are fetched best-effort: a failure yields an empty question set
// rather than blocking entry to chat.
func (c *Controller) SelectStore(ctx context.Context, id model.StoreID) error {
	if c.status != model.StatusWelcome {
		return goerr.Wrap(model.ErrInvalidTransition, "select store", goerr.V("status", c.status.String()))
	}

	store := c.library.Get(id)
	if store == nil {
		return goerr.Wrap(model.ErrNotFound, "store is not in the library", goerr.V("store_id", id))
	}

	questions, err := c.gemini.SuggestQuestions(ctx, id)
	if err != nil {
		logging.From(ctx).Warn("failed to derive example questions", "error", err, "store_id", id)
		questions = nil
	}

	c.active = store
	c.questions = questions
	c.chat.Reset(id)
	c.status = model.StatusChatting
	return nil
}

// Send forwards a message to the chat driver. A driver failure is fatal to
// the session (the transcript keeps the synthetic apology turn).
func (c *Controller) Send(ctx context.Context, text string) error {
	if c.status != model.StatusChatting {
		return goerr.Wrap(model.ErrInvalidTransition, "send", goerr.V("status", c.status.String()))
	}

	if err := c.chat.Send(ctx, text); err != nil {
		c.fatalMsg = "The assistant could not answer. " + err.Error()
		c.status = model.StatusError
		return err
	}

	return nil
}

// EndChat tears the chat down and returns to Welcome: active store, chat
// transcript, example questions and staged files are all cleared, and a
// library refresh reconciles the store list.
func (c *Controller) EndChat(ctx context.Context) error {
	if c.status != model.StatusChatting {
		return goerr.Wrap(model.ErrInvalidTransition, "end chat", goerr.V("status", c.status.String()))
	}

	c.active = nil
	c.questions = nil
	c.staged = nil
	c.chat.Clear()
	c.status = model.StatusWelcome

	if _, err := c.library.Refresh(ctx); err != nil {
		logging.From(ctx).Warn("library refresh after chat failed", "error", err)
	}

	return nil
}

// Recover is the single exit from the Error state, back to Welcome.
func (c *Controller) Recover() error {
	if c.status != model.StatusError {
		return goerr.Wrap(model.ErrInvalidTransition, "recover", goerr.V("status", c.status.String()))
	}

	c.fatalMsg = ""
	c.status = model.StatusWelcome
	return nil
}

func (c *Controller) Status() model.Status {
	return c.status
}

func (c *Controller) ActiveStore() *model.Store {
	return c.active
}

func (c *Controller) Questions() []string {
	return c.questions
}

func (c *Controller) Messages() []*model.ChatMessage {
	return c.chat.Messages()
}

func (c *Controller) InFlight() bool {
	return c.chat.InFlight()
}

// Progress returns a copy of the upload progress, nil outside Uploading.
func (c *Controller) Progress() *model.UploadProgress {
	if c.progress == nil {
		return nil
	}
	p := *c.progress
	return &p
}

// FatalError is the message shown by the full-screen error state.
func (c *Controller) FatalError() string {
	return c.fatalMsg
}

// FieldError is the inline, non-fatal message shown on the welcome screen.
func (c *Controller) FieldError() string {
	return c.fieldMsg
}

func (c *Controller) Gate() *credential.Gate {
	return c.gate
}

func (c *Controller) Library() *library.Cache {
	return c.library
}
