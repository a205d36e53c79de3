package chat

import (
	"context"

	"github.com/libris-dev/libris/pkg/adapter"
	"github.com/libris-dev/libris/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// apologyText is appended as a synthetic model turn when a query fails, so
// the transcript always reflects that something came back.
const apologyText = "I'm sorry, I ran into a problem answering that. Please try again."

// Session drives the conversation against one active store. The message
// sequence is append-only while a store is active and fully reset when the
// active store changes or the chat ends.
type Session struct {
	gemini   adapter.Gemini
	storeID  model.StoreID
	messages []*model.ChatMessage
	inFlight bool
}

func New(gemini adapter.Gemini) *Session {
	return &Session{gemini: gemini}
}

// Reset points the session at a store and clears the transcript.
func (s *Session) Reset(storeID model.StoreID) {
	s.storeID = storeID
	s.messages = nil
	s.inFlight = false
}

// Clear detaches the session from any store and drops the transcript.
func (s *Session) Clear() {
	s.Reset("")
}

// Send appends the user turn, runs a grounded query, and appends the model
// turn. On failure the model turn is a synthetic apology and the error is
// returned for the session layer to classify as fatal. Without an active
// store the transcript is untouched.
func (s *Session) Send(ctx context.Context, text string) error {
	if s.storeID == "" {
		return goerr.Wrap(model.ErrNoActiveStore, "chat message dropped")
	}

	s.messages = append(s.messages, model.NewUserMessage(text))
	s.inFlight = true
	defer func() {
		s.inFlight = false
	}()

	reply, err := s.gemini.Query(ctx, s.storeID, text)
	if err != nil {
		s.messages = append(s.messages, model.NewModelMessage(apologyText, nil))
		return goerr.Wrap(err, "grounded query failed", goerr.V("store_id", s.storeID))
	}

	s.messages = append(s.messages, reply)
	return nil
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []*model.ChatMessage {
	out := make([]*model.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// InFlight reports whether a query is currently outstanding.
func (s *Session) InFlight() bool {
	return s.inFlight
}

// StoreID returns the store the session is attached to, empty when none.
func (s *Session) StoreID() model.StoreID {
	return s.storeID
}
