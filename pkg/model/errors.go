package model

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrCredentialRejected marks failures caused by a missing or invalid
	// API credential. Adapters wrap remote rejections with this sentinel so
	// the session can route them back to credential selection instead of
	// the fatal error state.
	ErrCredentialRejected = goerr.New("credential rejected")

	// ErrNoCredential is returned when an action requires a selected
	// credential and none is present.
	ErrNoCredential = goerr.New("no credential selected")

	// ErrNothingStaged is returned when store creation is requested with an
	// empty staging set.
	ErrNothingStaged = goerr.New("no files staged")

	// ErrNoActiveStore is returned when a chat message is sent without an
	// active store.
	ErrNoActiveStore = goerr.New("no active store")

	// ErrInvalidTransition is returned when an event arrives in a session
	// state that does not accept it.
	ErrInvalidTransition = goerr.New("invalid session transition")

	// ErrNotFound is returned when a referenced store or document is not
	// known locally.
	ErrNotFound = goerr.New("not found")
)

// IsCredentialError reports whether err is credential-shaped, i.e. the
// recovery path is re-selecting a credential rather than the error screen.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrCredentialRejected)
}
