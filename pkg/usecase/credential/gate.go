package credential

import (
	"context"

	"github.com/libris-dev/libris/pkg/adapter"
)

// Gate tracks whether a usable API credential is currently selected. The
// selected flag is re-derived on every Check, which callers run at startup
// and at each interactive prompt cycle.
type Gate struct {
	source   adapter.CredentialSource
	selected bool
	errMsg   string
}

func New(source adapter.CredentialSource) *Gate {
	return &Gate{source: source}
}

// Check re-queries the host environment for credential presence and updates
// the selected flag. Absence of a credential is not an error.
func (g *Gate) Check() bool {
	g.selected = g.source.HasCredential()
	return g.selected
}

// Selected reports the flag as of the last Check (or Drop).
func (g *Gate) Selected() bool {
	return g.selected
}

// Request runs the host credential picker, then re-runs the presence check
// exactly once regardless of whether the picker succeeded or was canceled.
func (g *Gate) Request(ctx context.Context) error {
	err := g.source.Pick(ctx)
	if err != nil {
		g.errMsg = err.Error()
	} else {
		g.errMsg = ""
	}

	g.Check()
	return err
}

// Drop clears the selected flag without touching the host credential. Used
// when a remote call reactively rejects the credential.
func (g *Gate) Drop() {
	g.selected = false
}

// Error returns the message from the last failed selection attempt.
func (g *Gate) Error() string {
	return g.errMsg
}

// APIKey exposes the resolved key for adapter construction.
func (g *Gate) APIKey() string {
	return g.source.APIKey()
}
