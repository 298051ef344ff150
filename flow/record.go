// Package flow launches and tracks interactive anchor deposit flows.
//
// Each flow lives on a third-party domain with its own asynchronous
// lifecycle; the only transition signal available to the client is
// polling, so the package pairs an in-memory registry with one polling
// loop per flow.
package flow

import (
	"time"

	"github.com/stellaprotocol/anchorflow/asset"
	"github.com/stellaprotocol/anchorflow/auth"
)

// KindDeposit is the only flow kind this engine launches. Withdrawals
// are out of scope.
const KindDeposit = "deposit"

// Anchor-defined status strings the engine gives meaning to. Everything
// else is carried opaquely for display.
const (
	StatusPendingUserTransferStart = "pending_user_transfer_start"
	StatusCompleted                = "completed"
	StatusError                    = "error"
	StatusRefunded                 = "refunded"
)

// IsTerminal reports whether a status ends a flow's polling.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusError, StatusRefunded:
		return true
	}
	return false
}

// Record tracks one in-flight interactive deposit. Records are passed
// by value; the registry holds the authoritative copy and is the only
// mutator after creation.
type Record struct {
	ID             string      `json:"id"`
	Kind           string      `json:"kind"`
	Asset          asset.Asset `json:"asset"`
	Amount         string      `json:"amount"`
	AnchorDomain   string      `json:"anchor_domain"`
	InteractiveURL string      `json:"interactive_url"`
	// Opened reports whether the interactive URL was launched in a
	// browsing context. A blocked popup is not a failure; the URL stays
	// available for manual opening.
	Opened    bool      `json:"opened"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`

	authToken *auth.Token
}

// Token returns the bearer token the flow polls with. Held in memory
// only, never serialized.
func (r Record) Token() *auth.Token {
	return r.authToken
}
