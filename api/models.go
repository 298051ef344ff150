package api

import (
	"github.com/stellaprotocol/anchorflow/asset"
	"github.com/stellaprotocol/anchorflow/commit"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ManualKeysRequest switches the session to manual-entry mode. The
// secret is optional and never persisted.
type ManualKeysRequest struct {
	Address string `json:"address"`
	Secret  string `json:"secret,omitempty"`
}

// ConnectResponse reports the address of a freshly connected session.
type ConnectResponse struct {
	Address string `json:"address"`
}

// LaunchDepositRequest describes the deposit to launch. Leg is
// optional; without it the deposit asset is inferred from the route
// path's final hop.
type LaunchDepositRequest struct {
	AnchorDomain string      `json:"anchor_domain"`
	Amount       string      `json:"amount"`
	Leg          *asset.Leg  `json:"leg,omitempty"`
	Route        asset.Route `json:"route"`
}

// VerifyCommitmentRequest carries the route data to audit: the
// manifest handed out with the quote, the published rules document,
// and the solver version it claims.
type VerifyCommitmentRequest struct {
	Manifest      commit.Manifest `json:"manifest"`
	Rules         any             `json:"rules"`
	SolverVersion string          `json:"solver_version"`
}

// VerifyCommitmentResponse reports the audit outcome.
type VerifyCommitmentResponse struct {
	Status    commit.Status `json:"status"`
	Committer string        `json:"committer,omitempty"`
}
