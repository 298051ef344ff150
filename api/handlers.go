package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stellaprotocol/anchorflow/flow"
)

// WalletStatus returns the current session snapshot.
func (a *API) WalletStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.session.Snapshot())
}

// ConnectWallet establishes a managed extension session. The extension
// may prompt the user, so this call can block until they respond.
func (a *API) ConnectWallet(w http.ResponseWriter, r *http.Request) {
	address, err := a.session.Connect(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConnectResponse{Address: address})
}

// SetManualKeys switches the session to manual-entry mode.
func (a *API) SetManualKeys(w http.ResponseWriter, r *http.Request) {
	var req ManualKeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}
	a.session.SetManualKeys(req.Address, req.Secret)
	writeJSON(w, http.StatusOK, a.session.Snapshot())
}

// DisconnectWallet clears the session. Always succeeds.
func (a *API) DisconnectWallet(w http.ResponseWriter, r *http.Request) {
	a.session.Disconnect()
	writeJSON(w, http.StatusOK, a.session.Snapshot())
}

// LaunchDeposit starts one interactive deposit flow.
func (a *API) LaunchDeposit(w http.ResponseWriter, r *http.Request) {
	var req LaunchDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AnchorDomain == "" {
		writeError(w, http.StatusBadRequest, "anchor_domain is required")
		return
	}
	if req.Amount == "" {
		writeError(w, http.StatusBadRequest, "amount is required")
		return
	}

	rec, err := a.orchestrator.Launch(r.Context(), flow.LaunchRequest{
		AnchorDomain: req.AnchorDomain,
		Amount:       req.Amount,
		Leg:          req.Leg,
		Route:        req.Route,
	})
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListDeposits returns all tracked flows, newest first. Terminal and
// lifetime-capped flows stay listed until dismissed.
func (a *API) ListDeposits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.registry.List())
}

// GetDeposit returns one tracked flow.
func (a *API) GetDeposit(w http.ResponseWriter, r *http.Request) {
	rec, ok := a.registry.Get(chi.URLParam(r, "flowID"))
	if !ok {
		writeError(w, http.StatusNotFound, "flow not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DismissDeposit removes a flow and stops its polling.
func (a *API) DismissDeposit(w http.ResponseWriter, r *http.Request) {
	if !a.orchestrator.Dismiss(chi.URLParam(r, "flowID")) {
		writeError(w, http.StatusNotFound, "flow not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VerifyCommitment audits a routing decision against the public
// commitment registry.
func (a *API) VerifyCommitment(w http.ResponseWriter, r *http.Request) {
	if a.verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "commitment verification not configured")
		return
	}

	var req VerifyCommitmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SolverVersion == "" {
		writeError(w, http.StatusBadRequest, "solver_version is required")
		return
	}

	res, err := a.verifier.Verify(r.Context(), req.Manifest, req.Rules, req.SolverVersion)
	if err != nil {
		// Only encoding failures and an unreachable registry error out;
		// findings come back as a status.
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, VerifyCommitmentResponse{
		Status:    res.Status,
		Committer: res.Commitment.Committer,
	})
}
