package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stellaprotocol/anchorflow/asset"
	"github.com/stellaprotocol/anchorflow/auth"
	"github.com/stellaprotocol/anchorflow/flow"
	"github.com/stellaprotocol/anchorflow/wallet"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wallet.ErrCapabilityUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, wallet.ErrAccessDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, wallet.ErrUserCancelled), errors.Is(err, auth.ErrSigningDeclined):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrWalletNotReady), errors.Is(err, flow.ErrWalletNotReady):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrAuthRejected):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrChallengeUnavailable), errors.Is(err, flow.ErrNoInteractiveURL):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, asset.ErrUndeterminable), errors.Is(err, asset.ErrBadKey):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
