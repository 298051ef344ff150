package bridge_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellaprotocol/anchorflow/wallet"
	"github.com/stellaprotocol/anchorflow/wallet/bridge"
)

func TestCapability_Probe(t *testing.T) {
	tests := map[string]struct {
		handler http.HandlerFunc
		want    bool
	}{
		"available": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]bool{"available": true})
			},
			want: true,
		},
		"extension missing": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]bool{"available": false})
			},
			want: false,
		},
		"bridge error": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: false,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			assert.Equal(t, tc.want, bridge.New(srv.URL).Probe(context.Background()))
		})
	}
}

func TestCapability_ProbeBridgeDown(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close()
	assert.False(t, bridge.New(srv.URL).Probe(context.Background()), "unreachable bridge reads as unavailable")
}

func TestCapability_RequestAccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/access", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"address": "GABC"})
	}))
	defer srv.Close()

	addr, err := bridge.New(srv.URL).RequestAccess(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "GABC", addr)
}

func TestCapability_Sign(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sign", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "challenge-xdr", body["envelope"])
		assert.Equal(t, "GABC", body["address"])

		json.NewEncoder(w).Encode(map[string]string{"signedEnvelope": "signed-xdr"})
	}))
	defer srv.Close()

	signed, err := bridge.New(srv.URL).Sign(context.Background(), wallet.SignRequest{
		Envelope:          "challenge-xdr",
		NetworkPassphrase: "Test SDF Network ; September 2015",
		Address:           "GABC",
	})
	require.NoError(t, err)
	assert.Equal(t, "signed-xdr", signed)
}

func TestCapability_SignUserCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error":  "user declined signing prompt",
			"reason": "cancelled",
		})
	}))
	defer srv.Close()

	_, err := bridge.New(srv.URL).Sign(context.Background(), wallet.SignRequest{Envelope: "challenge-xdr"})
	require.ErrorIs(t, err, wallet.ErrUserCancelled)
}

func TestCapability_SignBridgeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "extension messaging timeout"})
	}))
	defer srv.Close()

	_, err := bridge.New(srv.URL).Sign(context.Background(), wallet.SignRequest{Envelope: "challenge-xdr"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, wallet.ErrUserCancelled)
}
