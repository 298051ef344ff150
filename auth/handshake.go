// Package auth obtains anchor bearer tokens through a SEP-10-style
// challenge/response handshake. The challenge is an opaque signed
// transaction envelope; it proves control of an address without ever
// transmitting a private key and is never submitted to the network.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/stellaprotocol/anchorflow/anchor"
	"github.com/stellaprotocol/anchorflow/wallet"
)

// ChallengeAPI is the slice of the anchor client the handshake needs.
type ChallengeAPI interface {
	Challenge(ctx context.Context, anchorDomain, userPublicKey string) (anchor.Challenge, error)
	Token(ctx context.Context, req anchor.TokenRequest) (string, error)
}

// Signer is the read-only wallet view plus signing delegate the
// handshake borrows. *wallet.Session satisfies it.
type Signer interface {
	Address() string
	CanSign() bool
	Sign(ctx context.Context, envelope, networkPassphrase string) (string, error)
}

// Handshake runs the three-step challenge/response protocol:
// fetch challenge, sign it, submit the signed envelope for a token.
//
// The steps are strictly sequential and never retried across step
// boundaries: a stale challenge cannot be re-signed usefully, so every
// failure is reported to the caller for a fresh attempt.
type Handshake struct {
	api    ChallengeAPI
	signer Signer
	logger *slog.Logger
}

// HandshakeOption configures a Handshake.
type HandshakeOption func(*Handshake)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) HandshakeOption {
	return func(h *Handshake) {
		h.logger = logger
	}
}

// NewHandshake creates a handshake client bound to a wallet signer.
func NewHandshake(api ChallengeAPI, signer Signer, opts ...HandshakeOption) *Handshake {
	h := &Handshake{api: api, signer: signer}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	h.logger = h.logger.With("component", "auth")
	return h
}

// Authenticate obtains a bearer token for the given anchor domain,
// scoped to the signer's current address. The wallet must expose a
// signing delegate; manual-entry sessions fail before any network call.
func (h *Handshake) Authenticate(ctx context.Context, anchorDomain string) (*Token, error) {
	if !h.signer.CanSign() {
		return nil, ErrWalletNotReady
	}
	address := h.signer.Address()

	challenge, err := h.api.Challenge(ctx, anchorDomain, address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
	}

	signed, err := h.signer.Sign(ctx, challenge.Envelope, challenge.NetworkPassphrase)
	if err != nil {
		if errors.Is(err, wallet.ErrUserCancelled) {
			return nil, fmt.Errorf("%w: %v", ErrSigningDeclined, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	value, err := h.api.Token(ctx, anchor.TokenRequest{
		SignedEnvelope: signed,
		AuthEndpoint:   challenge.AuthEndpoint,
		AnchorDomain:   anchorDomain,
		Address:        address,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthRejected, err)
	}

	h.logger.Info("handshake complete", "anchor", anchorDomain, "address", address)
	return newToken(value, anchorDomain, address), nil
}
