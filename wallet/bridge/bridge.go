// Package bridge implements wallet.Capability over HTTP against a
// local signer bridge: a small companion process that relays probe,
// access, and signing requests to the user's wallet extension. The
// private key stays on the extension's side of the bridge.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/stellaprotocol/anchorflow/wallet"
)

const defaultTimeout = 10 * time.Second

const (
	pathProbe  = "/probe"
	pathAccess = "/access"
	pathSign   = "/sign"
)

// Capability talks to a signer bridge at a base URL. It satisfies
// wallet.Capability.
type Capability struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Capability.
type Option func(*Capability)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Capability) {
		b.httpClient = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Capability) {
		b.logger = logger
	}
}

// New creates a Capability for the bridge at baseURL.
func New(baseURL string, opts ...Option) *Capability {
	b := &Capability{baseURL: baseURL}
	for _, opt := range opts {
		opt(b)
	}
	if b.httpClient == nil {
		b.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	b.logger = b.logger.With("component", "bridge")
	return b
}

// Probe reports whether the bridge can reach a signing-capable
// extension. Every failure — bridge down, extension missing, messaging
// timeout — reads as false; the extension may still be initializing, so
// callers re-probe.
func (b *Capability) Probe(ctx context.Context) bool {
	var resp struct {
		Available bool `json:"available"`
	}
	if err := b.post(ctx, pathProbe, struct{}{}, &resp); err != nil {
		b.logger.Debug("probe failed", "error", err)
		return false
	}
	return resp.Available
}

// RequestAccess asks the extension for the user's public address,
// prompting if the site is not pre-approved.
func (b *Capability) RequestAccess(ctx context.Context) (string, error) {
	var resp struct {
		Address string `json:"address"`
	}
	if err := b.post(ctx, pathAccess, struct{}{}, &resp); err != nil {
		return "", err
	}
	return resp.Address, nil
}

// Sign relays an envelope to the extension for signing.
func (b *Capability) Sign(ctx context.Context, req wallet.SignRequest) (string, error) {
	var resp struct {
		SignedEnvelope string `json:"signedEnvelope"`
	}
	err := b.post(ctx, pathSign, map[string]string{
		"envelope":          req.Envelope,
		"networkPassphrase": req.NetworkPassphrase,
		"address":           req.Address,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.SignedEnvelope == "" {
		return "", fmt.Errorf("bridge returned empty signed envelope")
	}
	return resp.SignedEnvelope, nil
}

func (b *Capability) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling bridge %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return b.statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding bridge %s response: %w", path, err)
	}
	return nil
}

// statusError maps a non-2xx bridge response to an error. The bridge
// reports a user decline with the "cancelled" reason, which callers
// need to tell apart from real failures.
func (b *Capability) statusError(resp *http.Response) error {
	var errBody struct {
		Error  string `json:"error"`
		Reason string `json:"reason"`
	}
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		json.Unmarshal(data, &errBody)
	}
	if errBody.Reason == "cancelled" {
		return fmt.Errorf("%w: %s", wallet.ErrUserCancelled, errBody.Error)
	}
	if errBody.Error != "" {
		return fmt.Errorf("bridge: status %d: %s", resp.StatusCode, errBody.Error)
	}
	return fmt.Errorf("bridge: status %d", resp.StatusCode)
}
