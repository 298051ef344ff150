// Package anchor is the HTTP boundary to the deposit collaborators: the
// auth challenge and token APIs, the interactive deposit initiation API,
// the flow status API, and the advisory trustline check.
//
// Upstream response shapes are normalized here; the rest of the engine
// only ever sees plain strings.
package anchor

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
)

const defaultTimeout = 10 * time.Second

// Endpoint paths relative to the client base URL.
const (
	pathChallenge  = "/auth/challenge"
	pathToken      = "/auth/token"
	pathDeposit    = "/sep24/deposit"
	pathStatus     = "/sep24/transaction"
	pathTrustlines = "/trustlines/check"
)

// APIError is a non-2xx response from a collaborator endpoint.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("anchor api: status %d", e.Status)
	}
	return fmt.Sprintf("anchor api: status %d: %s", e.Status, e.Message)
}

// Client calls the collaborator APIs. All methods honor the passed
// context and attach a per-request correlation id.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// NewClient creates a client for the collaborator APIs rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: baseURL}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	c.logger = c.logger.With("component", "anchor")
	return c
}

// Challenge fetches a SEP-10-style challenge envelope for the given
// anchor domain and public key.
func (c *Client) Challenge(ctx context.Context, anchorDomain, userPublicKey string) (Challenge, error) {
	var resp challengeResponse
	err := c.post(ctx, pathChallenge, challengeRequest{
		AnchorDomain:  anchorDomain,
		UserPublicKey: userPublicKey,
	}, &resp)
	if err != nil {
		return Challenge{}, err
	}
	if resp.ChallengeXDR == "" {
		return Challenge{}, fmt.Errorf("challenge response missing envelope")
	}
	return Challenge{
		Envelope:          string(resp.ChallengeXDR),
		NetworkPassphrase: resp.NetworkPassphrase,
		AuthEndpoint:      string(resp.AuthEndpoint),
	}, nil
}

// Token submits a signed challenge and returns the bearer token.
func (c *Client) Token(ctx context.Context, req TokenRequest) (string, error) {
	var resp tokenResponse
	err := c.post(ctx, pathToken, tokenRequestBody{
		SignedXDR:     req.SignedEnvelope,
		AuthEndpoint:  req.AuthEndpoint,
		AnchorDomain:  req.AnchorDomain,
		UserPublicKey: req.Address,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("token response missing token")
	}
	return string(resp.Token), nil
}

// InitiateDeposit asks the anchor to start an interactive deposit.
func (c *Client) InitiateDeposit(ctx context.Context, req DepositRequest) (Interaction, error) {
	var resp depositResponse
	err := c.post(ctx, pathDeposit, depositRequestBody{
		Type:         "deposit",
		AnchorDomain: req.AnchorDomain,
		AuthToken:    req.AuthToken,
		Request: depositRequestJSON{
			AssetCode:   req.AssetCode,
			AssetIssuer: req.AssetIssuer,
			Amount:      req.Amount,
			Account:     req.Account,
		},
	}, &resp)
	if err != nil {
		return Interaction{}, err
	}
	if resp.ID == "" {
		return Interaction{}, fmt.Errorf("deposit response missing flow id")
	}
	return Interaction{ID: string(resp.ID), URL: string(resp.URL)}, nil
}

// FlowStatus fetches the anchor-defined status string for a flow.
func (c *Client) FlowStatus(ctx context.Context, req StatusRequest) (string, error) {
	var resp statusResponse
	err := c.post(ctx, pathStatus, statusRequestBody{
		ID:           req.ID,
		AnchorDomain: req.AnchorDomain,
		AuthToken:    req.AuthToken,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Status == "" {
		return "", fmt.Errorf("status response missing status")
	}
	return resp.Status, nil
}

// MissingTrustlines reports which of the given asset keys the account
// has no trustline for. Advisory only; callers treat failures as noise.
func (c *Client) MissingTrustlines(ctx context.Context, userPublicKey string, assetKeys []string) ([]string, error) {
	var resp trustlinesResponse
	err := c.post(ctx, pathTrustlines, trustlinesRequest{
		UserPublicKey: userPublicKey,
		AssetKeys:     assetKeys,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.MissingTrustlines, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody struct {
			Error string `json:"error"`
		}
		if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
			if json.Unmarshal(data, &errBody) == nil {
				apiErr.Message = errBody.Error
			}
		}
		c.logger.Debug("anchor call failed", "path", path, "status", resp.StatusCode)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
