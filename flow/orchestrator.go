package flow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/stellaprotocol/anchorflow/anchor"
	"github.com/stellaprotocol/anchorflow/asset"
	"github.com/stellaprotocol/anchorflow/auth"
)

// Wallet is the read-only session view the orchestrator needs.
// *wallet.Session satisfies it.
type Wallet interface {
	Address() string
	CanSign() bool
}

// Authenticator obtains an anchor bearer token. *auth.Handshake
// satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, anchorDomain string) (*auth.Token, error)
}

// InitiationAPI is the slice of the anchor client the orchestrator
// needs.
type InitiationAPI interface {
	InitiateDeposit(ctx context.Context, req anchor.DepositRequest) (anchor.Interaction, error)
}

// LaunchRequest describes one deposit to launch. Leg may be nil when
// the route carries no structured anchor-leg detail; resolution then
// falls back to the route path.
type LaunchRequest struct {
	AnchorDomain string
	Amount       string
	Leg          *asset.Leg
	Route        asset.Route
}

// Orchestrator drives the launch sequence: resolve the deposit asset,
// run the handshake, initiate the flow with the anchor, open the
// interactive URL, register the record, and hand it to the poller.
type Orchestrator struct {
	session   Wallet
	resolver  *asset.Resolver
	handshake Authenticator
	api       InitiationAPI
	registry  *Registry
	poller    *Poller
	opener    Opener
	logger    *slog.Logger
	now       func() time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOpener sets how interactive URLs are opened. Defaults to
// NopOpener.
func WithOpener(opener Opener) OrchestratorOption {
	return func(o *Orchestrator) {
		o.opener = opener
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// withClock overrides the clock in tests.
func withClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator wires the launch collaborators together.
func NewOrchestrator(session Wallet, resolver *asset.Resolver, handshake Authenticator,
	api InitiationAPI, registry *Registry, poller *Poller, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		session:   session,
		resolver:  resolver,
		handshake: handshake,
		api:       api,
		registry:  registry,
		poller:    poller,
		opener:    NopOpener{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	o.logger = o.logger.With("component", "orchestrator")
	return o
}

// Launch starts one interactive deposit flow and begins polling it.
// Steps run strictly in sequence and the first failure aborts the
// whole launch; nothing is retried automatically. Launching twice
// creates two independent flows, no deduplication is attempted.
func (o *Orchestrator) Launch(ctx context.Context, req LaunchRequest) (Record, error) {
	if !o.session.CanSign() {
		return Record{}, ErrWalletNotReady
	}
	account := o.session.Address()

	depositAsset, err := o.resolver.Resolve(ctx, account, req.Leg, req.Route)
	if err != nil {
		return Record{}, fmt.Errorf("%w: resolving deposit asset: %w", ErrLaunchAborted, err)
	}

	token, err := o.handshake.Authenticate(ctx, req.AnchorDomain)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrLaunchAborted, err)
	}

	interaction, err := o.api.InitiateDeposit(ctx, anchor.DepositRequest{
		AnchorDomain: req.AnchorDomain,
		AuthToken:    token.Value,
		AssetCode:    depositAsset.Code,
		AssetIssuer:  depositAsset.Issuer,
		Amount:       req.Amount,
		Account:      account,
	})
	if err != nil {
		return Record{}, fmt.Errorf("%w: initiating deposit: %w", ErrLaunchAborted, err)
	}
	if interaction.URL == "" {
		return Record{}, fmt.Errorf("%w: %w", ErrLaunchAborted, ErrNoInteractiveURL)
	}

	// Best effort; a blocked open is not a failure and the URL remains
	// on the record for manual opening.
	opened := true
	if err := o.opener.Open(interaction.URL); err != nil {
		o.logger.Debug("opening interactive url failed", "flow", interaction.ID, "error", err)
		opened = false
	}

	rec := Record{
		ID:             interaction.ID,
		Kind:           KindDeposit,
		Asset:          depositAsset,
		Amount:         req.Amount,
		AnchorDomain:   req.AnchorDomain,
		InteractiveURL: interaction.URL,
		Opened:         opened,
		Status:         StatusPendingUserTransferStart,
		StartedAt:      o.now(),
		authToken:      token,
	}
	if err := o.registry.Add(rec); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrLaunchAborted, err)
	}
	o.poller.Track(rec)

	o.logger.Info("deposit flow launched",
		"flow", rec.ID, "anchor", rec.AnchorDomain, "asset", depositAsset.Code, "opened", opened)
	return rec, nil
}

// Dismiss removes a flow from the registry and stops its polling loop.
// Dismissing an unknown id is a no-op. An in-flight poll response for
// a dismissed flow is dropped by the registry's presence gate.
func (o *Orchestrator) Dismiss(id string) bool {
	present := o.registry.Dismiss(id)
	o.poller.Stop(id)
	return present
}
