package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellaprotocol/anchorflow/anchor"
	"github.com/stellaprotocol/anchorflow/asset"
	"github.com/stellaprotocol/anchorflow/auth"
	"github.com/stellaprotocol/anchorflow/storage/memory"
	"github.com/stellaprotocol/anchorflow/wallet"
)

const testIssuer = "GCDNJUBQSX7AJWLJACMJ7I4BC3Z47BQUTMHEICZLE6MU4KQBRYG5JY6B"

type fakeWallet struct {
	address string
	canSign bool
}

func (f *fakeWallet) Address() string { return f.address }
func (f *fakeWallet) CanSign() bool   { return f.canSign }

type fakeAuthenticator struct {
	token *auth.Token
	err   error
	calls int
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, anchorDomain string) (*auth.Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

type fakeInitiationAPI struct {
	interaction anchor.Interaction
	err         error
	calls       int
	lastReq     anchor.DepositRequest
}

func (f *fakeInitiationAPI) InitiateDeposit(ctx context.Context, req anchor.DepositRequest) (anchor.Interaction, error) {
	f.calls++
	f.lastReq = req
	return f.interaction, f.err
}

type recordingOpener struct {
	urls []string
	err  error
}

func (o *recordingOpener) Open(url string) error {
	o.urls = append(o.urls, url)
	return o.err
}

func launchFixture(t *testing.T) (*fakeAuthenticator, *fakeInitiationAPI, *Registry, *Poller) {
	t.Helper()
	authn := &fakeAuthenticator{token: &auth.Token{
		Value:        "bearer-token",
		AnchorDomain: "testanchor.stellar.org",
		Address:      "GABC",
	}}
	initAPI := &fakeInitiationAPI{interaction: anchor.Interaction{
		ID:  "tx1",
		URL: "https://testanchor.stellar.org/sep24/interactive?id=tx1",
	}}
	g := NewRegistry()
	p := NewPoller(&scriptedStatusAPI{statuses: []string{"pending_anchor"}}, g, WithInterval(time.Hour))
	t.Cleanup(p.Close)
	return authn, initAPI, g, p
}

func srtLaunchRequest() LaunchRequest {
	return LaunchRequest{
		AnchorDomain: "testanchor.stellar.org",
		Amount:       "5",
		Leg:          &asset.Leg{From: "XLM:native", To: "SRT:" + testIssuer},
		Route:        asset.Route{Path: []string{"XLM:native", "SRT:" + testIssuer}},
	}
}

func TestOrchestrator_LaunchSuccess(t *testing.T) {
	authn, initAPI, g, p := launchFixture(t)
	opener := &recordingOpener{}
	started := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	o := NewOrchestrator(&fakeWallet{address: "GABC", canSign: true}, asset.NewResolver(),
		authn, initAPI, g, p,
		WithOpener(opener), withClock(func() time.Time { return started }))

	rec, err := o.Launch(context.Background(), srtLaunchRequest())
	require.NoError(t, err)

	assert.Equal(t, "tx1", rec.ID)
	assert.Equal(t, KindDeposit, rec.Kind)
	assert.Equal(t, asset.Asset{Code: "SRT", Issuer: testIssuer}, rec.Asset)
	assert.Equal(t, StatusPendingUserTransferStart, rec.Status)
	assert.NotEmpty(t, rec.InteractiveURL)
	assert.True(t, rec.Opened)
	assert.Equal(t, started, rec.StartedAt)
	assert.Equal(t, "bearer-token", rec.Token().Value)

	// The anchor saw the resolved asset and the wallet's account.
	assert.Equal(t, "SRT", initAPI.lastReq.AssetCode)
	assert.Equal(t, testIssuer, initAPI.lastReq.AssetIssuer)
	assert.Equal(t, "GABC", initAPI.lastReq.Account)
	assert.Equal(t, "bearer-token", initAPI.lastReq.AuthToken)

	assert.Equal(t, []string{rec.InteractiveURL}, opener.urls)

	got, ok := g.Get("tx1")
	require.True(t, ok)
	assert.Equal(t, StatusPendingUserTransferStart, got.Status)
	require.Len(t, g.List(), 1)
}

func TestOrchestrator_WalletNotReady(t *testing.T) {
	authn, initAPI, g, p := launchFixture(t)
	o := NewOrchestrator(&fakeWallet{address: "GMANUAL", canSign: false}, asset.NewResolver(),
		authn, initAPI, g, p)

	_, err := o.Launch(context.Background(), srtLaunchRequest())
	require.ErrorIs(t, err, ErrWalletNotReady)
	assert.Zero(t, authn.calls)
	assert.Zero(t, initAPI.calls)
	assert.Empty(t, g.List())
}

func TestOrchestrator_AbortsOnResolveFailure(t *testing.T) {
	authn, initAPI, g, p := launchFixture(t)
	o := NewOrchestrator(&fakeWallet{address: "GABC", canSign: true}, asset.NewResolver(),
		authn, initAPI, g, p)

	_, err := o.Launch(context.Background(), LaunchRequest{AnchorDomain: "testanchor.stellar.org", Amount: "5"})
	require.ErrorIs(t, err, ErrLaunchAborted)
	require.ErrorIs(t, err, asset.ErrUndeterminable)
	assert.Zero(t, authn.calls, "resolution failure stops the sequence before the handshake")
}

func TestOrchestrator_AbortsOnHandshakeFailure(t *testing.T) {
	authn, initAPI, g, p := launchFixture(t)
	authn.err = auth.ErrAuthRejected
	o := NewOrchestrator(&fakeWallet{address: "GABC", canSign: true}, asset.NewResolver(),
		authn, initAPI, g, p)

	_, err := o.Launch(context.Background(), srtLaunchRequest())
	require.ErrorIs(t, err, ErrLaunchAborted)
	require.ErrorIs(t, err, auth.ErrAuthRejected)
	assert.Zero(t, initAPI.calls)
	assert.Empty(t, g.List())
}

func TestOrchestrator_NoInteractiveURL(t *testing.T) {
	authn, initAPI, g, p := launchFixture(t)
	initAPI.interaction = anchor.Interaction{ID: "tx1"}
	o := NewOrchestrator(&fakeWallet{address: "GABC", canSign: true}, asset.NewResolver(),
		authn, initAPI, g, p)

	_, err := o.Launch(context.Background(), srtLaunchRequest())
	require.ErrorIs(t, err, ErrNoInteractiveURL)
	assert.Empty(t, g.List())
}

func TestOrchestrator_BlockedOpenIsNotAFailure(t *testing.T) {
	authn, initAPI, g, p := launchFixture(t)
	opener := &recordingOpener{err: errors.New("popup blocked")}
	o := NewOrchestrator(&fakeWallet{address: "GABC", canSign: true}, asset.NewResolver(),
		authn, initAPI, g, p, WithOpener(opener))

	rec, err := o.Launch(context.Background(), srtLaunchRequest())
	require.NoError(t, err)
	assert.False(t, rec.Opened)
	assert.NotEmpty(t, rec.InteractiveURL, "the url stays retrievable for manual opening")
}

func TestOrchestrator_TwoLaunchesTwoFlows(t *testing.T) {
	authn, initAPI, g, p := launchFixture(t)
	o := NewOrchestrator(&fakeWallet{address: "GABC", canSign: true}, asset.NewResolver(),
		authn, initAPI, g, p)

	_, err := o.Launch(context.Background(), srtLaunchRequest())
	require.NoError(t, err)

	initAPI.interaction = anchor.Interaction{ID: "tx2", URL: "https://testanchor.stellar.org/sep24/interactive?id=tx2"}
	_, err = o.Launch(context.Background(), srtLaunchRequest())
	require.NoError(t, err)

	assert.Len(t, g.List(), 2, "no deduplication by asset or amount")
	assert.Equal(t, 2, authn.calls, "each flow runs its own handshake")
}

func TestOrchestrator_Dismiss(t *testing.T) {
	authn, initAPI, g, p := launchFixture(t)
	o := NewOrchestrator(&fakeWallet{address: "GABC", canSign: true}, asset.NewResolver(),
		authn, initAPI, g, p)

	rec, err := o.Launch(context.Background(), srtLaunchRequest())
	require.NoError(t, err)

	assert.True(t, o.Dismiss(rec.ID))
	_, ok := g.Get(rec.ID)
	assert.False(t, ok)
	assert.False(t, o.Dismiss(rec.ID), "dismissing an absent flow is a no-op")
}

// orderedCollaborator implements every anchor-facing call and records
// the order they arrive in.
type orderedCollaborator struct {
	mu    sync.Mutex
	calls []string
}

func (c *orderedCollaborator) record(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
}

func (c *orderedCollaborator) ordered() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *orderedCollaborator) Challenge(ctx context.Context, anchorDomain, userPublicKey string) (anchor.Challenge, error) {
	c.record("challenge")
	return anchor.Challenge{
		Envelope:          "challenge-xdr",
		NetworkPassphrase: "Test SDF Network ; September 2015",
		AuthEndpoint:      "https://testanchor.stellar.org/auth",
	}, nil
}

func (c *orderedCollaborator) Token(ctx context.Context, req anchor.TokenRequest) (string, error) {
	c.record("token")
	return "bearer-token", nil
}

func (c *orderedCollaborator) InitiateDeposit(ctx context.Context, req anchor.DepositRequest) (anchor.Interaction, error) {
	c.record("initiate")
	return anchor.Interaction{ID: "tx1", URL: "https://testanchor.stellar.org/sep24/interactive?id=tx1"}, nil
}

func (c *orderedCollaborator) FlowStatus(ctx context.Context, req anchor.StatusRequest) (string, error) {
	c.record("status")
	return StatusCompleted, nil
}

type grantAllCapability struct{}

func (grantAllCapability) Probe(ctx context.Context) bool { return true }
func (grantAllCapability) RequestAccess(ctx context.Context) (string, error) {
	return "GABC", nil
}
func (grantAllCapability) Sign(ctx context.Context, req wallet.SignRequest) (string, error) {
	return "signed-" + req.Envelope, nil
}

// Full launch sequence through the real session and handshake: exactly
// four collaborator calls, strictly ordered, ending in a tracked record
// with a non-empty interactive URL.
func TestLaunch_FullSequence(t *testing.T) {
	collab := &orderedCollaborator{}

	session := wallet.NewSession(grantAllCapability{}, memory.NewStore())
	_, err := session.Connect(context.Background())
	require.NoError(t, err)

	handshake := auth.NewHandshake(collab, session)
	g := NewRegistry()
	p := NewPoller(collab, g, WithInterval(2*time.Millisecond))
	t.Cleanup(p.Close)

	o := NewOrchestrator(session, asset.NewResolver(), handshake, collab, g, p)
	rec, err := o.Launch(context.Background(), srtLaunchRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.InteractiveURL)

	// First poll reports completed and the loop stops.
	require.Eventually(t, func() bool {
		got, ok := g.Get("tx1")
		return ok && got.Status == StatusCompleted
	}, time.Second, time.Millisecond)

	assert.Equal(t, []string{"challenge", "token", "initiate", "status"}, collab.ordered())
}
