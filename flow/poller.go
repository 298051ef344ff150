package flow

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/stellaprotocol/anchorflow/anchor"
)

const (
	// DefaultPollInterval is how often each flow's status is fetched.
	DefaultPollInterval = 5 * time.Second
	// DefaultMaxLifetime caps how long a flow is polled, measured from
	// Record.StartedAt. On reaching the cap the record is left in place
	// with whatever status was last observed.
	DefaultMaxLifetime = 30 * time.Minute
)

// StatusAPI is the slice of the anchor client the poller needs.
type StatusAPI interface {
	FlowStatus(ctx context.Context, req anchor.StatusRequest) (string, error)
}

// Poller runs one independent polling loop per tracked flow. Loops
// self-cancel on a terminal status, on the lifetime cap, on Stop, or
// on Close; flows never observe each other.
type Poller struct {
	api      StatusAPI
	registry *Registry
	interval time.Duration
	lifetime time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.interval = d
	}
}

// WithMaxLifetime sets the wall-clock polling cap per flow.
func WithMaxLifetime(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.lifetime = d
	}
}

// WithPollerLogger sets the structured logger.
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// NewPoller creates a poller that mutates rec.Status in the registry.
func NewPoller(api StatusAPI, registry *Registry, opts ...PollerOption) *Poller {
	p := &Poller{
		api:      api,
		registry: registry,
		interval: DefaultPollInterval,
		lifetime: DefaultMaxLifetime,
		cancels:  make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	p.logger = p.logger.With("component", "poller")
	return p
}

// Track starts the polling loop for a registered flow. At most one
// loop runs per flow id; tracking an id twice is a no-op.
func (p *Poller) Track(rec Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if _, running := p.cancels[rec.ID]; running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancels[rec.ID] = cancel
	p.wg.Add(1)
	go p.loop(ctx, rec)
}

// Stop cancels the polling loop for id, synchronously with respect to
// new ticks: no tick starts after Stop returns. A response already in
// flight is discarded by the registry's presence gate.
func (p *Poller) Stop(id string) {
	p.mu.Lock()
	cancel, ok := p.cancels[id]
	if ok {
		delete(p.cancels, id)
	}
	p.mu.Unlock()
	if ok {
		cancel()
	}
}

// Close stops all polling loops and waits for them to exit. The poller
// accepts no new flows afterwards.
func (p *Poller) Close() {
	p.mu.Lock()
	p.closed = true
	cancels := p.cancels
	p.cancels = make(map[string]context.CancelFunc)
	p.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	p.wg.Wait()
}

func (p *Poller) loop(ctx context.Context, rec Record) {
	defer p.wg.Done()
	defer p.forget(rec.ID)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	deadline := rec.StartedAt.Add(p.lifetime)
	capTimer := time.NewTimer(time.Until(deadline))
	defer capTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-capTimer.C:
			// Lifetime cap: stop polling, keep the record and its last
			// observed status.
			p.logger.Info("flow polling capped", "flow", rec.ID)
			return
		case <-ticker.C:
			if p.tick(ctx, rec) {
				return
			}
		}
	}
}

// tick fetches and applies one status update. It reports true when the
// loop should stop. Transport and parse failures skip the tick
// silently; a transient blip is not a terminal failure.
func (p *Poller) tick(ctx context.Context, rec Record) (done bool) {
	status, err := p.api.FlowStatus(ctx, anchor.StatusRequest{
		ID:           rec.ID,
		AnchorDomain: rec.AnchorDomain,
		AuthToken:    rec.Token().Value,
	})
	if err != nil {
		p.logger.Debug("poll tick skipped", "flow", rec.ID, "error", err)
		return false
	}

	if !p.registry.updateStatus(rec.ID, status) {
		// Dismissed while the request was in flight.
		return true
	}
	if IsTerminal(status) {
		p.logger.Info("flow reached terminal status", "flow", rec.ID, "status", status)
		return true
	}
	return false
}

func (p *Poller) forget(id string) {
	p.mu.Lock()
	if cancel, ok := p.cancels[id]; ok {
		delete(p.cancels, id)
		defer cancel()
	}
	p.mu.Unlock()
}
