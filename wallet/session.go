// Package wallet manages the user's wallet session: connection
// lifecycle, persistence, silent reconnect, and the signing delegate.
//
// The session never touches a private key. Signing is delegated to an
// injected Capability; in manual-entry mode no signing delegate is
// exposed at all.
package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/awnumar/memguard"

	"github.com/stellaprotocol/anchorflow/storage"
)

// SessionMode describes how the current session was established.
type SessionMode string

const (
	ModeNone SessionMode = "none"
	// ModeManaged is a session backed by the signing extension.
	ModeManaged SessionMode = "managed"
	// ModeManual is an address entered by hand. No signing delegate is
	// exposed in this mode.
	ModeManual SessionMode = "manual"
)

// ConnectionState is the externally visible session state.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateManualEntry  ConnectionState = "manual_entry"
)

// Snapshot is a read-only view of the session for UI and API layers.
type Snapshot struct {
	State     ConnectionState `json:"state"`
	Mode      SessionMode     `json:"mode"`
	Address   string          `json:"address"`
	LastError string          `json:"last_error,omitempty"`
}

// Session owns the wallet connection lifecycle. All methods are safe for
// concurrent use; the session serializes its own state transitions.
type Session struct {
	capability Capability
	store      storage.Store
	logger     *slog.Logger

	mu           sync.Mutex
	state        ConnectionState
	mode         SessionMode
	address      string
	lastErr      error
	manualSecret *memguard.Enclave
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the structured logger. If not set, a default JSON
// logger writing to stderr is used.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a disconnected session. The capability and store
// are required collaborators; use storage/memory for ephemeral sessions.
func NewSession(capability Capability, store storage.Store, opts ...SessionOption) *Session {
	s := &Session{
		capability: capability,
		store:      store,
		state:      StateDisconnected,
		mode:       ModeNone,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	s.logger = s.logger.With("component", "wallet")
	return s
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:   s.state,
		Mode:    s.mode,
		Address: s.address,
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

// Address returns the session's public address, or "" when disconnected.
func (s *Session) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address
}

// CanSign reports whether the session currently exposes a signing delegate.
func (s *Session) CanSign() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateConnected && s.mode == ModeManaged
}

// DetectCapability probes for a signing-capable extension. It never
// fails; any probing error is reported as false.
func (s *Session) DetectCapability(ctx context.Context) bool {
	return s.capability.Probe(ctx)
}

// StartupReconnect restores a previously persisted session without
// prompting the user. The extension may still be initializing when the
// host page loads, so a failed first probe is retried once after
// retryDelay. All failures are swallowed; the session simply stays
// disconnected.
func (s *Session) StartupReconnect(ctx context.Context, retryDelay time.Duration) {
	if !s.capability.Probe(ctx) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
		if !s.capability.Probe(ctx) {
			s.logger.Debug("startup probe found no signing capability")
			return
		}
	}
	s.SilentReconnect(ctx, "")
}

// SilentReconnect restores a persisted session if the extension still
// grants pre-approved access. When expectedAddress is non-empty the
// restored address must match it. Failures are swallowed and never
// surfaced to the user.
func (s *Session) SilentReconnect(ctx context.Context, expectedAddress string) {
	rec, err := s.store.Load()
	if err != nil {
		return
	}

	switch rec.Mode {
	case storage.ModeManual:
		if rec.Address == "" {
			return
		}
		s.mu.Lock()
		s.setManualLocked(rec.Address, "")
		s.mu.Unlock()
		s.logger.Info("restored manual session", "address", rec.Address)

	case storage.ModeManaged:
		if !s.capability.Probe(ctx) {
			return
		}
		// Pre-approved access resolves without a prompt; anything else
		// (decline, timeout, empty result) leaves the session untouched.
		address, err := s.capability.RequestAccess(ctx)
		if err != nil || address == "" {
			s.logger.Debug("silent reconnect did not restore access")
			return
		}
		if expectedAddress != "" && address != expectedAddress {
			s.logger.Debug("silent reconnect address mismatch")
			return
		}
		if rec.Address != "" && address != rec.Address {
			s.logger.Debug("silent reconnect address changed, ignoring persisted session")
			return
		}
		s.mu.Lock()
		s.setConnectedLocked(address)
		s.mu.Unlock()
		s.logger.Info("restored managed session", "address", address)
	}
}

// Connect establishes a managed extension session, prompting the user if
// needed. On success the session transitions to connected and the
// (mode, address) record is persisted.
func (s *Session) Connect(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.state = StateConnecting
	s.mu.Unlock()

	if !s.capability.Probe(ctx) {
		s.failConnect(ErrCapabilityUnavailable)
		return "", ErrCapabilityUnavailable
	}

	address, err := s.capability.RequestAccess(ctx)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrAccessDenied, err)
		s.failConnect(wrapped)
		return "", wrapped
	}
	if address == "" {
		s.failConnect(ErrAccessDenied)
		return "", ErrAccessDenied
	}

	s.mu.Lock()
	s.setConnectedLocked(address)
	s.mu.Unlock()

	if err := s.store.Save(storage.Record{Mode: storage.ModeManaged, Address: address}); err != nil {
		s.logger.Warn("persisting session record failed", "error", err)
	}
	s.logger.Info("wallet connected", "address", address)
	return address, nil
}

// SetManualKeys switches the session to manual-entry mode. The optional
// secret is held in a memguard enclave purely so the UI can round-trip
// it; this engine never signs with it.
func (s *Session) SetManualKeys(address, secret string) {
	s.mu.Lock()
	s.setManualLocked(address, secret)
	s.mu.Unlock()

	if err := s.store.Save(storage.Record{Mode: storage.ModeManual, Address: address}); err != nil {
		s.logger.Warn("persisting session record failed", "error", err)
	}
	s.logger.Info("manual session set", "address", address)
}

// Disconnect clears in-memory and persisted session state. It always
// succeeds and is idempotent.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		s.logger.Warn("clearing session record failed", "error", err)
	}
	s.logger.Info("wallet disconnected")
}

// Sign delegates envelope signing to the extension. Only valid for a
// connected managed session; manual-entry sessions never expose signing.
func (s *Session) Sign(ctx context.Context, envelope, networkPassphrase string) (string, error) {
	s.mu.Lock()
	if s.mode != ModeManaged || s.state != StateConnected {
		s.mu.Unlock()
		return "", ErrUnsupportedMode
	}
	address := s.address
	s.mu.Unlock()

	signed, err := s.capability.Sign(ctx, SignRequest{
		Envelope:          envelope,
		NetworkPassphrase: networkPassphrase,
		Address:           address,
	})
	switch {
	case err == nil:
		return signed, nil
	case isCancelled(err):
		return "", fmt.Errorf("%w: %v", ErrUserCancelled, err)
	default:
		return "", fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
}

func (s *Session) failConnect(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDisconnected
	s.mode = ModeNone
	s.address = ""
	s.lastErr = err
}

// setConnectedLocked transitions to a managed connected session,
// clearing any prior mode's state. Callers hold s.mu.
func (s *Session) setConnectedLocked(address string) {
	s.destroyManualSecretLocked()
	s.state = StateConnected
	s.mode = ModeManaged
	s.address = address
	s.lastErr = nil
}

func (s *Session) setManualLocked(address, secret string) {
	s.destroyManualSecretLocked()
	s.state = StateManualEntry
	s.mode = ModeManual
	s.address = address
	s.lastErr = nil
	if secret != "" {
		s.manualSecret = memguard.NewEnclave([]byte(secret))
	}
}

func (s *Session) clearLocked() {
	s.destroyManualSecretLocked()
	s.state = StateDisconnected
	s.mode = ModeNone
	s.address = ""
	s.lastErr = nil
}

func (s *Session) destroyManualSecretLocked() {
	if s.manualSecret != nil {
		if buf, err := s.manualSecret.Open(); err == nil {
			buf.Destroy()
		}
		s.manualSecret = nil
	}
}
