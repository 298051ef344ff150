package commit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Source looks up a published commitment by route hash. The on-chain
// registry lookup lives behind this interface; implementations return
// ErrNotFound when nothing was committed for the hash.
type Source interface {
	GetCommit(ctx context.Context, routeHash Hash) (Commitment, error)
}

// Status classifies a verification outcome.
type Status string

const (
	// StatusVerified means the commitment exists, all three hashes
	// match, and the quote has not expired.
	StatusVerified Status = "verified"
	// StatusMismatch means a commitment exists but at least one
	// recomputed hash differs from the published one.
	StatusMismatch Status = "mismatch"
	// StatusExpired means the hashes match but the commitment's expiry
	// has passed.
	StatusExpired Status = "expired"
	// StatusNotFound means no commitment was published for the route.
	StatusNotFound Status = "not_found"
)

// Result is the outcome of one verification, with the published
// commitment attached when one was found.
type Result struct {
	Status     Status
	Commitment Commitment
}

// Verifier audits routing decisions against a commitment source.
type Verifier struct {
	source Source
	logger *slog.Logger
	now    func() time.Time
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) VerifierOption {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// WithClock overrides the expiry clock.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.now = now
	}
}

// NewVerifier creates a Verifier backed by the given source.
func NewVerifier(source Source, opts ...VerifierOption) *Verifier {
	v := &Verifier{source: source, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	v.logger = v.logger.With("component", "commit")
	return v
}

// Verify recomputes the manifest, rules, and solver hashes and compares
// them against the published commitment. Only transport or encoding
// failures are errors; an absent, mismatched, or expired commitment is
// a Result, since those are the findings an audit exists to report.
func (v *Verifier) Verify(ctx context.Context, manifest Manifest, rules any, solverVersion string) (Result, error) {
	routeHash, err := HashManifest(manifest)
	if err != nil {
		return Result{}, err
	}
	rulesHash, err := HashRules(rules)
	if err != nil {
		return Result{}, err
	}
	solverHash := HashSolverVersion(solverVersion)

	published, err := v.source.GetCommit(ctx, routeHash)
	if errors.Is(err, ErrNotFound) {
		v.logger.Warn("no commitment published for route", "quote", manifest.QuoteID)
		return Result{Status: StatusNotFound}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("fetching commitment: %w", err)
	}

	if published.RulesHash != rulesHash || published.SolverVersionHash != solverHash {
		v.logger.Warn("commitment hash mismatch", "quote", manifest.QuoteID)
		return Result{Status: StatusMismatch, Commitment: published}, nil
	}
	if !published.Expiry.IsZero() && v.now().After(published.Expiry) {
		return Result{Status: StatusExpired, Commitment: published}, nil
	}
	return Result{Status: StatusVerified, Commitment: published}, nil
}
