package asset

import (
	"context"
	"log/slog"
	"os"
)

// TrustlineChecker reports which of the given asset keys the account
// holds no trustline for. The anchor package's client satisfies it.
type TrustlineChecker interface {
	MissingTrustlines(ctx context.Context, userPublicKey string, assetKeys []string) ([]string, error)
}

// Resolver determines the deposit asset for a route leg and issues the
// advisory trustline check.
type Resolver struct {
	checker TrustlineChecker
	logger  *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithTrustlineChecker enables the advisory trustline check. Without
// it, resolution works the same and no check is issued.
func WithTrustlineChecker(checker TrustlineChecker) ResolverOption {
	return func(r *Resolver) {
		r.checker = checker
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	r.logger = r.logger.With("component", "asset")
	return r
}

// Resolve determines which asset the anchor credits for the given leg.
// The anchor always credits the leg's destination side: a native→issued
// leg deposits the issued asset, an issued→native leg deposits native,
// and the degenerate same-kind legs default to the destination too.
// A route with no structured leg detail falls back to the final hop of
// the route path; leg key formats are never guessed at.
//
// When the resolved asset is non-native and the route never passes
// through the native asset, a trustline check is issued for account.
// The check is advisory: missing trustlines are logged, checker
// failures are swallowed, and neither ever blocks resolution.
func (r *Resolver) Resolve(ctx context.Context, account string, leg *Leg, route Route) (Asset, error) {
	resolved, err := r.resolve(leg, route)
	if err != nil {
		return Asset{}, err
	}
	if !resolved.IsNative && !route.passesThroughNative() {
		r.adviseTrustline(ctx, account, resolved)
	}
	return resolved, nil
}

func (r *Resolver) resolve(leg *Leg, route Route) (Asset, error) {
	if leg != nil && leg.To != "" {
		to, err := ParseKey(leg.To)
		if err != nil {
			return Asset{}, err
		}
		return to, nil
	}
	dest := route.Destination()
	if dest == "" {
		return Asset{}, ErrUndeterminable
	}
	return ParseKey(dest)
}

func (r *Resolver) adviseTrustline(ctx context.Context, account string, a Asset) {
	if r.checker == nil || account == "" {
		return
	}
	missing, err := r.checker.MissingTrustlines(ctx, account, []string{a.Key()})
	if err != nil {
		r.logger.Debug("trustline check failed", "asset", a.Key(), "error", err)
		return
	}
	if len(missing) > 0 {
		r.logger.Warn("account lacks trustline for deposit asset",
			"account", account, "missing", missing)
	}
}
