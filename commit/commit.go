// Package commit recomputes and verifies route-integrity commitments.
//
// Routing decisions are published as SHA-256 commitments in a public
// registry: a route-manifest hash keyed to a rules-configuration hash,
// a solver-version hash, and timing metadata. The registry itself is an
// external collaborator; this package implements the audit half a
// client performs — recompute the hashes locally from the data it was
// handed and compare them against the published commitment.
package commit

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by a Source when no commitment exists for a
// route hash.
var ErrNotFound = errors.New("route commitment not found")

// Hash is a 32-byte SHA-256 digest.
type Hash = [sha256.Size]byte

// Commitment is the published metadata for one routing decision.
type Commitment struct {
	RulesHash         Hash
	SolverVersionHash Hash
	Committer         string
	Timestamp         time.Time
	// Expiry bounds how long the quoted route stays valid. Zero means
	// no expiry.
	Expiry time.Time
}

// Manifest is the complete description of a routing decision as handed
// to the user alongside the route: the quote, the ordered path, and the
// amounts the solver promised.
type Manifest struct {
	QuoteID     string    `json:"quote_id"`
	Path        []string  `json:"path"`
	AmountIn    string    `json:"amount_in"`
	AmountOut   string    `json:"amount_out"`
	GeneratedAt time.Time `json:"generated_at"`
}

// HashManifest computes the canonical SHA-256 digest of a manifest.
func HashManifest(m Manifest) (Hash, error) {
	return hashCanonical(m)
}

// HashRules computes the canonical digest of a rules configuration.
// Rules are published as free-form JSON documents, so any
// JSON-marshalable value is accepted.
func HashRules(rules any) (Hash, error) {
	return hashCanonical(rules)
}

// HashSolverVersion digests a solver version or commit identifier.
func HashSolverVersion(version string) Hash {
	return sha256.Sum256([]byte(version))
}

// hashCanonical digests the canonical JSON form of v: object keys
// sorted, no insignificant whitespace. Round-tripping through an
// untyped value makes struct field order irrelevant, so independently
// written verifiers arrive at the same digest.
func hashCanonical(v any) (Hash, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Hash{}, fmt.Errorf("encoding for hashing: %w", err)
	}
	var untyped any
	if err := json.Unmarshal(raw, &untyped); err != nil {
		return Hash{}, fmt.Errorf("canonicalizing: %w", err)
	}
	canonical, err := json.Marshal(untyped)
	if err != nil {
		return Hash{}, fmt.Errorf("canonicalizing: %w", err)
	}
	return sha256.Sum256(canonical), nil
}
