// Package asset resolves which asset an anchor must credit for a
// deposit, from a route leg or from the route path itself.
package asset

import (
	"errors"
	"fmt"
	"strings"
)

// nativeIssuer is the issuer sentinel used in asset keys to denote the
// network's native asset.
const nativeIssuer = "native"

var (
	// ErrUndeterminable indicates no resolution rule could produce an
	// asset code for the given leg and route.
	ErrUndeterminable = errors.New("deposit asset undeterminable")
	// ErrBadKey indicates an asset key is not of the form "code:issuer".
	ErrBadKey = errors.New("malformed asset key")
)

// Asset is an immutable resolved deposit target.
type Asset struct {
	Code     string `json:"code"`
	Issuer   string `json:"issuer,omitempty"` // empty when native
	IsNative bool   `json:"is_native"`
}

// Key renders the asset back to its "code:issuer" key form.
func (a Asset) Key() string {
	if a.IsNative {
		return a.Code + ":" + nativeIssuer
	}
	return a.Code + ":" + a.Issuer
}

// ParseKey parses a "code:issuer" asset key. The issuer "native"
// denotes the native asset and yields an empty Issuer field.
func ParseKey(key string) (Asset, error) {
	code, issuer, ok := strings.Cut(key, ":")
	if !ok || code == "" || issuer == "" {
		return Asset{}, fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	if issuer == nativeIssuer {
		return Asset{Code: code, IsNative: true}, nil
	}
	return Asset{Code: code, Issuer: issuer}, nil
}

// Leg is the anchor-relevant hop of a route: the asset keys it
// converts between. Either side may be the native asset.
type Leg struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Route is the ordered asset-key path a routing decision produced.
// Path construction and pricing happen elsewhere; this package only
// reads the path.
type Route struct {
	Path []string `json:"path"`
}

// Destination returns the last hop of the route path, or "" for an
// empty path.
func (r Route) Destination() string {
	if len(r.Path) == 0 {
		return ""
	}
	return r.Path[len(r.Path)-1]
}

// passesThroughNative reports whether any hop of the path is the
// native asset.
func (r Route) passesThroughNative() bool {
	for _, key := range r.Path {
		if a, err := ParseKey(key); err == nil && a.IsNative {
			return true
		}
	}
	return false
}
