package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token is the bearer credential returned by a successful handshake. It
// is scoped to exactly one (anchor domain, address) pair, held in memory
// only, and never persisted.
type Token struct {
	Value        string
	AnchorDomain string
	Address      string
	// ExpiresAt is best-effort, decoded from the token's JWT exp claim
	// without signature verification. Zero when the token is not a JWT;
	// the token stays usable either way.
	ExpiresAt time.Time
}

func newToken(value, anchorDomain, address string) *Token {
	return &Token{
		Value:        value,
		AnchorDomain: anchorDomain,
		Address:      address,
		ExpiresAt:    tokenExpiry(value),
	}
}

// tokenExpiry decodes the exp claim from a JWT-shaped token. The anchor
// already verified the token it issued; the claim is informational only,
// so ParseUnverified is sufficient here.
func tokenExpiry(value string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(value, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
