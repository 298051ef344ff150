package wallet

import "context"

// SignRequest carries the parameters a signing capability needs to
// produce a signature over an opaque transaction envelope. The envelope
// is never interpreted by this engine.
type SignRequest struct {
	Envelope          string
	NetworkPassphrase string
	Address           string
}

// Capability is the injected interface to a signing-capable wallet
// extension (Freighter or compatible). It is an explicit dependency
// rather than ambient global state so tests can substitute a double.
type Capability interface {
	// Probe reports whether the extension is reachable. Implementations
	// must swallow their own failures and report false; probing must be
	// safe to call repeatedly.
	Probe(ctx context.Context) bool
	// RequestAccess asks the extension for the user's public address.
	// This may prompt the user. A decline is reported as ErrUserCancelled.
	RequestAccess(ctx context.Context) (string, error)
	// Sign delegates envelope signing to the extension. A user decline is
	// reported as ErrUserCancelled; the private key never crosses this
	// boundary.
	Sign(ctx context.Context, req SignRequest) (string, error)
}
