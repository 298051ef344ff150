package wallet

import "errors"

var (
	// ErrCapabilityUnavailable indicates no signing-capable extension is reachable.
	ErrCapabilityUnavailable = errors.New("signing capability unavailable")
	// ErrAccessDenied indicates the user rejected the access request or the extension returned no address.
	ErrAccessDenied = errors.New("wallet access denied")
	// ErrUserCancelled indicates the user declined a signing prompt.
	ErrUserCancelled = errors.New("signing cancelled by user")
	// ErrUnsupportedMode indicates signing was attempted outside a managed extension session.
	ErrUnsupportedMode = errors.New("signing not supported in current session mode")
	// ErrSigningFailed indicates the extension failed to produce a signature for any other reason.
	ErrSigningFailed = errors.New("signing failed")
)

func isCancelled(err error) bool {
	return errors.Is(err, ErrUserCancelled)
}
