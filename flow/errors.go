package flow

import "errors"

var (
	// ErrWalletNotReady indicates launch was attempted without a
	// connected managed wallet session.
	ErrWalletNotReady = errors.New("wallet session not ready")
	// ErrNoInteractiveURL indicates the anchor accepted the deposit but
	// returned no interactive URL to send the user to.
	ErrNoInteractiveURL = errors.New("anchor returned no interactive url")
	// ErrDuplicateFlow indicates the anchor issued a flow id that is
	// already tracked.
	ErrDuplicateFlow = errors.New("flow id already tracked")
	// ErrLaunchAborted wraps any failure along the launch sequence; the
	// step-specific cause is wrapped alongside it.
	ErrLaunchAborted = errors.New("deposit launch aborted")
)
