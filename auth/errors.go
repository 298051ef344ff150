package auth

import "errors"

var (
	// ErrWalletNotReady indicates the wallet session exposes no signing
	// delegate (disconnected or manual-entry mode).
	ErrWalletNotReady = errors.New("wallet session not ready for signing")
	// ErrChallengeUnavailable indicates the challenge could not be fetched.
	ErrChallengeUnavailable = errors.New("auth challenge unavailable")
	// ErrSigningDeclined indicates the user declined to sign the challenge.
	ErrSigningDeclined = errors.New("challenge signing declined")
	// ErrSigningFailed indicates the wallet failed to sign the challenge.
	ErrSigningFailed = errors.New("challenge signing failed")
	// ErrAuthRejected indicates the anchor rejected the signed challenge
	// (expired, wrong signer, tampered).
	ErrAuthRejected = errors.New("authentication rejected by anchor")
)
