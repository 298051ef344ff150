// Package storage persists the wallet session record between runs.
//
// The record is the only durable piece of engine state: how the current
// session was established (managed extension vs. manual entry) and for
// which account. Secrets are never persisted.
package storage

import "errors"

// ErrNotFound is returned by Load when no session record has been saved.
var ErrNotFound = errors.New("session record not found")

// Session modes as persisted. Kept as plain strings so the wallet
// package can evolve its own typed constants independently of the
// on-disk format.
const (
	ModeManaged = "managed"
	ModeManual  = "manual"
)

// Record is the persisted wallet session state.
type Record struct {
	Mode    string `json:"mode"`
	Address string `json:"address"`
}

// Store reads and writes the single persisted session record.
type Store interface {
	// Load returns the saved record, or ErrNotFound when none exists.
	Load() (Record, error)
	// Save replaces the record.
	Save(Record) error
	// Clear removes the record. Clearing an absent record is not an error.
	Clear() error
}
