// Package memory provides a thread-safe in-memory implementation of storage.Store.
package memory

import (
	"sync"

	"github.com/stellaprotocol/anchorflow/storage"
)

// Store is a thread-safe in-memory implementation of storage.Store.
// Suitable for testing and browser-embedded builds where nothing
// outlives the process.
type Store struct {
	mu      sync.RWMutex
	record  storage.Record
	present bool
}

var _ storage.Store = (*Store)(nil)

// NewStore creates a new empty in-memory Store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) Load() (storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.present {
		return storage.Record{}, storage.ErrNotFound
	}
	return s.record, nil
}

func (s *Store) Save(rec storage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = rec
	s.present = true
	return nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = storage.Record{}
	s.present = false
	return nil
}
