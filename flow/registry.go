package flow

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the sole authority for tracked flows. It is mutated from
// exactly two sides: orchestrator insertion and poller/dismissal
// updates. Every mutation treats an absent id as a benign no-op, which
// defends against races between timeout-driven removal and a
// late-arriving poll result.
type Registry struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]Record)}
}

// Add inserts a new record. The flow id must be unique.
func (g *Registry) Add(rec Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.records[rec.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFlow, rec.ID)
	}
	g.records[rec.ID] = rec
	return nil
}

// Get returns a copy of the record for id.
func (g *Registry) Get(id string) (Record, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.records[id]
	return rec, ok
}

// List returns copies of all tracked records, newest first.
func (g *Registry) List() []Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Record, 0, len(g.records))
	for _, rec := range g.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Dismiss removes the record for id and reports whether it was present.
// Dismissing an absent id is a no-op.
func (g *Registry) Dismiss(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.records[id]; !ok {
		return false
	}
	delete(g.records, id)
	return true
}

// updateStatus sets the status for id if the record is still present.
// A poll result arriving after dismissal lands here and is dropped.
func (g *Registry) updateStatus(id, status string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.records[id]
	if !ok {
		return false
	}
	rec.Status = status
	g.records[id] = rec
	return true
}
