package journal

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store for tests and journal-less simulator
// runs.
type MemoryStore struct {
	mu      sync.RWMutex
	streams map[string][]Entry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{streams: make(map[string][]Entry)}
}

// Append writes one entry.
//
// Precondition: e.EncounterID must be non-empty and e.Seq must equal the
// stream's current length; out-of-order appends are rejected.
func (m *MemoryStore) Append(_ context.Context, e Entry) error {
	if e.EncounterID == "" {
		return fmt.Errorf("journal: entry has no encounter id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stream := m.streams[e.EncounterID]
	if e.Seq != len(stream) {
		return fmt.Errorf("journal: out-of-order append for %q: seq %d, want %d",
			e.EncounterID, e.Seq, len(stream))
	}
	m.streams[e.EncounterID] = append(stream, e)
	return nil
}

// Entries returns an encounter's recorded stream ordered by Seq.
func (m *MemoryStore) Entries(_ context.Context, encounterID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stream := m.streams[encounterID]
	out := make([]Entry, len(stream))
	copy(out, stream)
	return out, nil
}
