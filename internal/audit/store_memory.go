package audit

import (
	"context"
	"sync"

	id "registrar/pkg/domain"
)

// MemoryStore is the in-memory audit store for unit tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[id.RegistryID][]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[id.RegistryID][]Entry)}
}

func (s *MemoryStore) Append(_ context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.RegistryID] = append(s.entries[e.RegistryID], *e)
	return nil
}

func (s *MemoryStore) ListByRegistry(_ context.Context, registryID id.RegistryID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[registryID]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *MemoryStore) LastChecksum(_ context.Context, registryID id.RegistryID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[registryID]
	if len(entries) == 0 {
		return "", nil
	}
	return entries[len(entries)-1].Checksum, nil
}

var _ Store = (*MemoryStore)(nil)
