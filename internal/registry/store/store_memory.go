package store

import (
	"context"
	"sync"

	"registrar/internal/registry/models"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
)

// MemoryStore is the in-memory registry store for unit tests.
type MemoryStore struct {
	mu          sync.RWMutex
	byID        map[id.RegistryID]models.Registry
	byFull      map[string]id.RegistryID
	byRef       map[string]id.RegistryID
	fullNumbers map[string]struct{} // retains uniqueness even across deletes
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:        make(map[id.RegistryID]models.Registry),
		byFull:      make(map[string]id.RegistryID),
		byRef:       make(map[string]id.RegistryID),
		fullNumbers: make(map[string]struct{}),
	}
}

func refKey(ref id.DocumentRef) string {
	return string(ref.Kind) + "/" + ref.ID.String()
}

func (s *MemoryStore) Create(_ context.Context, r *models.Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.fullNumbers[r.FullNumber]; exists {
		return sentinel.ErrDuplicate
	}
	if !r.Ref.IsReserved() {
		if _, exists := s.byRef[refKey(r.Ref)]; exists {
			return sentinel.ErrDuplicate
		}
	}
	s.byID[r.ID] = *r
	s.byFull[r.FullNumber] = r.ID
	s.fullNumbers[r.FullNumber] = struct{}{}
	if !r.Ref.IsReserved() {
		s.byRef[refKey(r.Ref)] = r.ID
	}
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, registryID id.RegistryID) (*models.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, exists := s.byID[registryID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	copied := r
	return &copied, nil
}

func (s *MemoryStore) FindByFullNumber(_ context.Context, fullNumber string) (*models.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	registryID, exists := s.byFull[fullNumber]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	r := s.byID[registryID]
	copied := r
	return &copied, nil
}

func (s *MemoryStore) FindByRef(_ context.Context, ref id.DocumentRef) (*models.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	registryID, exists := s.byRef[refKey(ref)]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	r := s.byID[registryID]
	copied := r
	return &copied, nil
}

func (s *MemoryStore) UpdateProtection(_ context.Context, r *models.Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.byID[r.ID]
	if !exists {
		return sentinel.ErrNotFound
	}
	stored.Status = r.Status
	stored.PreviousStatus = r.PreviousStatus
	stored.IsLocked = r.IsLocked
	stored.LockedAt = r.LockedAt
	stored.LockedBy = r.LockedBy
	stored.LockReason = r.LockReason
	stored.IsVoided = r.IsVoided
	stored.VoidedAt = r.VoidedAt
	stored.VoidedBy = r.VoidedBy
	stored.VoidReason = r.VoidReason
	stored.UpdatedAt = r.UpdatedAt
	s.byID[r.ID] = stored
	return nil
}

func (s *MemoryStore) UpdateRef(_ context.Context, registryID id.RegistryID, ref id.DocumentRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.byID[registryID]
	if !exists {
		return sentinel.ErrNotFound
	}
	if _, taken := s.byRef[refKey(ref)]; taken {
		return sentinel.ErrDuplicate
	}
	stored.Ref = ref
	s.byID[registryID] = stored
	s.byRef[refKey(ref)] = registryID
	return nil
}

var _ Store = (*MemoryStore)(nil)
