package store

import (
	"context"
	"sort"
	"sync"

	"registrar/internal/numbering/models"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
)

// MemoryTypeStore is the in-memory TypeStore for unit tests and local runs.
type MemoryTypeStore struct {
	mu    sync.RWMutex
	types map[string]models.DocumentType
}

func NewMemoryTypeStore() *MemoryTypeStore {
	return &MemoryTypeStore{types: make(map[string]models.DocumentType)}
}

func (s *MemoryTypeStore) Create(_ context.Context, t *models.DocumentType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.types[t.Code]; exists {
		return sentinel.ErrDuplicate
	}
	s.types[t.Code] = *t
	return nil
}

func (s *MemoryTypeStore) Update(_ context.Context, t *models.DocumentType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.types[t.Code]; !exists {
		return sentinel.ErrNotFound
	}
	s.types[t.Code] = *t
	return nil
}

func (s *MemoryTypeStore) FindByCode(_ context.Context, code string) (*models.DocumentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, exists := s.types[code]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	copied := t
	return &copied, nil
}

// Drop removes a type without going through Update. Test helper for proving
// cache hits are served without the backing store.
func (s *MemoryTypeStore) Drop(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.types, code)
}

func (s *MemoryTypeStore) List(_ context.Context) ([]*models.DocumentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.DocumentType, 0, len(s.types))
	for _, t := range s.types {
		copied := t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func counterKey(typeCode string, siteID *id.SiteID) string {
	if siteID == nil {
		return typeCode
	}
	return typeCode + "/" + siteID.String()
}

// MemoryCounterStore keeps counters in a map. Exclusive access comes from the
// service's in-memory transaction runner serializing units of work, mirroring
// how the postgres store leans on row locks.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]models.NumberPattern
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]models.NumberPattern)}
}

func (s *MemoryCounterStore) Create(_ context.Context, p *models.NumberPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := counterKey(p.TypeCode, p.SiteID)
	if _, exists := s.counters[key]; exists {
		return sentinel.ErrDuplicate
	}
	s.counters[key] = *p
	return nil
}

func (s *MemoryCounterStore) AcquireForUpdate(_ context.Context, typeCode string, siteID *id.SiteID) (*models.NumberPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.counters[counterKey(typeCode, siteID)]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (s *MemoryCounterStore) Save(_ context.Context, p *models.NumberPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := counterKey(p.TypeCode, p.SiteID)
	if _, exists := s.counters[key]; !exists {
		return sentinel.ErrNotFound
	}
	s.counters[key] = *p
	return nil
}

// MemoryIssuedStore is the in-memory IssuedStore.
type MemoryIssuedStore struct {
	mu     sync.RWMutex
	issued map[string]models.IssuedNumber
}

func NewMemoryIssuedStore() *MemoryIssuedStore {
	return &MemoryIssuedStore{issued: make(map[string]models.IssuedNumber)}
}

func (s *MemoryIssuedStore) Record(_ context.Context, n *models.IssuedNumber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.issued[n.DocumentNumber]; exists {
		return sentinel.ErrDuplicate
	}
	s.issued[n.DocumentNumber] = *n
	return nil
}

func (s *MemoryIssuedStore) UpdateStatus(_ context.Context, documentNumber string, status models.IssuedStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, exists := s.issued[documentNumber]
	if !exists {
		return sentinel.ErrNotFound
	}
	n.Status = status
	s.issued[documentNumber] = n
	return nil
}

// Find exposes a recorded row for test assertions.
func (s *MemoryIssuedStore) Find(documentNumber string) (models.IssuedNumber, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, exists := s.issued[documentNumber]
	return n, exists
}

func (s *MemoryIssuedStore) ListSequences(_ context.Context, typeCode string, siteID *id.SiteID, year, month int) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []int
	for _, n := range s.issued {
		if n.TypeCode != typeCode || n.Year != year {
			continue
		}
		if month != 0 && n.Month != month {
			continue
		}
		if (n.SiteID == nil) != (siteID == nil) {
			continue
		}
		if n.SiteID != nil && *n.SiteID != *siteID {
			continue
		}
		out = append(out, n.Sequence)
	}
	sort.Ints(out)
	return out, nil
}
