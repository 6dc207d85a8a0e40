package sites

import (
	"context"
	"sort"
	"sync"

	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
)

// MemoryStore is the in-memory site directory for unit tests.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[id.SiteID]Site
	byCode map[string]id.SiteID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[id.SiteID]Site),
		byCode: make(map[string]id.SiteID),
	}
}

func (s *MemoryStore) Create(_ context.Context, site *Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byCode[site.Code]; exists {
		return sentinel.ErrDuplicate
	}
	s.byID[site.ID] = *site
	s.byCode[site.Code] = site.ID
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, siteID id.SiteID) (*Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	site, exists := s.byID[siteID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	copied := site
	return &copied, nil
}

func (s *MemoryStore) FindByCode(_ context.Context, code string) (*Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	siteID, exists := s.byCode[code]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	site := s.byID[siteID]
	copied := site
	return &copied, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Site, 0, len(s.byID))
	for _, site := range s.byID {
		copied := site
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
