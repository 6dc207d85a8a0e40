package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"registrar/internal/numbering/models"
)

// CachedTypeStore is a read-through Redis cache in front of a TypeStore.
// Document type configuration changes rarely but is read on every generation,
// so a short TTL takes the hot lookup off the database. Writes invalidate.
// A nil client degrades to the inner store.
type CachedTypeStore struct {
	inner  TypeStore
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedTypeStore(inner TypeStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedTypeStore {
	return &CachedTypeStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

func typeCacheKey(code string) string {
	return "registrar:doctype:" + code
}

func (s *CachedTypeStore) FindByCode(ctx context.Context, code string) (*models.DocumentType, error) {
	if s.client == nil {
		return s.inner.FindByCode(ctx, code)
	}

	raw, err := s.client.Get(ctx, typeCacheKey(code)).Bytes()
	if err == nil {
		var t models.DocumentType
		if err := json.Unmarshal(raw, &t); err == nil {
			return &t, nil
		}
		// Corrupt entry: fall through to the store and rewrite.
	} else if !errors.Is(err, redis.Nil) {
		// Cache trouble must not fail lookups; note it and go to the store.
		s.logger.WarnContext(ctx, "document type cache read failed", "code", code, "error", err)
	}

	t, err := s.inner.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(t); err == nil {
		if err := s.client.Set(ctx, typeCacheKey(code), raw, s.ttl).Err(); err != nil {
			s.logger.WarnContext(ctx, "document type cache write failed", "code", code, "error", err)
		}
	}
	return t, nil
}

func (s *CachedTypeStore) Create(ctx context.Context, t *models.DocumentType) error {
	if err := s.inner.Create(ctx, t); err != nil {
		return err
	}
	s.invalidate(ctx, t.Code)
	return nil
}

func (s *CachedTypeStore) Update(ctx context.Context, t *models.DocumentType) error {
	if err := s.inner.Update(ctx, t); err != nil {
		return err
	}
	s.invalidate(ctx, t.Code)
	return nil
}

func (s *CachedTypeStore) List(ctx context.Context) ([]*models.DocumentType, error) {
	return s.inner.List(ctx)
}

func (s *CachedTypeStore) invalidate(ctx context.Context, code string) {
	if s.client == nil {
		return
	}
	if err := s.client.Del(ctx, typeCacheKey(code)).Err(); err != nil {
		s.logger.WarnContext(ctx, "document type cache invalidation failed", "code", code, "error", err)
	}
}

var _ TypeStore = (*CachedTypeStore)(nil)
