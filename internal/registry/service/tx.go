package service

import (
	"context"
	"sync"
)

// StoreTx provides the transactional boundary around a registry mutation and
// its audit entry. Production wraps a database transaction; the in-memory
// fallback serializes with a coarse lock so unit tests see the same
// one-writer-at-a-time behavior.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type inMemoryStoreTx struct {
	mu sync.Mutex
}

func newInMemoryStoreTx() *inMemoryStoreTx {
	return &inMemoryStoreTx{}
}

func (t *inMemoryStoreTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
