package service

import (
	"context"
	"sync"
)

// StoreTx provides the transactional boundary around one generation: counter
// allocation, registry insert, issued-number insert, and the audit entry
// either all commit or all roll back. Production wraps a database transaction
// with a bounded lock wait; the in-memory fallback serializes with a coarse
// lock, which gives unit tests the same one-allocation-at-a-time semantics.
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
