package protection

import (
	"context"

	"registrar/internal/registry/models"
	id "registrar/pkg/domain"
)

// Protectable is the capability surface a numbered business document exposes.
// Document types gain it by embedding a RegistryLink; callers then ask the
// document itself instead of carrying registry ids around.
type Protectable interface {
	CanEdit(ctx context.Context, amount *float64) (Decision, error)
	Lock(ctx context.Context, reason string) error
	Unlock(ctx context.Context, reason string) error
	Void(ctx context.Context, reason string) error
}

// RegistryGuard is the slice of the registry service a RegistryLink delegates
// to.
type RegistryGuard interface {
	CanEdit(ctx context.Context, registryID id.RegistryID, amount *float64) (Decision, error)
	Lock(ctx context.Context, registryID id.RegistryID, reason string) (*models.Registry, error)
	Unlock(ctx context.Context, registryID id.RegistryID, reason string) (*models.Registry, error)
	Void(ctx context.Context, registryID id.RegistryID, reason string) (*models.Registry, error)
}

// RegistryLink ties a business document to its registry row. Embedding it
// gives the document type the full Protectable capability set, each call
// scoped to the document's own registry id.
type RegistryLink struct {
	RegistryID id.RegistryID

	guard RegistryGuard
}

func NewRegistryLink(registryID id.RegistryID, guard RegistryGuard) RegistryLink {
	return RegistryLink{RegistryID: registryID, guard: guard}
}

var _ Protectable = RegistryLink{}

// CanEdit asks the registry whether the document may still change. amount is
// the document's monetary value when it has one; nil otherwise.
func (l RegistryLink) CanEdit(ctx context.Context, amount *float64) (Decision, error) {
	return l.guard.CanEdit(ctx, l.RegistryID, amount)
}

// Lock freezes the document's registry row.
func (l RegistryLink) Lock(ctx context.Context, reason string) error {
	_, err := l.guard.Lock(ctx, l.RegistryID, reason)
	return err
}

// Unlock releases the document's lock.
func (l RegistryLink) Unlock(ctx context.Context, reason string) error {
	_, err := l.guard.Unlock(ctx, l.RegistryID, reason)
	return err
}

// Void retires the document's number for good.
func (l RegistryLink) Void(ctx context.Context, reason string) error {
	_, err := l.guard.Void(ctx, l.RegistryID, reason)
	return err
}
