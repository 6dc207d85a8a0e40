// Package store persists document registry rows.
package store

import (
	"context"

	"registrar/internal/registry/models"
	id "registrar/pkg/domain"
)

// Store is the registry persistence boundary. The uniqueness of FullNumber
// and of the (documentable_type, documentable_id) pair is enforced by the
// storage layer, not just here: application checks alone cannot stop races
// across processes.
type Store interface {
	Create(ctx context.Context, r *models.Registry) error
	FindByID(ctx context.Context, registryID id.RegistryID) (*models.Registry, error)
	FindByFullNumber(ctx context.Context, fullNumber string) (*models.Registry, error)
	FindByRef(ctx context.Context, ref id.DocumentRef) (*models.Registry, error)

	// UpdateProtection writes back status, lock, and void fields mutated
	// through the model's Apply* methods.
	UpdateProtection(ctx context.Context, r *models.Registry) error

	// UpdateRef re-points a reserved row at a concrete document. Returns
	// sentinel.ErrDuplicate when the target document already owns a row.
	UpdateRef(ctx context.Context, registryID id.RegistryID, ref id.DocumentRef) error
}
