package audit

import (
	"context"

	id "registrar/pkg/domain"
)

// Store persists audit entries. Append-only: no update or delete methods
// exist, and the storage layer should revoke UPDATE/DELETE grants on the
// table as a second line of defense.
type Store interface {
	Append(ctx context.Context, e *Entry) error

	// ListByRegistry returns a registry's entries ordered by performed_at
	// ascending, which is also chain order.
	ListByRegistry(ctx context.Context, registryID id.RegistryID) ([]Entry, error)

	// LastChecksum returns the checksum of the registry's most recent entry,
	// or "" when the registry has no entries yet.
	LastChecksum(ctx context.Context, registryID id.RegistryID) (string, error)
}
