// Package store persists document type configuration, sequence counters, and
// the legacy issued-number table. Each interface has a memory implementation
// for unit tests and a PostgreSQL implementation for production.
package store

import (
	"context"

	"registrar/internal/numbering/models"
	id "registrar/pkg/domain"
)

// TypeStore persists DocumentType configuration.
type TypeStore interface {
	Create(ctx context.Context, t *models.DocumentType) error
	Update(ctx context.Context, t *models.DocumentType) error
	FindByCode(ctx context.Context, code string) (*models.DocumentType, error)
	List(ctx context.Context) ([]*models.DocumentType, error)
}

// CounterStore persists the per-(type, site) sequence counter rows.
type CounterStore interface {
	Create(ctx context.Context, p *models.NumberPattern) error

	// AcquireForUpdate loads the counter row for (typeCode, siteID) holding an
	// exclusive row lock for the remainder of the ambient transaction. A
	// bounded lock wait that expires returns sentinel.ErrContended; a missing
	// row returns sentinel.ErrNotFound. There is no unlocked fallback.
	AcquireForUpdate(ctx context.Context, typeCode string, siteID *id.SiteID) (*models.NumberPattern, error)

	// Save writes back a counter mutated under AcquireForUpdate's lock.
	Save(ctx context.Context, p *models.NumberPattern) error
}

// IssuedStore persists the legacy issued-number rows.
type IssuedStore interface {
	Record(ctx context.Context, n *models.IssuedNumber) error
	UpdateStatus(ctx context.Context, documentNumber string, status models.IssuedStatus) error

	// ListSequences returns all sequence numbers issued for the key in
	// ascending order, for the offline integrity walk. month zero covers the
	// whole year; a concrete month narrows to one monthly-reset period.
	ListSequences(ctx context.Context, typeCode string, siteID *id.SiteID, year, month int) ([]int, error)
}
