package service

import (
	"context"
	"errors"

	"registrar/internal/numbering/models"
	id "registrar/pkg/domain"
	domerrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

// AdminTypeStore is the full configuration surface the admin service needs.
type AdminTypeStore interface {
	TypeStore
	Create(ctx context.Context, t *models.DocumentType) error
	Update(ctx context.Context, t *models.DocumentType) error
	List(ctx context.Context) ([]*models.DocumentType, error)
}

// AdminCounterStore provisions counter rows.
type AdminCounterStore interface {
	Create(ctx context.Context, p *models.NumberPattern) error
}

// AdminService manages document type configuration and counter provisioning.
// Configuration changes are rare and administrative; they share the stores
// with the hot path but none of its locking.
type AdminService struct {
	types    AdminTypeStore
	counters AdminCounterStore
}

func NewAdminService(types AdminTypeStore, counters AdminCounterStore) *AdminService {
	return &AdminService{types: types, counters: counters}
}

// CreateType validates and saves a new document type, then provisions its
// site-independent counter row so the first generation finds one.
func (s *AdminService) CreateType(ctx context.Context, docType *models.DocumentType) (*models.DocumentType, error) {
	if err := docType.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	docType.CreatedAt = now
	docType.UpdatedAt = now

	if err := s.types.Create(ctx, docType); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, domerrors.Newf(domerrors.CodeConflict, "document type %q already exists", docType.Code)
		}
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "create document type")
	}

	if !docType.RequiresSiteCode {
		if err := s.ProvisionCounter(ctx, docType.Code, nil); err != nil {
			return nil, err
		}
	}
	return docType, nil
}

// UpdateType validates and saves changed configuration. The code itself is
// the identity and cannot change.
func (s *AdminService) UpdateType(ctx context.Context, docType *models.DocumentType) (*models.DocumentType, error) {
	if err := docType.Validate(); err != nil {
		return nil, err
	}
	docType.UpdatedAt = requestcontext.Now(ctx)

	if err := s.types.Update(ctx, docType); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domerrors.Newf(domerrors.CodeNotFound, "document type %q not found", docType.Code)
		}
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "update document type")
	}
	return docType, nil
}

// GetType returns one document type, active or not.
func (s *AdminService) GetType(ctx context.Context, code string) (*models.DocumentType, error) {
	docType, err := s.types.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domerrors.Newf(domerrors.CodeNotFound, "document type %q not found", code)
		}
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "load document type")
	}
	return docType, nil
}

// ListTypes returns all document types ordered by code.
func (s *AdminService) ListTypes(ctx context.Context) ([]*models.DocumentType, error) {
	types, err := s.types.List(ctx)
	if err != nil {
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "list document types")
	}
	return types, nil
}

// ProvisionCounter creates the counter row for a (type, site) pair, seeded
// from the type's configuration. Generation never creates counters on the
// fly; a missing row at generation time is a configuration error.
func (s *AdminService) ProvisionCounter(ctx context.Context, typeCode string, siteID *id.SiteID) error {
	docType, err := s.types.FindByCode(ctx, typeCode)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domerrors.Newf(domerrors.CodeNotFound, "document type %q not found", typeCode)
		}
		return domerrors.Wrap(err, domerrors.CodeInternal, "load document type")
	}

	now := requestcontext.Now(ctx)
	counter := &models.NumberPattern{
		TypeCode:      docType.Code,
		SiteID:        siteID,
		ResetInterval: docType.ResetCycle,
		NextNumber:    docType.StartingNumber,
		NumberLength:  docType.NumberLength,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.counters.Create(ctx, counter); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return domerrors.Newf(domerrors.CodeConflict, "counter for type %q already provisioned", typeCode)
		}
		return domerrors.Wrap(err, domerrors.CodeInternal, "provision counter")
	}
	return nil
}
