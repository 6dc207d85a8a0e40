// Package service orchestrates the registry lifecycle: status transitions,
// locking, voiding, protection queries, and the audit trail views. Every
// mutation and its audit entry commit in one transaction.
package service

import (
	"context"
	"errors"
	"strings"

	"registrar/internal/audit"
	numbering "registrar/internal/numbering/models"
	registrymetrics "registrar/internal/registry/metrics"
	"registrar/internal/registry/models"
	"registrar/internal/registry/protection"
	id "registrar/pkg/domain"
	domerrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

// RegistryStore is what the service needs from registry persistence.
type RegistryStore interface {
	FindByID(ctx context.Context, registryID id.RegistryID) (*models.Registry, error)
	FindByFullNumber(ctx context.Context, fullNumber string) (*models.Registry, error)
	FindByRef(ctx context.Context, ref id.DocumentRef) (*models.Registry, error)
	UpdateProtection(ctx context.Context, r *models.Registry) error
}

// TypeStore resolves document type configuration by code.
type TypeStore interface {
	FindByCode(ctx context.Context, code string) (*numbering.DocumentType, error)
}

// IssuedStore updates the legacy issued-number row that mirrors the registry.
type IssuedStore interface {
	UpdateStatus(ctx context.Context, documentNumber string, status numbering.IssuedStatus) error
}

// AuditRecorder appends enriched audit entries and serves the trail back.
type AuditRecorder interface {
	Record(ctx context.Context, e *audit.Entry) error
	History(ctx context.Context, registryID id.RegistryID) ([]audit.Entry, error)
}

// Service orchestrates registry protection and lifecycle operations.
type Service struct {
	registries RegistryStore
	types      TypeStore
	issued     IssuedStore
	recorder   AuditRecorder
	policy     *protection.Policy
	tx         StoreTx
	metrics    *registrymetrics.Metrics
	hours      audit.BusinessHours
}

type Option func(s *Service)

func WithStoreTx(tx StoreTx) Option {
	return func(s *Service) { s.tx = tx }
}

func WithMetrics(m *registrymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithBusinessHours(hours audit.BusinessHours) Option {
	return func(s *Service) { s.hours = hours }
}

func NewService(registries RegistryStore, types TypeStore, issued IssuedStore, recorder AuditRecorder, opts ...Option) *Service {
	s := &Service{
		registries: registries,
		types:      types,
		issued:     issued,
		recorder:   recorder,
		policy:     protection.NewPolicy(),
		hours:      audit.DefaultBusinessHours,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = newInMemoryStoreTx()
	}
	return s
}

// Get returns one registry row by id.
func (s *Service) Get(ctx context.Context, registryID id.RegistryID) (*models.Registry, error) {
	r, err := s.registries.FindByID(ctx, registryID)
	if err != nil {
		return nil, wrapStoreErr(err, "registry row")
	}
	return r, nil
}

// GetByFullNumber returns one registry row by its formatted number.
func (s *Service) GetByFullNumber(ctx context.Context, fullNumber string) (*models.Registry, error) {
	fullNumber = strings.TrimSpace(fullNumber)
	if fullNumber == "" {
		return nil, domerrors.New(domerrors.CodeBadRequest, "document number is required")
	}
	r, err := s.registries.FindByFullNumber(ctx, fullNumber)
	if err != nil {
		return nil, wrapStoreErr(err, "registry row")
	}
	return r, nil
}

// GetByRef returns the registry row owned by a business document.
func (s *Service) GetByRef(ctx context.Context, ref id.DocumentRef) (*models.Registry, error) {
	r, err := s.registries.FindByRef(ctx, ref)
	if err != nil {
		return nil, wrapStoreErr(err, "registry row")
	}
	return r, nil
}

// UpdateStatus transitions the registry to newStatus after the model and the
// type-level protection rules both allow it.
func (s *Service) UpdateStatus(ctx context.Context, registryID id.RegistryID, newStatus string) (*models.Registry, error) {
	newStatus = strings.TrimSpace(newStatus)

	var updated *models.Registry
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.registries.FindByID(txCtx, registryID)
		if err != nil {
			return wrapStoreErr(err, "registry row")
		}
		docType, err := s.types.FindByCode(txCtx, r.TypeCode)
		if err != nil {
			return wrapStoreErr(err, "document type")
		}

		if err := r.CanUpdateStatus(newStatus); err != nil {
			return err
		}
		if err := s.policy.CanChangeStatus(r, docType, newStatus).Err(); err != nil {
			return err
		}

		oldStatus := r.Status
		r.ApplyStatus(requestcontext.Now(txCtx), newStatus)
		if err := s.registries.UpdateProtection(txCtx, r); err != nil {
			return wrapStoreErr(err, "registry row")
		}

		oldValues, newValues := audit.Diff(
			map[string]any{"status": oldStatus},
			map[string]any{"status": newStatus},
		)
		if err := s.recorder.Record(txCtx, &audit.Entry{
			RegistryID: r.ID,
			TypeCode:   r.TypeCode,
			Action:     audit.ActionStatusChange,
			OldValues:  oldValues,
			NewValues:  newValues,
		}); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		s.countViolation(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementStatusChanges()
	}
	return updated, nil
}

// Lock marks the registry read-only until unlocked.
func (s *Service) Lock(ctx context.Context, registryID id.RegistryID, reason string) (*models.Registry, error) {
	reason = strings.TrimSpace(reason)

	var updated *models.Registry
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.registries.FindByID(txCtx, registryID)
		if err != nil {
			return wrapStoreErr(err, "registry row")
		}
		if err := r.CanLock(); err != nil {
			return err
		}

		actor := requestcontext.Actor(ctx)
		r.ApplyLock(requestcontext.Now(txCtx), actor.ID, reason)
		if err := s.registries.UpdateProtection(txCtx, r); err != nil {
			return wrapStoreErr(err, "registry row")
		}

		if err := s.recorder.Record(txCtx, &audit.Entry{
			RegistryID: r.ID,
			TypeCode:   r.TypeCode,
			Action:     audit.ActionLock,
			NewValues:  map[string]any{"is_locked": true},
			Reason:     reason,
		}); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		s.countViolation(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementLocks()
	}
	return updated, nil
}

// Unlock releases a lock. The reason lands in the audit trail alongside the
// one the lock carried.
func (s *Service) Unlock(ctx context.Context, registryID id.RegistryID, reason string) (*models.Registry, error) {
	reason = strings.TrimSpace(reason)

	var updated *models.Registry
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.registries.FindByID(txCtx, registryID)
		if err != nil {
			return wrapStoreErr(err, "registry row")
		}
		if err := r.CanUnlock(); err != nil {
			return err
		}

		r.ApplyUnlock(requestcontext.Now(txCtx))
		if err := s.registries.UpdateProtection(txCtx, r); err != nil {
			return wrapStoreErr(err, "registry row")
		}

		if err := s.recorder.Record(txCtx, &audit.Entry{
			RegistryID: r.ID,
			TypeCode:   r.TypeCode,
			Action:     audit.ActionUnlock,
			OldValues:  map[string]any{"is_locked": true},
			NewValues:  map[string]any{"is_locked": false},
			Reason:     reason,
		}); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		s.countViolation(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementUnlocks()
	}
	return updated, nil
}

// Void marks the registry voided forever. The number stays on record and is
// never reissued; the legacy issued-number row follows in the same
// transaction.
func (s *Service) Void(ctx context.Context, registryID id.RegistryID, reason string) (*models.Registry, error) {
	reason = strings.TrimSpace(reason)

	var updated *models.Registry
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.registries.FindByID(txCtx, registryID)
		if err != nil {
			return wrapStoreErr(err, "registry row")
		}
		if err := r.CanVoid(reason); err != nil {
			return err
		}
		if err := s.policy.CanVoid(r).Err(); err != nil {
			return err
		}

		oldStatus := r.Status
		actor := requestcontext.Actor(ctx)
		r.ApplyVoid(requestcontext.Now(txCtx), actor.ID, reason)
		if err := s.registries.UpdateProtection(txCtx, r); err != nil {
			return wrapStoreErr(err, "registry row")
		}

		if err := s.issued.UpdateStatus(txCtx, r.FullNumber, numbering.IssuedVoided); err != nil {
			// A missing legacy row is tolerable; registries predating the
			// parallel table have none.
			if !errors.Is(err, sentinel.ErrNotFound) {
				return domerrors.Wrap(err, domerrors.CodeInternal, "update issued number status")
			}
		}

		oldValues, newValues := audit.Diff(
			map[string]any{"status": oldStatus, "is_voided": false},
			map[string]any{"status": models.StatusVoided, "is_voided": true},
		)
		if err := s.recorder.Record(txCtx, &audit.Entry{
			RegistryID: r.ID,
			TypeCode:   r.TypeCode,
			Action:     audit.ActionVoid,
			OldValues:  oldValues,
			NewValues:  newValues,
			Reason:     reason,
		}); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		s.countViolation(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementVoids()
	}
	return updated, nil
}

// CanEdit evaluates the protection rules for the registry's business
// document. amount carries the document's monetary value when it has one.
func (s *Service) CanEdit(ctx context.Context, registryID id.RegistryID, amount *float64) (protection.Decision, error) {
	r, err := s.registries.FindByID(ctx, registryID)
	if err != nil {
		return protection.Decision{}, wrapStoreErr(err, "registry row")
	}
	docType, err := s.types.FindByCode(ctx, r.TypeCode)
	if err != nil {
		return protection.Decision{}, wrapStoreErr(err, "document type")
	}
	return s.policy.CanEdit(r, docType, amount), nil
}

// History returns the registry's audit trail in chain order.
func (s *Service) History(ctx context.Context, registryID id.RegistryID) ([]audit.Entry, error) {
	if _, err := s.registries.FindByID(ctx, registryID); err != nil {
		return nil, wrapStoreErr(err, "registry row")
	}
	return s.recorder.History(ctx, registryID)
}

// Compliance runs the advisory heuristics over the registry's trail.
func (s *Service) Compliance(ctx context.Context, registryID id.RegistryID) (audit.Report, error) {
	entries, err := s.History(ctx, registryID)
	if err != nil {
		return audit.Report{}, err
	}
	return audit.Analyze(registryID.String(), entries, s.hours), nil
}

// VerifyAuditChain recomputes the trail's checksum chain. It returns the
// index of the first tampered entry, or -1 when the chain is intact.
func (s *Service) VerifyAuditChain(ctx context.Context, registryID id.RegistryID) (int, error) {
	entries, err := s.History(ctx, registryID)
	if err != nil {
		return 0, err
	}
	return audit.VerifyChain(entries), nil
}

// RecordAccess appends an access entry to the trail. Reads of sensitive
// documents are auditable even though they mutate nothing.
func (s *Service) RecordAccess(ctx context.Context, registryID id.RegistryID) error {
	return s.recordViewEvent(ctx, registryID, audit.ActionAccess)
}

// RecordPrint appends a print entry to the trail.
func (s *Service) RecordPrint(ctx context.Context, registryID id.RegistryID) error {
	return s.recordViewEvent(ctx, registryID, audit.ActionPrint)
}

func (s *Service) recordViewEvent(ctx context.Context, registryID id.RegistryID, action audit.Action) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.registries.FindByID(txCtx, registryID)
		if err != nil {
			return wrapStoreErr(err, "registry row")
		}
		return s.recorder.Record(txCtx, &audit.Entry{
			RegistryID: r.ID,
			TypeCode:   r.TypeCode,
			Action:     action,
			Metadata:   map[string]any{"full_number": r.FullNumber},
		})
	})
}

func (s *Service) countViolation(err error) {
	if s.metrics != nil && domerrors.HasCode(err, domerrors.CodeProtectionViolation) {
		s.metrics.IncrementProtectionViolations()
	}
}

func wrapStoreErr(err error, what string) error {
	var domErr *domerrors.Error
	if errors.As(err, &domErr) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return domerrors.New(domerrors.CodeNotFound, what+" not found")
	}
	return domerrors.Wrap(err, domerrors.CodeInternal, "load "+what)
}
