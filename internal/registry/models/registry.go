// Package models holds the document registry aggregate: the durable record of
// every issued document number and its protection state.
package models

import (
	"strings"
	"time"

	id "registrar/pkg/domain"
	domerrors "registrar/pkg/domain-errors"
)

// StatusVoided is the reserved terminal status forced onto a voided registry.
// Consuming document types own their status graphs; this value is the one
// status Registrar itself claims.
const StatusVoided = "voided"

// StatusDraft is the default initial status when the caller supplies none.
const StatusDraft = "draft"

// Registry is one issued document number and its lifecycle state.
//
// Invariants:
//   - FullNumber is unique across the whole system forever, even after the
//     owning business document is soft-deleted
//   - (Ref.Kind, Ref.ID) is unique: one document owns at most one registry row
//   - IsVoided is one-way; a voided row never becomes editable again and is
//     never hard-deleted
type Registry struct {
	ID id.RegistryID

	// DocumentNumber is the core formatted number sans prefix/suffix/modifier.
	DocumentNumber string
	FullNumber     string

	TypeCode string
	SiteID   *id.SiteID
	SiteCode string
	Year     int
	Month    *int
	Sequence int
	Modifier string

	Ref id.DocumentRef

	Status         string
	PreviousStatus string

	IsLocked   bool
	LockedAt   *time.Time
	LockedBy   *id.ActorID
	LockReason string

	IsVoided   bool
	VoidedAt   *time.Time
	VoidedBy   *id.ActorID
	VoidReason string

	Metadata map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanLock checks whether the registry may be locked.
func (r *Registry) CanLock() error {
	if r.IsVoided {
		return domerrors.New(domerrors.CodeProtectionViolation, "document is voided")
	}
	if r.IsLocked {
		return domerrors.New(domerrors.CodeInvariantViolation, "document is already locked")
	}
	return nil
}

// ApplyLock sets the lock. Call CanLock first.
func (r *Registry) ApplyLock(now time.Time, actor id.ActorID, reason string) {
	r.IsLocked = true
	r.LockedAt = &now
	r.LockedBy = &actor
	r.LockReason = reason
	r.UpdatedAt = now
}

// CanUnlock checks whether the registry may be unlocked.
func (r *Registry) CanUnlock() error {
	if r.IsVoided {
		return domerrors.New(domerrors.CodeProtectionViolation, "document is voided")
	}
	if !r.IsLocked {
		return domerrors.New(domerrors.CodeInvariantViolation, "document is not locked")
	}
	return nil
}

// ApplyUnlock clears the lock. Call CanUnlock first.
func (r *Registry) ApplyUnlock(now time.Time) {
	r.IsLocked = false
	r.LockedAt = nil
	r.LockedBy = nil
	r.LockReason = ""
	r.UpdatedAt = now
}

// CanVoid checks whether the registry may be voided. Voiding always requires
// a non-empty reason; it is the only destructive-equivalent operation.
func (r *Registry) CanVoid(reason string) error {
	if r.IsVoided {
		return domerrors.New(domerrors.CodeProtectionViolation, "document is already voided")
	}
	if strings.TrimSpace(reason) == "" {
		return domerrors.New(domerrors.CodeInvalidInput, "void reason is required")
	}
	return nil
}

// ApplyVoid marks the registry voided, retaining the prior status for audit
// reconstruction. Call CanVoid first.
func (r *Registry) ApplyVoid(now time.Time, actor id.ActorID, reason string) {
	r.PreviousStatus = r.Status
	r.Status = StatusVoided
	r.IsVoided = true
	r.VoidedAt = &now
	r.VoidedBy = &actor
	r.VoidReason = reason
	r.UpdatedAt = now
}

// CanUpdateStatus checks the flag-level preconditions for a status change.
// Status-graph protection (protected/void-only statuses) belongs to the
// protection policy, which knows the document type configuration.
func (r *Registry) CanUpdateStatus(newStatus string) error {
	if r.IsVoided {
		return domerrors.New(domerrors.CodeProtectionViolation, "document is voided")
	}
	if r.IsLocked {
		return domerrors.New(domerrors.CodeProtectionViolation, "document is locked")
	}
	if strings.TrimSpace(newStatus) == "" {
		return domerrors.New(domerrors.CodeInvalidInput, "status is required")
	}
	if newStatus == StatusVoided {
		return domerrors.New(domerrors.CodeInvalidInput, "use void to mark a document voided")
	}
	if newStatus == r.Status {
		return domerrors.New(domerrors.CodeInvariantViolation, "document already has this status")
	}
	return nil
}

// ApplyStatus transitions the status. Call CanUpdateStatus first.
func (r *Registry) ApplyStatus(now time.Time, newStatus string) {
	r.PreviousStatus = r.Status
	r.Status = newStatus
	r.UpdatedAt = now
}

// CanLink checks whether the registry may be re-pointed at a real document.
func (r *Registry) CanLink(ref id.DocumentRef) error {
	if r.IsVoided {
		return domerrors.New(domerrors.CodeProtectionViolation, "document is voided")
	}
	if !r.Ref.IsReserved() {
		return domerrors.New(domerrors.CodeConflict, "registry row is already linked to a document")
	}
	if ref.IsReserved() {
		return domerrors.New(domerrors.CodeInvalidInput, "link target must be a concrete document")
	}
	return nil
}

// ApplyLink re-points the registry at the real document. Call CanLink first.
func (r *Registry) ApplyLink(now time.Time, ref id.DocumentRef) {
	r.Ref = ref
	r.UpdatedAt = now
}
