// Package protection decides what may still happen to a registered document.
// The rules combine the registry row's own flags with the owning document
// type's configuration; the policy itself is pure and holds no state.
package protection

import (
	numbering "registrar/internal/numbering/models"
	"registrar/internal/registry/models"
	domerrors "registrar/pkg/domain-errors"
)

// Decision is the outcome of a protection check. Reason is set when the
// action is denied and is safe to surface to callers.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Err converts a denial into a protection violation error, nil otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return domerrors.New(domerrors.CodeProtectionViolation, d.Reason)
}

// Policy evaluates edit, delete, void, and status-change permissions for a
// registry row under its document type's configuration.
type Policy struct{}

func NewPolicy() *Policy {
	return &Policy{}
}

// CanEdit reports whether the underlying business document may still be
// modified. amount is the document's monetary value when it has one; pass nil
// for non-financial documents.
func (p *Policy) CanEdit(r *models.Registry, t *numbering.DocumentType, amount *float64) Decision {
	if r.IsVoided {
		return deny("document is voided")
	}
	if r.IsLocked {
		return deny("document is locked: " + r.LockReason)
	}
	if t.ProtectAfterStatus != "" && r.Status == t.ProtectAfterStatus {
		return deny("document status " + r.Status + " prohibits editing")
	}
	if t.IsVoidOnlyStatus(r.Status) {
		return deny("document status " + r.Status + " permits voiding only")
	}
	if t.LockAmountThreshold != nil && amount != nil && *amount >= *t.LockAmountThreshold {
		return deny("document amount meets the lock threshold")
	}
	return allow()
}

// CanDelete reports whether the business document may be deleted. Deleting is
// at least as restricted as editing; registered numbers additionally survive
// the document, so deletion never frees the number for reuse.
func (p *Policy) CanDelete(r *models.Registry, t *numbering.DocumentType, amount *float64) Decision {
	return p.CanEdit(r, t, amount)
}

// CanVoid reports whether the document may be voided. Voiding stays available
// on locked rows and in void-only statuses; it is the designated exit.
func (p *Policy) CanVoid(r *models.Registry) Decision {
	if r.IsVoided {
		return deny("document is already voided")
	}
	return allow()
}

// CanChangeStatus reports whether the row may move to newStatus. The model's
// own flag checks still apply; this adds the type-level status rules.
func (p *Policy) CanChangeStatus(r *models.Registry, t *numbering.DocumentType, newStatus string) Decision {
	if r.IsVoided {
		return deny("document is voided")
	}
	if r.IsLocked {
		return deny("document is locked: " + r.LockReason)
	}
	if t.IsVoidOnlyStatus(r.Status) {
		return deny("document status " + r.Status + " permits voiding only")
	}
	return allow()
}
