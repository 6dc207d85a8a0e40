package models

import (
	"time"

	id "registrar/pkg/domain"
)

// IssuedStatus is the lifecycle state of a legacy issued-number row.
type IssuedStatus string

const (
	IssuedActive    IssuedStatus = "active"
	IssuedCancelled IssuedStatus = "cancelled"
	IssuedVoided    IssuedStatus = "voided"
)

// IssuedNumber is the simple parallel tracking row kept alongside the
// registry. Downstream reports still read this table, so every generation
// writes it in the same transaction as the registry row.
type IssuedNumber struct {
	DocumentNumber string
	TypeCode       string
	SiteID         *id.SiteID
	Sequence       int
	Year           int
	// Month is the calendar month the number was issued in. Monthly-reset
	// series restart here, so integrity walks group by it.
	Month      int
	IssuedDate time.Time
	Ref            id.DocumentRef
	Status         IssuedStatus
}
