package models

import (
	"fmt"
	"time"

	id "registrar/pkg/domain"
)

// NumberPattern is the per-(type, site) sequence counter row — the contended
// resource the whole engine exists to protect. Exactly one row exists per
// (TypeCode, SiteID) pair; it is created at setup time, mutated exactly once
// per successful generation, and never deleted while referenced.
type NumberPattern struct {
	TypeCode string
	SiteID   *id.SiteID

	// Pattern overrides the document type's template when non-empty.
	Pattern string
	Prefix  string
	Suffix  string

	ResetInterval ResetCycle
	NextNumber    int
	NumberLength  int

	// CurrentYear and CurrentMonth track the period the counter last served,
	// for reset detection. Zero until the first allocation.
	CurrentYear  int
	CurrentMonth int

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PeriodContext describes the reset period an allocation happened in.
type PeriodContext struct {
	Year  int
	Month int
	// Key is "" for never, "YYYY" for yearly, "YYYYMM" for monthly.
	Key string
}

// periodFor derives the period context for now under the counter's interval.
func (p *NumberPattern) periodFor(now time.Time) PeriodContext {
	year, month := now.Year(), int(now.Month())
	switch p.ResetInterval {
	case ResetYearly:
		return PeriodContext{Year: year, Month: month, Key: fmt.Sprintf("%04d", year)}
	case ResetMonthly:
		return PeriodContext{Year: year, Month: month, Key: fmt.Sprintf("%04d%02d", year, month)}
	default:
		return PeriodContext{Year: year, Month: month}
	}
}

// needsReset reports whether the stored period differs from now's.
// The comparison uses the caller-supplied transaction clock; per-request wall
// clocks would let two nodes disagree about the boundary.
func (p *NumberPattern) needsReset(now time.Time) bool {
	if p.CurrentYear == 0 {
		return false
	}
	switch p.ResetInterval {
	case ResetYearly:
		return p.CurrentYear != now.Year()
	case ResetMonthly:
		return p.CurrentYear != now.Year() || p.CurrentMonth != int(now.Month())
	default:
		return false
	}
}

// Allocate hands out the next sequence number and advances the counter.
// The caller must hold the exclusive row lock for the whole read-modify-write
// and persist the mutated counter in the same transaction.
func (p *NumberPattern) Allocate(now time.Time, startingNumber, incrementBy int) (int, PeriodContext) {
	if p.needsReset(now) {
		p.NextNumber = startingNumber
	}
	if p.NextNumber < startingNumber {
		// Fresh rows may be seeded with 0; never issue below the start.
		p.NextNumber = startingNumber
	}
	sequence := p.NextNumber
	p.NextNumber += incrementBy
	p.CurrentYear = now.Year()
	p.CurrentMonth = int(now.Month())
	p.UpdatedAt = now
	return sequence, p.periodFor(now)
}
