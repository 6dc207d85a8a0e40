package models

import (
	"strings"
	"time"

	domerrors "registrar/pkg/domain-errors"

	"registrar/internal/numbering/pattern"
)

// ResetCycle is the cadence at which a sequence counter restarts from its
// starting number.
type ResetCycle string

const (
	ResetNever   ResetCycle = "never"
	ResetYearly  ResetCycle = "yearly"
	ResetMonthly ResetCycle = "monthly"
)

// ParseResetCycle validates and returns a ResetCycle.
func ParseResetCycle(s string) (ResetCycle, error) {
	switch ResetCycle(s) {
	case ResetNever, ResetYearly, ResetMonthly:
		return ResetCycle(s), nil
	}
	return "", domerrors.Newf(domerrors.CodeInvalidInput, "unknown reset cycle: %q", s)
}

// DocumentType is the configuration aggregate for one controlled document
// series (e.g. "PO").
//
// Invariants:
//   - Code is globally unique and immutable once documents reference it
//   - The sequence token width in NumberingPattern equals NumberLength;
//     divergence is a configuration error rejected at save time, never at
//     render time
//   - StartingNumber >= 1, IncrementBy >= 1
type DocumentType struct {
	Code             string
	Name             string
	NumberingPattern string
	ResetCycle       ResetCycle
	StartingNumber   int
	// CurrentNumber is the legacy single-counter mode; the per-site counter
	// rows are authoritative for new documents.
	CurrentNumber     int
	NumberLength      int
	IncrementBy       int
	SupportsModifiers bool
	ModifierSeparator string
	// ModifierOptions maps allowed modifier codes to their descriptions.
	ModifierOptions map[string]string

	RequiresSiteCode bool
	RequiresYear     bool
	RequiresMonth    bool

	// ProtectAfterStatus names the status beyond which edits are blocked.
	ProtectAfterStatus string
	// VoidOnlyStatuses are statuses where voiding is the only mutation allowed.
	VoidOnlyStatuses []string
	// LockAmountThreshold, when set, blocks edits on financial documents whose
	// amount meets or exceeds it.
	LockAmountThreshold *float64

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate enforces the save-time configuration invariants.
func (t *DocumentType) Validate() error {
	if strings.TrimSpace(t.Code) == "" {
		return domerrors.New(domerrors.CodeInvalidInput, "document type code is required")
	}
	if t.Code != strings.ToUpper(t.Code) {
		return domerrors.Newf(domerrors.CodeInvalidInput, "document type code must be upper case: %q", t.Code)
	}
	if strings.TrimSpace(t.Name) == "" {
		return domerrors.New(domerrors.CodeInvalidInput, "document type name is required")
	}
	if t.StartingNumber < 1 {
		return domerrors.New(domerrors.CodeInvariantViolation, "starting number must be at least 1")
	}
	if t.IncrementBy < 1 {
		return domerrors.New(domerrors.CodeInvariantViolation, "increment must be at least 1")
	}
	if _, err := ParseResetCycle(string(t.ResetCycle)); err != nil {
		return err
	}

	if err := pattern.ValidateTokens(t.NumberingPattern); err != nil {
		return domerrors.Wrap(err, domerrors.CodeInvariantViolation, "invalid numbering pattern")
	}
	width, err := pattern.SequenceTokenWidth(t.NumberingPattern)
	if err != nil {
		return domerrors.Wrap(err, domerrors.CodeInvariantViolation, "invalid numbering pattern")
	}
	if width != t.NumberLength {
		return domerrors.Newf(domerrors.CodeInvariantViolation,
			"sequence token width %d does not match configured number length %d", width, t.NumberLength)
	}

	if t.RequiresSiteCode && !strings.Contains(t.NumberingPattern, pattern.TokenSite) {
		return domerrors.New(domerrors.CodeInvariantViolation, "pattern must contain {SITE} when a site code is required")
	}
	if t.RequiresYear && !strings.Contains(t.NumberingPattern, pattern.TokenYear) {
		return domerrors.New(domerrors.CodeInvariantViolation, "pattern must contain {YYYY} when a year is required")
	}
	if t.RequiresMonth && !strings.Contains(t.NumberingPattern, pattern.TokenMonth) {
		return domerrors.New(domerrors.CodeInvariantViolation, "pattern must contain {MM} when a month is required")
	}

	if t.SupportsModifiers && t.ModifierSeparator == "" {
		return domerrors.New(domerrors.CodeInvariantViolation, "modifier separator is required when modifiers are supported")
	}
	return nil
}

// AllowsModifier reports whether code is in the type's modifier allow-list.
func (t *DocumentType) AllowsModifier(code string) bool {
	if !t.SupportsModifiers {
		return false
	}
	_, ok := t.ModifierOptions[code]
	return ok
}

// IsVoidOnlyStatus reports whether the given status permits voiding only.
func (t *DocumentType) IsVoidOnlyStatus(status string) bool {
	for _, s := range t.VoidOnlyStatuses {
		if s == status {
			return true
		}
	}
	return false
}
