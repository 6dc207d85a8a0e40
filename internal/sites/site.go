// Package sites is the organization directory of sites whose codes appear in
// document numbers.
package sites

import (
	"strings"
	"time"

	id "registrar/pkg/domain"
	domerrors "registrar/pkg/domain-errors"
)

// Site is one physical or organizational location.
type Site struct {
	ID       id.SiteID
	Code     string
	Name     string
	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate enforces the directory invariants. Site codes end up inside issued
// document numbers, so they are short, upper case, and immutable in practice.
func (s *Site) Validate() error {
	code := strings.TrimSpace(s.Code)
	if code == "" {
		return domerrors.New(domerrors.CodeInvalidInput, "site code is required")
	}
	if code != strings.ToUpper(code) {
		return domerrors.Newf(domerrors.CodeInvalidInput, "site code must be upper case: %q", code)
	}
	if len(code) > 10 {
		return domerrors.Newf(domerrors.CodeInvalidInput, "site code too long: %q", code)
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return domerrors.Newf(domerrors.CodeInvalidInput, "site code must be alphanumeric: %q", code)
		}
	}
	if strings.TrimSpace(s.Name) == "" {
		return domerrors.New(domerrors.CodeInvalidInput, "site name is required")
	}
	return nil
}
