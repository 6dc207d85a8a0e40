// Package domain defines typed identifiers and document references shared
// across the registrar services. Wrapping uuid.UUID in distinct types makes
// cross-assignment a compile error rather than a data-corruption bug.
package domain

import (
	"github.com/google/uuid"

	domerrors "registrar/pkg/domain-errors"
)

// RegistryID identifies a document registry row.
type RegistryID uuid.UUID

// SiteID identifies a site in the organization directory.
type SiteID uuid.UUID

// ActorID identifies the authenticated user performing an operation.
type ActorID uuid.UUID

// AuditEntryID identifies a single audit trail entry.
type AuditEntryID uuid.UUID

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, domerrors.Newf(domerrors.CodeInvalidInput, "%s is required", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, domerrors.Newf(domerrors.CodeInvalidInput, "invalid %s: %q", kind, s)
	}
	if u == uuid.Nil {
		return uuid.Nil, domerrors.Newf(domerrors.CodeInvalidInput, "%s must not be the nil UUID", kind)
	}
	return u, nil
}

// ParseRegistryID validates and returns a RegistryID.
func ParseRegistryID(s string) (RegistryID, error) {
	u, err := parseUUID(s, "registry id")
	return RegistryID(u), err
}

// ParseSiteID validates and returns a SiteID.
func ParseSiteID(s string) (SiteID, error) {
	u, err := parseUUID(s, "site id")
	return SiteID(u), err
}

// ParseActorID validates and returns an ActorID.
func ParseActorID(s string) (ActorID, error) {
	u, err := parseUUID(s, "actor id")
	return ActorID(u), err
}

func (id RegistryID) String() string   { return uuid.UUID(id).String() }
func (id SiteID) String() string       { return uuid.UUID(id).String() }
func (id ActorID) String() string      { return uuid.UUID(id).String() }
func (id AuditEntryID) String() string { return uuid.UUID(id).String() }

func (id RegistryID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id SiteID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ActorID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id AuditEntryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewRegistryID returns a fresh random RegistryID.
func NewRegistryID() RegistryID { return RegistryID(uuid.New()) }

// NewSiteID returns a fresh random SiteID.
func NewSiteID() SiteID { return SiteID(uuid.New()) }

// NewActorID returns a fresh random ActorID.
func NewActorID() ActorID { return ActorID(uuid.New()) }

// NewAuditEntryID returns a fresh time-ordered AuditEntryID. Entries written
// in the same transaction share a timestamp, so the trail's (performed_at, id)
// ordering needs ids that sort in creation order; UUIDv7 provides that.
func NewAuditEntryID() AuditEntryID {
	u, err := uuid.NewV7()
	if err != nil {
		// crypto/rand failure; fall back to v4 rather than stop issuing.
		u = uuid.New()
	}
	return AuditEntryID(u)
}
