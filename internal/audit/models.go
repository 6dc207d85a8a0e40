// Package audit is the append-only trail behind every registry mutation.
// Entries are written in the same transaction as the mutation they describe;
// a failed append aborts the whole unit of work. Rows are never updated or
// deleted after creation.
package audit

import (
	"time"

	id "registrar/pkg/domain"
)

// Action classifies what happened to a registry row.
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionStatusChange Action = "status_change"
	ActionLock         Action = "lock"
	ActionUnlock       Action = "unlock"
	ActionVoid         Action = "void"
	ActionAccess       Action = "access"
	ActionPrint        Action = "print"
)

// Entry is one immutable audit trail record.
type Entry struct {
	ID         id.AuditEntryID
	RegistryID id.RegistryID
	TypeCode   string
	Action     Action

	// OldValues/NewValues hold only the keys whose values differ; unchanged
	// fields are excluded so the trail reads as a diff, not a snapshot.
	OldValues map[string]any
	NewValues map[string]any

	Reason          string
	PerformedBy     id.ActorID
	PerformedByName string
	PerformedAt     time.Time

	IPAddress string
	UserAgent string
	// Browser and OS are parsed out of UserAgent at write time so compliance
	// queries don't need a UA parser.
	Browser string
	OS      string

	Metadata map[string]any

	// Checksum chains this entry to its predecessor for the same registry;
	// see chain.go. Recomputed verification detects tampering after the fact.
	Checksum string
}
