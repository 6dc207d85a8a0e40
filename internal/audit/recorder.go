package audit

import (
	"context"
	"log/slog"

	"github.com/mssola/useragent"

	id "registrar/pkg/domain"
	domerrors "registrar/pkg/domain-errors"
	"registrar/pkg/requestcontext"
)

// Recorder enriches and appends audit entries. It runs inside the caller's
// transaction: an append failure is returned as CodeAuditFailure and the
// caller must let it abort the unit of work. There is no log-and-continue
// path here.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record fills actor, timestamp, client metadata, and the chain checksum,
// then appends. The entry's RegistryID, TypeCode, and Action must be set.
func (r *Recorder) Record(ctx context.Context, e *Entry) error {
	if e.ID.IsNil() {
		e.ID = id.NewAuditEntryID()
	}
	if e.PerformedAt.IsZero() {
		e.PerformedAt = requestcontext.Now(ctx)
	}

	actor := requestcontext.Actor(ctx)
	if actor.ID.IsNil() {
		return domerrors.New(domerrors.CodeAuditFailure, "audit entry has no acting user; refuse to record anonymous mutations")
	}
	e.PerformedBy = actor.ID
	e.PerformedByName = actor.FullName

	e.IPAddress = requestcontext.ClientIP(ctx)
	e.UserAgent = requestcontext.UserAgent(ctx)
	if e.UserAgent != "" {
		ua := useragent.New(e.UserAgent)
		browser, version := ua.Browser()
		if browser != "" {
			e.Browser = browser
			if version != "" {
				e.Browser += " " + version
			}
		}
		e.OS = ua.OS()
	}

	previous, err := r.store.LastChecksum(ctx, e.RegistryID)
	if err != nil {
		return domerrors.Wrap(err, domerrors.CodeAuditFailure, "load previous audit checksum")
	}
	e.Checksum = ChecksumFor(previous, *e)

	if err := r.store.Append(ctx, e); err != nil {
		return domerrors.Wrap(err, domerrors.CodeAuditFailure, "append audit entry")
	}

	r.logger.InfoContext(ctx, "audit entry recorded",
		"log_type", "audit",
		"registry_id", e.RegistryID.String(),
		"action", string(e.Action),
		"actor", e.PerformedBy.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// History returns a registry's trail in chain order.
func (r *Recorder) History(ctx context.Context, registryID id.RegistryID) ([]Entry, error) {
	entries, err := r.store.ListByRegistry(ctx, registryID)
	if err != nil {
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "list audit entries")
	}
	return entries, nil
}
