// Package testutil provides common helpers for handler and integration tests.
package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "registrar/pkg/domain"
	"registrar/pkg/requestcontext"
)

// ActorContext returns a context carrying the actor attribution the audit
// recorder requires, simulating what the auth and metadata middleware do for
// an authenticated request.
func ActorContext(ctx context.Context, actorID id.ActorID, fullName string) context.Context {
	ctx = requestcontext.WithActor(ctx, actorID, fullName)
	return requestcontext.WithClientMetadata(ctx, "192.0.2.10",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/126.0 Safari/537.36")
}

// NewActorContext is ActorContext with a fresh random actor.
func NewActorContext(ctx context.Context) context.Context {
	return ActorContext(ctx, id.NewActorID(), "Test Clerk")
}

// ContextAt pins the transaction clock so time-dependent behavior (period
// resets, the business-hours heuristic) is deterministic.
func ContextAt(ctx context.Context, t time.Time) context.Context {
	return requestcontext.WithTime(ctx, t)
}

// RandomRef returns a documentable reference for the given kind.
func RandomRef(kind id.DocumentKind) id.DocumentRef {
	ref, err := id.NewDocumentRef(kind, uuid.New())
	if err != nil {
		panic(err)
	}
	return ref
}
