package protection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/registry/models"
	id "registrar/pkg/domain"
	domerrors "registrar/pkg/domain-errors"
)

// guardCall records one delegated call for assertions.
type guardCall struct {
	op         string
	registryID id.RegistryID
	reason     string
}

type stubGuard struct {
	calls  []guardCall
	denied bool
}

func (g *stubGuard) CanEdit(_ context.Context, registryID id.RegistryID, _ *float64) (Decision, error) {
	g.calls = append(g.calls, guardCall{op: "can_edit", registryID: registryID})
	if g.denied {
		return deny("document is locked"), nil
	}
	return allow(), nil
}

func (g *stubGuard) Lock(_ context.Context, registryID id.RegistryID, reason string) (*models.Registry, error) {
	g.calls = append(g.calls, guardCall{op: "lock", registryID: registryID, reason: reason})
	return &models.Registry{ID: registryID}, nil
}

func (g *stubGuard) Unlock(_ context.Context, registryID id.RegistryID, reason string) (*models.Registry, error) {
	g.calls = append(g.calls, guardCall{op: "unlock", registryID: registryID, reason: reason})
	return &models.Registry{ID: registryID}, nil
}

func (g *stubGuard) Void(_ context.Context, registryID id.RegistryID, reason string) (*models.Registry, error) {
	g.calls = append(g.calls, guardCall{op: "void", registryID: registryID, reason: reason})
	return nil, domerrors.New(domerrors.CodeProtectionViolation, "document is already voided")
}

// purchaseOrder is a sample business document; embedding RegistryLink gives
// it the Protectable capabilities directly.
type purchaseOrder struct {
	RegistryLink
	Amount float64
}

func TestRegistryLinkDelegatesUnderItsOwnID(t *testing.T) {
	guard := &stubGuard{}
	registryID := id.NewRegistryID()
	po := purchaseOrder{
		RegistryLink: NewRegistryLink(registryID, guard),
		Amount:       1250,
	}

	var _ Protectable = po

	ctx := context.Background()
	decision, err := po.CanEdit(ctx, &po.Amount)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	require.NoError(t, po.Lock(ctx, "period close"))
	require.NoError(t, po.Unlock(ctx, "period reopened"))

	err = po.Void(ctx, "duplicate entry")
	assert.True(t, domerrors.HasCode(err, domerrors.CodeProtectionViolation))

	require.Len(t, guard.calls, 4)
	for _, call := range guard.calls {
		assert.Equal(t, registryID, call.registryID)
	}
	assert.Equal(t, "lock", guard.calls[1].op)
	assert.Equal(t, "period close", guard.calls[1].reason)
	assert.Equal(t, "unlock", guard.calls[2].op)
	assert.Equal(t, "period reopened", guard.calls[2].reason)
	assert.Equal(t, "void", guard.calls[3].op)
}

func TestRegistryLinkSurfacesDenials(t *testing.T) {
	guard := &stubGuard{denied: true}
	link := NewRegistryLink(id.NewRegistryID(), guard)

	decision, err := link.CanEdit(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.True(t, domerrors.HasCode(decision.Err(), domerrors.CodeProtectionViolation))
}
