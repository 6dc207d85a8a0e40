//go:build integration

package sites_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/sites"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/testutil"
	"registrar/pkg/testutil/containers"
)

func TestPostgresSiteStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pg := containers.GetManager().GetPostgres(t)
	require.NoError(t, pg.TruncateTables(ctx,
		"audit_outbox", "audit_trail", "registries", "issued_numbers",
		"number_patterns", "document_types", "sites"))

	store := sites.NewPostgresStore(pg.DB)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	site := &sites.Site{
		ID:        id.NewSiteID(),
		Code:      "KDH",
		Name:      "Kandahar Depot",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	testutil.Given(t, "a stored site", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, site))
	})

	testutil.Then(t, "it is found by id and code", func(t *testing.T) {
		byID, err := store.FindByID(ctx, site.ID)
		require.NoError(t, err)
		assert.Equal(t, "KDH", byID.Code)

		byCode, err := store.FindByCode(ctx, "KDH")
		require.NoError(t, err)
		assert.Equal(t, site.ID, byCode.ID)

		all, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	testutil.Then(t, "a duplicate code is rejected", func(t *testing.T) {
		dup := &sites.Site{
			ID: id.NewSiteID(), Code: "KDH", Name: "Duplicate",
			IsActive: true, CreatedAt: now, UpdatedAt: now,
		}
		assert.ErrorIs(t, store.Create(ctx, dup), sentinel.ErrDuplicate)
	})

	testutil.Then(t, "an unknown site is not found", func(t *testing.T) {
		_, err := store.FindByCode(ctx, "GHOST")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
