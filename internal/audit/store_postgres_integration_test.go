//go:build integration

package audit_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"registrar/internal/audit"
	numbering "registrar/internal/numbering/models"
	numstore "registrar/internal/numbering/store"
	registrymodels "registrar/internal/registry/models"
	registrystore "registrar/internal/registry/store"
	id "registrar/pkg/domain"
	"registrar/pkg/testutil"
	"registrar/pkg/testutil/containers"
)

type AuditPostgresSuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	store    *audit.PostgresStore
	recorder *audit.Recorder
	next     int
}

func TestAuditPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditPostgresSuite))
}

func (s *AuditPostgresSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = audit.NewPostgresStore(s.pg.DB)
	s.recorder = audit.NewRecorder(s.store, slog.New(slog.DiscardHandler))
}

func (s *AuditPostgresSuite) SetupTest() {
	ctx := context.Background()
	err := s.pg.TruncateTables(ctx,
		"audit_outbox", "audit_trail", "registries", "issued_numbers",
		"number_patterns", "document_types", "sites")
	s.Require().NoError(err)

	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	types := numstore.NewPostgresTypeStore(s.pg.DB)
	s.Require().NoError(types.Create(ctx, &numbering.DocumentType{
		Code:             "PO",
		Name:             "Purchase Orders",
		NumberingPattern: "{CODE}-{YYYY}-{#####}",
		ResetCycle:       numbering.ResetYearly,
		StartingNumber:   1,
		NumberLength:     5,
		IncrementBy:      1,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}))
	s.next = 0
}

func (s *AuditPostgresSuite) seedRegistry() id.RegistryID {
	s.next++
	now := time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)
	registries := registrystore.NewPostgresStore(s.pg.DB)
	row := &registrymodels.Registry{
		ID:             id.NewRegistryID(),
		DocumentNumber: fmt.Sprintf("PO-2026-%05d", s.next),
		FullNumber:     fmt.Sprintf("PO-2026-%05d", s.next),
		TypeCode:       "PO",
		Year:           2026,
		Sequence:       s.next,
		Ref:            id.Reserved(),
		Status:         registrymodels.StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.Require().NoError(registries.Create(context.Background(), row))
	return row.ID
}

func (s *AuditPostgresSuite) actorCtx() context.Context {
	ctx := testutil.NewActorContext(context.Background())
	return testutil.ContextAt(ctx, time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC))
}

func (s *AuditPostgresSuite) TestChainedAppendAndVerify() {
	ctx := s.actorCtx()
	registryID := s.seedRegistry()

	actions := []audit.Action{audit.ActionCreate, audit.ActionStatusChange, audit.ActionLock}
	for i, action := range actions {
		err := s.recorder.Record(ctx, &audit.Entry{
			RegistryID: registryID,
			TypeCode:   "PO",
			Action:     action,
			NewValues:  map[string]any{"step": i},
		})
		s.Require().NoError(err)
	}

	entries, err := s.store.ListByRegistry(context.Background(), registryID)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	for i, action := range actions {
		s.Equal(action, entries[i].Action)
		s.NotEmpty(entries[i].Checksum)
		s.NotEmpty(entries[i].IPAddress)
	}
	s.Equal(-1, audit.VerifyChain(entries))

	last, err := s.store.LastChecksum(context.Background(), registryID)
	s.Require().NoError(err)
	s.Equal(entries[2].Checksum, last)
}

func (s *AuditPostgresSuite) TestTamperIsDetected() {
	ctx := s.actorCtx()
	registryID := s.seedRegistry()

	for _, action := range []audit.Action{audit.ActionCreate, audit.ActionStatusChange, audit.ActionVoid} {
		s.Require().NoError(s.recorder.Record(ctx, &audit.Entry{
			RegistryID: registryID,
			TypeCode:   "PO",
			Action:     action,
			Reason:     "routine",
		}))
	}

	// Simulate an out-of-band edit to the middle entry.
	_, err := s.pg.DB.ExecContext(context.Background(), `
		UPDATE audit_trail SET reason = 'doctored'
		WHERE registry_id = $1 AND action = 'status_change'
	`, registryID.String())
	s.Require().NoError(err)

	entries, err := s.store.ListByRegistry(context.Background(), registryID)
	s.Require().NoError(err)
	s.Equal(1, audit.VerifyChain(entries))
}

func (s *AuditPostgresSuite) TestAppendWritesOutboxRow() {
	ctx := s.actorCtx()
	registryID := s.seedRegistry()

	s.Require().NoError(s.recorder.Record(ctx, &audit.Entry{
		RegistryID: registryID,
		TypeCode:   "PO",
		Action:     audit.ActionCreate,
	}))

	var pending int
	err := s.pg.DB.QueryRowContext(context.Background(), `
		SELECT COUNT(*) FROM audit_outbox
		WHERE registry_id = $1 AND published_at IS NULL
	`, registryID.String()).Scan(&pending)
	s.Require().NoError(err)
	s.Equal(1, pending)
}

func (s *AuditPostgresSuite) TestEmptyTrailHasNoChecksum() {
	last, err := s.store.LastChecksum(context.Background(), id.NewRegistryID())
	s.Require().NoError(err)
	s.Empty(last)
}
