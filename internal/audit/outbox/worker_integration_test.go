//go:build integration

package outbox_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"registrar/internal/audit"
	"registrar/internal/audit/outbox"
	numbering "registrar/internal/numbering/models"
	numstore "registrar/internal/numbering/store"
	"registrar/internal/platform/kafka"
	registrymodels "registrar/internal/registry/models"
	registrystore "registrar/internal/registry/store"
	id "registrar/pkg/domain"
	"registrar/pkg/testutil"
	"registrar/pkg/testutil/containers"
)

// TestWorkerDrainsOutboxToBroker runs the whole pipeline: a recorded audit
// entry lands in the outbox, the worker publishes it to Redpanda, and a
// consumer sees the event keyed by registry id.
func TestWorkerDrainsOutboxToBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	mgr := containers.GetManager()
	pg := mgr.GetPostgres(t)
	broker := mgr.GetRedpanda(t).Broker

	require.NoError(t, pg.TruncateTables(ctx,
		"audit_outbox", "audit_trail", "registries", "issued_numbers",
		"number_patterns", "document_types", "sites"))

	now := time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)
	types := numstore.NewPostgresTypeStore(pg.DB)
	require.NoError(t, types.Create(ctx, &numbering.DocumentType{
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

	registries := registrystore.NewPostgresStore(pg.DB)
	row := &registrymodels.Registry{
		ID:             id.NewRegistryID(),
		DocumentNumber: "PO-2026-00001",
		FullNumber:     "PO-2026-00001",
		TypeCode:       "PO",
		Year:           2026,
		Sequence:       1,
		Ref:            id.Reserved(),
		Status:         registrymodels.StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, registries.Create(ctx, row))

	recorder := audit.NewRecorder(audit.NewPostgresStore(pg.DB), slog.New(slog.DiscardHandler))
	actorCtx := testutil.ContextAt(testutil.NewActorContext(ctx), now)
	require.NoError(t, recorder.Record(actorCtx, &audit.Entry{
		RegistryID: row.ID,
		TypeCode:   "PO",
		Action:     audit.ActionCreate,
	}))

	topic := fmt.Sprintf("registrar.audit.test.%d", time.Now().UnixNano())
	publisher, err := kafka.NewPublisher(ctx, []string{broker}, topic)
	require.NoError(t, err)
	defer publisher.Close()

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	worker := outbox.NewWorker(pg.DB, publisher, slog.New(slog.DiscardHandler))
	go func() { _ = worker.Run(workerCtx) }()

	require.Eventually(t, func() bool {
		var pending int
		err := pg.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM audit_outbox WHERE published_at IS NULL`).Scan(&pending)
		return err == nil && pending == 0
	}, 30*time.Second, 250*time.Millisecond, "outbox row was not published")
	cancel()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, fetchCancel := context.WithTimeout(ctx, 30*time.Second)
	defer fetchCancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, row.ID.String(), string(records[0].Key))

	var event map[string]any
	require.NoError(t, json.Unmarshal(records[0].Value, &event))
	require.Equal(t, "create", event["action"])
	require.Equal(t, row.ID.String(), event["registry_id"])
	require.NotEmpty(t, event["checksum"])
}
