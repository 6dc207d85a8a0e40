// Package outbox drains committed audit events from the database to Kafka.
// The outbox row is written in the same transaction as the audit entry, so
// the worker only ever publishes events that really happened; at-least-once
// delivery downstream is expected and consumers deduplicate on event id.
package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher is what the worker needs from the Kafka layer.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Worker polls the outbox table and publishes pending rows in order.
type Worker struct {
	db        *sql.DB
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewWorker(db *sql.DB, publisher Publisher, logger *slog.Logger) *Worker {
	return &Worker{
		db:        db,
		publisher: publisher,
		logger:    logger,
		interval:  time.Second,
		batchSize: 100,
	}
}

// Run polls until ctx is cancelled. Publish failures are logged and retried
// on the next tick; rows stay pending until publishing succeeds.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drainOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

type pendingRow struct {
	id         uuid.UUID
	registryID uuid.UUID
	payload    []byte
}

func (w *Worker) drainOnce(ctx context.Context) error {
	rows, err := w.loadPending(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		// Keyed by registry so one registry's history stays in partition order.
		if err := w.publisher.Publish(ctx, row.registryID.String(), row.payload); err != nil {
			return fmt.Errorf("publish outbox row %s: %w", row.id, err)
		}
		if err := w.markPublished(ctx, row.id); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) loadPending(ctx context.Context) ([]pendingRow, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT id, registry_id, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`, w.batchSize)
	if err != nil {
		return nil, fmt.Errorf("load pending outbox rows: %w", err)
	}
	defer rows.Close()

	var out []pendingRow
	for rows.Next() {
		var row pendingRow
		if err := rows.Scan(&row.id, &row.registryID, &row.payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox rows: %w", err)
	}
	return out, nil
}

func (w *Worker) markPublished(ctx context.Context, rowID uuid.UUID) error {
	if _, err := w.db.ExecContext(ctx, `
		UPDATE audit_outbox SET published_at = NOW() WHERE id = $1
	`, rowID); err != nil {
		return fmt.Errorf("mark outbox row published: %w", err)
	}
	return nil
}
