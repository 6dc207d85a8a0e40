package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "registrar/pkg/domain"
	txcontext "registrar/pkg/platform/tx"
)

// PostgresStore persists audit entries and, in the same transaction, writes a
// transactional-outbox row for the Kafka publisher. The audit table is the
// queryable source of truth; the outbox exists so downstream consumers see
// exactly the events that committed.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure published to Kafka.
type outboxPayload struct {
	ID          string `json:"id"`
	RegistryID  string `json:"registry_id"`
	TypeCode    string `json:"type_code"`
	Action      string `json:"action"`
	Reason      string `json:"reason,omitempty"`
	PerformedBy string `json:"performed_by"`
	PerformedAt string `json:"performed_at"`
	Checksum    string `json:"checksum"`
}

func (s *PostgresStore) Append(ctx context.Context, e *Entry) error {
	oldValues, err := marshalValues(e.OldValues)
	if err != nil {
		return fmt.Errorf("marshal old values: %w", err)
	}
	newValues, err := marshalValues(e.NewValues)
	if err != nil {
		return fmt.Errorf("marshal new values: %w", err)
	}
	metadata, err := marshalValues(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO audit_trail (
			id, registry_id, type_code, action, old_values, new_values,
			reason, performed_by, performed_by_name, performed_at,
			ip_address, user_agent, browser, os, metadata, checksum
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(e.ID), uuid.UUID(e.RegistryID), e.TypeCode, string(e.Action), oldValues, newValues,
		e.Reason, uuid.UUID(e.PerformedBy), e.PerformedByName, e.PerformedAt,
		e.IPAddress, e.UserAgent, e.Browser, e.OS, metadata, e.Checksum,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	payload, err := json.Marshal(outboxPayload{
		ID:          e.ID.String(),
		RegistryID:  e.RegistryID.String(),
		TypeCode:    e.TypeCode,
		Action:      string(e.Action),
		Reason:      e.Reason,
		PerformedBy: e.PerformedBy.String(),
		PerformedAt: e.PerformedAt.UTC().Format(time.RFC3339Nano),
		Checksum:    e.Checksum,
	})
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_outbox (id, registry_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), uuid.UUID(e.RegistryID), string(e.Action), payload, e.PerformedAt)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

const entryColumns = `
	id, registry_id, type_code, action, old_values, new_values,
	reason, performed_by, performed_by_name, performed_at,
	ip_address, user_agent, browser, os, metadata, checksum`

func (s *PostgresStore) ListByRegistry(ctx context.Context, registryID id.RegistryID) ([]Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM audit_trail
		WHERE registry_id = $1
		ORDER BY performed_at, id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(registryID))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) LastChecksum(ctx context.Context, registryID id.RegistryID) (string, error) {
	var checksum string
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT checksum FROM audit_trail
		WHERE registry_id = $1
		ORDER BY performed_at DESC, id DESC
		LIMIT 1
	`, uuid.UUID(registryID)).Scan(&checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load last checksum: %w", err)
	}
	return checksum, nil
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	var (
		e                          Entry
		entryID, regID, actor      uuid.UUID
		action                     string
		oldValues, newValues, meta []byte
	)
	err := rows.Scan(
		&entryID, &regID, &e.TypeCode, &action, &oldValues, &newValues,
		&e.Reason, &actor, &e.PerformedByName, &e.PerformedAt,
		&e.IPAddress, &e.UserAgent, &e.Browser, &e.OS, &meta, &e.Checksum,
	)
	if err != nil {
		return nil, err
	}
	e.ID = id.AuditEntryID(entryID)
	e.RegistryID = id.RegistryID(regID)
	e.PerformedBy = id.ActorID(actor)
	e.Action = Action(action)
	if err := unmarshalValues(oldValues, &e.OldValues); err != nil {
		return nil, err
	}
	if err := unmarshalValues(newValues, &e.NewValues); err != nil {
		return nil, err
	}
	if err := unmarshalValues(meta, &e.Metadata); err != nil {
		return nil, err
	}
	return &e, nil
}

func marshalValues(values map[string]any) (any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	return json.Marshal(values)
}

func unmarshalValues(raw []byte, target *map[string]any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, target)
}

var _ Store = (*PostgresStore)(nil)
