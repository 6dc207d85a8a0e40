package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"registrar/internal/platform/postgres"
	"registrar/internal/registry/models"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	txcontext "registrar/pkg/platform/tx"
)

// Constraint names the store branches on. They must match the schema.
const (
	constraintFullNumber = "registries_full_number_key"
	constraintRef        = "registries_documentable_key"
)

// PostgresStore persists registry rows.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const registryColumns = `
	id, document_number, full_number, type_code, site_id, site_code,
	year, month, sequence_number, modifier,
	documentable_type, documentable_id,
	status, previous_status,
	is_locked, locked_at, locked_by, lock_reason,
	is_voided, voided_at, voided_by, void_reason,
	metadata, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *models.Registry) error {
	metadata, err := marshalMetadata(r.Metadata)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO registries (` + registryColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID), r.DocumentNumber, r.FullNumber, r.TypeCode, siteIDValue(r.SiteID), r.SiteCode,
		r.Year, r.Month, r.Sequence, nullableString(r.Modifier),
		string(r.Ref.Kind), refIDValue(r.Ref),
		r.Status, nullableString(r.PreviousStatus),
		r.IsLocked, r.LockedAt, actorValue(r.LockedBy), nullableString(r.LockReason),
		r.IsVoided, r.VoidedAt, actorValue(r.VoidedBy), nullableString(r.VoidReason),
		metadata, r.CreatedAt, r.UpdatedAt,
	)
	if postgres.IsUniqueViolation(err, constraintFullNumber) {
		return fmt.Errorf("full number %q: %w", r.FullNumber, sentinel.ErrDuplicate)
	}
	if postgres.IsUniqueViolation(err, constraintRef) {
		return fmt.Errorf("document %s/%s: %w", r.Ref.Kind, r.Ref.ID, sentinel.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert registry: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, registryID id.RegistryID) (*models.Registry, error) {
	query := `SELECT ` + registryColumns + ` FROM registries WHERE id = $1`
	return s.findOne(ctx, query, uuid.UUID(registryID))
}

func (s *PostgresStore) FindByFullNumber(ctx context.Context, fullNumber string) (*models.Registry, error) {
	query := `SELECT ` + registryColumns + ` FROM registries WHERE full_number = $1`
	return s.findOne(ctx, query, fullNumber)
}

func (s *PostgresStore) FindByRef(ctx context.Context, ref id.DocumentRef) (*models.Registry, error) {
	query := `SELECT ` + registryColumns + ` FROM registries WHERE documentable_type = $1 AND documentable_id = $2`
	return s.findOne(ctx, query, string(ref.Kind), ref.ID)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*models.Registry, error) {
	row := s.execer(ctx).QueryRowContext(ctx, query, args...)
	r, err := scanRegistry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find registry: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) UpdateProtection(ctx context.Context, r *models.Registry) error {
	query := `
		UPDATE registries SET
			status = $2, previous_status = $3,
			is_locked = $4, locked_at = $5, locked_by = $6, lock_reason = $7,
			is_voided = $8, voided_at = $9, voided_by = $10, void_reason = $11,
			updated_at = $12
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID),
		r.Status, nullableString(r.PreviousStatus),
		r.IsLocked, r.LockedAt, actorValue(r.LockedBy), nullableString(r.LockReason),
		r.IsVoided, r.VoidedAt, actorValue(r.VoidedBy), nullableString(r.VoidReason),
		r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update registry protection: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStore) UpdateRef(ctx context.Context, registryID id.RegistryID, ref id.DocumentRef) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE registries SET documentable_type = $2, documentable_id = $3, updated_at = NOW()
		WHERE id = $1
	`, uuid.UUID(registryID), string(ref.Kind), ref.ID)
	if postgres.IsUniqueViolation(err, constraintRef) {
		return sentinel.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("update registry ref: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanRegistry(row *sql.Row) (*models.Registry, error) {
	var (
		r              models.Registry
		regID          uuid.UUID
		site           *uuid.UUID
		refKind        string
		refID          *uuid.UUID
		modifier       sql.NullString
		previousStatus sql.NullString
		lockedBy       *uuid.UUID
		lockReason     sql.NullString
		voidedBy       *uuid.UUID
		voidReason     sql.NullString
		metadata       []byte
	)
	err := row.Scan(
		&regID, &r.DocumentNumber, &r.FullNumber, &r.TypeCode, &site, &r.SiteCode,
		&r.Year, &r.Month, &r.Sequence, &modifier,
		&refKind, &refID,
		&r.Status, &previousStatus,
		&r.IsLocked, &r.LockedAt, &lockedBy, &lockReason,
		&r.IsVoided, &r.VoidedAt, &voidedBy, &voidReason,
		&metadata, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.ID = id.RegistryID(regID)
	if site != nil {
		sid := id.SiteID(*site)
		r.SiteID = &sid
	}
	r.Ref.Kind = id.DocumentKind(refKind)
	if refID != nil {
		r.Ref.ID = *refID
	}
	r.Modifier = modifier.String
	r.PreviousStatus = previousStatus.String
	if lockedBy != nil {
		actor := id.ActorID(*lockedBy)
		r.LockedBy = &actor
	}
	r.LockReason = lockReason.String
	if voidedBy != nil {
		actor := id.ActorID(*voidedBy)
		r.VoidedBy = &actor
	}
	r.VoidReason = voidReason.String
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &r.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal registry metadata: %w", err)
		}
	}
	return &r, nil
}

func marshalMetadata(metadata map[string]any) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal registry metadata: %w", err)
	}
	return raw, nil
}

func siteIDValue(siteID *id.SiteID) any {
	if siteID == nil {
		return nil
	}
	return uuid.UUID(*siteID)
}

func actorValue(actor *id.ActorID) any {
	if actor == nil {
		return nil
	}
	return uuid.UUID(*actor)
}

func refIDValue(ref id.DocumentRef) any {
	if ref.ID == uuid.Nil {
		return nil
	}
	return ref.ID
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ Store = (*PostgresStore)(nil)
