package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"registrar/internal/numbering/models"
	"registrar/internal/platform/postgres"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	txcontext "registrar/pkg/platform/tx"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func execer(ctx context.Context, db *sql.DB) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

// PostgresTypeStore persists document type configuration.
type PostgresTypeStore struct {
	db *sql.DB
}

func NewPostgresTypeStore(db *sql.DB) *PostgresTypeStore {
	return &PostgresTypeStore{db: db}
}

const typeColumns = `
	code, name, numbering_pattern, reset_cycle, starting_number, current_number,
	number_length, increment_by, supports_modifiers, modifier_separator,
	modifier_options, requires_site_code, requires_year, requires_month,
	protect_after_status, void_only_statuses, lock_amount_threshold,
	is_active, created_at, updated_at`

func (s *PostgresTypeStore) Create(ctx context.Context, t *models.DocumentType) error {
	options, err := json.Marshal(t.ModifierOptions)
	if err != nil {
		return fmt.Errorf("marshal modifier options: %w", err)
	}
	query := `
		INSERT INTO document_types (` + typeColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`
	_, err = execer(ctx, s.db).ExecContext(ctx, query,
		t.Code, t.Name, t.NumberingPattern, string(t.ResetCycle), t.StartingNumber, t.CurrentNumber,
		t.NumberLength, t.IncrementBy, t.SupportsModifiers, t.ModifierSeparator,
		options, t.RequiresSiteCode, t.RequiresYear, t.RequiresMonth,
		t.ProtectAfterStatus, pq.Array(t.VoidOnlyStatuses), t.LockAmountThreshold,
		t.IsActive, t.CreatedAt, t.UpdatedAt,
	)
	if postgres.IsUniqueViolation(err, "") {
		return sentinel.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert document type: %w", err)
	}
	return nil
}

func (s *PostgresTypeStore) Update(ctx context.Context, t *models.DocumentType) error {
	options, err := json.Marshal(t.ModifierOptions)
	if err != nil {
		return fmt.Errorf("marshal modifier options: %w", err)
	}
	// Code is immutable, so it is the key and never part of the SET list.
	query := `
		UPDATE document_types SET
			name = $2, numbering_pattern = $3, reset_cycle = $4, starting_number = $5,
			current_number = $6, number_length = $7, increment_by = $8,
			supports_modifiers = $9, modifier_separator = $10, modifier_options = $11,
			requires_site_code = $12, requires_year = $13, requires_month = $14,
			protect_after_status = $15, void_only_statuses = $16,
			lock_amount_threshold = $17, is_active = $18, updated_at = $19
		WHERE code = $1
	`
	res, err := execer(ctx, s.db).ExecContext(ctx, query,
		t.Code, t.Name, t.NumberingPattern, string(t.ResetCycle), t.StartingNumber,
		t.CurrentNumber, t.NumberLength, t.IncrementBy,
		t.SupportsModifiers, t.ModifierSeparator, options,
		t.RequiresSiteCode, t.RequiresYear, t.RequiresMonth,
		t.ProtectAfterStatus, pq.Array(t.VoidOnlyStatuses),
		t.LockAmountThreshold, t.IsActive, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document type: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document type: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresTypeStore) FindByCode(ctx context.Context, code string) (*models.DocumentType, error) {
	query := `SELECT ` + typeColumns + ` FROM document_types WHERE code = $1`
	row := execer(ctx, s.db).QueryRowContext(ctx, query, code)
	t, err := scanType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find document type: %w", err)
	}
	return t, nil
}

func (s *PostgresTypeStore) List(ctx context.Context) ([]*models.DocumentType, error) {
	query := `SELECT ` + typeColumns + ` FROM document_types ORDER BY code`
	rows, err := execer(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list document types: %w", err)
	}
	defer rows.Close()

	var out []*models.DocumentType
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document type: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document types: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanType(row rowScanner) (*models.DocumentType, error) {
	var (
		t          models.DocumentType
		resetCycle string
		options    []byte
		voidOnly   pq.StringArray
	)
	err := row.Scan(
		&t.Code, &t.Name, &t.NumberingPattern, &resetCycle, &t.StartingNumber, &t.CurrentNumber,
		&t.NumberLength, &t.IncrementBy, &t.SupportsModifiers, &t.ModifierSeparator,
		&options, &t.RequiresSiteCode, &t.RequiresYear, &t.RequiresMonth,
		&t.ProtectAfterStatus, &voidOnly, &t.LockAmountThreshold,
		&t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ResetCycle = models.ResetCycle(resetCycle)
	t.VoidOnlyStatuses = voidOnly
	if len(options) > 0 {
		if err := json.Unmarshal(options, &t.ModifierOptions); err != nil {
			return nil, fmt.Errorf("unmarshal modifier options: %w", err)
		}
	}
	return &t, nil
}

// PostgresCounterStore persists the sequence counter rows. Exclusive access
// comes from SELECT ... FOR UPDATE; the transaction runner bounds the lock
// wait with lock_timeout so contention surfaces instead of queueing forever.
type PostgresCounterStore struct {
	db *sql.DB
}

func NewPostgresCounterStore(db *sql.DB) *PostgresCounterStore {
	return &PostgresCounterStore{db: db}
}

func (s *PostgresCounterStore) Create(ctx context.Context, p *models.NumberPattern) error {
	query := `
		INSERT INTO number_patterns (
			type_code, site_id, pattern, prefix, suffix, reset_interval,
			next_number, number_length, current_year, current_month,
			is_active, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`
	_, err := execer(ctx, s.db).ExecContext(ctx, query,
		p.TypeCode, siteIDValue(p.SiteID), p.Pattern, p.Prefix, p.Suffix, string(p.ResetInterval),
		p.NextNumber, p.NumberLength, p.CurrentYear, p.CurrentMonth,
		p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if postgres.IsUniqueViolation(err, "") {
		return sentinel.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert counter: %w", err)
	}
	return nil
}

func (s *PostgresCounterStore) AcquireForUpdate(ctx context.Context, typeCode string, siteID *id.SiteID) (*models.NumberPattern, error) {
	query := `
		SELECT type_code, site_id, pattern, prefix, suffix, reset_interval,
		       next_number, number_length, current_year, current_month,
		       is_active, created_at, updated_at
		FROM number_patterns
		WHERE type_code = $1 AND site_id IS NOT DISTINCT FROM $2
		FOR UPDATE
	`
	row := execer(ctx, s.db).QueryRowContext(ctx, query, typeCode, siteIDValue(siteID))

	var (
		p             models.NumberPattern
		resetInterval string
		site          *uuid.UUID
	)
	err := row.Scan(
		&p.TypeCode, &site, &p.Pattern, &p.Prefix, &p.Suffix, &resetInterval,
		&p.NextNumber, &p.NumberLength, &p.CurrentYear, &p.CurrentMonth,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if postgres.IsLockNotAvailable(err) {
		return nil, sentinel.ErrContended
	}
	if err != nil {
		return nil, fmt.Errorf("lock counter row: %w", err)
	}
	p.ResetInterval = models.ResetCycle(resetInterval)
	if site != nil {
		sid := id.SiteID(*site)
		p.SiteID = &sid
	}
	return &p, nil
}

func (s *PostgresCounterStore) Save(ctx context.Context, p *models.NumberPattern) error {
	query := `
		UPDATE number_patterns SET
			next_number = $3, current_year = $4, current_month = $5, updated_at = $6
		WHERE type_code = $1 AND site_id IS NOT DISTINCT FROM $2
	`
	res, err := execer(ctx, s.db).ExecContext(ctx, query,
		p.TypeCode, siteIDValue(p.SiteID),
		p.NextNumber, p.CurrentYear, p.CurrentMonth, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save counter: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save counter: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// PostgresIssuedStore persists the legacy issued-number rows.
type PostgresIssuedStore struct {
	db *sql.DB
}

func NewPostgresIssuedStore(db *sql.DB) *PostgresIssuedStore {
	return &PostgresIssuedStore{db: db}
}

func (s *PostgresIssuedStore) Record(ctx context.Context, n *models.IssuedNumber) error {
	query := `
		INSERT INTO issued_numbers (
			document_number, type_code, site_id, sequence_number, year, month,
			issued_date, documentable_type, documentable_id, status
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`
	_, err := execer(ctx, s.db).ExecContext(ctx, query,
		n.DocumentNumber, n.TypeCode, siteIDValue(n.SiteID), n.Sequence, n.Year, n.Month,
		n.IssuedDate, string(n.Ref.Kind), refIDValue(n.Ref), string(n.Status),
	)
	if postgres.IsUniqueViolation(err, "") {
		return sentinel.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert issued number: %w", err)
	}
	return nil
}

func (s *PostgresIssuedStore) UpdateStatus(ctx context.Context, documentNumber string, status models.IssuedStatus) error {
	res, err := execer(ctx, s.db).ExecContext(ctx,
		`UPDATE issued_numbers SET status = $2 WHERE document_number = $1`,
		documentNumber, string(status),
	)
	if err != nil {
		return fmt.Errorf("update issued number status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update issued number status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresIssuedStore) ListSequences(ctx context.Context, typeCode string, siteID *id.SiteID, year, month int) ([]int, error) {
	query := `
		SELECT sequence_number FROM issued_numbers
		WHERE type_code = $1 AND site_id IS NOT DISTINCT FROM $2 AND year = $3
		  AND ($4 = 0 OR month = $4)
		ORDER BY sequence_number
	`
	rows, err := execer(ctx, s.db).QueryContext(ctx, query, typeCode, siteIDValue(siteID), year, month)
	if err != nil {
		return nil, fmt.Errorf("list issued sequences: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var seq int
		if err := rows.Scan(&seq); err != nil {
			return nil, fmt.Errorf("scan issued sequence: %w", err)
		}
		out = append(out, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issued sequences: %w", err)
	}
	return out, nil
}

func siteIDValue(siteID *id.SiteID) any {
	if siteID == nil {
		return nil
	}
	return uuid.UUID(*siteID)
}

func refIDValue(ref id.DocumentRef) any {
	if ref.ID == uuid.Nil {
		return nil
	}
	return ref.ID
}
