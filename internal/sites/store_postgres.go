package sites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"registrar/internal/platform/postgres"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	txcontext "registrar/pkg/platform/tx"
)

const constraintSiteCode = "sites_code_key"

// PostgresStore persists the site directory.
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

const siteColumns = `id, code, name, is_active, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, site *Site) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO sites (`+siteColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, uuid.UUID(site.ID), site.Code, site.Name, site.IsActive, site.CreatedAt, site.UpdatedAt)
	if postgres.IsUniqueViolation(err, constraintSiteCode) {
		return fmt.Errorf("site code %q: %w", site.Code, sentinel.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert site: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, siteID id.SiteID) (*Site, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id = $1`, uuid.UUID(siteID))
	return scanSite(row)
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*Site, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE code = $1`, code)
	return scanSite(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*Site, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+siteColumns+` FROM sites ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var out []*Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sites: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (*Site, error) {
	var (
		site   Site
		siteID uuid.UUID
	)
	err := row.Scan(&siteID, &site.Code, &site.Name, &site.IsActive, &site.CreatedAt, &site.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan site: %w", err)
	}
	site.ID = id.SiteID(siteID)
	return &site, nil
}

var _ Store = (*PostgresStore)(nil)
