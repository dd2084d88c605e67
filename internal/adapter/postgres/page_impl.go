package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
)

// PageRepoImpl implements repository.PageRepository using PostgreSQL.
type PageRepoImpl struct {
	db *pgxpool.Pool
}

// NewPageRepo creates a new instance of PageRepoImpl.
func NewPageRepo(db *pgxpool.Pool) *PageRepoImpl {
	return &PageRepoImpl{db: db}
}

const pageColumns = `id, site_id, url, title, latest_scan_id, created_at, updated_at`

func scanPage(row pgx.Row) (*entity.Page, error) {
	var p entity.Page
	err := row.Scan(&p.ID, &p.SiteID, &p.URL, &p.Title, &p.LatestScanID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert creates the page on first sight and refreshes its title afterwards.
func (r *PageRepoImpl) Upsert(ctx context.Context, siteID int64, url, title string) (*entity.Page, error) {
	query := `
		INSERT INTO pages (site_id, url, title)
		VALUES ($1, $2, $3)
		ON CONFLICT (site_id, url) DO UPDATE SET
			title = EXCLUDED.title,
			updated_at = NOW()
		RETURNING ` + pageColumns
	return scanPage(r.db.QueryRow(ctx, query, siteID, url, title))
}

func (r *PageRepoImpl) SetLatestScan(ctx context.Context, pageID, scanID int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE pages SET latest_scan_id = $2, updated_at = NOW() WHERE id = $1`,
		pageID, scanID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PageRepoImpl) FindByURL(ctx context.Context, siteID int64, url string) (*entity.Page, error) {
	return scanPage(r.db.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE site_id = $1 AND url = $2`,
		siteID, url,
	))
}
