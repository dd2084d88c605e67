package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
)

// PageRepo implements repository.PageRepository.
type PageRepo struct {
	db *sql.DB
}

func NewPageRepo(db *sql.DB) *PageRepo {
	return &PageRepo{db: db}
}

const pageColumns = `id, site_id, url, title, latest_scan_id, created_at, updated_at`

func scanPage(row scanner) (*entity.Page, error) {
	var p entity.Page
	var latest sql.NullInt64
	var created, updated int64
	err := row.Scan(&p.ID, &p.SiteID, &p.URL, &p.Title, &latest, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.LatestScanID = fromNullID(latest)
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}

func (r *PageRepo) Upsert(ctx context.Context, siteID int64, url, title string) (*entity.Page, error) {
	ts := now()
	return scanPage(r.db.QueryRowContext(ctx,
		`INSERT INTO pages (site_id, url, title, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (site_id, url) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at
		 RETURNING `+pageColumns,
		siteID, url, title, ts, ts,
	))
}

func (r *PageRepo) SetLatestScan(ctx context.Context, pageID, scanID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pages SET latest_scan_id = ?, updated_at = ? WHERE id = ?`,
		scanID, now(), pageID,
	)
	return requireOne(res, err)
}

func (r *PageRepo) FindByURL(ctx context.Context, siteID int64, url string) (*entity.Page, error) {
	return scanPage(r.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE site_id = ? AND url = ?`,
		siteID, url,
	))
}
