package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
)

// CrawlRepoImpl implements repository.CrawlRepository using PostgreSQL.
type CrawlRepoImpl struct {
	db *pgxpool.Pool
}

// NewCrawlRepo creates a new instance of CrawlRepoImpl.
func NewCrawlRepo(db *pgxpool.Pool) *CrawlRepoImpl {
	return &CrawlRepoImpl{db: db}
}

const crawlColumns = `id, site_id, status, max_pages, max_depth, pages_done, pages_queued, started_at, finished_at, created_at`

func scanCrawl(row pgx.Row) (*entity.Crawl, error) {
	var c entity.Crawl
	var status string
	err := row.Scan(
		&c.ID,
		&c.SiteID,
		&status,
		&c.MaxPages,
		&c.MaxDepth,
		&c.PagesDone,
		&c.PagesQueued,
		&c.StartedAt,
		&c.FinishedAt,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Status = entity.CrawlStatus(status)
	return &c, nil
}

func (r *CrawlRepoImpl) Create(ctx context.Context, siteID int64, maxPages, maxDepth int) (*entity.Crawl, error) {
	query := `
		INSERT INTO crawls (site_id, status, max_pages, max_depth)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + crawlColumns
	return scanCrawl(r.db.QueryRow(ctx, query, siteID, string(entity.CrawlStatusQueued), maxPages, maxDepth))
}

func (r *CrawlRepoImpl) FindByID(ctx context.Context, id int64) (*entity.Crawl, error) {
	return scanCrawl(r.db.QueryRow(ctx, `SELECT `+crawlColumns+` FROM crawls WHERE id = $1`, id))
}

// MarkRunning is a conditional update so that two runners racing for the same
// crawl cannot both own it.
func (r *CrawlRepoImpl) MarkRunning(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE crawls SET status = $2, started_at = NOW() WHERE id = $1 AND status = $3`,
		id, string(entity.CrawlStatusRunning), string(entity.CrawlStatusQueued),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM crawls WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrCrawlNotQueued
}

func (r *CrawlRepoImpl) UpdateCounters(ctx context.Context, id int64, pagesDone, pagesQueued int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE crawls SET pages_done = $2, pages_queued = $3 WHERE id = $1`,
		id, pagesDone, pagesQueued,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CrawlRepoImpl) Finish(ctx context.Context, id int64, status entity.CrawlStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE crawls SET status = $2, finished_at = NOW() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
