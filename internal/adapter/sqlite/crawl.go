package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
)

// CrawlRepo implements repository.CrawlRepository.
type CrawlRepo struct {
	db *sql.DB
}

func NewCrawlRepo(db *sql.DB) *CrawlRepo {
	return &CrawlRepo{db: db}
}

const crawlColumns = `id, site_id, status, max_pages, max_depth, pages_done, pages_queued, started_at, finished_at, created_at`

func scanCrawl(row scanner) (*entity.Crawl, error) {
	var c entity.Crawl
	var status string
	var started, finished sql.NullInt64
	var created int64
	err := row.Scan(&c.ID, &c.SiteID, &status, &c.MaxPages, &c.MaxDepth,
		&c.PagesDone, &c.PagesQueued, &started, &finished, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Status = entity.CrawlStatus(status)
	c.StartedAt = fromNullMillis(started)
	c.FinishedAt = fromNullMillis(finished)
	c.CreatedAt = fromMillis(created)
	return &c, nil
}

func (r *CrawlRepo) Create(ctx context.Context, siteID int64, maxPages, maxDepth int) (*entity.Crawl, error) {
	return scanCrawl(r.db.QueryRowContext(ctx,
		`INSERT INTO crawls (site_id, status, max_pages, max_depth, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING `+crawlColumns,
		siteID, string(entity.CrawlStatusQueued), maxPages, maxDepth, now(),
	))
}

func (r *CrawlRepo) FindByID(ctx context.Context, id int64) (*entity.Crawl, error) {
	return scanCrawl(r.db.QueryRowContext(ctx, `SELECT `+crawlColumns+` FROM crawls WHERE id = ?`, id))
}

func (r *CrawlRepo) MarkRunning(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE crawls SET status = ?, started_at = ? WHERE id = ? AND status = ?`,
		string(entity.CrawlStatusRunning), now(), id, string(entity.CrawlStatusQueued),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM crawls WHERE id = ?)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrCrawlNotQueued
}

func (r *CrawlRepo) UpdateCounters(ctx context.Context, id int64, pagesDone, pagesQueued int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE crawls SET pages_done = ?, pages_queued = ? WHERE id = ?`,
		pagesDone, pagesQueued, id,
	)
	return requireOne(res, err)
}

func (r *CrawlRepo) Finish(ctx context.Context, id int64, status entity.CrawlStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE crawls SET status = ?, finished_at = ? WHERE id = ?`,
		string(status), now(), id,
	)
	return requireOne(res, err)
}

// requireOne maps "no row touched" to repository.ErrNotFound.
func requireOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
