package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
)

// FrontierRepo implements repository.FrontierRepository on crawl_urls.
type FrontierRepo struct {
	db *sql.DB
}

func NewFrontierRepo(db *sql.DB) *FrontierRepo {
	return &FrontierRepo{db: db}
}

const enqueueQuery = `
	INSERT INTO crawl_urls (crawl_id, url, depth, status, created_at, updated_at)
	VALUES (?, ?, ?, 'queued', ?, ?)
	ON CONFLICT (crawl_id, url) DO NOTHING
`

func (r *FrontierRepo) Enqueue(ctx context.Context, crawlID int64, url string, depth int) (bool, error) {
	ts := now()
	res, err := r.db.ExecContext(ctx, enqueueQuery, crawlID, url, depth, ts, ts)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// EnqueueAll inserts urls in one transaction.
func (r *FrontierRepo) EnqueueAll(ctx context.Context, crawlID int64, urls []string, depth int) (int, error) {
	if len(urls) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, enqueueQuery)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	ts := now()
	added := 0
	for _, u := range urls {
		res, err := stmt.ExecContext(ctx, crawlID, u, depth, ts, ts)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		added += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

const crawlURLColumns = `id, crawl_id, url, depth, status, reason, created_at, updated_at`

func scanCrawlURL(row scanner) (*entity.CrawlURL, error) {
	var cu entity.CrawlURL
	var status string
	var created, updated int64
	if err := row.Scan(&cu.ID, &cu.CrawlID, &cu.URL, &cu.Depth, &status, &cu.Reason, &created, &updated); err != nil {
		return nil, err
	}
	cu.Status = entity.CrawlURLStatus(status)
	cu.CreatedAt = fromMillis(created)
	cu.UpdatedAt = fromMillis(updated)
	return &cu, nil
}

func (r *FrontierRepo) NextQueued(ctx context.Context, crawlID int64) (*entity.CrawlURL, error) {
	cu, err := scanCrawlURL(r.db.QueryRowContext(ctx,
		`SELECT `+crawlURLColumns+` FROM crawl_urls
		 WHERE crawl_id = ? AND status = 'queued'
		 ORDER BY id ASC
		 LIMIT 1`,
		crawlID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return cu, err
}

func (r *FrontierRepo) MarkDone(ctx context.Context, id int64) error {
	return r.transition(ctx, id, entity.CrawlURLDone, "")
}

func (r *FrontierRepo) MarkSkipped(ctx context.Context, id int64, reason string) error {
	return r.transition(ctx, id, entity.CrawlURLSkipped, reason)
}

func (r *FrontierRepo) MarkError(ctx context.Context, id int64, reason string) error {
	return r.transition(ctx, id, entity.CrawlURLError, reason)
}

func (r *FrontierRepo) transition(ctx context.Context, id int64, status entity.CrawlURLStatus, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE crawl_urls SET status = ?, reason = ?, updated_at = ? WHERE id = ? AND status = 'queued'`,
		string(status), reason, now(), id,
	)
	return requireOne(res, err)
}

func (r *FrontierRepo) SkipQueued(ctx context.Context, crawlID int64, reason string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE crawl_urls SET status = 'skipped', reason = ?, updated_at = ? WHERE crawl_id = ? AND status = 'queued'`,
		reason, now(), crawlID,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *FrontierRepo) CountByStatus(ctx context.Context, crawlID int64, status entity.CrawlURLStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM crawl_urls WHERE crawl_id = ? AND status = ?`,
		crawlID, string(status),
	).Scan(&n)
	return n, err
}

func (r *FrontierRepo) ListByCrawl(ctx context.Context, crawlID int64) ([]*entity.CrawlURL, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+crawlURLColumns+` FROM crawl_urls WHERE crawl_id = ? ORDER BY id ASC`,
		crawlID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.CrawlURL
	for rows.Next() {
		cu, err := scanCrawlURL(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cu)
	}
	return out, rows.Err()
}
