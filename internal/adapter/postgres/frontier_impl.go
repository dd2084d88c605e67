package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
)

// FrontierRepoImpl implements repository.FrontierRepository on the crawl_urls table.
// Deduplication relies on the UNIQUE (crawl_id, url) constraint.
type FrontierRepoImpl struct {
	db *pgxpool.Pool
}

// NewFrontierRepo creates a new instance of FrontierRepoImpl.
func NewFrontierRepo(db *pgxpool.Pool) *FrontierRepoImpl {
	return &FrontierRepoImpl{db: db}
}

const enqueueQuery = `
	INSERT INTO crawl_urls (crawl_id, url, depth, status)
	VALUES ($1, $2, $3, 'queued')
	ON CONFLICT (crawl_id, url) DO NOTHING;
`

func (r *FrontierRepoImpl) Enqueue(ctx context.Context, crawlID int64, url string, depth int) (bool, error) {
	tag, err := r.db.Exec(ctx, enqueueQuery, crawlID, url, depth)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// EnqueueAll sends every insert in one batch.
func (r *FrontierRepoImpl) EnqueueAll(ctx context.Context, crawlID int64, urls []string, depth int) (int, error) {
	if len(urls) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, u := range urls {
		batch.Queue(enqueueQuery, crawlID, u, depth)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	added := 0
	for range urls {
		tag, err := br.Exec()
		if err != nil {
			return added, err
		}
		added += int(tag.RowsAffected())
	}
	return added, br.Close()
}

const crawlURLColumns = `id, crawl_id, url, depth, status, reason, created_at, updated_at`

func scanCrawlURL(row pgx.Row) (*entity.CrawlURL, error) {
	var cu entity.CrawlURL
	var status string
	if err := row.Scan(
		&cu.ID,
		&cu.CrawlID,
		&cu.URL,
		&cu.Depth,
		&status,
		&cu.Reason,
		&cu.CreatedAt,
		&cu.UpdatedAt,
	); err != nil {
		return nil, err
	}
	cu.Status = entity.CrawlURLStatus(status)
	return &cu, nil
}

func (r *FrontierRepoImpl) NextQueued(ctx context.Context, crawlID int64) (*entity.CrawlURL, error) {
	query := `
		SELECT ` + crawlURLColumns + `
		FROM crawl_urls
		WHERE crawl_id = $1 AND status = 'queued'
		ORDER BY id ASC
		LIMIT 1;
	`
	cu, err := scanCrawlURL(r.db.QueryRow(ctx, query, crawlID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return cu, err
}

func (r *FrontierRepoImpl) MarkDone(ctx context.Context, id int64) error {
	return r.transition(ctx, id, entity.CrawlURLDone, "")
}

func (r *FrontierRepoImpl) MarkSkipped(ctx context.Context, id int64, reason string) error {
	return r.transition(ctx, id, entity.CrawlURLSkipped, reason)
}

func (r *FrontierRepoImpl) MarkError(ctx context.Context, id int64, reason string) error {
	return r.transition(ctx, id, entity.CrawlURLError, reason)
}

// transition only touches queued rows, so an entry can never go back to queued
// or be finished twice.
func (r *FrontierRepoImpl) transition(ctx context.Context, id int64, status entity.CrawlURLStatus, reason string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE crawl_urls SET status = $2, reason = $3, updated_at = NOW() WHERE id = $1 AND status = 'queued'`,
		id, string(status), reason,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *FrontierRepoImpl) SkipQueued(ctx context.Context, crawlID int64, reason string) (int, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE crawl_urls SET status = 'skipped', reason = $2, updated_at = NOW() WHERE crawl_id = $1 AND status = 'queued'`,
		crawlID, reason,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *FrontierRepoImpl) CountByStatus(ctx context.Context, crawlID int64, status entity.CrawlURLStatus) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM crawl_urls WHERE crawl_id = $1 AND status = $2`,
		crawlID, string(status),
	).Scan(&n)
	return n, err
}

func (r *FrontierRepoImpl) ListByCrawl(ctx context.Context, crawlID int64) ([]*entity.CrawlURL, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+crawlURLColumns+` FROM crawl_urls WHERE crawl_id = $1 ORDER BY id ASC`,
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
