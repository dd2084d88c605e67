package repository

import (
	"context"

	"github.com/user/a11y-crawler/internal/entity"
)

// CrawlRepository manages crawl runs.
type CrawlRepository interface {
	// Create inserts a new crawl in the queued state.
	Create(ctx context.Context, siteID int64, maxPages, maxDepth int) (*entity.Crawl, error)
	FindByID(ctx context.Context, id int64) (*entity.Crawl, error)
	// MarkRunning moves a queued crawl to running and stamps started_at. It
	// returns ErrCrawlNotQueued if the crawl exists but is in any other state.
	MarkRunning(ctx context.Context, id int64) error
	// UpdateCounters overwrites pages_done and pages_queued.
	UpdateCounters(ctx context.Context, id int64, pagesDone, pagesQueued int) error
	// Finish sets a terminal status and stamps finished_at.
	Finish(ctx context.Context, id int64, status entity.CrawlStatus) error
}
