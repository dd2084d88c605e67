package repository

import (
	"context"

	"github.com/user/a11y-crawler/internal/entity"
)

// FrontierRepository is the persistent, deduplicated queue of URLs for a crawl.
// Entries only ever move out of the queued state, never back into it.
type FrontierRepository interface {
	// Enqueue inserts url at depth unless (crawlID, url) already exists.
	// It reports whether a row was inserted.
	Enqueue(ctx context.Context, crawlID int64, url string, depth int) (bool, error)
	// EnqueueAll inserts every new url at depth and returns how many were added.
	EnqueueAll(ctx context.Context, crawlID int64, urls []string, depth int) (int, error)
	// NextQueued returns the oldest queued entry, or ErrNotFound when none is left.
	NextQueued(ctx context.Context, crawlID int64) (*entity.CrawlURL, error)
	// MarkDone, MarkSkipped and MarkError move a queued entry to a terminal
	// state. They return ErrNotFound if the entry is missing or not queued.
	MarkDone(ctx context.Context, id int64) error
	MarkSkipped(ctx context.Context, id int64, reason string) error
	MarkError(ctx context.Context, id int64, reason string) error
	// SkipQueued marks every remaining queued entry skipped with reason.
	SkipQueued(ctx context.Context, crawlID int64, reason string) (int, error)
	CountByStatus(ctx context.Context, crawlID int64, status entity.CrawlURLStatus) (int, error)
	ListByCrawl(ctx context.Context, crawlID int64) ([]*entity.CrawlURL, error)
}
