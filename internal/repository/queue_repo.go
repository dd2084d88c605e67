package repository

import "context"

// CrawlQueue is a FIFO of crawl ids waiting for a worker.
type CrawlQueue interface {
	// Push adds a crawl id to the end of the queue.
	Push(ctx context.Context, crawlID int64) error
	// Pop removes and returns the id at the front of the queue, or ErrQueueEmpty.
	Pop(ctx context.Context) (int64, error)
	// Size returns the current number of items in the queue.
	Size(ctx context.Context) (int64, error)
}
