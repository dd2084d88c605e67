package repository

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist, or when a
	// frontier entry is not in the state an update requires.
	ErrNotFound = errors.New("record not found")
	// ErrCrawlNotQueued is returned by MarkRunning when another runner claimed the crawl first.
	ErrCrawlNotQueued = errors.New("crawl is not queued")
	// ErrQueueEmpty is returned by CrawlQueue.Pop when there is nothing to take.
	ErrQueueEmpty = errors.New("queue is empty")

	// Scanner failures.
	ErrScanTimeout      = errors.New("scan timed out")
	ErrNavigationFailed = errors.New("navigation failed")
	ErrEngineInjection  = errors.New("failed to inject accessibility engine")
	ErrEngineRun        = errors.New("accessibility engine run failed")
)
