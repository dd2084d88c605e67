package usecase

import "errors"

var (
	ErrInvalidBudget = errors.New("maxPages must be at least 1 and maxDepth must not be negative")
	ErrInvalidURL    = errors.New("url must be an absolute http or https url")
	ErrSiteNotFound  = errors.New("site not found")
	ErrCrawlNotFound = errors.New("crawl not found")
	ErrScanNotFound  = errors.New("scan not found")
)
