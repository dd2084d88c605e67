package entity

import "time"

// CrawlStatus is the lifecycle state of a Crawl.
type CrawlStatus string

const (
	CrawlStatusQueued  CrawlStatus = "queued"
	CrawlStatusRunning CrawlStatus = "running"
	CrawlStatusDone    CrawlStatus = "done"
	CrawlStatusError   CrawlStatus = "error"
)

// Crawl mirrors the `crawls` table: one crawl run over a Site.
type Crawl struct {
	ID          int64       `json:"id"`
	SiteID      int64       `json:"site_id"`
	Status      CrawlStatus `json:"status"`
	MaxPages    int         `json:"max_pages"`
	MaxDepth    int         `json:"max_depth"`
	PagesDone   int         `json:"pages_done"`
	PagesQueued int         `json:"pages_queued"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	FinishedAt  *time.Time  `json:"finished_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Terminal reports whether the crawl has finished, successfully or not.
func (c *Crawl) Terminal() bool {
	return c.Status == CrawlStatusDone || c.Status == CrawlStatusError
}
