package entity

import "time"

// CrawlURLStatus is the state of a single frontier entry.
type CrawlURLStatus string

const (
	CrawlURLQueued  CrawlURLStatus = "queued"
	CrawlURLDone    CrawlURLStatus = "done"
	CrawlURLSkipped CrawlURLStatus = "skipped"
	CrawlURLError   CrawlURLStatus = "error"
)

// Reasons recorded on skipped entries.
const (
	ReasonPageLimit     = "page limit reached"
	ReasonRobotsBlocked = "blocked by robots.txt"
)

// CrawlURL mirrors the `crawl_urls` table. (CrawlID, URL) is unique and URL
// is always in canonical form.
type CrawlURL struct {
	ID        int64          `json:"id"`
	CrawlID   int64          `json:"crawl_id"`
	URL       string         `json:"url"`
	Depth     int            `json:"depth"`
	Status    CrawlURLStatus `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
