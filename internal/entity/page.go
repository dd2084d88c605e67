package entity

import "time"

// Page is the stable identity of a URL within a Site, independent of crawl runs.
type Page struct {
	ID           int64     `json:"id"`
	SiteID       int64     `json:"site_id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	LatestScanID *int64    `json:"latest_scan_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
