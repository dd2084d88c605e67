package entity

import "time"

// Site is a monitored root origin. Sites are owned by the surrounding
// application; the crawl core only reads them.
type Site struct {
	ID        int64     `json:"id"`
	RootURL   string    `json:"root_url"`
	CreatedAt time.Time `json:"created_at"`
}
