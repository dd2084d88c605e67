package response

import "github.com/user/a11y-crawler/internal/entity"

type ErrorResponse struct {
	Error string `json:"error"`
}

// CrawlURLsResponse lists a crawl's frontier with a tally per status.
type CrawlURLsResponse struct {
	CrawlID int64                         `json:"crawl_id"`
	Counts  map[entity.CrawlURLStatus]int `json:"counts"`
	URLs    []*entity.CrawlURL            `json:"urls"`
}

func NewCrawlURLsResponse(crawlID int64, urls []*entity.CrawlURL) CrawlURLsResponse {
	counts := map[entity.CrawlURLStatus]int{
		entity.CrawlURLQueued:  0,
		entity.CrawlURLDone:    0,
		entity.CrawlURLSkipped: 0,
		entity.CrawlURLError:   0,
	}
	for _, u := range urls {
		counts[u.Status]++
	}
	return CrawlURLsResponse{CrawlID: crawlID, Counts: counts, URLs: urls}
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
