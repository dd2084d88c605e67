package request

type CreateSiteRequest struct {
	RootURL string `json:"root_url"`
}

// StartCrawlRequest leaves budgets nil to use the server defaults.
type StartCrawlRequest struct {
	MaxPages *int `json:"max_pages"`
	MaxDepth *int `json:"max_depth"`
}

type ScanURLRequest struct {
	SiteID int64  `json:"site_id"`
	URL    string `json:"url"`
}
