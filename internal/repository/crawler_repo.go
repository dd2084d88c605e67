package repository

import (
	"context"

	"github.com/user/a11y-crawler/internal/entity"
)

// PageScanner renders a page in a headless browser and audits it.
type PageScanner interface {
	// Scan loads url in a fresh browser context and runs the accessibility engine.
	// Failures are one of the Err* scanner sentinels, wrapped.
	Scan(ctx context.Context, url string) (*entity.ScanResult, error)
}

// LinkExtractor lists the hyperlinks on a page.
type LinkExtractor interface {
	// ExtractLinks returns absolute URLs for every anchor on pageURL, in document
	// order. It never fails: any problem yields an empty list.
	ExtractLinks(ctx context.Context, pageURL string) []string
}

// RobotsPolicy decides whether the crawler may visit a URL.
type RobotsPolicy interface {
	Allowed(ctx context.Context, url string) bool
}

// RobotsCache stores Disallow rules per origin between policy checks.
type RobotsCache interface {
	// Get returns the cached rules and whether they were present.
	Get(ctx context.Context, origin string) ([]string, bool, error)
	Set(ctx context.Context, origin string, disallows []string) error
}
