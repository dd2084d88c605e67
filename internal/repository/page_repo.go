package repository

import (
	"context"

	"github.com/user/a11y-crawler/internal/entity"
)

// PageRepository keeps one row per (site, url).
type PageRepository interface {
	// Upsert creates the page or refreshes its title, returning the stored row.
	Upsert(ctx context.Context, siteID int64, url, title string) (*entity.Page, error)
	SetLatestScan(ctx context.Context, pageID, scanID int64) error
	FindByURL(ctx context.Context, siteID int64, url string) (*entity.Page, error)
}

// ScanRepository stores audit results.
type ScanRepository interface {
	// Create inserts scan and fills in its ID and CreatedAt.
	Create(ctx context.Context, scan *entity.Scan) error
	// Update rewrites status, metrics, raw payload and failure reason.
	Update(ctx context.Context, scan *entity.Scan) error
	FindByID(ctx context.Context, id int64) (*entity.Scan, error)
}
