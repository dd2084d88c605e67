package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
	"github.com/user/a11y-crawler/pkg/ratelimit"
	"github.com/user/a11y-crawler/pkg/urlutil"
	"go.uber.org/zap"
)

// ScanService runs single-page scans outside of any crawl.
type ScanService interface {
	// ScanURL scans url for siteID and returns the stored scan. A scanner
	// failure is not an error: it is recorded on the scan with status failed.
	ScanURL(ctx context.Context, siteID int64, url string) (*entity.Scan, error)
	GetScan(ctx context.Context, scanID int64) (*entity.Scan, error)
}

type scanUseCase struct {
	sites   repository.SiteRepository
	scans   repository.ScanRepository
	scanner repository.PageScanner
	limiter *ratelimit.Limiter
	logger  *zap.Logger
}

// NewScanService creates a new ScanService use case.
func NewScanService(
	sites repository.SiteRepository,
	scans repository.ScanRepository,
	scanner repository.PageScanner,
	limiter *ratelimit.Limiter,
	logger *zap.Logger,
) ScanService {
	return &scanUseCase{sites: sites, scans: scans, scanner: scanner, limiter: limiter, logger: logger}
}

func (uc *scanUseCase) ScanURL(ctx context.Context, siteID int64, rawURL string) (*entity.Scan, error) {
	url := urlutil.Normalize(rawURL)
	if _, err := urlutil.Origin(url); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if _, err := uc.sites.FindByID(ctx, siteID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, fmt.Errorf("failed to load site %d: %w", siteID, err)
	}

	scan := &entity.Scan{SiteID: siteID, URL: url, Status: entity.ScanStatusQueued}
	if err := uc.scans.Create(ctx, scan); err != nil {
		return nil, fmt.Errorf("failed to create scan: %w", err)
	}

	markRunning := func(ctx context.Context) error {
		scan.Status = entity.ScanStatusRunning
		return uc.scans.Update(ctx, scan)
	}
	result, scanErr := scheduleScan(ctx, uc.limiter, uc.scanner, url, markRunning)
	switch {
	case isStartError(scanErr):
		scan.Status = entity.ScanStatusFailed
		scan.FailureReason = scanErr.Error()
		if err := uc.scans.Update(context.WithoutCancel(ctx), scan); err != nil {
			uc.logger.Error("failed to mark scan failed", zap.Int64("scan_id", scan.ID), zap.Error(err))
		}
		return nil, fmt.Errorf("failed to start scan %d: %w", scan.ID, scanErr)
	case scanErr != nil:
		scan.Status = entity.ScanStatusFailed
		scan.FailureReason = scanErr.Error()
		uc.logger.Warn("ad-hoc scan failed", zap.Int64("scan_id", scan.ID), zap.String("url", url), zap.Error(scanErr))
	default:
		if err := scan.ApplyResult(result); err != nil {
			return nil, fmt.Errorf("failed to encode scan result: %w", err)
		}
	}

	// The record must leave the queued state even if the caller went away.
	if err := uc.scans.Update(context.WithoutCancel(ctx), scan); err != nil {
		return nil, fmt.Errorf("failed to save scan %d: %w", scan.ID, err)
	}
	if scanErr != nil && ctx.Err() != nil {
		return scan, ctx.Err()
	}
	return scan, nil
}

func (uc *scanUseCase) GetScan(ctx context.Context, scanID int64) (*entity.Scan, error) {
	scan, err := uc.scans.FindByID(ctx, scanID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrScanNotFound
	}
	return scan, err
}
