package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
	"github.com/user/a11y-crawler/pkg/urlutil"
	"go.uber.org/zap"
)

const (
	DefaultMaxPages = 50
	DefaultMaxDepth = 3
)

// CrawlManager defines the interface for registering sites and submitting crawls.
type CrawlManager interface {
	CreateSite(ctx context.Context, rootURL string) (*entity.Site, error)
	// StartCrawl creates a queued crawl seeded with the site root and returns
	// without running it. A crawl whose seeding fails is finished as error.
	StartCrawl(ctx context.Context, siteID int64, maxPages, maxDepth int) (*entity.Crawl, error)
	GetCrawl(ctx context.Context, crawlID int64) (*entity.Crawl, error)
	ListCrawlURLs(ctx context.Context, crawlID int64) ([]*entity.CrawlURL, error)
}

type crawlManagerUseCase struct {
	sites    repository.SiteRepository
	crawls   repository.CrawlRepository
	frontier repository.FrontierRepository
	queue    repository.CrawlQueue
	logger   *zap.Logger
}

// NewCrawlManager creates a new CrawlManager use case. queue may be nil, in
// which case crawls are only runnable by id.
func NewCrawlManager(
	sites repository.SiteRepository,
	crawls repository.CrawlRepository,
	frontier repository.FrontierRepository,
	queue repository.CrawlQueue,
	logger *zap.Logger,
) CrawlManager {
	return &crawlManagerUseCase{
		sites:    sites,
		crawls:   crawls,
		frontier: frontier,
		queue:    queue,
		logger:   logger,
	}
}

func (uc *crawlManagerUseCase) CreateSite(ctx context.Context, rootURL string) (*entity.Site, error) {
	canonical := urlutil.Normalize(rootURL)
	if _, err := urlutil.Origin(canonical); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rootURL)
	}
	site, err := uc.sites.Create(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to create site: %w", err)
	}
	return site, nil
}

func (uc *crawlManagerUseCase) StartCrawl(ctx context.Context, siteID int64, maxPages, maxDepth int) (*entity.Crawl, error) {
	if maxPages < 1 || maxDepth < 0 {
		return nil, ErrInvalidBudget
	}

	site, err := uc.sites.FindByID(ctx, siteID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSiteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load site %d: %w", siteID, err)
	}

	crawl, err := uc.crawls.Create(ctx, site.ID, maxPages, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to create crawl: %w", err)
	}
	if _, err := uc.frontier.Enqueue(ctx, crawl.ID, urlutil.Normalize(site.RootURL), 0); err != nil {
		return nil, uc.abandon(ctx, crawl.ID, fmt.Errorf("failed to seed crawl %d: %w", crawl.ID, err))
	}
	if err := uc.crawls.UpdateCounters(ctx, crawl.ID, 0, 1); err != nil {
		return nil, uc.abandon(ctx, crawl.ID, fmt.Errorf("failed to update crawl %d: %w", crawl.ID, err))
	}
	crawl.PagesQueued = 1

	if uc.queue != nil {
		if err := uc.queue.Push(ctx, crawl.ID); err != nil {
			// The crawl is stored and can still be run by id.
			uc.logger.Error("failed to queue crawl for workers", zap.Int64("crawl_id", crawl.ID), zap.Error(err))
			return crawl, fmt.Errorf("crawl %d created but not queued: %w", crawl.ID, err)
		}
	}

	uc.logger.Info("crawl queued",
		zap.Int64("crawl_id", crawl.ID),
		zap.Int64("site_id", site.ID),
		zap.Int("max_pages", maxPages),
		zap.Int("max_depth", maxDepth),
	)
	return crawl, nil
}

// abandon finishes a crawl that could not be seeded as error, so it is never
// picked up and reported done with zero pages. cause is returned unchanged.
func (uc *crawlManagerUseCase) abandon(ctx context.Context, crawlID int64, cause error) error {
	if err := uc.crawls.Finish(context.WithoutCancel(ctx), crawlID, entity.CrawlStatusError); err != nil {
		uc.logger.Error("failed to finish unseeded crawl", zap.Int64("crawl_id", crawlID), zap.Error(err))
	}
	return cause
}

func (uc *crawlManagerUseCase) GetCrawl(ctx context.Context, crawlID int64) (*entity.Crawl, error) {
	crawl, err := uc.crawls.FindByID(ctx, crawlID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCrawlNotFound
	}
	return crawl, err
}

func (uc *crawlManagerUseCase) ListCrawlURLs(ctx context.Context, crawlID int64) ([]*entity.CrawlURL, error) {
	if _, err := uc.GetCrawl(ctx, crawlID); err != nil {
		return nil, err
	}
	urls, err := uc.frontier.ListByCrawl(ctx, crawlID)
	if err != nil {
		return nil, err
	}
	if urls == nil {
		urls = []*entity.CrawlURL{}
	}
	return urls, nil
}
