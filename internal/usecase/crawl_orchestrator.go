package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
	"github.com/user/a11y-crawler/pkg/metrics"
	"github.com/user/a11y-crawler/pkg/ratelimit"
	"github.com/user/a11y-crawler/pkg/urlutil"
	"go.uber.org/zap"
)

// CrawlRunner executes a crawl to completion.
type CrawlRunner interface {
	RunCrawl(ctx context.Context, crawlID int64) error
}

// OrchestratorDeps wires the orchestrator to its stores and network collaborators.
type OrchestratorDeps struct {
	Sites    repository.SiteRepository
	Crawls   repository.CrawlRepository
	Frontier repository.FrontierRepository
	Pages    repository.PageRepository
	Scans    repository.ScanRepository

	Scanner repository.PageScanner
	Links   repository.LinkExtractor
	Robots  repository.RobotsPolicy
	// Limiter may be shared with other orchestrators and with ad-hoc scans.
	Limiter *ratelimit.Limiter
	Logger  *zap.Logger
}

// Orchestrator drains a crawl's frontier breadth-first, scanning every page
// it is allowed to and feeding discovered same-origin links back in.
//
// One Orchestrator may run many crawls at once, but each crawl is owned by a
// single RunCrawl call: MarkRunning only lets the first caller through.
type Orchestrator struct {
	deps OrchestratorDeps
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Orchestrator{deps: deps}
}

// RunCrawl moves crawl crawlID from queued to running and processes its
// frontier until it is empty or the page budget is spent. Per-URL problems
// are recorded on the frontier entry and never stop the run. Store failures
// and cancellation of ctx are fatal: the crawl is marked error and the cause
// is returned. Entries still queued at that point are left as they are.
func (o *Orchestrator) RunCrawl(ctx context.Context, crawlID int64) (err error) {
	d := o.deps
	log := d.Logger.With(zap.Int64("crawl_id", crawlID))

	crawl, err := d.Crawls.FindByID(ctx, crawlID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("crawl %d: %w", crawlID, ErrCrawlNotFound)
		}
		return fmt.Errorf("failed to load crawl %d: %w", crawlID, err)
	}
	if err := d.Crawls.MarkRunning(ctx, crawlID); err != nil {
		return fmt.Errorf("failed to claim crawl %d: %w", crawlID, err)
	}

	start := time.Now()
	defer func() {
		status := entity.CrawlStatusDone
		if err != nil {
			status = entity.CrawlStatusError
			log.Error("crawl failed", zap.Error(err))
			// ctx may be the reason we are here; the status must still be written.
			if ferr := d.Crawls.Finish(context.WithoutCancel(ctx), crawlID, status); ferr != nil {
				log.Error("failed to mark crawl as errored", zap.Error(ferr))
			}
		}
		metrics.CrawlsTotal.WithLabelValues(string(status)).Inc()
		metrics.CrawlDuration.WithLabelValues(string(status)).Observe(time.Since(start).Seconds())
	}()

	site, err := d.Sites.FindByID(ctx, crawl.SiteID)
	if err != nil {
		return fmt.Errorf("failed to load site %d: %w", crawl.SiteID, err)
	}

	pagesDone, err := d.Frontier.CountByStatus(ctx, crawlID, entity.CrawlURLDone)
	if err != nil {
		return fmt.Errorf("failed to count finished pages: %w", err)
	}

	log.Info("crawl started",
		zap.String("root_url", site.RootURL),
		zap.Int("max_pages", crawl.MaxPages),
		zap.Int("max_depth", crawl.MaxDepth),
	)

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("crawl %d interrupted: %w", crawlID, err)
		}

		entry, err := d.Frontier.NextQueued(ctx, crawlID)
		if errors.Is(err, repository.ErrNotFound) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read frontier: %w", err)
		}

		if pagesDone >= crawl.MaxPages {
			n, err := d.Frontier.SkipQueued(ctx, crawlID, entity.ReasonPageLimit)
			if err != nil {
				return fmt.Errorf("failed to skip remaining urls: %w", err)
			}
			metrics.CrawlURLsTotal.WithLabelValues(string(entity.CrawlURLSkipped)).Add(float64(n))
			log.Info("page limit reached", zap.Int("skipped", n))
			break
		}

		scanned, err := o.processEntry(ctx, log, site, crawl, entry)
		if err != nil {
			return err
		}
		if scanned {
			pagesDone++
		}

		if err := o.syncCounters(ctx, crawlID, pagesDone); err != nil {
			return err
		}
	}

	if err := o.syncCounters(ctx, crawlID, pagesDone); err != nil {
		return err
	}
	if err := d.Crawls.Finish(ctx, crawlID, entity.CrawlStatusDone); err != nil {
		return fmt.Errorf("failed to finish crawl: %w", err)
	}

	log.Info("crawl finished", zap.Int("pages_done", pagesDone), zap.Duration("took", time.Since(start)))
	return nil
}

// processEntry handles a single frontier entry. It reports whether the page
// was scanned successfully. Only store failures and cancellation are returned
// as errors.
func (o *Orchestrator) processEntry(ctx context.Context, log *zap.Logger, site *entity.Site, crawl *entity.Crawl, entry *entity.CrawlURL) (bool, error) {
	d := o.deps
	log = log.With(zap.String("url", entry.URL), zap.Int("depth", entry.Depth))

	if !d.Robots.Allowed(ctx, entry.URL) {
		if err := d.Frontier.MarkSkipped(ctx, entry.ID, entity.ReasonRobotsBlocked); err != nil {
			return false, fmt.Errorf("failed to mark %s skipped: %w", entry.URL, err)
		}
		metrics.CrawlURLsTotal.WithLabelValues(string(entity.CrawlURLSkipped)).Inc()
		log.Debug("blocked by robots.txt")
		return false, nil
	}

	result, scanErr := scheduleScan(ctx, d.Limiter, d.Scanner, entry.URL, nil)
	if scanErr != nil {
		if ctx.Err() != nil {
			return false, fmt.Errorf("crawl %d interrupted while scanning %s: %w", crawl.ID, entry.URL, ctx.Err())
		}
		log.Warn("scan failed", zap.Error(scanErr))
		if err := d.Frontier.MarkError(ctx, entry.ID, scanErr.Error()); err != nil {
			return false, fmt.Errorf("failed to mark %s errored: %w", entry.URL, err)
		}
		metrics.CrawlURLsTotal.WithLabelValues(string(entity.CrawlURLError)).Inc()
		return false, nil
	}

	if err := o.recordScan(ctx, site.ID, entry.URL, result); err != nil {
		return false, err
	}
	if err := d.Frontier.MarkDone(ctx, entry.ID); err != nil {
		return false, fmt.Errorf("failed to mark %s done: %w", entry.URL, err)
	}
	metrics.CrawlURLsTotal.WithLabelValues(string(entity.CrawlURLDone)).Inc()
	log.Info("page scanned", zap.Int("score", result.Score), zap.Int("issues", result.Issues))

	if entry.Depth < crawl.MaxDepth {
		if err := o.expand(ctx, log, site, crawl.ID, entry); err != nil {
			return true, err
		}
	}
	return true, nil
}

// recordScan upserts the page and stores a finished scan pointing at it.
func (o *Orchestrator) recordScan(ctx context.Context, siteID int64, url string, result *entity.ScanResult) error {
	d := o.deps

	page, err := d.Pages.Upsert(ctx, siteID, url, result.Title)
	if err != nil {
		return fmt.Errorf("failed to upsert page %s: %w", url, err)
	}

	scan := &entity.Scan{SiteID: siteID, PageID: &page.ID, URL: url}
	if err := scan.ApplyResult(result); err != nil {
		return fmt.Errorf("failed to encode scan result for %s: %w", url, err)
	}
	if err := d.Scans.Create(ctx, scan); err != nil {
		return fmt.Errorf("failed to save scan for %s: %w", url, err)
	}
	if err := d.Pages.SetLatestScan(ctx, page.ID, scan.ID); err != nil {
		return fmt.Errorf("failed to link scan %d to page %d: %w", scan.ID, page.ID, err)
	}
	return nil
}

// expand enqueues the same-origin links of entry one level deeper.
func (o *Orchestrator) expand(ctx context.Context, log *zap.Logger, site *entity.Site, crawlID int64, entry *entity.CrawlURL) error {
	d := o.deps

	links := d.Links.ExtractLinks(ctx, entry.URL)
	seen := make(map[string]struct{}, len(links))
	fresh := make([]string, 0, len(links))
	for _, link := range links {
		canonical := urlutil.Normalize(link)
		if !urlutil.SameOrigin(site.RootURL, canonical) {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		fresh = append(fresh, canonical)
	}

	added, err := d.Frontier.EnqueueAll(ctx, crawlID, fresh, entry.Depth+1)
	if err != nil {
		return fmt.Errorf("failed to enqueue links from %s: %w", entry.URL, err)
	}
	log.Debug("links discovered", zap.Int("found", len(links)), zap.Int("same_origin", len(fresh)), zap.Int("new", added))
	return nil
}

func (o *Orchestrator) syncCounters(ctx context.Context, crawlID int64, pagesDone int) error {
	queued, err := o.deps.Frontier.CountByStatus(ctx, crawlID, entity.CrawlURLQueued)
	if err != nil {
		return fmt.Errorf("failed to count queued urls: %w", err)
	}
	if err := o.deps.Crawls.UpdateCounters(ctx, crawlID, pagesDone, queued); err != nil {
		return fmt.Errorf("failed to update crawl counters: %w", err)
	}
	return nil
}
