package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/user/a11y-crawler/internal/adapter/chromedp_scanner"
	"github.com/user/a11y-crawler/internal/adapter/httpfetch"
	"github.com/user/a11y-crawler/internal/adapter/localcache"
	"github.com/user/a11y-crawler/internal/adapter/postgres"
	redis_adapter "github.com/user/a11y-crawler/internal/adapter/redis"
	"github.com/user/a11y-crawler/internal/adapter/sqlite"
	"github.com/user/a11y-crawler/internal/delivery/http/handler"
	"github.com/user/a11y-crawler/internal/repository"
	"github.com/user/a11y-crawler/internal/usecase"
	"github.com/user/a11y-crawler/pkg/config"
	"github.com/user/a11y-crawler/pkg/ratelimit"
	"go.uber.org/zap"
)

// app holds the wired stores and lazily built network collaborators shared
// by every subcommand.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	sites    repository.SiteRepository
	crawls   repository.CrawlRepository
	frontier repository.FrontierRepository
	pages    repository.PageRepository
	scans    repository.ScanRepository

	// queue is nil when Redis is unreachable.
	queue       repository.CrawlQueue
	robotsCache repository.RobotsCache

	healthChecks map[string]handler.HealthCheck
	closers      []func()

	scanner *chromedp_scanner.Scanner
	limiter *ratelimit.Limiter
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, healthChecks: map[string]handler.HealthCheck{}}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openCache(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, a.cfg.SQLitePath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { db.Close() })
		a.healthChecks["store"] = db.PingContext
		a.useSQLite(db)
		a.logger.Info("SQLite store opened", zap.String("path", a.cfg.SQLitePath))
	default:
		pool, err := pgxpool.New(ctx, a.cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("unable to connect to database: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("unable to ping database: %w", err)
		}
		a.healthChecks["store"] = pool.Ping
		a.usePostgres(pool)
		a.logger.Info("PostgreSQL connection pool established")
	}
	return nil
}

func (a *app) useSQLite(db *sql.DB) {
	a.sites = sqlite.NewSiteRepo(db)
	a.crawls = sqlite.NewCrawlRepo(db)
	a.frontier = sqlite.NewFrontierRepo(db)
	a.pages = sqlite.NewPageRepo(db)
	a.scans = sqlite.NewScanRepo(db)
}

func (a *app) usePostgres(pool *pgxpool.Pool) {
	a.sites = postgres.NewSiteRepo(pool)
	a.crawls = postgres.NewCrawlRepo(pool)
	a.frontier = postgres.NewFrontierRepo(pool)
	a.pages = postgres.NewPageRepo(pool)
	a.scans = postgres.NewScanRepo(pool)
}

// openCache connects to Redis for the job queue and robots cache. Without
// Redis, robots rules are cached in process and crawls can only be run by id.
func (a *app) openCache(ctx context.Context) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		a.logger.Warn("Redis unavailable, using in-process robots cache and no job queue",
			zap.String("addr", a.cfg.RedisAddr), zap.Error(err))

		cache, err := localcache.NewRobotsCache(ctx, a.cfg.RobotsCacheTTL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { cache.Close() })
		a.robotsCache = cache
		return nil
	}

	a.closers = append(a.closers, func() { rdb.Close() })
	a.healthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	a.queue = redis_adapter.NewCrawlQueue(rdb)
	a.robotsCache = redis_adapter.NewRobotsCache(rdb, a.cfg.RobotsCacheTTL)
	a.logger.Info("Redis connection established")
	return nil
}

func (a *app) crawlManager() usecase.CrawlManager {
	return usecase.NewCrawlManager(a.sites, a.crawls, a.frontier, a.queue, a.logger)
}

func (a *app) sharedLimiter() *ratelimit.Limiter {
	if a.limiter == nil {
		a.limiter = ratelimit.New(a.cfg.ScanConcurrency, a.cfg.ScanSpacing)
	}
	return a.limiter
}

func (a *app) pageScanner() *chromedp_scanner.Scanner {
	if a.scanner == nil {
		a.scanner = chromedp_scanner.NewScanner(chromedp_scanner.Options{
			Timeout:       a.cfg.ScanTimeout,
			UserAgent:     a.cfg.UserAgent,
			AxeSourcePath: a.cfg.AxeSourcePath,
			AxeSourceURL:  a.cfg.AxeSourceURL,
			HTTPClient:    &http.Client{Timeout: 30 * time.Second},
		}, a.logger)
		a.closers = append(a.closers, a.scanner.Close)
	}
	return a.scanner
}

func (a *app) orchestrator() *usecase.Orchestrator {
	client := &http.Client{}
	return usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Sites:    a.sites,
		Crawls:   a.crawls,
		Frontier: a.frontier,
		Pages:    a.pages,
		Scans:    a.scans,
		Scanner:  a.pageScanner(),
		Links:    httpfetch.NewLinkExtractor(client, a.cfg.LinkFetchTimeout, a.cfg.UserAgent, a.logger),
		Robots:   httpfetch.NewRobotsChecker(client, a.cfg.RobotsTimeout, a.cfg.UserAgent, a.robotsCache, a.logger),
		Limiter:  a.sharedLimiter(),
		Logger:   a.logger,
	})
}

func (a *app) scanService() usecase.ScanService {
	return usecase.NewScanService(a.sites, a.scans, a.pageScanner(), a.sharedLimiter(), a.logger)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
