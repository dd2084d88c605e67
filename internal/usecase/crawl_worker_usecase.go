package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/user/a11y-crawler/internal/repository"
	"github.com/user/a11y-crawler/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CrawlWorker pulls crawl ids off the queue and runs them with bounded concurrency.
type CrawlWorker struct {
	queue        repository.CrawlQueue
	runner       CrawlRunner
	concurrency  int
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewCrawlWorker creates a new CrawlWorker.
func NewCrawlWorker(queue repository.CrawlQueue, runner CrawlRunner, concurrency int, pollInterval time.Duration, logger *zap.Logger) *CrawlWorker {
	if concurrency <= 0 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &CrawlWorker{
		queue:        queue,
		runner:       runner,
		concurrency:  concurrency,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Run processes crawls until ctx is cancelled, then waits for the crawls in
// flight to return. A failing crawl is logged and does not stop the worker.
func (w *CrawlWorker) Run(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(w.concurrency)

	w.logger.Info("crawl worker started", zap.Int("concurrency", w.concurrency))
	for ctx.Err() == nil {
		crawlID, err := w.queue.Pop(ctx)
		if errors.Is(err, repository.ErrQueueEmpty) {
			w.sleep(ctx)
			continue
		}
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Error("failed to pop crawl from queue", zap.Error(err))
				w.sleep(ctx)
			}
			continue
		}
		w.reportQueueLength(ctx)

		// Go blocks while all slots are busy, so we never pop more than we can run.
		g.Go(func() error {
			w.runOne(ctx, crawlID)
			return nil
		})
	}

	_ = g.Wait()
	w.logger.Info("crawl worker stopped")
	return nil
}

// ProcessNext pops a single crawl and runs it inline. It reports whether a
// crawl was taken from the queue.
func (w *CrawlWorker) ProcessNext(ctx context.Context) (bool, error) {
	crawlID, err := w.queue.Pop(ctx)
	if errors.Is(err, repository.ErrQueueEmpty) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	w.runOne(ctx, crawlID)
	return true, nil
}

func (w *CrawlWorker) runOne(ctx context.Context, crawlID int64) {
	log := w.logger.With(zap.Int64("crawl_id", crawlID))
	err := w.runner.RunCrawl(ctx, crawlID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrCrawlNotQueued), errors.Is(err, ErrCrawlNotFound):
		log.Info("crawl no longer runnable, dropping", zap.Error(err))
	default:
		log.Error("crawl run failed", zap.Error(err))
	}
}

func (w *CrawlWorker) reportQueueLength(ctx context.Context) {
	if n, err := w.queue.Size(ctx); err == nil {
		metrics.CrawlQueueLength.Set(float64(n))
	}
}

func (w *CrawlWorker) sleep(ctx context.Context) {
	t := time.NewTimer(w.pollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
