package chromedp_scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
	"github.com/user/a11y-crawler/pkg/metrics"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// axeRunScript runs the engine and flattens the result to what we persist.
// Shadow DOM targets come back as nested arrays and are joined into one selector.
const axeRunScript = `axe.run(document, { resultTypes: ['violations'] }).then(function (r) {
	return r.violations.map(function (v) {
		return {
			id: v.id,
			impact: v.impact,
			description: v.description,
			help: v.help,
			helpUrl: v.helpUrl,
			nodes: v.nodes.map(function (n) {
				return {
					target: n.target.map(function (t) { return Array.isArray(t) ? t.join(' >>> ') : String(t); }),
					html: n.html,
					failureSummary: n.failureSummary
				};
			})
		};
	});
})`

// Options configures a Scanner.
type Options struct {
	Timeout       time.Duration
	UserAgent     string
	AxeSourcePath string
	AxeSourceURL  string
	// HTTPClient downloads the engine when AxeSourceURL is used.
	HTTPClient *http.Client
	// ExecAllocatorOptions replaces the default headless Chrome flags.
	ExecAllocatorOptions []chromedp.ExecAllocatorOption
}

// Scanner implements repository.PageScanner with headless Chrome and axe-core.
// Every scan gets its own browser, which is torn down when the scan returns.
type Scanner struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	engine      *engineSource
	logger      *zap.Logger

	// browserStarted, when set, sees each scan's browser context.
	browserStarted func(ctx context.Context)
}

// NewScanner prepares the Chrome allocator. No browser is started until the first scan.
func NewScanner(opts Options, logger *zap.Logger) *Scanner {
	allocOpts := opts.ExecAllocatorOptions
	if allocOpts == nil {
		allocOpts = append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		if opts.UserAgent != "" {
			allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
		}
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &Scanner{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		timeout:     timeout,
		engine:      &engineSource{path: opts.AxeSourcePath, url: opts.AxeSourceURL, client: client},
		logger:      logger,
	}
}

// Close shuts down the allocator and any browser still attached to it.
func (s *Scanner) Close() {
	s.allocCancel()
}

// Scan renders url and runs axe-core against it.
func (s *Scanner) Scan(ctx context.Context, url string) (*entity.ScanResult, error) {
	start := time.Now()
	result, err := s.scan(ctx, url)

	outcome := "success"
	if err != nil {
		outcome = "failure"
		if errors.Is(err, repository.ErrScanTimeout) {
			outcome = "timeout"
		}
	}
	metrics.ScanDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return result, err
}

func (s *Scanner) scan(ctx context.Context, url string) (*entity.ScanResult, error) {
	src, err := s.engine.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrEngineInjection, err)
	}

	// The browser hangs off the shared allocator, not off ctx, so tie the two
	// together by hand: cancelling ctx closes the browser.
	browserCtx, cancel := chromedp.NewContext(s.allocCtx, chromedp.WithLogf(s.logger.Sugar().Debugf))
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if s.browserStarted != nil {
		s.browserStarted(browserCtx)
	}

	taskCtx, cancelTimeout := context.WithTimeout(browserCtx, s.timeout)
	defer cancelTimeout()

	var title string
	err = chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Title(&title),
	)
	if err != nil {
		return nil, s.classify(ctx, taskCtx, repository.ErrNavigationFailed, err)
	}

	var loaded bool
	err = chromedp.Run(taskCtx, chromedp.Evaluate(src+"\n;typeof axe !== 'undefined'", &loaded))
	if err == nil && !loaded {
		err = errors.New("axe is undefined after injection")
	}
	if err != nil {
		return nil, s.classify(ctx, taskCtx, repository.ErrEngineInjection, err)
	}

	var raw []byte
	err = chromedp.Run(taskCtx, chromedp.Evaluate(axeRunScript, &raw, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	if err != nil {
		return nil, s.classify(ctx, taskCtx, repository.ErrEngineRun, err)
	}

	violations, err := decodeViolations(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrEngineRun, err)
	}

	s.logger.Debug("scan finished", zap.String("url", url), zap.Int("violations", len(violations)))
	return entity.NewScanResult(title, violations), nil
}

// classify turns a chromedp failure into one of the scanner sentinels. A hit on
// our own deadline becomes ErrScanTimeout; a cancelled caller keeps its
// context error so the caller can tell the two apart.
func (s *Scanner) classify(callerCtx, taskCtx context.Context, sentinel, err error) error {
	if callerCtx.Err() != nil {
		return fmt.Errorf("%w: %w", sentinel, callerCtx.Err())
	}
	if errors.Is(taskCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %v", repository.ErrScanTimeout, s.timeout, err)
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

// decodeViolations parses the JSON array produced by axeRunScript.
func decodeViolations(raw []byte) ([]entity.Violation, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []entity.Violation{}, nil
	}
	var violations []entity.Violation
	if err := json.Unmarshal(raw, &violations); err != nil {
		return nil, err
	}
	for i := range violations {
		if violations[i].Nodes == nil {
			violations[i].Nodes = []entity.ViolationNode{}
		}
	}
	return violations, nil
}
