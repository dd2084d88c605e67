package usecase

import (
	"context"
	"database/sql"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/user/a11y-crawler/internal/adapter/sqlite"
	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
	"github.com/user/a11y-crawler/pkg/ratelimit"
	"github.com/user/a11y-crawler/pkg/robots"
	"github.com/user/a11y-crawler/pkg/urlutil"
	"go.uber.org/zap"
)

type fakeScanner struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, url string) (*entity.ScanResult, error)
}

func (f *fakeScanner) Scan(ctx context.Context, url string) (*entity.ScanResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, url)
	}
	return entity.NewScanResult("Title of "+url, nil), nil
}

func (f *fakeScanner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeLinks serves a fixed link graph keyed by canonical page URL. Hrefs are
// resolved against the page like the real extractor does.
type fakeLinks map[string][]string

func (f fakeLinks) ExtractLinks(_ context.Context, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return []string{}
	}
	out := []string{}
	for _, href := range f[pageURL] {
		if abs, err := urlutil.ToAbsoluteURL(base, href); err == nil {
			out = append(out, abs)
		}
	}
	return out
}

type fakeRobots struct {
	disallow []string
}

func (f *fakeRobots) Allowed(_ context.Context, url string) bool {
	return robots.Allowed(f.disallow, urlutil.RequestPath(url))
}

type fakeQueue struct {
	mu    sync.Mutex
	ids   []int64
	err   error
	sizes int
}

func (q *fakeQueue) Push(_ context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

func (q *fakeQueue) Pop(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ids) == 0 {
		return 0, repository.ErrQueueEmpty
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	return id, nil
}

func (q *fakeQueue) Size(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sizes++
	return int64(len(q.ids)), nil
}

type testEnv struct {
	db       *sql.DB
	sites    *sqlite.SiteRepo
	crawls   *sqlite.CrawlRepo
	frontier *sqlite.FrontierRepo
	pages    *sqlite.PageRepo
	scans    *sqlite.ScanRepo

	scanner *fakeScanner
	links   fakeLinks
	robots  *fakeRobots
	limiter *ratelimit.Limiter
	queue   *fakeQueue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "usecase.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &testEnv{
		db:       db,
		sites:    sqlite.NewSiteRepo(db),
		crawls:   sqlite.NewCrawlRepo(db),
		frontier: sqlite.NewFrontierRepo(db),
		pages:    sqlite.NewPageRepo(db),
		scans:    sqlite.NewScanRepo(db),
		scanner:  &fakeScanner{},
		links:    fakeLinks{},
		robots:   &fakeRobots{},
		limiter:  ratelimit.New(2, time.Millisecond),
		queue:    &fakeQueue{},
	}
}

func (e *testEnv) deps() OrchestratorDeps {
	return OrchestratorDeps{
		Sites:    e.sites,
		Crawls:   e.crawls,
		Frontier: e.frontier,
		Pages:    e.pages,
		Scans:    e.scans,
		Scanner:  e.scanner,
		Links:    e.links,
		Robots:   e.robots,
		Limiter:  e.limiter,
		Logger:   zap.NewNop(),
	}
}

func (e *testEnv) orchestrator() *Orchestrator {
	return NewOrchestrator(e.deps())
}

func (e *testEnv) manager() CrawlManager {
	return NewCrawlManager(e.sites, e.crawls, e.frontier, e.queue, zap.NewNop())
}

// startCrawl registers rootURL and queues a crawl for it.
func (e *testEnv) startCrawl(t *testing.T, rootURL string, maxPages, maxDepth int) (*entity.Site, *entity.Crawl) {
	t.Helper()
	ctx := context.Background()
	m := e.manager()
	site, err := m.CreateSite(ctx, rootURL)
	require.NoError(t, err)
	crawl, err := m.StartCrawl(ctx, site.ID, maxPages, maxDepth)
	require.NoError(t, err)
	return site, crawl
}

// entriesByURL indexes a crawl's frontier by URL.
func (e *testEnv) entriesByURL(t *testing.T, crawlID int64) map[string]*entity.CrawlURL {
	t.Helper()
	entries, err := e.frontier.ListByCrawl(context.Background(), crawlID)
	require.NoError(t, err)
	out := make(map[string]*entity.CrawlURL, len(entries))
	for _, cu := range entries {
		out[cu.URL] = cu
	}
	return out
}
