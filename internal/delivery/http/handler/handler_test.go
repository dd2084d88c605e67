package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/a11y-crawler/internal/delivery/http/handler"
	"github.com/user/a11y-crawler/internal/delivery/http/response"
	"github.com/user/a11y-crawler/internal/delivery/http/router"
	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/usecase"
	"go.uber.org/zap"
)

type fakeCrawlManager struct {
	startedPages, startedDepth int
	startErr                   error
	crawls                     map[int64]*entity.Crawl
	urls                       map[int64][]*entity.CrawlURL
}

func (f *fakeCrawlManager) CreateSite(_ context.Context, rootURL string) (*entity.Site, error) {
	if !strings.HasPrefix(rootURL, "http") {
		return nil, usecase.ErrInvalidURL
	}
	return &entity.Site{ID: 1, RootURL: rootURL, CreatedAt: time.Now()}, nil
}

func (f *fakeCrawlManager) StartCrawl(_ context.Context, siteID int64, maxPages, maxDepth int) (*entity.Crawl, error) {
	f.startedPages, f.startedDepth = maxPages, maxDepth
	if f.startErr != nil {
		return nil, f.startErr
	}
	if siteID != 1 {
		return nil, usecase.ErrSiteNotFound
	}
	if maxPages < 1 || maxDepth < 0 {
		return nil, usecase.ErrInvalidBudget
	}
	return &entity.Crawl{ID: 7, SiteID: siteID, Status: entity.CrawlStatusQueued, MaxPages: maxPages, MaxDepth: maxDepth}, nil
}

func (f *fakeCrawlManager) GetCrawl(_ context.Context, crawlID int64) (*entity.Crawl, error) {
	c, ok := f.crawls[crawlID]
	if !ok {
		return nil, usecase.ErrCrawlNotFound
	}
	return c, nil
}

func (f *fakeCrawlManager) ListCrawlURLs(_ context.Context, crawlID int64) ([]*entity.CrawlURL, error) {
	if _, ok := f.crawls[crawlID]; !ok {
		return nil, usecase.ErrCrawlNotFound
	}
	return f.urls[crawlID], nil
}

type fakeScanService struct {
	scans map[int64]*entity.Scan
}

func (f *fakeScanService) ScanURL(_ context.Context, siteID int64, url string) (*entity.Scan, error) {
	if siteID != 1 {
		return nil, usecase.ErrSiteNotFound
	}
	return &entity.Scan{ID: 3, SiteID: siteID, URL: url, Status: entity.ScanStatusDone, Score: 90}, nil
}

func (f *fakeScanService) GetScan(_ context.Context, scanID int64) (*entity.Scan, error) {
	s, ok := f.scans[scanID]
	if !ok {
		return nil, usecase.ErrScanNotFound
	}
	return s, nil
}

func newServer(t *testing.T, cm *fakeCrawlManager, checks map[string]handler.HealthCheck) http.Handler {
	t.Helper()
	if cm.crawls == nil {
		cm.crawls = map[int64]*entity.Crawl{
			7: {ID: 7, SiteID: 1, Status: entity.CrawlStatusDone, MaxPages: 2, MaxDepth: 1, PagesDone: 2},
		}
		cm.urls = map[int64][]*entity.CrawlURL{
			7: {
				{ID: 1, CrawlID: 7, URL: "https://example.com/", Status: entity.CrawlURLDone},
				{ID: 2, CrawlID: 7, URL: "https://example.com/a", Status: entity.CrawlURLDone},
				{ID: 3, CrawlID: 7, URL: "https://example.com/b", Status: entity.CrawlURLSkipped, Reason: entity.ReasonPageLimit},
			},
		}
	}
	ss := &fakeScanService{scans: map[int64]*entity.Scan{
		3: {ID: 3, SiteID: 1, URL: "https://example.com/", Status: entity.ScanStatusDone, Score: 100},
	}}
	h := handler.NewHandler(cm, ss, handler.Options{DefaultMaxPages: 50, DefaultMaxDepth: 3, HealthChecks: checks}, zap.NewNop())
	return router.New(h, zap.NewNop())
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestCreateSite(t *testing.T) {
	srv := newServer(t, &fakeCrawlManager{}, nil)

	rec := do(t, srv, http.MethodPost, "/api/sites", `{"root_url":"https://example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var site entity.Site
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &site))
	assert.Equal(t, "https://example.com", site.RootURL)

	rec = do(t, srv, http.MethodPost, "/api/sites", `{"root_url":"ftp://example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/sites", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartCrawl(t *testing.T) {
	t.Run("defaults applied when body is empty", func(t *testing.T) {
		cm := &fakeCrawlManager{}
		srv := newServer(t, cm, nil)

		rec := do(t, srv, http.MethodPost, "/api/sites/1/crawls", "")
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, 50, cm.startedPages)
		assert.Equal(t, 3, cm.startedDepth)
	})

	t.Run("explicit zero depth is kept", func(t *testing.T) {
		cm := &fakeCrawlManager{}
		srv := newServer(t, cm, nil)

		rec := do(t, srv, http.MethodPost, "/api/sites/1/crawls", `{"max_pages":5,"max_depth":0}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, 5, cm.startedPages)
		assert.Equal(t, 0, cm.startedDepth)

		var crawl entity.Crawl
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crawl))
		assert.Equal(t, entity.CrawlStatusQueued, crawl.Status)
	})

	t.Run("invalid budget", func(t *testing.T) {
		srv := newServer(t, &fakeCrawlManager{}, nil)
		rec := do(t, srv, http.MethodPost, "/api/sites/1/crawls", `{"max_pages":0}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown site", func(t *testing.T) {
		srv := newServer(t, &fakeCrawlManager{}, nil)
		rec := do(t, srv, http.MethodPost, "/api/sites/9/crawls", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad site id", func(t *testing.T) {
		srv := newServer(t, &fakeCrawlManager{}, nil)
		rec := do(t, srv, http.MethodPost, "/api/sites/abc/crawls", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store failure is not leaked", func(t *testing.T) {
		srv := newServer(t, &fakeCrawlManager{startErr: errors.New("connection refused")}, nil)
		rec := do(t, srv, http.MethodPost, "/api/sites/1/crawls", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestGetCrawlAndURLs(t *testing.T) {
	srv := newServer(t, &fakeCrawlManager{}, nil)

	rec := do(t, srv, http.MethodGet, "/api/crawls/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var crawl entity.Crawl
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crawl))
	assert.Equal(t, 2, crawl.PagesDone)

	rec = do(t, srv, http.MethodGet, "/api/crawls/7/urls", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list response.CrawlURLsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.URLs, 3)
	assert.Equal(t, 2, list.Counts[entity.CrawlURLDone])
	assert.Equal(t, 1, list.Counts[entity.CrawlURLSkipped])
	assert.Equal(t, 0, list.Counts[entity.CrawlURLError])

	rec = do(t, srv, http.MethodGet, "/api/crawls/8", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/crawls/8/urls", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScans(t *testing.T) {
	srv := newServer(t, &fakeCrawlManager{}, nil)

	rec := do(t, srv, http.MethodPost, "/api/scans", `{"site_id":1,"url":"https://example.com/a"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var scan entity.Scan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scan))
	assert.Equal(t, "https://example.com/a", scan.URL)

	rec = do(t, srv, http.MethodPost, "/api/scans", `{"site_id":2,"url":"https://example.com/a"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/scans/3", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/scans/4", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	srv := newServer(t, &fakeCrawlManager{}, map[string]handler.HealthCheck{"store": ok, "queue": ok})
	rec := do(t, srv, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health response.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)

	srv = newServer(t, &fakeCrawlManager{}, map[string]handler.HealthCheck{"store": ok, "queue": down})
	rec = do(t, srv, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "unhealthy", health.Checks["queue"])
	assert.Equal(t, "healthy", health.Checks["store"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t, &fakeCrawlManager{}, nil)
	do(t, srv, http.MethodGet, "/api/crawls/7", "")

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `path="/api/crawls/{crawlID}"`)
}
