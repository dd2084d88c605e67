package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/user/a11y-crawler/internal/delivery/http/request"
	"github.com/user/a11y-crawler/internal/delivery/http/response"
	"github.com/user/a11y-crawler/internal/usecase"
	"go.uber.org/zap"
)

// HealthCheck reports whether one backing service is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	crawlManager    usecase.CrawlManager
	scanService     usecase.ScanService
	defaultMaxPages int
	defaultMaxDepth int
	healthChecks    map[string]HealthCheck
	logger          *zap.Logger
}

// Options carries the crawl budget defaults and the health checks to run.
type Options struct {
	DefaultMaxPages int
	DefaultMaxDepth int
	HealthChecks    map[string]HealthCheck
}

func NewHandler(crawlManager usecase.CrawlManager, scanService usecase.ScanService, opts Options, logger *zap.Logger) *Handler {
	if opts.DefaultMaxPages <= 0 {
		opts.DefaultMaxPages = usecase.DefaultMaxPages
	}
	if opts.DefaultMaxDepth < 0 {
		opts.DefaultMaxDepth = usecase.DefaultMaxDepth
	}
	return &Handler{
		crawlManager:    crawlManager,
		scanService:     scanService,
		defaultMaxPages: opts.DefaultMaxPages,
		defaultMaxDepth: opts.DefaultMaxDepth,
		healthChecks:    opts.HealthChecks,
		logger:          logger,
	}
}

func (h *Handler) HandleCreateSite(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	site, err := h.crawlManager.CreateSite(r.Context(), req.RootURL)
	if err != nil {
		h.writeUseCaseError(w, "create site", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, site)
}

func (h *Handler) HandleStartCrawl(w http.ResponseWriter, r *http.Request) {
	siteID, ok := h.pathID(w, r, "siteID")
	if !ok {
		return
	}

	var req request.StartCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	maxPages, maxDepth := h.defaultMaxPages, h.defaultMaxDepth
	if req.MaxPages != nil {
		maxPages = *req.MaxPages
	}
	if req.MaxDepth != nil {
		maxDepth = *req.MaxDepth
	}

	crawl, err := h.crawlManager.StartCrawl(r.Context(), siteID, maxPages, maxDepth)
	if err != nil {
		h.writeUseCaseError(w, "start crawl", err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, crawl)
}

func (h *Handler) HandleGetCrawl(w http.ResponseWriter, r *http.Request) {
	crawlID, ok := h.pathID(w, r, "crawlID")
	if !ok {
		return
	}
	crawl, err := h.crawlManager.GetCrawl(r.Context(), crawlID)
	if err != nil {
		h.writeUseCaseError(w, "get crawl", err)
		return
	}
	h.writeJSON(w, http.StatusOK, crawl)
}

func (h *Handler) HandleListCrawlURLs(w http.ResponseWriter, r *http.Request) {
	crawlID, ok := h.pathID(w, r, "crawlID")
	if !ok {
		return
	}
	urls, err := h.crawlManager.ListCrawlURLs(r.Context(), crawlID)
	if err != nil {
		h.writeUseCaseError(w, "list crawl urls", err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.NewCrawlURLsResponse(crawlID, urls))
}

// HandleScanURL runs an ad-hoc scan synchronously.
func (h *Handler) HandleScanURL(w http.ResponseWriter, r *http.Request) {
	var req request.ScanURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	scan, err := h.scanService.ScanURL(r.Context(), req.SiteID, req.URL)
	if err != nil {
		h.writeUseCaseError(w, "scan url", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, scan)
}

func (h *Handler) HandleGetScan(w http.ResponseWriter, r *http.Request) {
	scanID, ok := h.pathID(w, r, "scanID")
	if !ok {
		return
	}
	scan, err := h.scanService.GetScan(r.Context(), scanID)
	if err != nil {
		h.writeUseCaseError(w, "get scan", err)
		return
	}
	h.writeJSON(w, http.StatusOK, scan)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := response.HealthResponse{Status: "ok", Checks: map[string]string{}}
	for name, check := range h.healthChecks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = "unhealthy"
			resp.Status = "degraded"
			h.logger.Error("health check failed", zap.String("service", name), zap.Error(err))
			continue
		}
		resp.Checks[name] = "healthy"
	}

	if resp.Status != "ok" {
		h.writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		h.writeJSONError(w, "Invalid "+param, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeUseCaseError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidURL), errors.Is(err, usecase.ErrInvalidBudget):
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, usecase.ErrSiteNotFound),
		errors.Is(err, usecase.ErrCrawlNotFound),
		errors.Is(err, usecase.ErrScanNotFound):
		h.writeJSONError(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("request failed", zap.String("op", op), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}
