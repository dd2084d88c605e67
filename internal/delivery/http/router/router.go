package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/a11y-crawler/internal/delivery/http/handler"
	"github.com/user/a11y-crawler/internal/delivery/http/middleware"
	"go.uber.org/zap"
)

func New(h *handler.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)

		r.Post("/sites", h.HandleCreateSite)
		r.Post("/sites/{siteID}/crawls", h.HandleStartCrawl)

		r.Get("/crawls/{crawlID}", h.HandleGetCrawl)
		r.Get("/crawls/{crawlID}/urls", h.HandleListCrawlURLs)

		r.Post("/scans", h.HandleScanURL)
		r.Get("/scans/{scanID}", h.HandleGetScan)
	})

	return r
}
