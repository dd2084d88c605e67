package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	CrawlQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crawl_queue_length",
			Help: "Current number of crawls waiting for a worker.",
		},
	)

	// status: done, error
	CrawlsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawls_total",
			Help: "Total number of finished crawl runs.",
		},
		[]string{"status"},
	)

	CrawlDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crawl_duration_seconds",
			Help:    "Wall time of crawl runs.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"status"},
	)

	// status: done, skipped, error
	CrawlURLsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_urls_total",
			Help: "Frontier entries that reached a terminal state.",
		},
		[]string{"status"},
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scan_duration_seconds",
			Help:    "Duration of accessibility scans.",
			Buckets: []float64{1, 2, 5, 10, 15, 30, 60},
		},
		[]string{"outcome"},
	)

	ScansInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scans_in_flight",
			Help: "Scans currently holding a rate limiter slot.",
		},
	)
)
