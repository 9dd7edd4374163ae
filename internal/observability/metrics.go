package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors of a crawl run. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Registry        *prometheus.Registry
	PagesTotal      *prometheus.CounterVec
	PageFailures    *prometheus.CounterVec
	LinksCollected  prometheus.Counter
	ReviewsTotal    prometheus.Counter
	ReviewsExported *prometheus.CounterVec
	DelaySeconds    prometheus.Histogram

	logger *slog.Logger
	server *http.Server
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pmparser_pages_total",
			Help: "Pages visited, by phase.",
		},
		[]string{"phase"},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pmparser_page_failures_total",
			Help: "Pages abandoned after an error, by phase.",
		},
		[]string{"phase"},
	)
	links := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pmparser_links_collected_total",
			Help: "Unique product links collected from listings.",
		},
	)
	reviews := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pmparser_reviews_total",
			Help: "Unique reviews extracted from detail pages.",
		},
	)
	exported := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pmparser_reviews_exported_total",
			Help: "Reviews written, by storage backend.",
		},
		[]string{"backend"},
	)
	delay := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pmparser_delay_seconds",
			Help:    "Pause taken before each detail page.",
			Buckets: prometheus.LinearBuckets(2, 2, 8),
		},
	)

	registry.MustRegister(pages, failures, links, reviews, exported, delay)

	return &Metrics{
		Registry:        registry,
		PagesTotal:      pages,
		PageFailures:    failures,
		LinksCollected:  links,
		ReviewsTotal:    reviews,
		ReviewsExported: exported,
		DelaySeconds:    delay,
		logger:          logger.With("component", "metrics"),
	}
}

// IncPage counts a visited page of the given phase ("listing" or "detail").
func (m *Metrics) IncPage(phase string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(phase).Inc()
}

// IncPageFailure counts an abandoned page.
func (m *Metrics) IncPageFailure(phase string) {
	if m == nil {
		return
	}
	m.PageFailures.WithLabelValues(phase).Inc()
}

// AddLinks counts newly collected links.
func (m *Metrics) AddLinks(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LinksCollected.Add(float64(n))
}

// IncReviews counts a newly extracted review.
func (m *Metrics) IncReviews() {
	if m == nil {
		return
	}
	m.ReviewsTotal.Inc()
}

// AddExported counts reviews written by a backend.
func (m *Metrics) AddExported(backend string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ReviewsExported.WithLabelValues(backend).Add(float64(n))
}

// ObserveDelay records a pause between detail pages.
func (m *Metrics) ObserveDelay(d time.Duration) {
	if m == nil {
		return
	}
	m.DelaySeconds.Observe(d.Seconds())
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server in the background.
func (m *Metrics) StartServer(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
}

// Shutdown stops the metrics server if it was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
