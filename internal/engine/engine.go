package engine

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/Welpodron/pm-parser/internal/config"
	"github.com/Welpodron/pm-parser/internal/fetcher"
	"github.com/Welpodron/pm-parser/internal/observability"
	"github.com/Welpodron/pm-parser/internal/storage"
	"github.com/Welpodron/pm-parser/internal/types"
)

// Stats tracks crawl statistics.
type Stats struct {
	ListingsCrawled atomic.Int64
	ListingPages    atomic.Int64
	PagesParsed     atomic.Int64
	PageFailures    atomic.Int64
	LinksFound      atomic.Int64
	ReviewsFound    atomic.Int64
	StartTime       time.Time
}

// Snapshot returns a copy of stats safe for reading.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"listings_crawled": s.ListingsCrawled.Load(),
		"listing_pages":    s.ListingPages.Load(),
		"pages_parsed":     s.PagesParsed.Load(),
		"page_failures":    s.PageFailures.Load(),
		"links_found":      s.LinksFound.Load(),
		"reviews_found":    s.ReviewsFound.Load(),
		"elapsed":          time.Since(s.StartTime).Round(time.Second).String(),
	}
}

// RunMinutes rounds a run duration up to whole minutes.
func RunMinutes(d time.Duration) int {
	return int(math.Ceil(d.Minutes()))
}

// Result is the outcome of a finished run.
type Result struct {
	Links   []string
	Reviews []types.Review
	// Path is the export file, empty when nothing was written.
	Path    string
	Elapsed time.Duration
}

// Engine drives one crawl: listings are paginated for links, every link is
// visited after a random pause, and the collected reviews are exported.
// All page interaction happens on the calling goroutine.
type Engine struct {
	cfg       *config.Config
	page      fetcher.Page
	store     storage.Storage
	collector *Collector
	extractor *Extractor
	delayer   *Delayer
	metrics   *observability.Metrics
	logger    *slog.Logger
	stats     *Stats
}

// New creates an Engine. metrics may be nil.
func New(cfg *config.Config, page fetcher.Page, store storage.Storage, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		cfg:       cfg,
		page:      page,
		store:     store,
		collector: NewCollector(cfg.Selectors, cfg.Crawl.MaxPages, logger, metrics),
		extractor: NewExtractor(cfg, logger, metrics),
		delayer:   NewDelayer(cfg.Crawl.MinDelay, cfg.Crawl.MaxDelay, logger),
		metrics:   metrics,
		logger:    logger.With("component", "engine"),
		stats:     &Stats{},
	}
}

// Stats returns the current crawl statistics.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// Run crawls every configured listing, extracts reviews and exports them,
// then closes the store. Cancelling ctx stops visiting new pages; whatever
// was collected is still exported. Only a storage failure is returned as an
// error.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	e.stats.StartTime = time.Now()
	e.logger.Info("run started",
		"listings", len(e.cfg.Site.ListingPaths),
		"max_links", e.cfg.Crawl.MaxLinks,
		"max_reviews", e.cfg.Reviews.Max,
		"rating", e.cfg.Reviews.Rating,
	)

	links := NewLinkSet(e.cfg.Crawl.MaxLinks)
	e.collectLinks(ctx, links)

	results := NewResultSet(e.cfg.Reviews.Max)
	e.extract(ctx, links, results)

	res := &Result{
		Links:   links.URLs(),
		Reviews: results.Reviews(),
	}
	exportErr := e.export(res.Reviews)
	if err := e.store.Close(); err != nil && exportErr == nil {
		exportErr = &types.StorageError{Backend: e.store.Name(), Err: err}
	}
	res.Path = storage.PathOf(e.store)
	res.Elapsed = time.Since(e.stats.StartTime)

	if res.Path != "" {
		e.logger.Info("results written", "path", res.Path, "reviews", len(res.Reviews))
	}
	e.logger.Info("run finished",
		"minutes", RunMinutes(res.Elapsed),
		"stats", e.stats.Snapshot(),
	)

	if exportErr != nil {
		return res, exportErr
	}
	return res, nil
}

func (e *Engine) collectLinks(ctx context.Context, links *LinkSet) {
	for _, listing := range e.cfg.ListingURLs() {
		if ctx.Err() != nil {
			break
		}

		e.logger.Info("pagination started", "url", listing)
		if err := e.page.Navigate(ctx, listing); err != nil {
			e.logger.Warn("listing unavailable", "url", listing, "error", err)
			e.stats.PageFailures.Add(1)
			e.metrics.IncPageFailure("listing")
			continue
		}

		pages := e.collector.Paginate(ctx, e.page, links)
		e.stats.ListingsCrawled.Add(1)
		e.stats.ListingPages.Add(int64(pages))
		e.logger.Info("pagination finished", "url", listing, "pages", pages)
	}

	e.stats.LinksFound.Store(int64(links.Len()))
	e.logger.Info("unique links found", "count", links.Len())
}

func (e *Engine) extract(ctx context.Context, links *LinkSet, results *ResultSet) {
	for _, link := range links.URLs() {
		delay, err := e.delayer.Wait(ctx)
		if err != nil {
			e.logger.Info("extraction interrupted", "error", err)
			return
		}
		e.metrics.ObserveDelay(delay)

		added, err := e.extractor.ExtractReviews(ctx, e.page, link, results)
		e.stats.PagesParsed.Add(1)
		e.stats.ReviewsFound.Add(int64(added))
		if err != nil {
			e.stats.PageFailures.Add(1)
			e.metrics.IncPageFailure("detail")
			e.logger.Warn("page abandoned", "url", link, "error", err)
		}
	}
}

func (e *Engine) export(reviews []types.Review) error {
	err := storage.Export(e.store, reviews)
	switch {
	case errors.Is(err, types.ErrEmptyResult):
		e.logger.Info("no reviews collected, nothing exported")
		return nil
	case err != nil:
		e.logger.Error("export failed", "backend", e.store.Name(), "error", err)
		return err
	}
	e.metrics.AddExported(e.store.Name(), len(reviews))
	return nil
}
