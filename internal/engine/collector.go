package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Welpodron/pm-parser/internal/config"
	"github.com/Welpodron/pm-parser/internal/fetcher"
	"github.com/Welpodron/pm-parser/internal/observability"
	"github.com/Welpodron/pm-parser/internal/types"
)

// Collector gathers product detail links from category listings.
type Collector struct {
	sel      config.SelectorsConfig
	maxPages int
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewCollector creates a Collector. maxPages bounds the listing pages walked
// per Paginate call; 0 means no bound.
func NewCollector(sel config.SelectorsConfig, maxPages int, logger *slog.Logger, metrics *observability.Metrics) *Collector {
	return &Collector{
		sel:      sel,
		maxPages: maxPages,
		logger:   logger.With("component", "collector"),
		metrics:  metrics,
	}
}

// CollectLinks adds to links the detail URL of every product card on the
// current page that shows a reviews counter. It returns how many links were
// new. Cards missing the counter or the link are skipped.
func (c *Collector) CollectLinks(ctx context.Context, page fetcher.Page, links *LinkSet) int {
	if links.Full() || ctx.Err() != nil {
		return 0
	}

	cards, err := page.Find(fetcher.CSS(c.sel.ProductCard))
	if err != nil {
		c.logger.Warn("product cards lookup failed", "url", page.URL(), "error", err)
		return 0
	}

	added := 0
	for _, card := range cards {
		if _, err := card.FindOne(fetcher.CSS(c.sel.ReviewsCounter)); err != nil {
			c.skip(page, err)
			continue
		}
		link, err := card.FindOne(fetcher.CSS(c.sel.DetailLink))
		if err != nil {
			c.skip(page, err)
			continue
		}
		href, err := link.Attribute("href")
		if err != nil {
			c.skip(page, err)
			continue
		}
		if strings.TrimSpace(href) == "" {
			continue
		}
		if links.Add(href) {
			added++
		}
	}

	c.metrics.AddLinks(added)
	c.logger.Debug("links collected", "url", page.URL(), "cards", len(cards), "added", added)
	return added
}

// skip logs a card skipped for a reason other than a missing element.
func (c *Collector) skip(page fetcher.Page, err error) {
	if types.IsNotFound(err) {
		return
	}
	c.logger.Debug("product card skipped", "url", page.URL(), "error", err)
}
