package engine

import (
	"context"
	"fmt"

	"github.com/Welpodron/pm-parser/internal/fetcher"
	"github.com/Welpodron/pm-parser/internal/types"
)

// Paginate collects links from the current listing page, then follows the
// "next" control and repeats until it is gone. Any failure to find or click
// it ends pagination without an error. The link cap does not stop the walk.
// It returns the number of listing pages collected.
func (c *Collector) Paginate(ctx context.Context, page fetcher.Page, links *LinkSet) int {
	pages := 0
	for {
		if ctx.Err() != nil {
			c.logger.Debug("pagination cancelled", "pages", pages)
			return pages
		}

		c.CollectLinks(ctx, page, links)
		c.metrics.IncPage("listing")
		pages++

		if c.maxPages > 0 && pages >= c.maxPages {
			c.logger.Debug("pagination page limit reached", "pages", pages)
			return pages
		}

		if err := c.next(ctx, page); err != nil {
			c.logger.Debug("pagination finished", "pages", pages, "reason", err)
			return pages
		}
	}
}

// next moves page to the following listing page or returns why it could not.
func (c *Collector) next(ctx context.Context, page fetcher.Page) error {
	control, err := page.FindOne(fetcher.CSS(c.sel.NextPage))
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrNoNextPage, err)
	}
	if err := control.Click(ctx); err != nil {
		return fmt.Errorf("%w: %v", types.ErrNoNextPage, err)
	}
	return nil
}
