package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Welpodron/pm-parser/internal/config"
	"github.com/Welpodron/pm-parser/internal/fetcher"
	"github.com/Welpodron/pm-parser/internal/observability"
	"github.com/Welpodron/pm-parser/internal/parser"
	"github.com/Welpodron/pm-parser/internal/types"
)

// Extractor reads reviews from product detail pages.
type Extractor struct {
	sel     config.SelectorsConfig
	root    string
	rating  int
	perLink int
	delim   string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewExtractor creates an Extractor from the site, review and selector settings.
func NewExtractor(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Extractor {
	return &Extractor{
		sel:     cfg.Selectors,
		root:    cfg.Site.RootURL,
		rating:  cfg.Reviews.Rating,
		perLink: cfg.Reviews.PerLinkMax,
		delim:   cfg.Reviews.ImageDelimiter,
		logger:  logger.With("component", "extractor"),
		metrics: metrics,
	}
}

// ExtractReviews opens url and adds its matching reviews to results. It
// returns the number of new reviews. An error means the page was abandoned;
// reviews added before the failure stay in results.
func (x *Extractor) ExtractReviews(ctx context.Context, page fetcher.Page, url string, results *ResultSet) (int, error) {
	if results.Full() {
		return 0, nil
	}

	x.logger.Info("page parse started", "url", url)
	defer x.logger.Info("page parse finished", "url", url)
	x.metrics.IncPage("detail")

	if err := page.Navigate(ctx, url); err != nil {
		return 0, err
	}

	product, err := x.product(page, url)
	if err != nil {
		return 0, err
	}

	blocks, err := page.Find(fetcher.CSS(x.reviewQuery()))
	if err != nil {
		return 0, err
	}

	rating := strconv.Itoa(x.rating)
	added := 0
	for _, block := range blocks {
		if results.Add(x.review(block, product, rating)) {
			x.metrics.IncReviews()
			added++
		}
	}
	return added, nil
}

func (x *Extractor) product(page fetcher.Page, url string) (types.Product, error) {
	idEl, err := page.FindOne(fetcher.CSS(x.sel.ProductID))
	if err != nil {
		return types.Product{}, fmt.Errorf("product id: %w", err)
	}
	nameEl, err := page.FindOne(fetcher.CSS(x.sel.ProductName))
	if err != nil {
		return types.Product{}, fmt.Errorf("product name: %w", err)
	}

	id, err := idEl.Attribute(x.sel.ProductIDAttr)
	if err != nil {
		return types.Product{}, fmt.Errorf("product id: %w", err)
	}
	name, err := nameEl.Text()
	if err != nil {
		return types.Product{}, fmt.Errorf("product name: %w", err)
	}

	return types.Product{URL: url, Name: name, ID: id}, nil
}

// reviewQuery selects the first perLink review blocks that carry the
// configured rating, in document order.
func (x *Extractor) reviewQuery() string {
	return fmt.Sprintf(`%s[%s="%d"]:nth-child(-n+%d)`, x.sel.Review, x.sel.RatingAttr, x.rating, x.perLink)
}

func (x *Extractor) review(block fetcher.Element, product types.Product, rating string) types.Review {
	r := types.NewReview(product, rating)

	r.Author = parser.Optional(func() (string, error) {
		el, err := block.FindOne(fetcher.CSS(x.sel.ReviewAuthor))
		if err != nil {
			return "", err
		}
		return el.Text()
	})

	r.Date = parser.Optional(func() (string, error) {
		raw, err := block.Attribute(x.sel.DateAttr)
		if err != nil {
			return "", err
		}
		return parser.DecodeDate(raw), nil
	})

	desc, err := block.FindOne(fetcher.CSS(x.sel.ReviewDesc))
	switch {
	case err == nil:
		r.Comment = x.section(desc, x.sel.CommentLabel)
		r.Advantages = x.section(desc, x.sel.AdvantagesLabel)
		r.Disadvantages = x.section(desc, x.sel.DisadvantagesLabel)
	case !types.IsNotFound(err):
		x.logger.Debug("review text unreadable", "url", product.URL, "error", err)
	}

	r.Images = parser.Optional(func() (string, error) {
		return x.images(block)
	})

	return r
}

// section returns the paragraph right after the heading containing label.
func (x *Extractor) section(desc fetcher.Element, label string) string {
	query := fmt.Sprintf("h4[contains(text(),%s)]/following-sibling::p[1]", parser.XPathLiteral(label))
	return parser.Optional(func() (string, error) {
		el, err := desc.FindOne(fetcher.XPath(query))
		if err != nil {
			return "", err
		}
		return el.Text()
	})
}

// images fails as a whole if any photo lacks its source attribute.
func (x *Extractor) images(block fetcher.Element) (string, error) {
	photos, err := block.Find(fetcher.CSS(x.sel.ReviewPhoto))
	if err != nil {
		return "", err
	}
	paths := make([]string, 0, len(photos))
	for _, photo := range photos {
		p, err := photo.Attribute(x.sel.PhotoAttr)
		if err != nil {
			return "", err
		}
		paths = append(paths, p)
	}
	return parser.JoinImages(x.root, paths, x.delim), nil
}
