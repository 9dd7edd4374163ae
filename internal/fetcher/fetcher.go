package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Welpodron/pm-parser/internal/config"
)

// SelectorType identifies the query language of a Selector.
type SelectorType string

const (
	SelectorCSS   SelectorType = "css"
	SelectorXPath SelectorType = "xpath"
)

// Selector is a DOM query in either CSS or XPath form.
type Selector struct {
	Type  SelectorType
	Query string
}

// CSS returns a CSS selector.
func CSS(query string) Selector {
	return Selector{Type: SelectorCSS, Query: query}
}

// XPath returns an XPath selector. Relative paths are evaluated against
// the element they are issued on.
func XPath(query string) Selector {
	return Selector{Type: SelectorXPath, Query: query}
}

func (s Selector) String() string {
	return fmt.Sprintf("%s(%s)", s.Type, s.Query)
}

// Element is a node inside a loaded page.
type Element interface {
	// Find returns every descendant matching sel. No match is not an error.
	Find(sel Selector) ([]Element, error)

	// FindOne returns the first descendant matching sel or
	// types.ErrElementNotFound.
	FindOne(sel Selector) (Element, error)

	// Attribute reads an attribute (or the value property for form
	// controls). A missing attribute yields types.ErrElementNotFound.
	Attribute(name string) (string, error)

	// Text returns the rendered text of the element.
	Text() (string, error)

	// Click activates the element and waits for the page it leads to.
	Click(ctx context.Context) error
}

// Page is a single browsing session the crawler drives sequentially.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Find(sel Selector) ([]Element, error)
	FindOne(sel Selector) (Element, error)

	// URL returns the address of the currently loaded document.
	URL() string

	Close() error
}

// New opens a page of the configured fetcher type.
func New(cfg *config.Config, logger *slog.Logger) (Page, error) {
	switch cfg.Fetcher.Type {
	case "browser", "":
		return NewBrowserPage(&cfg.Fetcher, logger)
	case "http":
		f, err := NewHTTPFetcher(&cfg.Fetcher, logger)
		if err != nil {
			return nil, err
		}
		return NewDocumentPage(f, logger), nil
	default:
		return nil, fmt.Errorf("unsupported fetcher type: %q", cfg.Fetcher.Type)
	}
}
