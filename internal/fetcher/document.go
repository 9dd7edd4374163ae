package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/Welpodron/pm-parser/internal/types"
)

// Getter loads raw documents for a DocumentPage.
type Getter interface {
	Get(ctx context.Context, url string) (*Document, error)
}

// DocumentPage is a Page over static HTML. CSS queries run through goquery,
// XPath queries through htmlquery, both on the same parsed tree.
type DocumentPage struct {
	getter Getter
	logger *slog.Logger

	url  string
	doc  *goquery.Document
	root *html.Node
}

// NewDocumentPage creates a page that loads documents through getter.
func NewDocumentPage(getter Getter, logger *slog.Logger) *DocumentPage {
	return &DocumentPage{
		getter: getter,
		logger: logger.With("component", "document_page"),
	}
}

// Navigate fetches and parses url.
func (p *DocumentPage) Navigate(ctx context.Context, rawURL string) error {
	doc, err := p.getter.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	finalURL := doc.URL
	if finalURL == "" {
		finalURL = rawURL
	}
	return p.load(finalURL, doc.Body)
}

func (p *DocumentPage) load(pageURL string, body []byte) error {
	root, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return &types.FetchError{URL: pageURL, Err: fmt.Errorf("parse html: %w", err)}
	}
	p.url = pageURL
	p.root = root
	p.doc = goquery.NewDocumentFromNode(root)
	return nil
}

// URL returns the address of the loaded document.
func (p *DocumentPage) URL() string {
	return p.url
}

// Find returns all matches in the whole document.
func (p *DocumentPage) Find(sel Selector) ([]Element, error) {
	if p.doc == nil {
		return nil, &types.SelectorError{URL: p.url, Selector: sel.String(), Err: types.ErrElementNotFound}
	}
	return p.query(p.doc.Selection, sel)
}

// FindOne returns the first match in the whole document.
func (p *DocumentPage) FindOne(sel Selector) (Element, error) {
	return first(p.Find(sel))
}

// Close releases the underlying getter when it holds resources.
func (p *DocumentPage) Close() error {
	if c, ok := p.getter.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *DocumentPage) query(scope *goquery.Selection, sel Selector) ([]Element, error) {
	switch sel.Type {
	case SelectorCSS, "":
		matches := scope.Find(sel.Query)
		elements := make([]Element, 0, matches.Length())
		matches.Each(func(_ int, s *goquery.Selection) {
			elements = append(elements, &documentElement{page: p, sel: s})
		})
		return elements, nil

	case SelectorXPath:
		var elements []Element
		for _, node := range scope.Nodes {
			nodes, err := htmlquery.QueryAll(node, sel.Query)
			if err != nil {
				return nil, &types.SelectorError{URL: p.url, Selector: sel.String(), Err: err}
			}
			for _, n := range nodes {
				elements = append(elements, &documentElement{page: p, sel: p.doc.FindNodes(n)})
			}
		}
		return elements, nil

	default:
		return nil, &types.SelectorError{URL: p.url, Selector: sel.String(), Err: types.ErrUnsupportedSelector}
	}
}

// resolve makes ref absolute against the loaded document URL.
func (p *DocumentPage) resolve(ref string) (string, error) {
	base, err := url.Parse(p.url)
	if err != nil {
		return "", err
	}
	u, err := base.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

type documentElement struct {
	page *DocumentPage
	sel  *goquery.Selection
}

func (e *documentElement) Find(sel Selector) ([]Element, error) {
	return e.page.query(e.sel, sel)
}

func (e *documentElement) FindOne(sel Selector) (Element, error) {
	return first(e.Find(sel))
}

// Attribute returns the attribute value. href and src come back resolved
// against the document URL, as a browser reports them.
func (e *documentElement) Attribute(name string) (string, error) {
	val, ok := e.sel.Attr(name)
	if !ok {
		return "", &types.SelectorError{URL: e.page.url, Selector: "@" + name, Err: types.ErrElementNotFound}
	}
	if (name == "href" || name == "src") && strings.TrimSpace(val) != "" {
		return e.page.resolve(val)
	}
	return val, nil
}

func (e *documentElement) Text() (string, error) {
	return strings.TrimSpace(e.sel.Text()), nil
}

// Click follows the element's href, which is the only navigation a static
// document can perform.
func (e *documentElement) Click(ctx context.Context) error {
	href, err := e.Attribute("href")
	if err != nil || strings.TrimSpace(href) == "" {
		return &types.SelectorError{URL: e.page.url, Selector: "@href", Err: types.ErrNotNavigable}
	}
	return e.page.Navigate(ctx, href)
}

func first(elements []Element, err error) (Element, error) {
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, types.ErrElementNotFound
	}
	return elements[0], nil
}
