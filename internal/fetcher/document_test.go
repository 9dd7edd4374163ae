package fetcher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/jarcoal/httpmock"

	"github.com/Welpodron/pm-parser/internal/config"
	"github.com/Welpodron/pm-parser/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const listingHTML = `<!DOCTYPE html>
<html>
<body>
    <div class="good__item">
        <a class="good__link" href="/catalog/bed-1/">Bed 1</a>
        <a class="good__link" href="/catalog/bed-1/#reviews">reviews</a>
        <span class="good__opinions-number">4</span>
    </div>
    <div class="good__item">
        <a class="good__link" href="/catalog/bed-2/">Bed 2</a>
    </div>
    <div class="lister-next"><a href="/category/beds/?PAGEN_1=2">next</a></div>
</body>
</html>`

const secondListingHTML = `<html><body><h1>Page 2</h1></body></html>`

const detailHTML = `<html>
<body>
    <h1>  Кровать Лира  </h1>
    <input id="cart-good-id" value="12345">
    <div class="opinions">
        <div class="opinion" data-sort-rating="5" data-sort-date="20230415143022">
            <div class="opinion__author"><span>Анна</span></div>
            <div class="opinion__desc-block">
                <h4>Отзыв</h4><p>Отличная кровать</p><p>second</p>
                <h4>Недостатки</h4><p>Нет</p>
            </div>
        </div>
        <div class="opinion" data-sort-rating="4" data-sort-date="20230101000000"></div>
        <div class="opinion" data-sort-rating="5" data-sort-date="20220101000000"></div>
        <div class="opinion" data-sort-rating="5" data-sort-date="20210101000000"></div>
    </div>
</body>
</html>`

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func newTestFetcher(t *testing.T, transport http.RoundTripper) *HTTPFetcher {
	t.Helper()
	cfg := config.DefaultConfig()
	f, err := NewHTTPFetcher(&cfg.Fetcher, testLogger)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	f.Client().Transport = transport
	return f
}

func newTestPage(t *testing.T) *DocumentPage {
	t.Helper()
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://pm.ru/category/beds/", htmlResponder(listingHTML))
	transport.RegisterResponder("GET", "https://pm.ru/category/beds/?PAGEN_1=2", htmlResponder(secondListingHTML))
	transport.RegisterResponder("GET", "https://pm.ru/catalog/bed-1/", htmlResponder(detailHTML))

	page := NewDocumentPage(newTestFetcher(t, transport), testLogger)
	t.Cleanup(func() { _ = page.Close() })
	return page
}

func TestDocumentPage_FindCSS(t *testing.T) {
	page := newTestPage(t)
	if err := page.Navigate(context.Background(), "https://pm.ru/category/beds/"); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	cards, err := page.Find(CSS(".good__item"))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}

	link, err := cards[0].FindOne(CSS("a:first-of-type.good__link"))
	if err != nil {
		t.Fatalf("find link: %v", err)
	}
	href, err := link.Attribute("href")
	if err != nil {
		t.Fatalf("href: %v", err)
	}
	if href != "https://pm.ru/catalog/bed-1/" {
		t.Errorf("expected resolved href, got %q", href)
	}

	if _, err := cards[1].FindOne(CSS(".good__opinions-number")); !errors.Is(err, types.ErrElementNotFound) {
		t.Errorf("expected ErrElementNotFound, got %v", err)
	}
}

func TestDocumentPage_NthChildLimitsReviews(t *testing.T) {
	page := newTestPage(t)
	if err := page.Navigate(context.Background(), "https://pm.ru/catalog/bed-1/"); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	blocks, err := page.Find(CSS(`.opinion[data-sort-rating="5"]:nth-child(-n+3)`))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	// The fourth child has rating 5 but sits outside the first three.
	if len(blocks) != 2 {
		t.Fatalf("expected 2 review blocks, got %d", len(blocks))
	}

	date, err := blocks[1].Attribute("data-sort-date")
	if err != nil {
		t.Fatalf("date: %v", err)
	}
	if date != "20220101000000" {
		t.Errorf("unexpected date %q", date)
	}
}

func TestDocumentPage_XPathRelativeToElement(t *testing.T) {
	page := newTestPage(t)
	if err := page.Navigate(context.Background(), "https://pm.ru/catalog/bed-1/"); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	desc, err := page.FindOne(CSS(".opinion__desc-block"))
	if err != nil {
		t.Fatalf("find desc: %v", err)
	}

	comment, err := desc.FindOne(XPath("h4[contains(text(),'Отзыв')]/following-sibling::p[1]"))
	if err != nil {
		t.Fatalf("find comment: %v", err)
	}
	if text, _ := comment.Text(); text != "Отличная кровать" {
		t.Errorf("expected first paragraph, got %q", text)
	}

	if _, err := desc.FindOne(XPath("h4[contains(text(),'Достоинства')]/following-sibling::p[1]")); !errors.Is(err, types.ErrElementNotFound) {
		t.Errorf("expected ErrElementNotFound, got %v", err)
	}
}

func TestDocumentPage_TextAndValue(t *testing.T) {
	page := newTestPage(t)
	if err := page.Navigate(context.Background(), "https://pm.ru/catalog/bed-1/"); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	h1, err := page.FindOne(CSS("h1"))
	if err != nil {
		t.Fatalf("find h1: %v", err)
	}
	if text, _ := h1.Text(); text != "Кровать Лира" {
		t.Errorf("expected trimmed text, got %q", text)
	}

	id, err := page.FindOne(CSS("#cart-good-id"))
	if err != nil {
		t.Fatalf("find id: %v", err)
	}
	if v, _ := id.Attribute("value"); v != "12345" {
		t.Errorf("expected 12345, got %q", v)
	}
	if _, err := id.Attribute("data-missing"); !errors.Is(err, types.ErrElementNotFound) {
		t.Errorf("expected ErrElementNotFound for missing attribute, got %v", err)
	}
}

func TestDocumentPage_ClickFollowsHref(t *testing.T) {
	page := newTestPage(t)
	ctx := context.Background()
	if err := page.Navigate(ctx, "https://pm.ru/category/beds/"); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	next, err := page.FindOne(CSS(".lister-next a"))
	if err != nil {
		t.Fatalf("find next: %v", err)
	}
	if err := next.Click(ctx); err != nil {
		t.Fatalf("click: %v", err)
	}

	if page.URL() != "https://pm.ru/category/beds/?PAGEN_1=2" {
		t.Errorf("unexpected url after click: %s", page.URL())
	}
	if _, err := page.FindOne(CSS(".lister-next a")); !errors.Is(err, types.ErrElementNotFound) {
		t.Errorf("expected no next link on last page, got %v", err)
	}
}

func TestDocumentPage_ClickWithoutHref(t *testing.T) {
	page := newTestPage(t)
	ctx := context.Background()
	if err := page.Navigate(ctx, "https://pm.ru/catalog/bed-1/"); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	h1, _ := page.FindOne(CSS("h1"))
	if err := h1.Click(ctx); !errors.Is(err, types.ErrNotNavigable) {
		t.Errorf("expected ErrNotNavigable, got %v", err)
	}
}

func TestDocumentPage_UnsupportedSelector(t *testing.T) {
	page := newTestPage(t)
	if err := page.Navigate(context.Background(), "https://pm.ru/catalog/bed-1/"); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	_, err := page.Find(Selector{Type: "regex", Query: ".*"})
	if !errors.Is(err, types.ErrUnsupportedSelector) {
		t.Errorf("expected ErrUnsupportedSelector, got %v", err)
	}
}

func TestHTTPFetcher_Brotli(t *testing.T) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write([]byte(detailHTML)); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	transport := httpmock.NewMockTransport()
	resp := httpmock.NewBytesResponse(200, buf.Bytes())
	resp.Header.Set("Content-Encoding", "br")
	transport.RegisterResponder("GET", "https://pm.ru/catalog/bed-1/", httpmock.ResponderFromResponse(resp))

	f := newTestFetcher(t, transport)
	doc, err := f.Get(context.Background(), "https://pm.ru/catalog/bed-1/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(doc.Body) != detailHTML {
		t.Errorf("body was not decompressed")
	}
}

func TestHTTPFetcher_BodyLimitAppliesToDecodedSize(t *testing.T) {
	body := strings.Repeat("<p>кровать</p>", 300)
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write([]byte(body)); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	if buf.Len() >= 1024 {
		t.Fatalf("fixture should compress below the limit, got %d bytes", buf.Len())
	}

	transport := httpmock.NewMockTransport()
	resp := httpmock.NewBytesResponse(200, buf.Bytes())
	resp.Header.Set("Content-Encoding", "br")
	transport.RegisterResponder("GET", "https://pm.ru/big/", httpmock.ResponderFromResponse(resp))
	transport.RegisterResponder("GET", "https://pm.ru/exact/", httpmock.NewStringResponder(200, strings.Repeat("a", 1024)))

	f := newTestFetcher(t, transport)
	f.cfg.MaxBodySize = 1024

	_, err := f.Get(context.Background(), "https://pm.ru/big/")
	if !errors.Is(err, types.ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}

	doc, err := f.Get(context.Background(), "https://pm.ru/exact/")
	if err != nil {
		t.Fatalf("body at the limit should pass: %v", err)
	}
	if len(doc.Body) != 1024 {
		t.Errorf("expected 1024 bytes, got %d", len(doc.Body))
	}
}

func TestHTTPFetcher_StatusError(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://pm.ru/missing/", httpmock.NewStringResponder(404, "not found"))

	f := newTestFetcher(t, transport)
	_, err := f.Get(context.Background(), "https://pm.ru/missing/")

	var fetchErr *types.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.StatusCode != 404 {
		t.Errorf("expected status 404, got %d", fetchErr.StatusCode)
	}
}
