package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/Welpodron/pm-parser/internal/config"
	"github.com/Welpodron/pm-parser/internal/types"
)

// BrowserPage is a Page backed by a single tab of a headless Chromium
// instance driven through Rod.
type BrowserPage struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	timeout  time.Duration
	logger   *slog.Logger
}

// NewBrowserPage launches Chromium and opens one tab.
func NewBrowserPage(cfg *config.FetcherConfig, logger *slog.Logger) (*BrowserPage, error) {
	bp := &BrowserPage{
		timeout: cfg.Timeout,
		logger:  logger.With("component", "browser_page"),
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("log-level", "3").
		Set("disable-blink-features", "AutomationControlled")
	if cfg.TLSInsecure {
		l = l.Set("ignore-certificate-errors").Set("ignore-ssl-errors")
	}
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Stealth {
		l = l.Set("window-size", randomWindowSize())
	}

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	bp.launcher = l

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	bp.browser = browser

	var page *rod.Page
	if cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = bp.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	bp.page = page

	if cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}); err != nil {
			bp.logger.Warn("failed to set user agent", "error", err)
		}
	}

	bp.logger.Info("browser ready",
		"headless", cfg.Headless,
		"stealth", cfg.Stealth,
	)

	return bp, nil
}

// Navigate loads url and waits for the load event.
func (bp *BrowserPage) Navigate(ctx context.Context, url string) error {
	page := bp.scoped(ctx)
	if err := page.Navigate(url); err != nil {
		return &types.FetchError{URL: url, Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		return &types.FetchError{URL: url, Err: fmt.Errorf("wait load: %w", err)}
	}
	return nil
}

// URL returns the address of the current document.
func (bp *BrowserPage) URL() string {
	info, err := bp.page.Info()
	if err != nil || info == nil {
		return ""
	}
	return info.URL
}

func (bp *BrowserPage) Find(sel Selector) ([]Element, error) {
	var (
		found rod.Elements
		err   error
	)
	switch sel.Type {
	case SelectorCSS, "":
		found, err = bp.page.Elements(sel.Query)
	case SelectorXPath:
		found, err = bp.page.ElementsX(sel.Query)
	default:
		return nil, &types.SelectorError{URL: bp.URL(), Selector: sel.String(), Err: types.ErrUnsupportedSelector}
	}
	if err != nil {
		return nil, &types.SelectorError{URL: bp.URL(), Selector: sel.String(), Err: err}
	}
	return bp.wrap(found), nil
}

// FindOne does not wait for late elements: a miss fails immediately.
func (bp *BrowserPage) FindOne(sel Selector) (Element, error) {
	page := bp.page.Sleeper(rod.NotFoundSleeper)
	var (
		el  *rod.Element
		err error
	)
	switch sel.Type {
	case SelectorCSS, "":
		el, err = page.Element(sel.Query)
	case SelectorXPath:
		el, err = page.ElementX(sel.Query)
	default:
		return nil, &types.SelectorError{URL: bp.URL(), Selector: sel.String(), Err: types.ErrUnsupportedSelector}
	}
	if err != nil {
		return nil, bp.selectorError(sel, err)
	}
	return &browserElement{page: bp, el: el}, nil
}

// Close shuts the tab, the browser and the launched process.
func (bp *BrowserPage) Close() error {
	var errs []error
	if bp.page != nil {
		if err := bp.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if bp.browser != nil {
		if err := bp.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if bp.launcher != nil {
		bp.launcher.Cleanup()
	}
	return errors.Join(errs...)
}

// scoped binds the page to ctx and the configured per-operation timeout.
func (bp *BrowserPage) scoped(ctx context.Context) *rod.Page {
	page := bp.page.Context(ctx)
	if bp.timeout > 0 {
		page = page.Timeout(bp.timeout)
	}
	return page
}

func (bp *BrowserPage) wrap(found rod.Elements) []Element {
	elements := make([]Element, 0, len(found))
	for _, el := range found {
		elements = append(elements, &browserElement{page: bp, el: el})
	}
	return elements
}

func (bp *BrowserPage) selectorError(sel Selector, err error) error {
	var notFound *rod.ElementNotFoundError
	if errors.As(err, &notFound) {
		err = types.ErrElementNotFound
	}
	return &types.SelectorError{URL: bp.URL(), Selector: sel.String(), Err: err}
}

type browserElement struct {
	page *BrowserPage
	el   *rod.Element
}

func (e *browserElement) Find(sel Selector) ([]Element, error) {
	var (
		found rod.Elements
		err   error
	)
	switch sel.Type {
	case SelectorCSS, "":
		found, err = e.el.Elements(sel.Query)
	case SelectorXPath:
		found, err = e.el.ElementsX(sel.Query)
	default:
		return nil, &types.SelectorError{URL: e.page.URL(), Selector: sel.String(), Err: types.ErrUnsupportedSelector}
	}
	if err != nil {
		return nil, &types.SelectorError{URL: e.page.URL(), Selector: sel.String(), Err: err}
	}
	return e.page.wrap(found), nil
}

func (e *browserElement) FindOne(sel Selector) (Element, error) {
	el := e.el.Sleeper(rod.NotFoundSleeper)
	var (
		found *rod.Element
		err   error
	)
	switch sel.Type {
	case SelectorCSS, "":
		found, err = el.Element(sel.Query)
	case SelectorXPath:
		found, err = el.ElementX(sel.Query)
	default:
		return nil, &types.SelectorError{URL: e.page.URL(), Selector: sel.String(), Err: types.ErrUnsupportedSelector}
	}
	if err != nil {
		return nil, e.page.selectorError(sel, err)
	}
	return &browserElement{page: e.page, el: found}, nil
}

// Attribute reads the DOM property for href and value, which the browser
// resolves and keeps current, and the plain attribute otherwise.
func (e *browserElement) Attribute(name string) (string, error) {
	switch name {
	case "href", "src", "value":
		prop, err := e.el.Property(name)
		if err != nil {
			return "", err
		}
		if prop.Nil() {
			return "", &types.SelectorError{URL: e.page.URL(), Selector: "@" + name, Err: types.ErrElementNotFound}
		}
		return prop.Str(), nil
	}

	val, err := e.el.Attribute(name)
	if err != nil {
		return "", err
	}
	if val == nil {
		return "", &types.SelectorError{URL: e.page.URL(), Selector: "@" + name, Err: types.ErrElementNotFound}
	}
	return *val, nil
}

func (e *browserElement) Text() (string, error) {
	return e.el.Text()
}

// Click presses the element and waits until the resulting navigation has
// parsed its DOM.
func (e *browserElement) Click(ctx context.Context) error {
	page := e.page.scoped(ctx)
	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	wait()
	return nil
}

// randomWindowSize picks a common desktop resolution for the launched window.
func randomWindowSize() string {
	viewports := []struct{ w, h int }{
		{1920, 1080}, {1366, 768}, {1536, 864},
		{1440, 900}, {1280, 720}, {2560, 1440},
	}
	vp := viewports[rand.Intn(len(viewports))]
	return fmt.Sprintf("%d,%d", vp.w, vp.h)
}
