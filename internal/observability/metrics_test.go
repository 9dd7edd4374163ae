package observability

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.IncPage("detail")
	m.IncPageFailure("detail")
	m.AddLinks(3)
	m.IncReviews()
	m.AddExported("csv", 1)
	m.ObserveDelay(time.Second)
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(testLogger)

	m.IncPage("listing")
	m.IncPage("listing")
	m.IncPage("detail")
	m.IncPageFailure("detail")
	m.AddLinks(5)
	m.AddLinks(0)
	m.IncReviews()
	m.AddExported("csv", 4)

	body := scrape(t, m)
	for _, line := range []string{
		`pmparser_pages_total{phase="listing"} 2`,
		`pmparser_pages_total{phase="detail"} 1`,
		`pmparser_page_failures_total{phase="detail"} 1`,
		`pmparser_links_collected_total 5`,
		`pmparser_reviews_exported_total{backend="csv"} 4`,
	} {
		if !strings.Contains(body, line) {
			t.Errorf("expected %q in exposition, got:\n%s", line, body)
		}
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics(testLogger)
	m.IncReviews()
	m.ObserveDelay(3 * time.Second)

	body := scrape(t, m)
	for _, name := range []string{"pmparser_reviews_total 1", "pmparser_delay_seconds_count 1"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %q in exposition, got:\n%s", name, body)
		}
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	return rec.Body.String()
}
