package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Site.RootURL); err != nil {
		return fmt.Errorf("site.root_url: %w", err)
	}
	if strings.HasSuffix(cfg.Site.RootURL, "/") {
		return fmt.Errorf("site.root_url must not end with '/', got %q", cfg.Site.RootURL)
	}
	if len(cfg.Site.ListingPaths) == 0 {
		return fmt.Errorf("site.listing_paths must not be empty")
	}
	for _, path := range cfg.Site.ListingPaths {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("site.listing_paths entry %q must start with '/'", path)
		}
	}

	if cfg.Crawl.MaxLinks < 0 {
		return fmt.Errorf("crawl.max_links must be >= 0, got %d", cfg.Crawl.MaxLinks)
	}
	if cfg.Crawl.MinDelay < 0 {
		return fmt.Errorf("crawl.min_delay must be >= 0")
	}
	if cfg.Crawl.MaxDelay < cfg.Crawl.MinDelay {
		return fmt.Errorf("crawl.max_delay (%s) must be >= crawl.min_delay (%s)", cfg.Crawl.MaxDelay, cfg.Crawl.MinDelay)
	}
	if cfg.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must be >= 0, got %d", cfg.Crawl.MaxPages)
	}

	if cfg.Reviews.Max < 0 {
		return fmt.Errorf("reviews.max must be >= 0, got %d", cfg.Reviews.Max)
	}
	if cfg.Reviews.PerLinkMax < 1 {
		return fmt.Errorf("reviews.per_link_max must be >= 1, got %d", cfg.Reviews.PerLinkMax)
	}
	if cfg.Reviews.Rating < 1 || cfg.Reviews.Rating > 5 {
		return fmt.Errorf("reviews.rating must be 1-5, got %d", cfg.Reviews.Rating)
	}
	if cfg.Reviews.ImageDelimiter == "" {
		return fmt.Errorf("reviews.image_delimiter must not be empty")
	}

	if cfg.Fetcher.Type != "browser" && cfg.Fetcher.Type != "http" {
		return fmt.Errorf("fetcher.type must be 'browser' or 'http', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.Timeout <= 0 {
		return fmt.Errorf("fetcher.timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}

	validStorageTypes := map[string]bool{
		"csv": true, "xlsx": true, "jsonl": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: csv, xlsx, jsonl)", cfg.Storage.Type)
	}
	if cfg.Storage.Mongo.Enabled {
		if cfg.Storage.Mongo.URI == "" || cfg.Storage.Mongo.Database == "" || cfg.Storage.Mongo.Collection == "" {
			return fmt.Errorf("storage.mongo requires uri, database and collection when enabled")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is valid for crawling.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
