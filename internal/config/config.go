package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for the review parser.
type Config struct {
	Site      SiteConfig      `mapstructure:"site"      yaml:"site"`
	Crawl     CrawlConfig     `mapstructure:"crawl"     yaml:"crawl"`
	Reviews   ReviewsConfig   `mapstructure:"reviews"   yaml:"reviews"`
	Selectors SelectorsConfig `mapstructure:"selectors" yaml:"selectors"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// SiteConfig names the shop and the category listings to walk.
type SiteConfig struct {
	RootURL      string   `mapstructure:"root_url"      yaml:"root_url"`
	ListingPaths []string `mapstructure:"listing_paths" yaml:"listing_paths"`
}

// CrawlConfig controls link discovery and request pacing.
type CrawlConfig struct {
	MaxLinks int           `mapstructure:"max_links" yaml:"max_links"`
	MinDelay time.Duration `mapstructure:"min_delay" yaml:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
	// MaxPages bounds listing pages per path; 0 follows "next" until it disappears.
	MaxPages int `mapstructure:"max_pages" yaml:"max_pages"`
}

// ReviewsConfig controls which reviews are kept.
type ReviewsConfig struct {
	Max            int    `mapstructure:"max"             yaml:"max"`
	PerLinkMax     int    `mapstructure:"per_link_max"    yaml:"per_link_max"`
	Rating         int    `mapstructure:"rating"          yaml:"rating"`
	ImageDelimiter string `mapstructure:"image_delimiter" yaml:"image_delimiter"`
}

// SelectorsConfig holds every DOM query the crawler issues.
type SelectorsConfig struct {
	ProductCard    string `mapstructure:"product_card"    yaml:"product_card"`
	ReviewsCounter string `mapstructure:"reviews_counter" yaml:"reviews_counter"`
	DetailLink     string `mapstructure:"detail_link"     yaml:"detail_link"`
	NextPage       string `mapstructure:"next_page"       yaml:"next_page"`
	ProductID      string `mapstructure:"product_id"      yaml:"product_id"`
	ProductName    string `mapstructure:"product_name"    yaml:"product_name"`
	Review         string `mapstructure:"review"          yaml:"review"`
	ReviewAuthor   string `mapstructure:"review_author"   yaml:"review_author"`
	ReviewDesc     string `mapstructure:"review_desc"     yaml:"review_desc"`
	ReviewPhoto    string `mapstructure:"review_photo"    yaml:"review_photo"`

	RatingAttr    string `mapstructure:"rating_attr"     yaml:"rating_attr"`
	DateAttr      string `mapstructure:"date_attr"       yaml:"date_attr"`
	PhotoAttr     string `mapstructure:"photo_attr"      yaml:"photo_attr"`
	ProductIDAttr string `mapstructure:"product_id_attr" yaml:"product_id_attr"`

	CommentLabel       string `mapstructure:"comment_label"       yaml:"comment_label"`
	AdvantagesLabel    string `mapstructure:"advantages_label"    yaml:"advantages_label"`
	DisadvantagesLabel string `mapstructure:"disadvantages_label" yaml:"disadvantages_label"`
}

// FetcherConfig controls how pages are loaded.
type FetcherConfig struct {
	// Type is "browser" (headless Chromium) or "http" (static HTML).
	Type        string        `mapstructure:"type"          yaml:"type"`
	Headless    bool          `mapstructure:"headless"      yaml:"headless"`
	Stealth     bool          `mapstructure:"stealth"       yaml:"stealth"`
	TLSInsecure bool          `mapstructure:"tls_insecure"  yaml:"tls_insecure"`
	Timeout     time.Duration `mapstructure:"timeout"       yaml:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"    yaml:"user_agent"`
	MaxBodySize int64         `mapstructure:"max_body_size" yaml:"max_body_size"`
	BrowserBin  string        `mapstructure:"browser_bin"   yaml:"browser_bin"`
}

// StorageConfig controls output.
type StorageConfig struct {
	Type      string      `mapstructure:"type"       yaml:"type"`
	OutputDir string      `mapstructure:"output_dir" yaml:"output_dir"`
	Mongo     MongoConfig `mapstructure:"mongo"      yaml:"mongo"`
}

// MongoConfig configures the optional MongoDB copy of the results.
type MongoConfig struct {
	Enabled    bool   `mapstructure:"enabled"    yaml:"enabled"`
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns the configuration used for pm.ru single beds.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			RootURL: "https://pm.ru",
			ListingPaths: []string{
				"/category/mebel-dlya-doma/krovati/odnospalnye-krovati/",
			},
		},
		Crawl: CrawlConfig{
			MaxLinks: 1000,
			MinDelay: 3500 * time.Millisecond,
			MaxDelay: 12000 * time.Millisecond,
		},
		Reviews: ReviewsConfig{
			Max:            1000,
			PerLinkMax:     3,
			Rating:         5,
			ImageDelimiter: "|",
		},
		Selectors: SelectorsConfig{
			ProductCard:    ".good__item",
			ReviewsCounter: ".good__opinions-number",
			DetailLink:     "a:first-of-type.good__link",
			NextPage:       ".lister-next a",
			ProductID:      "#cart-good-id",
			ProductName:    "h1",
			Review:         ".opinion",
			ReviewAuthor:   ".opinion__author span",
			ReviewDesc:     ".opinion__desc-block",
			ReviewPhoto:    ".opinion__photo",

			RatingAttr:    "data-sort-rating",
			DateAttr:      "data-sort-date",
			PhotoAttr:     "data-image-original",
			ProductIDAttr: "value",

			CommentLabel:       "Отзыв",
			AdvantagesLabel:    "Достоинства",
			DisadvantagesLabel: "Недостатки",
		},
		Fetcher: FetcherConfig{
			Type:        "browser",
			Headless:    true,
			TLSInsecure: true,
			Timeout:     60 * time.Second,
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			MaxBodySize: 10 * 1024 * 1024, // 10MB
		},
		Storage: StorageConfig{
			Type:      "csv",
			OutputDir: ".",
			Mongo: MongoConfig{
				URI:        "mongodb://127.0.0.1:27017",
				Database:   "pm",
				Collection: "reviews",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// ListingURLs returns the absolute URL of every configured listing.
func (c *Config) ListingURLs() []string {
	urls := make([]string, 0, len(c.Site.ListingPaths))
	for _, path := range c.Site.ListingPaths {
		urls = append(urls, c.Site.RootURL+path)
	}
	return urls
}
