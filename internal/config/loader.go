package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment on top of DefaultConfig.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the caller after Load returns.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("PMPARSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("pmparser")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".pmparser"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env vars can override them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("site.root_url", cfg.Site.RootURL)
	v.SetDefault("site.listing_paths", cfg.Site.ListingPaths)

	v.SetDefault("crawl.max_links", cfg.Crawl.MaxLinks)
	v.SetDefault("crawl.min_delay", cfg.Crawl.MinDelay)
	v.SetDefault("crawl.max_delay", cfg.Crawl.MaxDelay)
	v.SetDefault("crawl.max_pages", cfg.Crawl.MaxPages)

	v.SetDefault("reviews.max", cfg.Reviews.Max)
	v.SetDefault("reviews.per_link_max", cfg.Reviews.PerLinkMax)
	v.SetDefault("reviews.rating", cfg.Reviews.Rating)
	v.SetDefault("reviews.image_delimiter", cfg.Reviews.ImageDelimiter)

	sel := cfg.Selectors
	for key, val := range map[string]string{
		"product_card":        sel.ProductCard,
		"reviews_counter":     sel.ReviewsCounter,
		"detail_link":         sel.DetailLink,
		"next_page":           sel.NextPage,
		"product_id":          sel.ProductID,
		"product_name":        sel.ProductName,
		"review":              sel.Review,
		"review_author":       sel.ReviewAuthor,
		"review_desc":         sel.ReviewDesc,
		"review_photo":        sel.ReviewPhoto,
		"rating_attr":         sel.RatingAttr,
		"date_attr":           sel.DateAttr,
		"photo_attr":          sel.PhotoAttr,
		"product_id_attr":     sel.ProductIDAttr,
		"comment_label":       sel.CommentLabel,
		"advantages_label":    sel.AdvantagesLabel,
		"disadvantages_label": sel.DisadvantagesLabel,
	} {
		v.SetDefault("selectors."+key, val)
	}

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.headless", cfg.Fetcher.Headless)
	v.SetDefault("fetcher.stealth", cfg.Fetcher.Stealth)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.timeout", cfg.Fetcher.Timeout)
	v.SetDefault("fetcher.user_agent", cfg.Fetcher.UserAgent)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.browser_bin", cfg.Fetcher.BrowserBin)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_dir", cfg.Storage.OutputDir)
	v.SetDefault("storage.mongo.enabled", cfg.Storage.Mongo.Enabled)
	v.SetDefault("storage.mongo.uri", cfg.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", cfg.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", cfg.Storage.Mongo.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
