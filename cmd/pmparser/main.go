package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/Welpodron/pm-parser/internal/config"
	"github.com/Welpodron/pm-parser/internal/engine"
	"github.com/Welpodron/pm-parser/internal/fetcher"
	"github.com/Welpodron/pm-parser/internal/observability"
	"github.com/Welpodron/pm-parser/internal/storage"
)

var (
	cfgFile     string
	verbose     bool
	outputDir   string
	outputType  string
	fetcherType string
	maxLinks    int
	maxReviews  int
	rating      int
	paths       []string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pmparser",
		Short: "Collect customer reviews from pm.ru category listings",
		Long: `pmparser walks pm.ru category listings, visits every product that has
reviews and exports the reviews with the configured rating to a file.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())
	return rootCmd
}

// runCmd creates the "run" subcommand.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Crawl the configured listings and export reviews",
		Args:  cobra.NoArgs,
		RunE:  runCrawl,
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
	cmd.Flags().StringVarP(&outputType, "format", "f", "", "output format: csv, xlsx, jsonl")
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "page client: browser, http")
	cmd.Flags().IntVar(&maxLinks, "max-links", 0, "soft cap on collected product links")
	cmd.Flags().IntVar(&maxReviews, "max-reviews", 0, "soft cap on collected reviews")
	cmd.Flags().IntVar(&rating, "rating", 0, "review rating to keep (1-5)")
	cmd.Flags().StringArrayVarP(&paths, "path", "p", nil, "listing path to crawl, repeatable (replaces configured paths)")

	return cmd
}

// runCrawl executes the run command.
func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting run",
		"listings", cfg.ListingURLs(),
		"fetcher", cfg.Fetcher.Type,
		"output", cfg.Storage.OutputDir,
		"format", cfg.Storage.Type,
	)

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(logger)
		metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metrics.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown failed", "error", err)
			}
		}()
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}

	page, err := fetcher.New(cfg, logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("open page client: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Error("page client close error", "error", err)
		}
	}()

	eng := engine.New(cfg, page, store, logger, metrics)
	res, err := eng.Run(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		return err
	}

	printSummary(res, eng.Stats().Snapshot())

	if errors.Is(ctx.Err(), context.Canceled) {
		logger.Info("run was interrupted, results are partial")
	}
	return nil
}

func printSummary(res *engine.Result, stats map[string]any) {
	fmt.Printf("\nRun complete in %d min\n", engine.RunMinutes(res.Elapsed))
	fmt.Printf("   Listings:  %v crawled, %v pages\n", stats["listings_crawled"], stats["listing_pages"])
	fmt.Printf("   Products:  %d links, %v parsed, %v failed\n", len(res.Links), stats["pages_parsed"], stats["page_failures"])
	fmt.Printf("   Reviews:   %d\n", len(res.Reviews))
	if res.Path != "" {
		fmt.Printf("   Output:    %s\n", res.Path)
	} else {
		fmt.Println("   Output:    nothing written")
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pmparser %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cmd, cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogger creates a structured logger.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config. Only
// flags given explicitly override the file and environment.
func applyCLIOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Storage.OutputDir = outputDir
	}
	if flags.Changed("format") {
		cfg.Storage.Type = strings.ToLower(outputType)
	}
	if flags.Changed("fetcher") {
		cfg.Fetcher.Type = strings.ToLower(fetcherType)
	}
	if flags.Changed("max-links") {
		cfg.Crawl.MaxLinks = maxLinks
	}
	if flags.Changed("max-reviews") {
		cfg.Reviews.Max = maxReviews
	}
	if flags.Changed("rating") {
		cfg.Reviews.Rating = rating
	}
	if flags.Changed("path") {
		cfg.Site.ListingPaths = paths
	}
}
