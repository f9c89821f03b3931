package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rezanikmanesh-79/Karamoozi/helpers"
	"github.com/Rezanikmanesh-79/Karamoozi/internal"
	"github.com/Rezanikmanesh-79/Karamoozi/internal/crawler"
	"github.com/Rezanikmanesh-79/Karamoozi/logger"
	"github.com/Rezanikmanesh-79/Karamoozi/services/worker"
)

var (
	crawlInterval time.Duration
	categoryURL   string
	categoryName  string
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the site and write the product corpus",
	Long: `Discovers the site's categories, walks every listing page of each category and
writes all products to the corpus file. With --category-url only that category is crawled.
With --interval the crawl repeats until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		log := logger.ForComponent("cli")

		interval := cfg.CrawlInterval
		if cmd.Flags().Changed("interval") {
			interval = crawlInterval
		}

		categories, err := explicitCategories(cfg.BaseURL)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		deps := internal.InitializeServices(ctx, cfg)
		defer deps.Cleanup()

		client := &http.Client{Timeout: cfg.NavigationTimeout}
		orchestrator := crawler.NewFromConfig(
			cfg,
			crawler.LauncherFromConfig(cfg, client),
			deps.Sink,
			deps.Mirrors(),
			deps.Cache,
			categories,
		)

		log.Info().
			Str("environment", cfg.Environment).
			Str("base_url", cfg.BaseURL).
			Str("output", cfg.OutputPath).
			Dur("crawl_interval", interval).
			Msg("Starting crawler")

		if err := worker.NewWorker(orchestrator, interval).Start(ctx); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("crawl interrupted: %w", ctx.Err())
			}
			return err
		}
		return nil
	},
}

// explicitCategories returns the category given on the command line, if any
func explicitCategories(baseURL string) ([]crawler.CategoryRef, error) {
	if categoryURL == "" {
		if categoryName != "" {
			return nil, fmt.Errorf("--category-name requires --category-url")
		}
		return nil, nil
	}

	ref := crawler.CategoryRef{
		URL:  helpers.ResolveURL(baseURL, categoryURL),
		Name: categoryName,
	}
	if ref.Name == "" {
		ref.Name = categoryURL
	}
	return []crawler.CategoryRef{ref}, nil
}

func init() {
	crawlCmd.Flags().DurationVar(&crawlInterval, "interval", 0, "repeat the crawl at this interval (overrides CRAWL_INTERVAL, 0 runs once)")
	crawlCmd.Flags().StringVar(&categoryURL, "category-url", "", "crawl only this category URL, skipping discovery")
	crawlCmd.Flags().StringVar(&categoryName, "category-name", "", "display name recorded for --category-url")
}
