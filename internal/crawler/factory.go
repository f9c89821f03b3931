package crawler

import (
	"net/http"

	"github.com/Rezanikmanesh-79/Karamoozi/config"
	"github.com/Rezanikmanesh-79/Karamoozi/internal/browser"
	"github.com/Rezanikmanesh-79/Karamoozi/logger"
	"github.com/Rezanikmanesh-79/Karamoozi/pkg/retry"
	"github.com/Rezanikmanesh-79/Karamoozi/services/cache"
)

// SelectorsFromConfig returns the site selectors of cfg
func SelectorsFromConfig(cfg *config.Config) Selectors {
	return Selectors{
		Category: cfg.CategorySelector,
		Product:  cfg.ProductSelector,
		Title:    cfg.TitleSelector,
		Image:    cfg.ImageSelector,
		Price:    cfg.PriceSelector,
	}
}

// LauncherFromConfig returns the configured browser launcher wrapped in the
// politeness policy. client is used by the http driver and for robots.txt.
func LauncherFromConfig(cfg *config.Config, client *http.Client) browser.Launcher {
	var launch browser.Launcher
	switch cfg.Driver {
	case config.DriverHTTP:
		launch = browser.StaticLauncher(client, cfg.UserAgent)
	default:
		launch = browser.ChromeLauncher(browser.ChromeOptions{
			Headless:  cfg.Headless,
			RemoteURL: cfg.ChromeRemoteURL,
			UserAgent: cfg.UserAgent,
		})
	}

	return browser.PoliteLauncher(launch, browser.PolitenessOptions{
		Interval:      cfg.RateLimit,
		RespectRobots: cfg.RespectRobots,
		Agent:         cfg.UserAgent,
		Client:        client,
	})
}

// NewFromConfig wires an orchestrator from cfg. cacheSvc may be nil. Explicit
// categories skip discovery.
func NewFromConfig(cfg *config.Config, launch browser.Launcher, sink Sink, mirrors []Mirror, cacheSvc cache.CacheService, categories []CategoryRef) *Orchestrator {
	selectors := SelectorsFromConfig(cfg)

	discoverer := NewDiscoverer(DiscovererConfig{
		BaseURL:           cfg.BaseURL,
		PathPrefix:        cfg.CategoryPathPrefix,
		Selector:          selectors.Category,
		NavigationTimeout: cfg.NavigationTimeout,
		SelectorTimeout:   cfg.SelectorTimeout,
		Dedupe:            cfg.DedupeCategories,
		Cache:             cacheSvc,
		CacheTTL:          cfg.CategoryCacheTTL,
	})

	walker := NewWalker(
		NewExtractor(cfg.BaseURL, selectors, cfg.PriceSuffix),
		selectors.Product,
		WalkOptions{
			PageParam:         cfg.PageParam,
			NavigationTimeout: cfg.NavigationTimeout,
			SelectorTimeout:   cfg.SelectorTimeout,
			MaxPages:          cfg.MaxPages,
			Retry: retry.Config{
				MaxRetries:      uint64(cfg.LoadRetries),
				InitialInterval: cfg.RetryInitialInterval,
				MaxInterval:     cfg.RetryMaxInterval,
			},
		},
	)

	logger.ForComponent("factory").Debug().
		Str("base_url", cfg.BaseURL).
		Str("driver", cfg.Driver).
		Int("max_pages", cfg.MaxPages).
		Int("concurrency", cfg.CategoryConcurrency).
		Int("mirrors", len(mirrors)).
		Msg("Created crawl pipeline")

	return NewOrchestrator(OrchestratorConfig{
		Launch:      launch,
		Discoverer:  discoverer,
		Walker:      walker,
		Sink:        sink,
		Mirrors:     mirrors,
		Concurrency: cfg.CategoryConcurrency,
		Categories:  categories,
		Cache:       cacheSvc,
	})
}
