package crawler

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/Rezanikmanesh-79/Karamoozi/helpers"
	"github.com/Rezanikmanesh-79/Karamoozi/internal/browser"
	"github.com/Rezanikmanesh-79/Karamoozi/logger"
	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
	"github.com/Rezanikmanesh-79/Karamoozi/services/cache"
)

const categoryCacheKeyPrefix = "categories:"

// DiscovererConfig contains configuration for category discovery
type DiscovererConfig struct {
	BaseURL           string
	PathPrefix        string
	Selector          string
	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration
	// Dedupe drops repeated category URLs, keeping the first occurrence
	Dedupe bool
	// Cache stores discovered categories for CacheTTL. A nil Cache or a zero
	// CacheTTL disables it, so every crawl reads the landing page.
	Cache    cache.CacheService
	CacheTTL time.Duration
}

// Discoverer lists the category links of the site's landing page
type Discoverer struct {
	cfg  DiscovererConfig
	host string
}

// NewDiscoverer creates a category discoverer
func NewDiscoverer(cfg DiscovererConfig) *Discoverer {
	host := ""
	if u, err := url.Parse(cfg.BaseURL); err == nil {
		host = strings.ToLower(u.Host)
	}
	return &Discoverer{cfg: cfg, host: host}
}

// Discover returns the categories linked from the landing page. Any failure yields
// an empty result; the crawl goes on with zero categories.
func (d *Discoverer) Discover(ctx context.Context, page browser.Page) []CategoryRef {
	log := logger.ForComponent("discoverer")

	if cached, ok := d.cached(); ok {
		log.Info().Int("categories", len(cached)).Msg("Using cached categories")
		return cached
	}

	categories, err := d.discover(ctx, page)
	if err != nil {
		log.Warn().Err(err).Str("url", d.cfg.BaseURL).Msg("Category discovery failed, continuing with no categories")
		return []CategoryRef{}
	}

	log.Info().Int("categories", len(categories)).Msg("Discovered categories")
	d.store(categories)
	return categories
}

func (d *Discoverer) discover(ctx context.Context, page browser.Page) ([]CategoryRef, error) {
	if err := page.Navigate(ctx, d.cfg.BaseURL, d.cfg.NavigationTimeout); err != nil {
		return nil, crawlerrors.NewDiscovery(d.cfg.BaseURL, "landing page failed to load", err)
	}
	if err := page.WaitForSelector(ctx, d.cfg.Selector, d.cfg.SelectorTimeout); err != nil {
		return nil, crawlerrors.NewDiscovery(d.cfg.BaseURL, "no category links found", err)
	}

	anchors, err := page.QueryAll(ctx, d.cfg.Selector)
	if err != nil {
		return nil, crawlerrors.NewDiscovery(d.cfg.BaseURL, "failed to query category links", err)
	}
	return d.FromAnchors(anchors), nil
}

// FromAnchors keeps the anchors whose href points at a category listing on the
// site and converts them to CategoryRefs in document order.
func (d *Discoverer) FromAnchors(anchors []browser.Element) []CategoryRef {
	categories := make([]CategoryRef, 0, len(anchors))
	seen := make(map[string]struct{})

	for _, a := range anchors {
		href, _ := a.Attribute("href")
		href = strings.TrimSpace(href)
		if href == "" {
			continue
		}

		absolute := helpers.ResolveURL(d.cfg.BaseURL, href)
		if !d.isCategoryURL(absolute) {
			continue
		}

		if d.cfg.Dedupe {
			key := helpers.NormalizeURL(absolute)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}

		categories = append(categories, CategoryRef{
			URL:  absolute,
			Name: strings.TrimSpace(a.Text()),
		})
	}
	return categories
}

func (d *Discoverer) isCategoryURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if d.host != "" && strings.ToLower(u.Host) != d.host {
		return false
	}
	return strings.HasPrefix(u.Path, d.cfg.PathPrefix)
}

func (d *Discoverer) cacheKey() string {
	return categoryCacheKeyPrefix + helpers.NormalizeURL(d.cfg.BaseURL)
}

func (d *Discoverer) cacheEnabled() bool {
	return d.cfg.Cache != nil && d.cfg.CacheTTL > 0
}

func (d *Discoverer) cached() ([]CategoryRef, bool) {
	if !d.cacheEnabled() {
		return nil, false
	}
	data, err := d.cfg.Cache.Get(d.cacheKey())
	if err != nil {
		return nil, false
	}

	var categories []CategoryRef
	if err := json.Unmarshal(data, &categories); err != nil || len(categories) == 0 {
		return nil, false
	}
	return categories, true
}

// store caches a non-empty result; an empty one may be a transient failure.
func (d *Discoverer) store(categories []CategoryRef) {
	if !d.cacheEnabled() || len(categories) == 0 {
		return
	}
	data, err := json.Marshal(categories)
	if err != nil {
		return
	}
	if err := d.cfg.Cache.Set(d.cacheKey(), data, d.cfg.CacheTTL); err != nil {
		logger.ForComponent("discoverer").Warn().
			Err(crawlerrors.NewCache("memcache", "failed to cache categories", err)).
			Msg("Category cache write failed")
	}
}
