package crawler

import (
	"context"
	"sync"
	"time"

	"github.com/Rezanikmanesh-79/Karamoozi/internal/browser"
	"github.com/Rezanikmanesh-79/Karamoozi/logger"
	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
	"github.com/Rezanikmanesh-79/Karamoozi/services/cache"
)

// LastRunKey holds the RFC3339 completion time of the last persisted crawl
const LastRunKey = "corpus:last_run"

// Sink persists a finished corpus. A sink failure fails the run.
type Sink interface {
	Write(ctx context.Context, corpus Corpus) error
}

// Mirror receives a copy of the corpus after the sink succeeded. Mirror
// failures are logged and never fail the run.
type Mirror interface {
	Name() string
	Mirror(ctx context.Context, corpus Corpus) error
}

// OrchestratorConfig wires the parts of a crawl run
type OrchestratorConfig struct {
	Launch     browser.Launcher
	Discoverer *Discoverer
	Walker     *Walker
	Sink       Sink
	Mirrors    []Mirror
	// Concurrency is the number of categories walked at once, each on its own page
	Concurrency int
	// Categories skips discovery and walks exactly these categories
	Categories []CategoryRef
	// Cache records LastRunKey after a successful run. Nil disables it.
	Cache cache.CacheService
}

// Orchestrator runs discovery, the category walks and persistence over one browser session
type Orchestrator struct {
	cfg OrchestratorConfig
}

// NewOrchestrator creates a crawl orchestrator
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Orchestrator{cfg: cfg}
}

// Run performs one full crawl and persists the corpus. Zero discovered categories
// still persist an empty corpus. A cancelled run persists nothing.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	log := logger.ForComponent("orchestrator")
	start := time.Now()

	corpus, walks, err := o.Crawl(ctx)
	if err != nil {
		return nil, err
	}

	if err := o.cfg.Sink.Write(ctx, corpus); err != nil {
		return nil, err
	}

	for _, m := range o.cfg.Mirrors {
		if err := m.Mirror(ctx, corpus); err != nil {
			log.Error().Err(err).Str("mirror", m.Name()).Msg("Mirror failed")
			continue
		}
		log.Debug().Str("mirror", m.Name()).Int("products", len(corpus)).Msg("Mirrored corpus")
	}

	summary := &Summary{
		Categories: len(walks),
		Products:   len(corpus),
		Duration:   time.Since(start),
		Walks:      walks,
	}
	for _, w := range walks {
		summary.Pages += w.Pages
	}

	o.stampLastRun(start.Add(summary.Duration))

	log.Info().
		Int("categories", summary.Categories).
		Int("products", summary.Products).
		Int("pages", summary.Pages).
		Dur("duration", summary.Duration).
		Msg("Crawl finished")
	return summary, nil
}

// Crawl acquires a browser session, discovers categories and walks them. The
// session is released on every return path.
func (o *Orchestrator) Crawl(ctx context.Context) (Corpus, []WalkResult, error) {
	log := logger.ForComponent("orchestrator")

	b, err := o.cfg.Launch(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close browser")
		}
	}()

	page, err := b.NewPage(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer page.Close()

	categories := o.cfg.Categories
	if len(categories) == 0 {
		categories = o.cfg.Discoverer.Discover(ctx, page)
	}

	var walks []WalkResult
	if o.cfg.Concurrency == 1 || len(categories) <= 1 {
		walks = o.walkSequential(ctx, page, categories)
	} else {
		walks = o.walkConcurrent(ctx, b, categories)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	corpus := make(Corpus, 0)
	for _, w := range walks {
		corpus = append(corpus, w.Records...)
	}
	return corpus, walks, nil
}

func (o *Orchestrator) walkSequential(ctx context.Context, page browser.Page, categories []CategoryRef) []WalkResult {
	log := logger.ForComponent("orchestrator")
	walks := make([]WalkResult, 0, len(categories))

	for i, category := range categories {
		if ctx.Err() != nil {
			break
		}
		log.Info().Int("index", i+1).Int("total", len(categories)).Str("category", category.Name).Str("url", category.URL).Msg("Crawling category")
		walks = append(walks, o.cfg.Walker.Walk(ctx, page, category))
	}
	return walks
}

// walkConcurrent gives every worker its own page. Results are merged in category
// order once all walks are done.
func (o *Orchestrator) walkConcurrent(ctx context.Context, b browser.Browser, categories []CategoryRef) []WalkResult {
	log := logger.ForComponent("orchestrator")
	results := make([]WalkResult, len(categories))
	jobs := make(chan int)

	workers := o.cfg.Concurrency
	if workers > len(categories) {
		workers = len(categories)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			page, err := b.NewPage(ctx)
			if err != nil {
				log.Error().Err(err).Int("worker", worker).Msg("Failed to open page")
			} else {
				defer page.Close()
			}

			for i := range jobs {
				category := categories[i]
				if page == nil {
					results[i] = WalkResult{Category: category, Records: []ProductRecord{}, StopReason: StopLoadError, Err: err}
					continue
				}
				log.Info().Int("worker", worker).Str("category", category.Name).Str("url", category.URL).Msg("Crawling category")
				results[i] = o.cfg.Walker.Walk(ctx, page, category)
			}
		}(w)
	}

	for i := range categories {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (o *Orchestrator) stampLastRun(at time.Time) {
	if o.cfg.Cache == nil {
		return
	}
	if err := o.cfg.Cache.Set(LastRunKey, []byte(at.UTC().Format(time.RFC3339)), 0); err != nil {
		logger.ForComponent("orchestrator").Warn().
			Err(crawlerrors.NewCache("memcache", "failed to record last run", err)).
			Msg("Last-run stamp failed")
	}
}
