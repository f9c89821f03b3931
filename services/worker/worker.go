package worker

import (
	"context"
	"time"

	"github.com/Rezanikmanesh-79/Karamoozi/internal/crawler"
	"github.com/Rezanikmanesh-79/Karamoozi/logger"
)

// Runner performs one crawl run
type Runner interface {
	Run(ctx context.Context) (*crawler.Summary, error)
}

// Worker handles repeated crawl runs
type Worker struct {
	runner        Runner
	crawlInterval time.Duration
	log           *logger.Logger
}

// NewWorker creates a new worker. A zero crawlInterval runs once.
func NewWorker(runner Runner, crawlInterval time.Duration) *Worker {
	return &Worker{
		runner:        runner,
		crawlInterval: crawlInterval,
		log:           logger.ForComponent("worker"),
	}
}

// Start runs the crawl, then again every crawl interval until ctx is cancelled.
// In one-shot mode the run's error is returned. In periodic mode failed runs are
// logged and the loop continues.
func (w *Worker) Start(ctx context.Context) error {
	if w.crawlInterval <= 0 {
		_, err := w.runOnce(ctx)
		return err
	}

	for {
		w.runOnce(ctx)

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return nil
		case <-time.After(w.crawlInterval):
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) (*crawler.Summary, error) {
	start := time.Now()
	summary, err := w.runner.Run(ctx)
	if err != nil {
		w.log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Crawl run failed")
		return nil, err
	}

	w.log.Info().
		Int("categories", summary.Categories).
		Int("products", summary.Products).
		Dur("elapsed", time.Since(start)).
		Msg("Crawl run completed")
	return summary, nil
}
