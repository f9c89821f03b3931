package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/Rezanikmanesh-79/Karamoozi/helpers"
	"github.com/Rezanikmanesh-79/Karamoozi/internal/browser"
	"github.com/Rezanikmanesh-79/Karamoozi/logger"
	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
	"github.com/Rezanikmanesh-79/Karamoozi/pkg/retry"
)

// PageOutcome classifies one attempt at loading a listing page
type PageOutcome int

const (
	// HasResults means product containers were found
	HasResults PageOutcome = iota
	// EmptyPage means the page loaded but the container selector never matched
	EmptyPage
	// LoadError means the page itself could not be loaded
	LoadError
)

func (o PageOutcome) String() string {
	switch o {
	case HasResults:
		return "has_results"
	case EmptyPage:
		return "empty_page"
	case LoadError:
		return "load_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type walkState int

const (
	stateLoading walkState = iota
	stateExtracting
	stateAdvancing
	stateDone
)

// pageAttempt is the result of loading one listing page
type pageAttempt struct {
	outcome    PageOutcome
	containers []browser.Element
	err        error
}

// Walker crawls one category across its numbered listing pages
type Walker struct {
	extractor       *Extractor
	productSelector string
	opts            WalkOptions
}

// NewWalker creates a pagination walker
func NewWalker(extractor *Extractor, productSelector string, opts WalkOptions) *Walker {
	if opts.PageParam == "" {
		opts.PageParam = "page"
	}
	return &Walker{
		extractor:       extractor,
		productSelector: productSelector,
		opts:            opts,
	}
}

// Walk visits page 1, 2, ... of category on page until a page comes back empty,
// a load keeps failing after its retries, the page cap is hit or ctx is done.
// The page must not be used by anyone else until Walk returns.
func (w *Walker) Walk(ctx context.Context, page browser.Page, category CategoryRef) WalkResult {
	log := logger.ForCrawler(category.Name)
	result := WalkResult{Category: category, Records: []ProductRecord{}}

	state := stateLoading
	pageNum := 1
	var attempt pageAttempt

	for state != stateDone {
		switch state {
		case stateLoading:
			if ctx.Err() != nil {
				result.StopReason = StopCancelled
				state = stateDone
				continue
			}
			if w.opts.MaxPages > 0 && pageNum > w.opts.MaxPages {
				log.Warn().Int("max_pages", w.opts.MaxPages).Msg("Page cap reached")
				result.StopReason = StopMaxPages
				state = stateDone
				continue
			}

			pageURL := helpers.PageURL(category.URL, w.opts.PageParam, pageNum)
			attempt = w.loadWithRetry(ctx, page, pageURL, pageNum, category.Name)

			switch attempt.outcome {
			case HasResults:
				state = stateExtracting
			case EmptyPage:
				log.Debug().Int("page", pageNum).Str("url", pageURL).Msg("No products, category exhausted")
				result.StopReason = StopEmptyPage
				state = stateDone
			case LoadError:
				if ctx.Err() != nil {
					result.StopReason = StopCancelled
				} else {
					log.Warn().Err(attempt.err).Int("page", pageNum).Str("url", pageURL).Msg("Page failed to load, ending category")
					result.StopReason = StopLoadError
					result.Err = attempt.err
				}
				state = stateDone
			}

		case stateExtracting:
			records := w.extractor.Extract(attempt.containers, category.Name)
			result.Records = append(result.Records, records...)
			result.Pages++
			log.Debug().Int("page", pageNum).Int("containers", len(attempt.containers)).Int("records", len(records)).Msg("Extracted page")
			state = stateAdvancing

		case stateAdvancing:
			pageNum++
			attempt = pageAttempt{}
			state = stateLoading
		}
	}

	log.Info().
		Int("pages", result.Pages).
		Int("products", len(result.Records)).
		Str("stop_reason", string(result.StopReason)).
		Msg("Category walk finished")
	return result
}

// loadWithRetry loads a page, retrying with backoff only while the failure is a
// retryable load error. Empty pages are never retried.
func (w *Walker) loadWithRetry(ctx context.Context, page browser.Page, pageURL string, pageNum int, category string) pageAttempt {
	log := logger.ForCrawler(category)
	var attempt pageAttempt

	err := retry.Do(ctx, w.opts.Retry, "load "+pageURL,
		func() error {
			attempt = w.load(ctx, page, pageURL)
			if attempt.outcome == LoadError {
				return attempt.err
			}
			return nil
		},
		crawlerrors.IsRetryable,
		func(err error, wait time.Duration) {
			log.Warn().Err(err).Int("page", pageNum).Dur("retry_in", wait).Msg("Retrying page load")
		},
	)
	if err != nil && attempt.outcome != LoadError {
		// The retry loop stopped on ctx before the first attempt ran.
		attempt = pageAttempt{outcome: LoadError, err: err}
	}
	return attempt
}

func (w *Walker) load(ctx context.Context, page browser.Page, pageURL string) pageAttempt {
	if err := page.Navigate(ctx, pageURL, w.opts.NavigationTimeout); err != nil {
		return pageAttempt{outcome: LoadError, err: err}
	}

	if err := page.WaitForSelector(ctx, w.productSelector, w.opts.SelectorTimeout); err != nil {
		if crawlerrors.IsType(err, crawlerrors.ErrorTypeSelectorTimeout) {
			return pageAttempt{outcome: EmptyPage, err: err}
		}
		return pageAttempt{outcome: LoadError, err: err}
	}

	containers, err := page.QueryAll(ctx, w.productSelector)
	if err != nil {
		return pageAttempt{outcome: LoadError, err: err}
	}
	if len(containers) == 0 {
		return pageAttempt{outcome: EmptyPage}
	}
	return pageAttempt{outcome: HasResults, containers: containers}
}
