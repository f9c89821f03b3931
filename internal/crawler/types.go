package crawler

import (
	"time"

	"github.com/Rezanikmanesh-79/Karamoozi/pkg/retry"
)

// ProductRecord represents one scraped product. Field order is the persisted order;
// price and image are always present, possibly empty.
type ProductRecord struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Price    string `json:"price"`
	Image    string `json:"image"`
	Category string `json:"category"`
}

// Corpus is the ordered product list of one crawl run: category order, then in-page order
type Corpus []ProductRecord

// CategoryRef identifies one category listing
type CategoryRef struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Selectors contains CSS selectors for the site's landing and listing pages
type Selectors struct {
	Category string
	Product  string
	Title    string
	Image    string
	Price    string
}

// WalkOptions controls how a category's pages are walked
type WalkOptions struct {
	PageParam         string
	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration
	// MaxPages caps the pages visited per category; 0 means no cap
	MaxPages int
	// Retry applies to pages that failed to load, never to empty pages
	Retry retry.Config
}

// StopReason tells why a category walk ended
type StopReason string

const (
	StopEmptyPage StopReason = "empty_page"
	StopLoadError StopReason = "load_error"
	StopMaxPages  StopReason = "max_pages"
	StopCancelled StopReason = "cancelled"
)

// WalkResult is the outcome of walking one category
type WalkResult struct {
	Category   CategoryRef
	Records    []ProductRecord
	Pages      int
	StopReason StopReason
	// Err holds the last load failure when StopReason is StopLoadError
	Err error
}

// Summary describes a completed crawl run
type Summary struct {
	Categories int
	Products   int
	Pages      int
	Duration   time.Duration
	Walks      []WalkResult
}
