// Package browser is the page-automation layer the crawler drives. A Browser is
// one session; every Page is a tab owned by exactly one goroutine at a time.
package browser

import (
	"context"
	"time"
)

// Element is a handle to one DOM element of a loaded page
type Element interface {
	// Text returns the element's text content
	Text() string

	// Attribute returns the named attribute and whether it is present
	Attribute(name string) (string, bool)

	// Find returns the first descendant matching selector
	Find(selector string) (Element, bool)
}

// Page is a single navigable tab
type Page interface {
	// Navigate loads url, failing with a navigation error on timeout or network failure
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// WaitForSelector blocks until selector is present, failing with a selector
	// timeout error when it does not appear within timeout
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error

	// QueryAll returns every element matching selector on the current page
	QueryAll(ctx context.Context, selector string) ([]Element, error)

	// Close releases the tab
	Close() error
}

// Browser is a scoped browser session
type Browser interface {
	// NewPage opens a new tab in the session
	NewPage(ctx context.Context) (Page, error)

	// Close releases the session and every page still open in it
	Close() error
}

// Launcher acquires a browser session
type Launcher func(ctx context.Context) (Browser, error)
