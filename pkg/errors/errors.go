package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNavigation represents a page that could not be navigated to
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeSelectorTimeout represents a selector that never appeared on a loaded page
	ErrorTypeSelectorTimeout ErrorType = "selector_timeout"
	// ErrorTypeDiscovery represents a landing page that yielded no categories
	ErrorTypeDiscovery ErrorType = "discovery"
	// ErrorTypeExtraction represents a product container missing required fields
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypePersistence represents a corpus that could not be written
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRobots represents a URL disallowed by robots.txt
	ErrorTypeRobots ErrorType = "robots"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CrawlerError represents a crawler-specific error
type CrawlerError struct {
	Type     ErrorType
	Provider string
	Message  string
	Err      error
	Time     time.Time
}

// Error implements the error interface
func (e *CrawlerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Provider, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *CrawlerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNavigation, ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// IsType reports whether err wraps a CrawlerError of the given type.
func IsType(err error, errType ErrorType) bool {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce.Type == errType
	}
	return false
}

// IsRetryable reports whether err wraps a retryable CrawlerError.
func IsRetryable(err error) bool {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce.IsRetryable()
	}
	return false
}

// New creates a new CrawlerError
func New(errType ErrorType, provider, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:     errType,
		Provider: provider,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewNavigation creates a new navigation error
func NewNavigation(url string, err error) *CrawlerError {
	return New(ErrorTypeNavigation, url, "navigation failed", err)
}

// NewSelectorTimeout creates a new selector timeout error
func NewSelectorTimeout(url, selector string, err error) *CrawlerError {
	return New(ErrorTypeSelectorTimeout, url, fmt.Sprintf("selector %q did not appear", selector), err)
}

// NewDiscovery creates a new discovery error
func NewDiscovery(url, message string, err error) *CrawlerError {
	return New(ErrorTypeDiscovery, url, message, err)
}

// NewExtraction creates a new extraction error
func NewExtraction(category, message string) *CrawlerError {
	return New(ErrorTypeExtraction, category, message, nil)
}

// NewPersistence creates a new persistence error
func NewPersistence(path, message string, err error) *CrawlerError {
	return New(ErrorTypePersistence, path, message, err)
}

// NewNetwork creates a new network error
func NewNetwork(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeNetwork, provider, message, err)
}

// NewRobots creates a new robots.txt disallow error
func NewRobots(url string) *CrawlerError {
	return New(ErrorTypeRobots, url, "disallowed by robots.txt", nil)
}

// NewCache creates a new cache error
func NewCache(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeCache, provider, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(provider, message string, err error) *CrawlerError {
	return New(ErrorTypePublisher, provider, message, err)
}

// NewValidation creates a new validation error
func NewValidation(provider, message string) *CrawlerError {
	return New(ErrorTypeValidation, provider, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "", message, err)
}
