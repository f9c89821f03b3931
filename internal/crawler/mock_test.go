package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Rezanikmanesh-79/Karamoozi/internal/browser"
	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
	"github.com/Rezanikmanesh-79/Karamoozi/pkg/retry"
)

const testBaseURL = "https://shop.test"

var testSelectors = Selectors{
	Category: "a[href*='/products/category-']",
	Product:  "div.bx-product",
	Title:    "h2 a",
	Image:    "div.bx-img img",
	Price:    "div.bx-price",
}

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	mu    sync.Mutex
	cache map[string][]byte
	// failSet makes every Set fail
	failSet bool
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, &mockError{message: "cache miss"}
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return &mockError{message: "cache unavailable"}
	}
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

type mockError struct {
	message string
}

func (e *mockError) Error() string {
	return e.message
}

// fakeResponse is what the fake site serves for one URL. navFailures makes the
// first n navigations fail with a retryable navigation error.
type fakeResponse struct {
	html        string
	navErr      error
	navFailures int
}

// fakeSite serves HTML fixtures by URL and records every navigation.
// Unknown URLs render an empty page.
type fakeSite struct {
	mu          sync.Mutex
	pages       map[string]*fakeResponse
	navigations []string
}

func newFakeSite() *fakeSite {
	return &fakeSite{pages: make(map[string]*fakeResponse)}
}

func (s *fakeSite) serve(url, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = &fakeResponse{html: html}
}

func (s *fakeSite) fail(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = &fakeResponse{navErr: err}
}

func (s *fakeSite) flaky(url, html string, failures int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = &fakeResponse{html: html, navFailures: failures}
}

func (s *fakeSite) visits(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.navigations {
		if v == url {
			n++
		}
	}
	return n
}

func (s *fakeSite) navigate(url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigations = append(s.navigations, url)

	resp, ok := s.pages[url]
	if !ok {
		return "<html><body></body></html>", nil
	}
	if resp.navErr != nil {
		return "", resp.navErr
	}
	if resp.navFailures > 0 {
		resp.navFailures--
		return "", crawlerrors.NewNavigation(url, errors.New("connection reset"))
	}
	return resp.html, nil
}

type fakePage struct {
	site   *fakeSite
	url    string
	doc    *goquery.Document
	closed bool
}

var _ browser.Page = (*fakePage)(nil)

func (p *fakePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.url = url
	p.doc = nil
	html, err := p.site.navigate(url)
	if err != nil {
		return err
	}
	doc, err := browser.ParseHTML(html)
	if err != nil {
		return err
	}
	p.doc = doc
	return nil
}

func (p *fakePage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if p.doc == nil || p.doc.Find(selector).Length() == 0 {
		return crawlerrors.NewSelectorTimeout(p.url, selector, errors.New("timeout"))
	}
	return nil
}

func (p *fakePage) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	if p.doc == nil {
		return nil, crawlerrors.NewValidation(p.url, "no page loaded")
	}
	return browser.Elements(p.doc.Selection, selector), nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeBrowser struct {
	mu         sync.Mutex
	site       *fakeSite
	pages      []*fakePage
	newPageErr error
	closed     bool
}

var _ browser.Browser = (*fakeBrowser)(nil)

func (b *fakeBrowser) NewPage(context.Context) (browser.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.newPageErr != nil {
		return nil, b.newPageErr
	}
	p := &fakePage{site: b.site}
	b.pages = append(b.pages, p)
	return p, nil
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBrowser) launcher() browser.Launcher {
	return func(context.Context) (browser.Browser, error) {
		return b, nil
	}
}

// memorySink captures the written corpus
type memorySink struct {
	mu      sync.Mutex
	written Corpus
	calls   int
	err     error
}

func (s *memorySink) Write(_ context.Context, corpus Corpus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.written = append(Corpus{}, corpus...)
	return nil
}

type recordingMirror struct {
	name     string
	err      error
	received int
}

func (m *recordingMirror) Name() string { return m.name }

func (m *recordingMirror) Mirror(_ context.Context, corpus Corpus) error {
	m.received = len(corpus)
	return m.err
}

// product renders one product container fixture. Empty fields are left out.
func product(title, href, price, image string) string {
	var b strings.Builder
	b.WriteString(`<div class="bx-product">`)
	if image != "" {
		fmt.Fprintf(&b, `<div class="bx-img"><img src=%q></div>`, image)
	}
	if title != "" || href != "" {
		fmt.Fprintf(&b, `<h2><a href=%q>%s</a></h2>`, href, title)
	}
	if price != "" {
		fmt.Fprintf(&b, `<div class="bx-price">%s</div>`, price)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func listing(products ...string) string {
	return "<html><body><div class=\"products\">" + strings.Join(products, "\n") + "</div></body></html>"
}

func landing(anchors ...string) string {
	return "<html><body><nav>" + strings.Join(anchors, "\n") + "</nav></body></html>"
}

func anchor(href, text string) string {
	return fmt.Sprintf(`<a href=%q>%s</a>`, href, text)
}

func testWalkOptions() WalkOptions {
	return WalkOptions{
		PageParam:         "page",
		NavigationTimeout: time.Second,
		SelectorTimeout:   10 * time.Millisecond,
		Retry:             retry.Config{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond},
	}
}

func testExtractor() *Extractor {
	return NewExtractor(testBaseURL, testSelectors, "تومان")
}

func testWalker(opts WalkOptions) *Walker {
	return NewWalker(testExtractor(), testSelectors.Product, opts)
}

func testDiscoverer(dedupe bool) *Discoverer {
	return NewDiscoverer(DiscovererConfig{
		BaseURL:           testBaseURL,
		PathPrefix:        "/products/category-",
		Selector:          testSelectors.Category,
		NavigationTimeout: time.Second,
		SelectorTimeout:   10 * time.Millisecond,
		Dedupe:            dedupe,
	})
}

func pageURL(category string, n int) string {
	return fmt.Sprintf("%s/products/category-%s/?page=%d", testBaseURL, category, n)
}
