package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/Rezanikmanesh-79/Karamoozi/logger"
	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
)

const defaultSnapshotTimeout = 30 * time.Second

// ChromeOptions configures a Chrome session
type ChromeOptions struct {
	Headless bool
	// RemoteURL points at a running DevTools endpoint (ws://...). Empty launches a local Chrome.
	RemoteURL string
	UserAgent string
	// SnapshotTimeout bounds reading the DOM for QueryAll
	SnapshotTimeout time.Duration
}

// ChromeBrowser is a Browser driven through the DevTools protocol
type ChromeBrowser struct {
	opts          ChromeOptions
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	newTab func(parent context.Context) (context.Context, context.CancelFunc)
	runner func(ctx context.Context, actions ...chromedp.Action) error

	mu     sync.Mutex
	closed bool
}

// LaunchChrome starts (or attaches to) Chrome. The session lives until Close is
// called or ctx is cancelled.
func LaunchChrome(ctx context.Context, opts ChromeOptions) (*ChromeBrowser, error) {
	if opts.SnapshotTimeout <= 0 {
		opts.SnapshotTimeout = defaultSnapshotTimeout
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.RemoteURL != "" {
		logger.Info("Attaching to remote Chrome at %s", opts.RemoteURL)
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, opts.RemoteURL)
	} else {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", opts.Headless))
		if opts.UserAgent != "" {
			allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, allocOpts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser now so launch failures surface here rather than on the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, crawlerrors.NewNetwork("chrome", "failed to start browser", err)
	}

	return &ChromeBrowser{
		opts:          opts,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		newTab:        newChromeTab,
		runner:        chromedp.Run,
	}, nil
}

func newChromeTab(parent context.Context) (context.Context, context.CancelFunc) {
	return chromedp.NewContext(parent)
}

// ChromeLauncher returns a Launcher for the given options
func ChromeLauncher(opts ChromeOptions) Launcher {
	return func(ctx context.Context) (Browser, error) {
		return LaunchChrome(ctx, opts)
	}
}

// NewPage opens a new tab
func (b *ChromeBrowser) NewPage(ctx context.Context) (Page, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil, crawlerrors.NewValidation("chrome", "browser already closed")
	}

	tabCtx, tabCancel := b.newTab(b.browserCtx)
	page := &chromePage{ctx: tabCtx, cancel: tabCancel, runner: b.runner, snapshotTimeout: b.opts.SnapshotTimeout}

	var actions []chromedp.Action
	if b.opts.UserAgent != "" && b.opts.RemoteURL != "" {
		// Remote browsers ignore launch flags; override per tab instead.
		actions = append(actions, emulation.SetUserAgentOverride(b.opts.UserAgent))
	}
	if err := page.attach(ctx, b.opts.SnapshotTimeout, actions...); err != nil {
		return nil, crawlerrors.NewNetwork("chrome", "failed to open tab", err)
	}
	return page, nil
}

// Close shuts the browser down and releases the allocator
func (b *ChromeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	err := chromedp.Cancel(b.browserCtx)
	b.browserCancel()
	b.allocCancel()
	if err != nil && err != context.Canceled {
		return crawlerrors.NewNetwork("chrome", "failed to close browser", err)
	}
	return nil
}

// chromePage is one Chrome tab
type chromePage struct {
	ctx             context.Context
	cancel          context.CancelFunc
	runner          func(ctx context.Context, actions ...chromedp.Action) error
	snapshotTimeout time.Duration
	url             string
}

// attach creates the tab. The first Run must be on the tab context itself since
// the target's event loop lives only as long as the context it attached with.
// The wait is bounded by closing the tab.
func (p *chromePage) attach(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() { done <- p.runner(p.ctx, actions...) }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			p.cancel()
		}
		return err
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	case <-timer.C:
		p.cancel()
		<-done
		return context.DeadlineExceeded
	}
}

// run executes actions on an attached tab bounded by timeout and by the
// caller's ctx. Cancelling a context derived from the tab context does not
// close the tab.
func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return p.runner(runCtx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return crawlerrors.NewNavigation(url, err)
	}
	p.url = url
	return nil
}

func (p *chromePage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := p.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return crawlerrors.NewSelectorTimeout(p.url, selector, err)
	}
	return nil
}

// QueryAll snapshots the rendered DOM once and queries it offline, so the
// returned elements stay valid after the next navigation.
func (p *chromePage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	var html string
	if err := p.run(ctx, p.snapshotTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, crawlerrors.NewNetwork(p.url, "failed to read page DOM", err)
	}

	doc, err := ParseHTML(html)
	if err != nil {
		return nil, crawlerrors.New(crawlerrors.ErrorTypeExtraction, p.url, "failed to parse page DOM", err)
	}
	return Elements(doc.Selection, selector), nil
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}
