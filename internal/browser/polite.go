package browser

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"

	"github.com/Rezanikmanesh-79/Karamoozi/logger"
	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
)

const robotsFetchTimeout = 10 * time.Second

// PolitenessOptions configures the per-host throttle and robots.txt check
type PolitenessOptions struct {
	// Interval is the minimum spacing between navigations to one host. Zero disables throttling.
	Interval time.Duration
	// RespectRobots rejects navigations robots.txt disallows for Agent
	RespectRobots bool
	Agent         string
	// Client fetches robots.txt. Nil uses http.DefaultClient.
	Client *http.Client
}

// HostPolicy holds one rate limiter and one robots.txt group per host.
// It is shared by every page of a browser session.
type HostPolicy struct {
	opts PolitenessOptions

	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	robotsCache map[string]*robotstxt.Group
}

// NewHostPolicy creates a host policy
func NewHostPolicy(opts PolitenessOptions) *HostPolicy {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Agent == "" {
		opts.Agent = "*"
	}
	return &HostPolicy{
		opts:        opts,
		limiters:    make(map[string]*rate.Limiter),
		robotsCache: make(map[string]*robotstxt.Group),
	}
}

// Wait blocks until the host of targetURL may be contacted again
func (h *HostPolicy) Wait(ctx context.Context, targetURL string) error {
	if h.opts.Interval <= 0 {
		return nil
	}
	u, err := url.Parse(targetURL)
	if err != nil {
		return crawlerrors.NewNavigation(targetURL, err)
	}

	h.mu.Lock()
	limiter, exists := h.limiters[u.Host]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(h.opts.Interval), 1)
		h.limiters[u.Host] = limiter
	}
	h.mu.Unlock()

	return limiter.Wait(ctx)
}

// Allowed reports whether robots.txt permits targetURL. A missing or unreadable
// robots.txt allows everything.
func (h *HostPolicy) Allowed(ctx context.Context, targetURL string) bool {
	if !h.opts.RespectRobots {
		return true
	}
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	h.mu.Lock()
	group, exists := h.robotsCache[u.Host]
	h.mu.Unlock()

	if !exists {
		group = h.fetchRobots(ctx, u)
		h.mu.Lock()
		h.robotsCache[u.Host] = group
		h.mu.Unlock()
	}

	if group == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

func (h *HostPolicy) fetchRobots(ctx context.Context, u *url.URL) *robotstxt.Group {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	log := logger.ForComponent("robots")

	fetchCtx, cancel := context.WithTimeout(ctx, robotsFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	resp, err := h.opts.Client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", robotsURL).Msg("robots.txt unavailable, allowing all")
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		log.Debug().Err(err).Str("url", robotsURL).Msg("robots.txt unreadable, allowing all")
		return nil
	}
	return data.FindGroup(h.opts.Agent)
}

// PoliteBrowser wraps a Browser so every navigation honours a HostPolicy
type PoliteBrowser struct {
	inner  Browser
	policy *HostPolicy
}

// NewPoliteBrowser decorates inner with policy
func NewPoliteBrowser(inner Browser, policy *HostPolicy) *PoliteBrowser {
	return &PoliteBrowser{inner: inner, policy: policy}
}

// PoliteLauncher decorates every browser launch produces
func PoliteLauncher(launch Launcher, opts PolitenessOptions) Launcher {
	return func(ctx context.Context) (Browser, error) {
		b, err := launch(ctx)
		if err != nil {
			return nil, err
		}
		return NewPoliteBrowser(b, NewHostPolicy(opts)), nil
	}
}

func (b *PoliteBrowser) NewPage(ctx context.Context) (Page, error) {
	p, err := b.inner.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	return &politePage{Page: p, policy: b.policy}, nil
}

func (b *PoliteBrowser) Close() error {
	return b.inner.Close()
}

type politePage struct {
	Page
	policy *HostPolicy
}

func (p *politePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if !p.policy.Allowed(ctx, url) {
		return crawlerrors.NewRobots(url)
	}
	if err := p.policy.Wait(ctx, url); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return crawlerrors.NewNavigation(url, err)
	}
	return p.Page.Navigate(ctx, url, timeout)
}
