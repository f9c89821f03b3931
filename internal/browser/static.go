package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Rezanikmanesh-79/Karamoozi/helpers"
	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
)

// StaticBrowser loads pages over plain HTTP without executing JavaScript.
// It serves server-rendered listings and tests.
type StaticBrowser struct {
	client    *http.Client
	userAgent string
}

// NewStaticBrowser creates a static browser. A nil client uses http.DefaultClient.
func NewStaticBrowser(client *http.Client, userAgent string) *StaticBrowser {
	if client == nil {
		client = http.DefaultClient
	}
	return &StaticBrowser{client: client, userAgent: userAgent}
}

// StaticLauncher returns a Launcher producing static browsers
func StaticLauncher(client *http.Client, userAgent string) Launcher {
	return func(context.Context) (Browser, error) {
		return NewStaticBrowser(client, userAgent), nil
	}
}

func (b *StaticBrowser) NewPage(context.Context) (Page, error) {
	return &staticPage{browser: b}, nil
}

func (b *StaticBrowser) Close() error {
	return nil
}

type staticPage struct {
	browser *StaticBrowser
	url     string
	doc     *goquery.Document
}

func (p *staticPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p.doc = nil
	p.url = url

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := helpers.FetchUTF8(fetchCtx, p.browser.client, url, p.browser.userAgent)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var rateErr *helpers.ErrRateLimited
		if errors.As(err, &rateErr) {
			return crawlerrors.NewNetwork(url, "rate limited", err)
		}
		return crawlerrors.NewNavigation(url, err)
	}

	doc, err := ParseHTML(string(body))
	if err != nil {
		return crawlerrors.NewNavigation(url, err)
	}
	p.doc = doc
	return nil
}

// WaitForSelector checks the fetched document; static markup never changes after load.
func (p *staticPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.doc == nil || p.doc.Find(selector).Length() == 0 {
		return crawlerrors.NewSelectorTimeout(p.url, selector, fmt.Errorf("no match after %s", timeout))
	}
	return nil
}

func (p *staticPage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.doc == nil {
		return nil, crawlerrors.NewValidation(p.url, "no page loaded")
	}
	return Elements(p.doc.Selection, selector), nil
}

func (p *staticPage) Close() error {
	p.doc = nil
	return nil
}
