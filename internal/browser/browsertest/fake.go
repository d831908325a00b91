// Package browsertest provides an in-memory browser.Browser backed by static HTML.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sukalov/songquiz/internal/browser"
)

// Fake serves pages from a map of URL to HTML. Selectors are matched with goquery,
// so WaitReady fails immediately with browser.ErrTimeout instead of waiting.
type Fake struct {
	mu sync.Mutex

	Pages map[string]string
	// Clickable lists selectors (CSS or XPath) that Click accepts.
	Clickable map[string]bool
	// OpenErr, when set, is returned by every Open.
	OpenErr error
	// QueryErr maps selectors to the error QueryAll returns for them.
	QueryErr map[string]error

	Opened      []string
	Visited     []string
	Clicked     []string
	Screenshots int
	closed      int
}

// New creates a Fake serving pages.
func New(pages map[string]string) *Fake {
	return &Fake{Pages: pages, Clickable: map[string]bool{}}
}

// Closed returns how many pages were closed.
func (f *Fake) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Fake) Open(ctx context.Context, url string) (browser.Page, error) {
	f.mu.Lock()
	f.Opened = append(f.Opened, url)
	openErr := f.OpenErr
	f.mu.Unlock()

	if openErr != nil {
		return nil, openErr
	}
	p := &fakePage{fake: f}
	if err := p.Navigate(ctx, url); err != nil {
		return nil, err
	}
	return p, nil
}

type fakePage struct {
	fake *Fake
	url  string
	doc  *goquery.Document
}

func (p *fakePage) URL() string {
	return p.url
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.fake.mu.Lock()
	html, ok := p.fake.Pages[url]
	p.fake.Visited = append(p.fake.Visited, url)
	p.fake.mu.Unlock()

	if !ok {
		return fmt.Errorf("navigating to %s: page not found", url)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}
	p.url, p.doc = url, doc
	return nil
}

func (p *fakePage) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%q after %s: %w", selector, timeout, browser.ErrTimeout)
	}
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	p.fake.mu.Lock()
	defer p.fake.mu.Unlock()
	if !p.fake.Clickable[selector] {
		return fmt.Errorf("%q after %s: %w", selector, timeout, browser.ErrTimeout)
	}
	p.fake.Clicked = append(p.fake.Clicked, selector)
	return nil
}

func (p *fakePage) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	p.fake.mu.Lock()
	queryErr := p.fake.QueryErr[selector]
	p.fake.mu.Unlock()
	if queryErr != nil {
		return nil, queryErr
	}

	var elements []browser.Element
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		inner, _ := s.Html()
		href := ""
		if goquery.NodeName(s) == "a" {
			href, _ = s.Attr("href")
		}
		elements = append(elements, browser.Element{HTML: inner, Href: href})
	})
	return elements, nil
}

func (p *fakePage) Screenshot(ctx context.Context) (string, error) {
	p.fake.mu.Lock()
	defer p.fake.mu.Unlock()
	p.fake.Screenshots++
	return fmt.Sprintf("debug-%d.png", p.fake.Screenshots), nil
}

func (p *fakePage) Close() error {
	p.fake.mu.Lock()
	defer p.fake.mu.Unlock()
	p.fake.closed++
	return nil
}
