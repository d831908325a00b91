package genius

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sukalov/songquiz/internal/browser"
	"github.com/sukalov/songquiz/internal/lyrics"
	"github.com/sukalov/songquiz/internal/lyrics/htmltext"
)

// ScraperOptions configures the page scraper
type ScraperOptions struct {
	ContainerSelector string
	BodyWait          time.Duration
	LyricsWait        time.Duration
}

// Scraper reads lyrics off a Genius song page.
type Scraper struct {
	browser browser.Browser
	opts    ScraperOptions
}

// NewScraper creates a Scraper.
func NewScraper(b browser.Browser, opts ScraperOptions) *Scraper {
	return &Scraper{browser: b, opts: opts}
}

// Scrape returns the text of every lyrics container on the page, one container
// per line group. A page without containers yields lyrics.ErrNotFound; any
// other failure is lyrics.ErrScrape.
func (s *Scraper) Scrape(ctx context.Context, url string) (string, error) {
	page, err := s.browser.Open(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", url, lyrics.ErrScrape, err)
	}
	defer page.Close()

	failed := func(err error) (string, error) {
		browser.Capture(ctx, page, "lyrics page failed")
		return "", fmt.Errorf("%s: %w: %v", url, lyrics.ErrScrape, err)
	}

	if err := page.WaitReady(ctx, "body", s.opts.BodyWait); err != nil {
		return failed(err)
	}

	if err := page.WaitReady(ctx, s.opts.ContainerSelector, s.opts.LyricsWait); err != nil {
		if !errors.Is(err, browser.ErrTimeout) {
			return failed(err)
		}
		browser.Capture(ctx, page, "no lyrics container")
		return "", fmt.Errorf("%s: %w", url, lyrics.ErrNotFound)
	}

	containers, err := page.QueryAll(ctx, s.opts.ContainerSelector)
	if err != nil {
		return failed(err)
	}

	parts := make([]string, 0, len(containers))
	for _, c := range containers {
		text, err := htmltext.WithLineBreaks(c.HTML)
		if err != nil {
			return failed(err)
		}
		parts = append(parts, text)
	}

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return "", fmt.Errorf("%s: empty lyrics containers: %w", url, lyrics.ErrNotFound)
	}
	return text, nil
}
