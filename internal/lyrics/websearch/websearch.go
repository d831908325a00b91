// Package websearch is the fallback lyrics strategy: search the web for the
// song and take lyrics from the first result page that looks plausible.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"unicode/utf8"

	"github.com/sukalov/songquiz/internal/browser"
	"github.com/sukalov/songquiz/internal/logger"
	"github.com/sukalov/songquiz/internal/lyrics"
	"github.com/sukalov/songquiz/internal/lyrics/htmltext"
	"github.com/sukalov/songquiz/internal/lyrics/probe"
)

// consentButton matches the cookie consent button in English and Russian.
const consentButton = `//button[div[contains(text(), 'Accept all') or contains(text(), 'Принять все')]]`

var (
	errNoContainer = errors.New("no lyrics container")
	errImplausible = errors.New("container text does not look like lyrics")
)

// Scraper searches the web and scrapes lyrics sites.
type Scraper struct {
	browser browser.Browser
	opts    Options
}

// NewScraper creates a Scraper.
func NewScraper(b browser.Browser, opts Options) *Scraper {
	return &Scraper{browser: b, opts: opts}
}

// SearchURL builds the results page URL for a song.
func (s *Scraper) SearchURL(artist, song string) string {
	query := fmt.Sprintf("%s %s %s", artist, song, s.opts.Keyword)
	return s.opts.SearchURL + "?" + url.Values{"q": {query}}.Encode()
}

// SearchAndScrape returns the first plausible lyrics among the top results.
// Every failure, including browser errors, is reported as lyrics.ErrNotFound.
func (s *Scraper) SearchAndScrape(ctx context.Context, artist, song string) (*lyrics.Extraction, error) {
	searchURL := s.SearchURL(artist, song)

	page, err := s.browser.Open(ctx, searchURL)
	if err != nil {
		logger.Warn(fmt.Sprintf("web search for %s - %s failed to open: %v", artist, song, err))
		return nil, fmt.Errorf("opening search results: %w", lyrics.ErrNotFound)
	}
	defer page.Close()

	if err := page.Click(ctx, consentButton, s.opts.ConsentWait); err != nil {
		logger.Debug(fmt.Sprintf("no consent button clicked: %v", err))
	}

	candidates, err := s.candidates(ctx, page)
	if err != nil {
		return nil, err
	}
	logger.Debug(fmt.Sprintf("web search for %s - %s: %d candidates", artist, song, len(candidates)))

	urls := make([]string, len(candidates))
	for i, c := range candidates {
		urls[i] = c.URL
	}

	match, ok := probe.First(
		probe.Keys[string](nil, urls...),
		func(candidateURL string) (string, error) {
			return s.scrapeCandidate(ctx, page, candidateURL)
		},
		func(candidateURL string, err error) {
			logger.Debug(fmt.Sprintf("skipping %s: %v", candidateURL, err))
		},
	)
	if !ok {
		return nil, fmt.Errorf("no plausible lyrics among %d results: %w", len(candidates), lyrics.ErrNotFound)
	}

	return &lyrics.Extraction{
		Text:      match.Value,
		SourceURL: match.Key,
		Strategy:  lyrics.StrategyFallback,
	}, nil
}

// candidates collects result links with the first selector that matches any,
// drops ignore-listed ones and keeps at most MaxCandidates.
func (s *Scraper) candidates(ctx context.Context, page browser.Page) ([]lyrics.Candidate, error) {
	match, ok := probe.First(
		probe.Keys(func(links []browser.Element) bool { return len(links) > 0 }, s.opts.LinkSelectors...),
		func(selector string) ([]browser.Element, error) {
			return page.QueryAll(ctx, selector)
		},
		nil,
	)
	if !ok {
		browser.Capture(ctx, page, "no search result links")
		return nil, fmt.Errorf("no search result links: %w", lyrics.ErrNotFound)
	}

	return s.filter(match.Value), nil
}

func (s *Scraper) filter(links []browser.Element) []lyrics.Candidate {
	var candidates []lyrics.Candidate
	for _, link := range links {
		if len(candidates) == s.opts.MaxCandidates {
			break
		}
		if s.opts.ignored(link.Href) {
			continue
		}
		candidates = append(candidates, lyrics.Candidate{URL: link.Href, Strategy: lyrics.StrategyFallback})
	}
	return candidates
}

// scrapeCandidate visits one result page and returns its lyrics, or an error
// explaining why the page was skipped.
func (s *Scraper) scrapeCandidate(ctx context.Context, page browser.Page, candidateURL string) (string, error) {
	if err := page.Navigate(ctx, candidateURL); err != nil {
		browser.Capture(ctx, page, "opening result page failed")
		return "", err
	}

	container, ok := probe.First(
		probe.Keys(func(html string) bool {
			compact, err := htmltext.Compact(html)
			return err == nil && utf8.RuneCountInString(compact) > s.opts.MinContainerChars
		}, s.opts.ContainerSelectors...),
		func(selector string) (string, error) {
			elements, err := page.QueryAll(ctx, selector)
			if err != nil {
				browser.Capture(ctx, page, "reading result page failed")
				return "", err
			}
			if len(elements) == 0 {
				return "", errNoContainer
			}
			return elements[0].HTML, nil
		},
		nil,
	)
	if !ok {
		return "", errNoContainer
	}

	text, err := htmltext.Lines(container.Value)
	if err != nil {
		browser.Capture(ctx, page, "parsing result page failed")
		return "", err
	}
	if !s.opts.Plausible(text) {
		return "", fmt.Errorf("%w (selector %s)", errImplausible, container.Key)
	}
	return text, nil
}
