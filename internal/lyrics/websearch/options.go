package websearch

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sukalov/songquiz/internal/config"
)

// Options tunes the fallback scraper. Lengths are counted in runes.
type Options struct {
	SearchURL   string
	Keyword     string
	ConsentWait time.Duration

	MaxCandidates     int
	MinContainerChars int
	MinLyricsChars    int
	MinNewlines       int

	LinkSelectors      []string
	ContainerSelectors []string
	IgnoredDomains     []string
	JunkKeywords       []string
}

// FromTuning converts the TOML tuning section into Options.
func FromTuning(t config.WebSearch) Options {
	return Options{
		SearchURL:          t.SearchURL,
		Keyword:            t.Keyword,
		ConsentWait:        time.Duration(t.ConsentWaitSeconds) * time.Second,
		MaxCandidates:      t.MaxCandidates,
		MinContainerChars:  t.MinContainerChars,
		MinLyricsChars:     t.MinLyricsChars,
		MinNewlines:        t.MinNewlines,
		LinkSelectors:      t.LinkSelectors,
		ContainerSelectors: t.ContainerSelectors,
		IgnoredDomains:     t.IgnoredDomains,
		JunkKeywords:       t.JunkKeywords,
	}
}

// DefaultOptions returns the calibrated defaults.
func DefaultOptions() Options {
	return FromTuning(config.DefaultTuning().WebSearch)
}

// Plausible reports whether text looks like song lyrics rather than page chrome:
// long enough, enough lines, and free of junk keywords.
func (o Options) Plausible(text string) bool {
	if utf8.RuneCountInString(text) <= o.MinLyricsChars {
		return false
	}
	if strings.Count(text, "\n") <= o.MinNewlines {
		return false
	}

	lower := strings.ToLower(text)
	for _, junk := range o.JunkKeywords {
		if strings.Contains(lower, strings.ToLower(junk)) {
			return false
		}
	}
	return true
}

// ignored reports whether href is empty or points to an ignore-listed domain.
func (o Options) ignored(href string) bool {
	if href == "" {
		return true
	}
	for _, domain := range o.IgnoredDomains {
		if strings.Contains(href, domain) {
			return true
		}
	}
	return false
}
