// Package lyrics finds the lyrics of a song: a Genius lookup first, a web
// search over lyrics sites second, with the result normalized and cached.
package lyrics

import (
	"errors"
	"strings"
	"time"

	"github.com/sukalov/songquiz/internal/lyrics/normalize"
)

var (
	// ErrNotFound means a strategy ran fine but produced no lyrics.
	ErrNotFound = errors.New("lyrics not found")
	// ErrScrape means the primary lyrics page could not be fetched or read.
	ErrScrape = errors.New("failed to scrape lyrics page")
	// ErrInvalidRequest means artist or song is blank.
	ErrInvalidRequest = errors.New("artist and song are required")
)

// Strategy names where a text came from.
type Strategy string

const (
	StrategyPrimary  Strategy = "primary"
	StrategyFallback Strategy = "fallback"
)

// Request identifies a song.
type Request struct {
	Artist string `json:"artist"`
	Song   string `json:"song"`
}

// Trimmed returns the request with surrounding whitespace removed, or
// ErrInvalidRequest when either field ends up empty.
func (r Request) Trimmed() (Request, error) {
	r.Artist = strings.TrimSpace(r.Artist)
	r.Song = strings.TrimSpace(r.Song)
	if r.Artist == "" || r.Song == "" {
		return r, ErrInvalidRequest
	}
	return r, nil
}

// Key is the cache key of the song.
func (r Request) Key() string {
	return normalize.Fingerprint(r.Artist, r.Song)
}

// Candidate is a page that may hold lyrics.
type Candidate struct {
	URL      string
	Strategy Strategy
}

// Extraction is raw lyrics text as taken from a page.
type Extraction struct {
	Text      string
	SourceURL string
	Strategy  Strategy
}

// Result is what Service.Fetch returns.
type Result struct {
	Lyrics    string
	SourceURL string
	Strategy  Strategy
	Cached    bool
	FetchedAt time.Time
}

// Entry is the stored form of normalized lyrics.
type Entry struct {
	Artist    string    `json:"artist"`
	Song      string    `json:"song"`
	Lyrics    string    `json:"lyrics"`
	SourceURL string    `json:"source_url"`
	Strategy  Strategy  `json:"strategy"`
	FetchedAt time.Time `json:"fetched_at"`
}

func (e Entry) result(cached bool) *Result {
	return &Result{
		Lyrics:    e.Lyrics,
		SourceURL: e.SourceURL,
		Strategy:  e.Strategy,
		Cached:    cached,
		FetchedAt: e.FetchedAt,
	}
}
