package lyrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sukalov/songquiz/internal/logger"
	"github.com/sukalov/songquiz/internal/lyrics/normalize"
	"github.com/sukalov/songquiz/internal/utils"
)

// Resolver finds the primary lyrics page URL of a song.
type Resolver interface {
	Resolve(ctx context.Context, artist, song string) (string, error)
}

// PageScraper reads raw lyrics from a primary lyrics page.
type PageScraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

// Searcher finds lyrics through a web search.
type Searcher interface {
	SearchAndScrape(ctx context.Context, artist, song string) (*Extraction, error)
}

// Service runs the lyrics pipeline: cache, primary strategy, fallback, normalization.
type Service struct {
	resolver Resolver
	primary  PageScraper
	fallback Searcher
	cache    Cache
	now      func() time.Time
}

// NewService creates a new lyrics service. cache may be nil.
func NewService(resolver Resolver, primary PageScraper, fallback Searcher, cache Cache) *Service {
	return &Service{
		resolver: resolver,
		primary:  primary,
		fallback: fallback,
		cache:    cache,
		now:      time.Now,
	}
}

// Fetch returns normalized lyrics for req.
func (s *Service) Fetch(ctx context.Context, req Request) (*Result, error) {
	req, err := req.Trimmed()
	if err != nil {
		return nil, err
	}
	key := req.Key()

	if s.cache != nil {
		entry, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			logger.Debug(fmt.Sprintf("cache hit for %q", key))
			return entry.result(true), nil
		case !errors.Is(err, ErrCacheMiss):
			logger.Warn(fmt.Sprintf("cache get %q failed: %v", key, err))
		}
	}

	extraction, err := s.extract(ctx, req)
	if err != nil {
		return nil, err
	}

	text := normalize.Lyrics(extraction.Text)
	if text == "" {
		return nil, fmt.Errorf("%s - %s: empty after normalization: %w", req.Artist, req.Song, ErrNotFound)
	}

	entry := Entry{
		Artist:    req.Artist,
		Song:      req.Song,
		Lyrics:    text,
		SourceURL: extraction.SourceURL,
		Strategy:  extraction.Strategy,
		FetchedAt: s.now(),
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, entry); err != nil {
			logger.Warn(fmt.Sprintf("cache set %q failed: %v", key, err))
		}
	}

	logger.Info(fmt.Sprintf("lyrics for %s - %s found via %s (%s): %s",
		req.Artist, req.Song, entry.Strategy, entry.SourceURL, utils.Excerpt(text, 40)))
	return entry.result(false), nil
}

// extract tries the primary strategy, then the fallback when the primary finds nothing.
func (s *Service) extract(ctx context.Context, req Request) (*Extraction, error) {
	url, err := s.resolver.Resolve(ctx, req.Artist, req.Song)
	switch {
	case err == nil:
		text, err := s.primary.Scrape(ctx, url)
		if err == nil && text != "" {
			return &Extraction{Text: text, SourceURL: url, Strategy: StrategyPrimary}, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		logger.Debug(fmt.Sprintf("no lyrics on %s, trying web search", url))
	case errors.Is(err, ErrNotFound):
		logger.Debug(fmt.Sprintf("%s - %s not found on Genius, trying web search", req.Artist, req.Song))
	default:
		return nil, err
	}

	extraction, err := s.fallback.SearchAndScrape(ctx, req.Artist, req.Song)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn(fmt.Sprintf("web search for %s - %s failed: %v", req.Artist, req.Song, err))
		}
		return nil, fmt.Errorf("%s - %s: %w", req.Artist, req.Song, ErrNotFound)
	}
	if extraction == nil || extraction.Text == "" {
		return nil, fmt.Errorf("%s - %s: %w", req.Artist, req.Song, ErrNotFound)
	}
	return extraction, nil
}

// Forget drops the cached lyrics of req.
func (s *Service) Forget(ctx context.Context, req Request) error {
	req, err := req.Trimmed()
	if err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, req.Key()); err != nil {
		return fmt.Errorf("failed to forget %s - %s: %w", req.Artist, req.Song, err)
	}
	logger.Info(fmt.Sprintf("forgot cached lyrics for %s - %s", req.Artist, req.Song))
	return nil
}
