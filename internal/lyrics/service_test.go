package lyrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sukalov/songquiz/internal/config"
)

type fakeResolver struct {
	url   string
	err   error
	calls int
}

func (f *fakeResolver) Resolve(context.Context, string, string) (string, error) {
	f.calls++
	return f.url, f.err
}

type fakeScraper struct {
	text  string
	err   error
	calls int
}

func (f *fakeScraper) Scrape(context.Context, string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeSearcher struct {
	extraction *Extraction
	err        error
	calls      int
}

func (f *fakeSearcher) SearchAndScrape(context.Context, string, string) (*Extraction, error) {
	f.calls++
	return f.extraction, f.err
}

var song = Request{Artist: " Кино ", Song: "Группа крови "}

func TestFetchPrimary(t *testing.T) {
	resolver := &fakeResolver{url: "https://genius.com/Kino-lyrics"}
	primary := &fakeScraper{text: "[Куплет 1] Тёплое место, но улицы ждут"}
	fallback := &fakeSearcher{}
	svc := NewService(resolver, primary, fallback, nil)

	res, err := svc.Fetch(context.Background(), song)
	require.NoError(t, err)

	assert.Equal(t, "[Куплет 1]\nТёплое место, но улицы ждут", res.Lyrics)
	assert.Equal(t, StrategyPrimary, res.Strategy)
	assert.Equal(t, "https://genius.com/Kino-lyrics", res.SourceURL)
	assert.False(t, res.Cached)
	assert.Zero(t, fallback.calls)
}

func TestFetchFallsBackWhenResolverMisses(t *testing.T) {
	primary := &fakeScraper{}
	fallback := &fakeSearcher{extraction: &Extraction{
		Text:      "Тёплое место  но улицы ждут",
		SourceURL: "https://example.ru/kino",
		Strategy:  StrategyFallback,
	}}
	svc := NewService(&fakeResolver{err: ErrNotFound}, primary, fallback, nil)

	res, err := svc.Fetch(context.Background(), song)
	require.NoError(t, err)

	assert.Equal(t, StrategyFallback, res.Strategy)
	assert.Equal(t, "Тёплое место но улицы ждут", res.Lyrics)
	assert.Zero(t, primary.calls)
}

func TestFetchFallsBackWhenPrimaryPageIsEmpty(t *testing.T) {
	for name, primary := range map[string]*fakeScraper{
		"not found": {err: fmt.Errorf("wrapped: %w", ErrNotFound)},
		"empty":     {text: ""},
	} {
		t.Run(name, func(t *testing.T) {
			fallback := &fakeSearcher{extraction: &Extraction{Text: "text", Strategy: StrategyFallback}}
			svc := NewService(&fakeResolver{url: "https://genius.com/x"}, primary, fallback, nil)

			res, err := svc.Fetch(context.Background(), song)
			require.NoError(t, err)
			assert.Equal(t, StrategyFallback, res.Strategy)
			assert.Equal(t, 1, fallback.calls)
		})
	}
}

func TestFetchBothStrategiesFail(t *testing.T) {
	fallback := &fakeSearcher{err: errors.New("chrome crashed")}
	svc := NewService(&fakeResolver{err: ErrNotFound}, &fakeScraper{}, fallback, nil)

	_, err := svc.Fetch(context.Background(), song)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchPrimaryScrapeErrorIsFinal(t *testing.T) {
	fallback := &fakeSearcher{}
	primary := &fakeScraper{err: fmt.Errorf("navigating: %w", ErrScrape)}
	svc := NewService(&fakeResolver{url: "https://genius.com/x"}, primary, fallback, nil)

	_, err := svc.Fetch(context.Background(), song)
	assert.ErrorIs(t, err, ErrScrape)
	assert.Zero(t, fallback.calls)
}

func TestFetchMissingCredentialSkipsFallback(t *testing.T) {
	fallback := &fakeSearcher{}
	svc := NewService(&fakeResolver{err: config.ErrMissingCredential}, &fakeScraper{}, fallback, nil)

	_, err := svc.Fetch(context.Background(), song)
	assert.ErrorIs(t, err, config.ErrMissingCredential)
	assert.Zero(t, fallback.calls)
}

func TestFetchRejectsBlankRequest(t *testing.T) {
	resolver := &fakeResolver{}
	svc := NewService(resolver, &fakeScraper{}, &fakeSearcher{}, nil)

	_, err := svc.Fetch(context.Background(), Request{Artist: "  ", Song: "Song"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, resolver.calls)
}

func TestFetchUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(0)
	resolver := &fakeResolver{url: "https://genius.com/x"}
	svc := NewService(resolver, &fakeScraper{text: "Тёплое место"}, &fakeSearcher{}, cache)

	first, err := svc.Fetch(ctx, song)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Fetch(ctx, Request{Artist: "кино", Song: "группа крови"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Lyrics, second.Lyrics)
	assert.Equal(t, 1, resolver.calls)

	require.NoError(t, svc.Forget(ctx, song))
	_, err = svc.Fetch(ctx, song)
	require.NoError(t, err)
	assert.Equal(t, 2, resolver.calls)
}

func TestFetchIgnoresBrokenCache(t *testing.T) {
	svc := NewService(&fakeResolver{url: "u"}, &fakeScraper{text: "Слова"}, &fakeSearcher{}, brokenCache{})

	res, err := svc.Fetch(context.Background(), song)
	require.NoError(t, err)
	assert.Equal(t, "Слова", res.Lyrics)
}
