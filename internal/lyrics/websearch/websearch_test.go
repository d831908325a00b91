package websearch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sukalov/songquiz/internal/browser/browsertest"
	"github.com/sukalov/songquiz/internal/lyrics"
)

var verses = []string{
	"Тёплое место, но улицы ждут",
	"Отпечатков наших ног",
	"Звёздная пыль на сапогах",
	"Мягкое кресло, клетчатый плед",
	"Не нажатый вовремя курок",
	"Солнечный день в ослепительных снах",
	"Группа крови на рукаве",
	"Мой порядковый номер на рукаве",
}

func lyricsPage(container string, extra ...string) string {
	lines := append(append([]string{}, verses...), extra...)
	return `<html><body><nav>Главная</nav>` + container + strings.Join(lines, "<br>") + `</div></body></html>`
}

func resultsPage(selector string, hrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="search">`)
	for _, href := range hrefs {
		b.WriteString(`<div class="` + selector + `"><a href="` + href + `"><h3>result</h3></a></div>`)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func TestSearchAndScrapeFirstPlausibleCandidate(t *testing.T) {
	s := NewScraper(nil, DefaultOptions())
	searchURL := s.SearchURL("Кино", "Группа крови")

	b := browsertest.New(map[string]string{
		searchURL: resultsPage("yuRUbf",
			"https://www.youtube.com/watch?v=1",
			"https://short.example/kino",
			"https://junk.example/kino",
			"https://good.example/kino",
			"https://late.example/kino",
		),
		"https://short.example/kino": `<html><body><div class="lyrics">Группа крови</div></body></html>`,
		"https://junk.example/kino":  lyricsPage(`<div class="song-text">`, "Политика конфиденциальности"),
		"https://good.example/kino":  lyricsPage(`<div id="maintxt">`),
		"https://late.example/kino":  lyricsPage(`<div id="maintxt">`),
	})
	b.Clickable[consentButton] = true
	s.browser = b

	got, err := s.SearchAndScrape(context.Background(), "Кино", "Группа крови")
	require.NoError(t, err)

	assert.Equal(t, strings.Join(verses, "\n"), got.Text)
	assert.Equal(t, "https://good.example/kino", got.SourceURL)
	assert.Equal(t, lyrics.StrategyFallback, got.Strategy)

	assert.Equal(t, []string{consentButton}, b.Clicked)
	assert.NotContains(t, b.Visited, "https://late.example/kino")
	assert.NotContains(t, b.Visited, "https://www.youtube.com/watch?v=1")
	assert.Equal(t, 1, b.Closed())
}

func TestSearchAndScrapeLaterLinkSelector(t *testing.T) {
	s := NewScraper(nil, DefaultOptions())
	searchURL := s.SearchURL("Кино", "Группа крови")

	s.browser = browsertest.New(map[string]string{
		searchURL:                  resultsPage("g", "https://good.example/kino"),
		"https://good.example/kino": lyricsPage(`<div data-lyrics-container="true">`),
	})

	got, err := s.SearchAndScrape(context.Background(), "Кино", "Группа крови")
	require.NoError(t, err)
	assert.Equal(t, "https://good.example/kino", got.SourceURL)
}

func TestSearchAndScrapeNoResultLinks(t *testing.T) {
	s := NewScraper(nil, DefaultOptions())
	b := browsertest.New(map[string]string{
		s.SearchURL("Кино", "Группа крови"): `<html><body><p>captcha</p></body></html>`,
	})
	s.browser = b

	_, err := s.SearchAndScrape(context.Background(), "Кино", "Группа крови")
	assert.ErrorIs(t, err, lyrics.ErrNotFound)
	assert.Equal(t, 1, b.Screenshots)
	assert.Equal(t, 1, b.Closed())
}

func TestSearchAndScrapeNothingPlausible(t *testing.T) {
	s := NewScraper(nil, DefaultOptions())
	searchURL := s.SearchURL("Кино", "Группа крови")
	s.browser = browsertest.New(map[string]string{
		searchURL:                  resultsPage("yuRUbf", "https://junk.example/kino", "https://gone.example/kino"),
		"https://junk.example/kino": lyricsPage(`<div class="lyrics-body">`, "Принять cookie"),
	})

	_, err := s.SearchAndScrape(context.Background(), "Кино", "Группа крови")
	assert.ErrorIs(t, err, lyrics.ErrNotFound)
}

func TestSearchAndScrapeScreenshotsBrokenResultPage(t *testing.T) {
	s := NewScraper(nil, DefaultOptions())
	searchURL := s.SearchURL("Кино", "Группа крови")
	b := browsertest.New(map[string]string{
		searchURL:                   resultsPage("yuRUbf", "https://good.example/kino"),
		"https://good.example/kino": lyricsPage(`<div class="song-text">`),
	})
	b.QueryErr = map[string]error{"#maintxt": errors.New("target crashed")}
	s.browser = b

	got, err := s.SearchAndScrape(context.Background(), "Кино", "Группа крови")
	require.NoError(t, err)
	assert.Equal(t, "https://good.example/kino", got.SourceURL)
	assert.Equal(t, 1, b.Screenshots)
}

func TestSearchAndScrapeBrowserFailure(t *testing.T) {
	b := browsertest.New(nil)
	b.OpenErr = errors.New("chrome not found")

	_, err := NewScraper(b, DefaultOptions()).SearchAndScrape(context.Background(), "Кино", "Группа крови")
	assert.ErrorIs(t, err, lyrics.ErrNotFound)
}

func TestSearchURL(t *testing.T) {
	s := NewScraper(nil, DefaultOptions())
	assert.Equal(t,
		"https://www.google.com/search?q=%D0%9A%D0%B8%D0%BD%D0%BE+Star+%D1%82%D0%B5%D0%BA%D1%81%D1%82+%D0%BF%D0%B5%D1%81%D0%BD%D0%B8",
		s.SearchURL("Кино", "Star"))
}

func TestPlausible(t *testing.T) {
	opts := DefaultOptions()
	newlines := strings.Repeat("\n", 6)

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"exactly the minimum length", strings.Repeat("а", 144) + newlines, false},
		{"one rune over the minimum", strings.Repeat("а", 145) + newlines, true},
		{"too few lines", strings.Repeat("а", 300) + strings.Repeat("\n", 5), false},
		{"junk keyword in any case", strings.Repeat("а", 200) + newlines + "COOKIE", false},
		{"cyrillic junk keyword", strings.Repeat("а", 200) + newlines + "Войти", false},
		{"real lyrics", strings.Join(verses, "\n"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, opts.Plausible(tt.text))
		})
	}
}

func TestFilterCandidates(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxCandidates = 2
	s := NewScraper(nil, opts)

	got := s.filter(elements("", "https://ru.wikipedia.org/wiki/Kino", "https://a.example", "https://genius.com/x", "https://b.example", "https://c.example"))

	require.Len(t, got, 2)
	assert.Equal(t, "https://a.example", got[0].URL)
	assert.Equal(t, "https://b.example", got[1].URL)
}
