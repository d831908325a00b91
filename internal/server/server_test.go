package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sukalov/songquiz/internal/browser/browsertest"
	"github.com/sukalov/songquiz/internal/lyrics"
	"github.com/sukalov/songquiz/internal/lyrics/genius"
	"github.com/sukalov/songquiz/internal/lyrics/websearch"
	"github.com/sukalov/songquiz/internal/quiz"
)

const songPage = "https://genius.com/Kino-gruppa-krovi-lyrics"

type fakeQuiz struct {
	set   *quiz.Set
	err   error
	calls atomic.Int32
}

func (f *fakeQuiz) Generate(context.Context, string) (*quiz.Set, error) {
	f.calls.Add(1)
	return f.set, f.err
}

func fiveQuestions() *quiz.Set {
	set := &quiz.Set{}
	for i := 1; i <= quiz.QuestionCount; i++ {
		set.Questions = append(set.Questions, quiz.Question{
			QuestionText:  fmt.Sprintf("Вопрос %d", i),
			CorrectAnswer: fmt.Sprintf("Ответ %d", i),
		})
	}
	return set
}

// geniusAPI serves a search response with a single hit by artist.
func geniusAPI(t *testing.T, artist string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprintf(w, `{"response":{"hits":[{"type":"song","result":{"path":"/Kino-gruppa-krovi-lyrics","primary_artist":{"name":%q}}}]}}`, artist)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type pipeline struct {
	handler     http.Handler
	quiz        *fakeQuiz
	geniusCalls *atomic.Int32
	browser     *browsertest.Fake
}

func newPipeline(t *testing.T, token, hitArtist string, pages map[string]string) *pipeline {
	t.Helper()
	calls := &atomic.Int32{}
	api := geniusAPI(t, hitArtist, calls)
	b := browsertest.New(pages)

	svc := lyrics.NewService(
		genius.NewResolver(token, api.URL, "test-agent"),
		genius.NewScraper(b, genius.ScraperOptions{
			ContainerSelector: "div[class^='Lyrics__Container']",
			BodyWait:          time.Second,
			LyricsWait:        time.Second,
		}),
		websearch.NewScraper(b, websearch.DefaultOptions()),
		lyrics.NewMemoryCache(0),
	)
	q := &fakeQuiz{set: fiveQuestions()}

	return &pipeline{
		handler:     New(svc, q, time.Minute).Handler(),
		quiz:        q,
		geniusCalls: calls,
		browser:     b,
	}
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/lyrics", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLyricsQuizFromPrimarySource(t *testing.T) {
	p := newPipeline(t, "token", "Кино", map[string]string{
		songPage: `<html><body><div class="Lyrics__Container-x">[Припев] Группа крови на рукаве<br>Мой порядковый номер на рукаве</div></body></html>`,
	})

	rec := post(t, p.handler, `{"artist":"Кино","song":"Группа крови"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LyricsQuizResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "[Припев]\nГруппа крови на рукаве\nМой порядковый номер на рукаве", resp.Lyrics)
	assert.Len(t, resp.Quiz.Questions, 5)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLyricsNotFoundSkipsQuiz(t *testing.T) {
	p := newPipeline(t, "token", "Аквариум", map[string]string{
		websearch.NewScraper(nil, websearch.DefaultOptions()).SearchURL("Кино", "Группа крови"): `<html><body>no results</body></html>`,
	})

	rec := post(t, p.handler, `{"artist":"Кино","song":"Группа крови"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Song not found on Genius or via Google search."}`, rec.Body.String())
	assert.Zero(t, p.quiz.calls.Load())
	assert.Equal(t, 1, p.browser.Closed())
}

func TestLyricsMissingTokenFailsBeforeNetwork(t *testing.T) {
	p := newPipeline(t, "", "Кино", nil)

	rec := post(t, p.handler, `{"artist":"Кино","song":"Группа крови"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, p.geniusCalls.Load())
	assert.Empty(t, p.browser.Opened)
	assert.Zero(t, p.quiz.calls.Load())
}

func TestLyricsPrimaryScrapeFailure(t *testing.T) {
	p := newPipeline(t, "token", "Кино", nil)
	p.browser.OpenErr = errors.New("chrome crashed")

	rec := post(t, p.handler, `{"artist":"Кино","song":"Группа крови"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"detail":"Failed to fetch lyrics page from Genius."}`, rec.Body.String())
}

func TestLyricsBadRequests(t *testing.T) {
	p := newPipeline(t, "token", "Кино", nil)

	for name, body := range map[string]string{
		"not json":     `artist=Кино`,
		"blank artist": `{"artist":"  ","song":"Группа крови"}`,
		"missing song": `{"artist":"Кино"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := post(t, p.handler, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Zero(t, p.geniusCalls.Load())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", lyrics.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", lyrics.ErrScrape), http.StatusBadGateway},
		{fmt.Errorf("x: %w", quiz.ErrGeneration), http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusInternalServerError},
		{lyrics.ErrInvalidRequest, http.StatusBadRequest},
	}
	for _, tt := range tests {
		got, detail := statusFor(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
		assert.NotContains(t, detail, "x:")
	}
}

type fakeLyrics struct {
	forgotten []lyrics.Request
}

func (f *fakeLyrics) Fetch(context.Context, lyrics.Request) (*lyrics.Result, error) {
	return &lyrics.Result{Lyrics: "la"}, nil
}

func (f *fakeLyrics) Forget(_ context.Context, req lyrics.Request) error {
	f.forgotten = append(f.forgotten, req)
	return nil
}

func TestForgetAndStatus(t *testing.T) {
	fl := &fakeLyrics{}
	h := New(fl, &fakeQuiz{err: quiz.ErrGeneration}, 0).Handler()

	req := httptest.NewRequest(http.MethodDelete, "/lyrics/cache", strings.NewReader(`{"artist":" Кино ","song":"Звезда"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, fl.forgotten, 1)
	assert.Equal(t, "Кино", fl.forgotten[0].Artist)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Server is running"}`, rec.Body.String())

	rec = post(t, h, `{"artist":"Кино","song":"Звезда"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.JSONEq(t, `{"detail":"Failed to generate quiz questions."}`, string(body))
}

func TestRequestIDPropagates(t *testing.T) {
	h := New(&fakeLyrics{}, &fakeQuiz{}, 0).Handler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
