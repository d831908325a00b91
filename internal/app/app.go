// Package app wires the lyrics pipeline, quiz generator and storage from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sukalov/songquiz/internal/browser"
	"github.com/sukalov/songquiz/internal/config"
	"github.com/sukalov/songquiz/internal/db"
	"github.com/sukalov/songquiz/internal/logger"
	"github.com/sukalov/songquiz/internal/lyrics"
	"github.com/sukalov/songquiz/internal/lyrics/genius"
	"github.com/sukalov/songquiz/internal/lyrics/websearch"
	"github.com/sukalov/songquiz/internal/quiz"
	"github.com/sukalov/songquiz/internal/redis"
	"github.com/sukalov/songquiz/internal/state"
)

const connectTimeout = 10 * time.Second

// Options changes how the app is assembled.
type Options struct {
	// NoCache skips every cache tier.
	NoCache bool
}

// App holds the assembled components. Optional ones are nil when not configured.
type App struct {
	Config *config.Config
	Lyrics *lyrics.Service
	Quiz   *quiz.Generator

	Games    *db.Games
	Sessions *redis.SessionStore

	closers []func() error
}

// New assembles the app. Unreachable storage is logged and left out.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	chrome := browser.NewChrome(browser.Options{
		UserAgent:     cfg.Tuning.Browser.UserAgent,
		ChromePath:    cfg.Tuning.Browser.ChromePath,
		Headless:      cfg.Tuning.Browser.Headless,
		ScreenshotDir: cfg.Tuning.Browser.ScreenshotDir,
	})

	var cache lyrics.Cache
	if !opts.NoCache {
		cache = a.cache(ctx)
	}

	a.Lyrics = lyrics.NewService(
		genius.NewResolver(cfg.GeniusToken, cfg.GeniusBaseURL, cfg.Tuning.Browser.UserAgent),
		genius.NewScraper(chrome, genius.ScraperOptions{
			ContainerSelector: cfg.Tuning.Primary.ContainerSelector,
			BodyWait:          time.Duration(cfg.Tuning.Primary.BodyWaitSeconds) * time.Second,
			LyricsWait:        time.Duration(cfg.Tuning.Primary.LyricsWaitSeconds) * time.Second,
		}),
		websearch.NewScraper(chrome, websearch.FromTuning(cfg.Tuning.WebSearch)),
		cache,
	)
	a.Quiz = quiz.NewGenerator(quiz.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL), cfg.OpenAIModel, cfg.QuizLocale)

	if cfg.GeniusToken == "" {
		logger.Warn("GENIUS_API_TOKEN is not set, lyrics requests will fail")
	}
	if cfg.OpenAIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set, quiz generation will fail")
	}
	return a, nil
}

// cache builds the tiers: memory, then redis, then the libsql archive.
func (a *App) cache(ctx context.Context) lyrics.Cache {
	cfg := a.Config
	tiers := []lyrics.Tier{{Name: "memory", Cache: lyrics.NewMemoryCache(cfg.CacheTTL)}}

	if cfg.RedisEnabled() {
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		hot, err := redis.NewLyricsCache(connectCtx, cfg.RedisURL, cfg.RedisPassword, cfg.CacheTTL)
		cancel()
		if err != nil {
			logger.LogWithErr("redis unavailable, continuing without it", err)
		} else {
			logger.Success("lyrics cache connected to redis")
			tiers = append(tiers, lyrics.Tier{Name: "redis", Cache: hot})
			a.Sessions = hot.Sessions()
			a.closers = append(a.closers, hot.Close)
		}
	}

	if cfg.ArchiveEnabled() {
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		database, err := db.Open(connectCtx, cfg.TursoURL, cfg.TursoToken)
		cancel()
		if err != nil {
			logger.LogWithErr("database unavailable, continuing without it", err)
		} else {
			logger.Success("lyrics archive connected to libsql")
			tiers = append(tiers, lyrics.Tier{Name: "archive", Cache: db.NewArchive(database)})
			a.Games = db.NewGames(database)
			a.closers = append(a.closers, database.Close)
		}
	}

	tiered := lyrics.NewTiered(tiers...)
	logger.Info(fmt.Sprintf("lyrics cache running with %d tiers", tiered.Len()))
	return tiered
}

// SessionStore returns the session store, or nil when redis is not connected.
func (a *App) SessionStore() state.Store {
	if a.Sessions == nil {
		return nil
	}
	return a.Sessions
}

// Close releases storage connections.
func (a *App) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			logger.Warn(fmt.Sprintf("error closing connection: %v", err))
		}
	}
}
