// Package config loads process configuration from the environment (and a .env
// file) plus an optional TOML file with scraper tuning.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/andybalholm/cascadia"
	"github.com/joho/godotenv"
)

// ErrMissingCredential is returned by components whose credential is not configured.
// It is checked lazily, when the component is first used.
var ErrMissingCredential = errors.New("required credential not configured")

const (
	DefaultGeniusBaseURL = "https://api.genius.com"
	DefaultOpenAIModel   = "gpt-4.1"
	DefaultQuizLocale    = "Russian"
	DefaultTuningFile    = "songquiz.toml"
)

// Config is the full process configuration.
type Config struct {
	GeniusToken   string
	GeniusBaseURL string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	QuizLocale    string

	HTTPAddr       string
	RequestTimeout time.Duration

	RedisURL      string
	RedisPassword string
	CacheTTL      time.Duration

	TursoURL   string
	TursoToken string

	TelegramToken  string
	AdminUsernames []string

	Tuning Tuning
}

// Tuning holds the scraper knobs that may be overridden from the TOML file.
type Tuning struct {
	Browser   Browser   `toml:"browser"`
	Primary   Primary   `toml:"primary"`
	WebSearch WebSearch `toml:"websearch"`
}

// Browser settings
type Browser struct {
	UserAgent     string `toml:"user_agent"`
	ChromePath    string `toml:"chrome_path"` // empty = auto-detect
	Headless      bool   `toml:"headless"`
	ScreenshotDir string `toml:"screenshot_dir"`
}

// Primary scraper settings
type Primary struct {
	ContainerSelector string `toml:"container_selector"`
	BodyWaitSeconds   int    `toml:"body_wait_seconds"`
	LyricsWaitSeconds int    `toml:"lyrics_wait_seconds"`
}

// WebSearch holds the fallback scraper settings.
type WebSearch struct {
	SearchURL          string   `toml:"search_url"`
	Keyword            string   `toml:"keyword"`
	ConsentWaitSeconds int      `toml:"consent_wait_seconds"`
	MaxCandidates      int      `toml:"max_candidates"`
	MinContainerChars  int      `toml:"min_container_chars"`
	MinLyricsChars     int      `toml:"min_lyrics_chars"`
	MinNewlines        int      `toml:"min_newlines"`
	LinkSelectors      []string `toml:"link_selectors"`
	ContainerSelectors []string `toml:"container_selectors"`
	IgnoredDomains     []string `toml:"ignored_domains"`
	JunkKeywords       []string `toml:"junk_keywords"`
}

// DefaultTuning returns the values the scrapers were calibrated with.
func DefaultTuning() Tuning {
	return Tuning{
		Browser: Browser{
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Headless:      true,
			ScreenshotDir: os.TempDir(),
		},
		Primary: Primary{
			ContainerSelector: "div[class^='Lyrics__Container']",
			BodyWaitSeconds:   20,
			LyricsWaitSeconds: 15,
		},
		WebSearch: WebSearch{
			SearchURL:          "https://www.google.com/search",
			Keyword:            "текст песни",
			ConsentWaitSeconds: 5,
			MaxCandidates:      3,
			MinContainerChars:  100,
			MinLyricsChars:     150,
			MinNewlines:        5,
			LinkSelectors: []string{
				"div.yuRUbf a",
				"div.r a",
				"div.g a",
			},
			ContainerSelectors: []string{
				"#maintxt",
				"p[itemprop='text']",
				"div.wrap2",
				"div[class*='lyrics']",
				"div[class*='song-text']",
				"article[class*='entry-content']",
				"div[data-lyrics-container='true']",
			},
			IgnoredDomains: []string{"youtube.com", "wikipedia.org", "genius.com", "google.com"},
			JunkKeywords: []string{
				"cookie", "copyright", "регистрация", "войти",
				"меню", "навигация", "согласие", "политика",
			},
		},
	}
}

// Load reads .env (if present), the environment and the tuning file.
// Missing credentials are not an error here.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		GeniusToken:    os.Getenv("GENIUS_API_TOKEN"),
		GeniusBaseURL:  getenv("GENIUS_BASE_URL", DefaultGeniusBaseURL),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:    getenv("OPENAI_MODEL", DefaultOpenAIModel),
		QuizLocale:     getenv("QUIZ_LOCALE", DefaultQuizLocale),
		HTTPAddr:       getenv("HTTP_ADDR", ":8000"),
		RedisURL:       os.Getenv("REDIS_URL"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		TursoURL:       os.Getenv("TURSO_DATABASE_URL"),
		TursoToken:     os.Getenv("TURSO_AUTH_TOKEN"),
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdminUsernames: splitList(os.Getenv("ADMIN_USERNAMES")),
		Tuning:         DefaultTuning(),
	}

	var err error
	if cfg.RequestTimeout, err = getenvDuration("REQUEST_TIMEOUT", 3*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		cfg.Tuning.Browser.ChromePath = v
	}
	if v := os.Getenv("SCREENSHOT_DIR"); v != "" {
		cfg.Tuning.Browser.ScreenshotDir = v
	}
	if v := os.Getenv("BROWSER_HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BROWSER_HEADLESS %q: %w", v, err)
		}
		cfg.Tuning.Browser.Headless = headless
	}

	if err := cfg.LoadTuning(getenv("SONGQUIZ_CONFIG", DefaultTuningFile)); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTuning overlays the TOML file at path onto cfg.Tuning. A missing file is not an error.
func (c *Config) LoadTuning(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if _, err := toml.DecodeFile(path, &c.Tuning); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Validate checks the tuning values, including that every selector compiles.
func (c *Config) Validate() error {
	ws := c.Tuning.WebSearch
	waits := []struct {
		name    string
		seconds int
	}{
		{"primary.body_wait_seconds", c.Tuning.Primary.BodyWaitSeconds},
		{"primary.lyrics_wait_seconds", c.Tuning.Primary.LyricsWaitSeconds},
		{"websearch.consent_wait_seconds", ws.ConsentWaitSeconds},
	}
	for _, w := range waits {
		if w.seconds <= 0 {
			return fmt.Errorf("%s must be positive, got %d", w.name, w.seconds)
		}
	}
	if ws.MaxCandidates <= 0 {
		return fmt.Errorf("websearch.max_candidates must be positive, got %d", ws.MaxCandidates)
	}
	if ws.MinContainerChars < 0 || ws.MinLyricsChars < 0 || ws.MinNewlines < 0 {
		return errors.New("websearch thresholds must not be negative")
	}
	if len(ws.LinkSelectors) == 0 || len(ws.ContainerSelectors) == 0 {
		return errors.New("websearch selector lists must not be empty")
	}

	selectors := append([]string{c.Tuning.Primary.ContainerSelector}, ws.LinkSelectors...)
	selectors = append(selectors, ws.ContainerSelectors...)
	for _, sel := range selectors {
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("invalid selector %q: %w", sel, err)
		}
	}
	return nil
}

// RedisEnabled reports whether the hot cache tier is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

// ArchiveEnabled reports whether the libsql archive tier is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.TursoURL != ""
}

// BotEnabled reports whether the Telegram front-end should run.
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.TrimPrefix(part, "@"))
		}
	}
	return out
}
