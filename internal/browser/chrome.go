package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/gosimple/slug"
	"github.com/sukalov/songquiz/internal/logger"
)

const screenshotTimeout = 10 * time.Second

// Options configures the Chrome sessions.
type Options struct {
	UserAgent     string
	ChromePath    string // empty = auto-detect
	Headless      bool
	ScreenshotDir string
}

// stealthScript hides the usual automation markers before any page script runs.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', {
    get: () => undefined,
});

window.chrome = {
    runtime: {},
    loadTimes: function() {},
    csi: function() {},
    app: {},
};

Object.defineProperty(navigator, 'plugins', {
    get: () => [
        { name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer', description: 'Portable Document Format' },
        { name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai', description: '' },
    ],
});

Object.defineProperty(navigator, 'languages', {
    get: () => ['ru-RU', 'ru', 'en-US', 'en'],
});
`

// Chrome implements Browser with chromedp. Every Open starts its own Chrome process.
type Chrome struct {
	opts Options
}

// NewChrome creates a Chrome browser with the given options.
func NewChrome(opts Options) *Chrome {
	if opts.ScreenshotDir == "" {
		opts.ScreenshotDir = os.TempDir()
	}
	return &Chrome{opts: opts}
}

func (c *Chrome) allocatorOptions() []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.NoSandbox,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("password-store", "basic"),
		chromedp.Flag("use-mock-keychain", true),
		chromedp.UserAgent(c.opts.UserAgent),
		chromedp.WindowSize(1920, 1080),
	}
	if c.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	}
	if c.opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.opts.ChromePath))
	}
	return allocOpts
}

// Open starts Chrome, installs the stealth script and navigates to targetURL.
// The session dies with ctx.
func (c *Chrome) Open(ctx context.Context, targetURL string) (Page, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, c.allocatorOptions()...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		logger.Debug(fmt.Sprintf("chromedp: "+format, args...))
	}))

	p := &chromePage{
		ctx:           tabCtx,
		screenshotDir: c.opts.ScreenshotDir,
		url:           targetURL,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
	}

	// the first Run must use the tab context itself: it owns the Chrome process
	err := chromedp.Run(tabCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		network.SetExtraHTTPHeaders(network.Headers(map[string]interface{}{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language":           "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7",
			"Upgrade-Insecure-Requests": "1",
		})),
		chromedp.Navigate(targetURL),
	)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("opening %s: %w", targetURL, err)
	}

	return p, nil
}

type chromePage struct {
	ctx           context.Context
	cancel        context.CancelFunc
	closeOnce     sync.Once
	screenshotDir string
	url           string
}

// run executes actions on the tab, bounded by timeout (0 = none) and by the caller's ctx.
func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(p.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) &&
		ctx.Err() == nil && p.ctx.Err() == nil {
		return ErrTimeout
	}
	return err
}

func (p *chromePage) URL() string {
	return p.url
}

func (p *chromePage) Navigate(ctx context.Context, targetURL string) error {
	if err := p.run(ctx, 0, chromedp.Navigate(targetURL)); err != nil {
		return fmt.Errorf("navigating to %s: %w", targetURL, err)
	}
	p.url = targetURL
	return nil
}

func (p *chromePage) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	err := p.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
	if errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%q after %s: %w", selector, timeout, err)
	}
	return err
}

func (p *chromePage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	by := chromedp.ByQuery
	if strings.HasPrefix(selector, "/") {
		by = chromedp.BySearch
	}
	err := p.run(ctx, timeout,
		chromedp.WaitVisible(selector, by),
		chromedp.Click(selector, by),
	)
	if errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%q after %s: %w", selector, timeout, err)
	}
	return err
}

func (p *chromePage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(e => ({
		html: e.innerHTML,
		href: (e.tagName === 'A' && e.href) ? e.href : ''
	}))`, quoted)

	var raw []struct {
		HTML string `json:"html"`
		Href string `json:"href"`
	}
	if err := p.run(ctx, 0, chromedp.Evaluate(script, &raw)); err != nil {
		return nil, fmt.Errorf("querying %q: %w", selector, err)
	}

	elements := make([]Element, len(raw))
	for i, r := range raw {
		elements[i] = Element{HTML: r.HTML, Href: r.Href}
	}
	return elements, nil
}

func (p *chromePage) Screenshot(ctx context.Context) (string, error) {
	var buf []byte
	err := p.run(ctx, screenshotTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng).Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("capturing screenshot: %w", err)
	}

	path := filepath.Join(p.screenshotDir, screenshotName(p.url, time.Now()))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("writing screenshot: %w", err)
	}
	return path, nil
}

func (p *chromePage) Close() error {
	p.closeOnce.Do(p.cancel)
	return nil
}

func screenshotName(rawURL string, at time.Time) string {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("debug-%s-%s.png", slug.Make(host), at.Format("20060102-150405"))
}
