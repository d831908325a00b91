// Package browser drives a headless Chrome that passes for an ordinary desktop
// browser. Sessions are short lived: one per scrape attempt, always closed.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sukalov/songquiz/internal/logger"
)

// ErrTimeout is returned when a wait condition is not met in time.
var ErrTimeout = errors.New("timed out waiting for page condition")

// Element is the content of one matched DOM node.
type Element struct {
	HTML string // innerHTML
	Href string // resolved href for links, empty otherwise
}

// Browser opens page sessions.
type Browser interface {
	Open(ctx context.Context, url string) (Page, error)
}

// Page is an open browser session. Close must be called on every exit path.
type Page interface {
	// URL returns the last URL navigated to.
	URL() string

	Navigate(ctx context.Context, url string) error

	// WaitReady waits until selector matches, or fails with ErrTimeout.
	WaitReady(ctx context.Context, selector string, timeout time.Duration) error

	// Click waits for selector (CSS, or XPath when it starts with "/") to become
	// visible and clicks it. Fails with ErrTimeout when it never shows up.
	Click(ctx context.Context, selector string, timeout time.Duration) error

	// QueryAll returns every element matching the CSS selector, in DOM order.
	QueryAll(ctx context.Context, selector string) ([]Element, error)

	// Screenshot saves a PNG of the viewport and returns its path.
	Screenshot(ctx context.Context) (string, error)

	Close() error
}

// Capture saves a screenshot of page for debugging and logs where it went.
// Screenshot failures are logged and otherwise ignored.
func Capture(ctx context.Context, page Page, reason string) {
	path, err := page.Screenshot(ctx)
	if err != nil {
		logger.Warn(fmt.Sprintf("%s: screenshot of %s failed: %v", reason, page.URL(), err))
		return
	}
	logger.Info(fmt.Sprintf("%s: screenshot of %s saved to %s", reason, page.URL(), path))
}
