package genius

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sukalov/songquiz/internal/logger"
)

// client is the HTTP client for the Genius API
type client struct {
	httpClient *http.Client
	userAgent  string
}

// newClient creates a new Genius HTTP client
func newClient(userAgent string) *client {
	return &client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
					MaxVersion: tls.VersionTLS13,
				},
				DisableCompression: true,
			},
		},
		userAgent: userAgent,
	}
}

// get fetches url with a bearer token and returns the decompressed body.
func (c *client) get(ctx context.Context, url, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to call Genius\nURL: %s\nError: %v", url, err))
		return nil, fmt.Errorf("failed to call genius: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error(fmt.Sprintf("Genius returned an error\nURL: %s\nStatus: %d", url, resp.StatusCode))
		return nil, fmt.Errorf("genius search failed with status %d", resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if strings.Contains(resp.Header.Get("Content-Encoding"), "gzip") {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
