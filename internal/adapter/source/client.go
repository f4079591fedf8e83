package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/postbrowser/internal/domain"
)

// maxErrorBody bounds how much of a failed response is kept for logging
const maxErrorBody = 512

// Client fetches the post collection over HTTP
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a collection client for url.
// A zero timeout leaves the transport default in place.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// URL returns the collection URL this client fetches
func (c *Client) URL() string {
	return c.url
}

// ListPosts performs a single GET of the collection.
// There is no retry; every failure wraps domain.ErrFetchFailed.
func (c *Client) ListPosts(ctx context.Context) ([]domain.Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", domain.ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	c.logger.Debug("collection request", "url", c.url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.logger.Debug("collection request cancelled", "url", c.url)
		} else {
			c.logger.Error("collection request failed", "url", c.url, "error", err)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("collection request error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: %d", domain.ErrUnexpectedStatus, resp.StatusCode)
	}

	var dtos []PostDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		c.logger.Error("failed to parse collection", "url", c.url, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedBody, err)
	}

	c.logger.Info("collection fetched", "count", len(dtos), "elapsed", time.Since(start))
	return MapPosts(dtos), nil
}
