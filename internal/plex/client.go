// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
client.go - Plex Media Server API Client

Client Features:
  - HTTP client with an explicit timeout (30s default)
  - X-Plex-Token authentication on every request
  - Automatic HTTP 429 handling with exponential backoff
  - Circuit breaker shared by every call

Related Files:
  - request.go: request building and status handling
  - library.go: sections, items and metadata
  - poster.go: poster download, upload and selection
  - item.go: Guid and Rating array parsing
*/

//nolint:staticcheck // File documentation, not package doc
package plex

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/marquee/internal/breaker"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
)

// ErrNotFound is returned when Plex answers 404 for an item or section.
var ErrNotFound = errors.New("plex: not found")

// DefaultTimeout bounds every Plex HTTP call.
const DefaultTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	Timeout  time.Duration
	PageSize int
	Breaker  *breaker.Settings

	// BaseRetryDelay is the first 429 backoff step. Tests shorten it.
	BaseRetryDelay time.Duration
}

// Client talks to one Plex Media Server.
type Client struct {
	baseURL        string
	token          string
	httpClient     *http.Client
	pageSize       int
	baseRetryDelay time.Duration
	breaker        *breaker.Breaker
}

// NewClient creates a Plex client.
//
// Parameters:
//   - baseURL: Plex Media Server URL (e.g., "http://localhost:32400")
//   - token: X-Plex-Token for authentication
func NewClient(baseURL, token string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 200
	}
	if opts.BaseRetryDelay <= 0 {
		opts.BaseRetryDelay = time.Second
	}
	bs := breaker.DefaultSettings()
	if opts.Breaker != nil {
		bs = *opts.Breaker
	}

	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		token:          token,
		httpClient:     &http.Client{Timeout: opts.Timeout},
		pageSize:       opts.PageSize,
		baseRetryDelay: opts.BaseRetryDelay,
		breaker: breaker.New("plex", bs, func(err error) bool {
			return errors.Is(err, ErrNotFound)
		}),
	}
}

// BreakerState returns the circuit breaker state for health reporting.
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

// doRequestWithRateLimit executes req, retrying on HTTP 429.
//
//   - Max 5 retry attempts
//   - Exponential backoff: 1s, 2s, 4s, 8s, 16s
//   - Respects Retry-After (seconds) when present
func (c *Client) doRequestWithRateLimit(req *http.Request) (*http.Response, error) {
	const maxRetries = 5

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewind request body: %w", err)
			}
			req.Body = body
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		resp.Body.Close()
		metrics.PlexRateLimited.Inc()

		if attempt == maxRetries {
			return nil, fmt.Errorf("rate limit exceeded after %d retries", maxRetries)
		}

		retryDelay := c.baseRetryDelay * (1 << attempt)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				retryDelay = seconds
			}
		}

		logging.Warn().Dur("retry_delay", retryDelay).Int("attempt", attempt+1).Int("max_retries", maxRetries).Msg("Plex API rate limited (HTTP 429), retrying")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("unreachable code: retry loop should return or error")
}
