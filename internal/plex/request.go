// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package plex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/breaker"
	"github.com/tomtom215/marquee/internal/metrics"
)

// maxBodySize caps poster downloads.
const maxBodySize = 32 << 20

// requestConfig holds configuration for building HTTP requests
type requestConfig struct {
	operation   string // metrics label
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	acceptJSON  bool
}

// response is a fully read Plex reply.
type response struct {
	status      int
	contentType string
	body        []byte
}

// do executes a Plex request through the circuit breaker. Any 2xx status is
// success; 404 maps to ErrNotFound.
func (c *Client) do(ctx context.Context, cfg requestConfig) (*response, error) {
	resp, err := breaker.Do(c.breaker, func() (*response, error) {
		return c.doRequest(ctx, cfg)
	})

	outcome := "success"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case breaker.IsRejection(err):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	}
	metrics.PlexRequests.WithLabelValues(cfg.operation, outcome).Inc()

	return resp, err
}

func (c *Client) doRequest(ctx context.Context, cfg requestConfig) (*response, error) {
	var body io.Reader = http.NoBody
	if cfg.body != nil {
		body = bytes.NewReader(cfg.body)
	}

	req, err := http.NewRequestWithContext(ctx, cfg.method, c.baseURL+cfg.path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-Plex-Token", c.token)
	if cfg.acceptJSON {
		req.Header.Set("Accept", "application/json")
	}
	if cfg.contentType != "" {
		req.Header.Set("Content-Type", cfg.contentType)
	}
	if len(cfg.query) > 0 {
		req.URL.RawQuery = cfg.query.Encode()
	}

	resp, err := c.doRequestWithRateLimit(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cfg.path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(data) > maxBodySize {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", cfg.path, maxBodySize)
	}
	return &response{status: resp.StatusCode, contentType: resp.Header.Get("Content-Type"), body: data}, nil
}

// doJSONRequest is a convenience wrapper for JSON GET requests.
func (c *Client) doJSONRequest(ctx context.Context, operation, path string, query url.Values, result interface{}) error {
	resp, err := c.do(ctx, requestConfig{
		operation:  operation,
		method:     http.MethodGet,
		path:       path,
		query:      query,
		acceptJSON: true,
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
