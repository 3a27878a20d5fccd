// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package ratings

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultOMDbURL is the OMDb API endpoint.
const DefaultOMDbURL = "http://www.omdbapi.com/"

// OMDb looks up the IMDb user rating by IMDb id.
type OMDb struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewOMDb creates an OMDb client. baseURL may be empty.
func NewOMDb(baseURL, apiKey string, timeout time.Duration) *OMDb {
	if baseURL == "" {
		baseURL = DefaultOMDbURL
	}
	return &OMDb{baseURL: baseURL, apiKey: apiKey, client: newHTTPClient(timeout)}
}

func (o *OMDb) Name() string { return "omdb" }

func (o *OMDb) Sources() []Source { return []Source{SourceIMDb} }

type omdbResponse struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	IMDBRating string `json:"imdbRating"`
}

// Lookup requires an IMDb id. OMDb answers 200 with Response "False" for
// both unknown ids and bad keys, so the error text decides which.
func (o *OMDb) Lookup(ctx context.Context, s Subject) (map[Source]float64, error) {
	if s.IMDbID == "" {
		return nil, ErrNotFound
	}

	var r omdbResponse
	q := url.Values{"i": {s.IMDbID}, "apikey": {o.apiKey}}
	if err := getJSON(ctx, o.client, o.baseURL, q, &r); err != nil {
		return nil, err
	}

	if r.Response == "False" {
		if strings.Contains(strings.ToLower(r.Error), "not found") {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("omdb: %s", r.Error)
	}
	if r.IMDBRating == "" || r.IMDBRating == "N/A" {
		return nil, ErrNotFound
	}

	v, err := strconv.ParseFloat(r.IMDBRating, 64)
	if err != nil {
		return nil, fmt.Errorf("omdb: parse imdbRating %q: %w", r.IMDBRating, err)
	}
	return map[Source]float64{SourceIMDb: v}, nil
}
