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
	"time"
)

// DefaultMDBListURL is the MDBList API endpoint.
const DefaultMDBListURL = "https://mdblist.com/api/"

// MDBList supplies both Rotten Tomatoes scores in one call.
type MDBList struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewMDBList creates an MDBList client. baseURL may be empty.
func NewMDBList(baseURL, apiKey string, timeout time.Duration) *MDBList {
	if baseURL == "" {
		baseURL = DefaultMDBListURL
	}
	return &MDBList{baseURL: baseURL, apiKey: apiKey, client: newHTTPClient(timeout)}
}

func (m *MDBList) Name() string { return "mdblist" }

func (m *MDBList) Sources() []Source { return []Source{SourceRTCritic, SourceRTAudience} }

type mdblistResponse struct {
	Response *bool  `json:"response"`
	Error    string `json:"error"`
	Ratings  []struct {
		Source string   `json:"source"`
		Value  *float64 `json:"value"`
	} `json:"ratings"`
}

// mdblistSources maps MDBList rating names to sources.
var mdblistSources = map[string]Source{
	"tomatoes": SourceRTCritic,
	"popcorn":  SourceRTAudience,
}

// Lookup prefers the IMDb id and falls back to the TMDB id.
func (m *MDBList) Lookup(ctx context.Context, s Subject) (map[Source]float64, error) {
	q := url.Values{"apikey": {m.apiKey}}
	switch {
	case s.IMDbID != "":
		q.Set("i", s.IMDbID)
	case s.TMDBID != "":
		q.Set("tm", s.TMDBID)
		if s.Kind == KindShow {
			q.Set("m", "show")
		} else {
			q.Set("m", "movie")
		}
	default:
		return nil, ErrNotFound
	}

	var r mdblistResponse
	if err := getJSON(ctx, m.client, m.baseURL, q, &r); err != nil {
		return nil, err
	}
	if r.Response != nil && !*r.Response {
		if r.Error == "" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mdblist: %s", r.Error)
	}

	out := make(map[Source]float64, 2)
	for _, rt := range r.Ratings {
		src, ok := mdblistSources[rt.Source]
		if !ok || rt.Value == nil || *rt.Value <= 0 {
			continue
		}
		out[src] = *rt.Value
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}
