// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package ratings

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTMDBURL is the TMDB v3 API root.
const DefaultTMDBURL = "https://api.themoviedb.org/3"

// TMDB looks up vote_average for movies and shows.
type TMDB struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewTMDB creates a TMDB client. baseURL may be empty.
func NewTMDB(baseURL, apiKey string, timeout time.Duration) *TMDB {
	if baseURL == "" {
		baseURL = DefaultTMDBURL
	}
	return &TMDB{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  newHTTPClient(timeout),
	}
}

func (t *TMDB) Name() string { return "tmdb" }

func (t *TMDB) Sources() []Source { return []Source{SourceTMDB} }

type tmdbDetails struct {
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
}

type tmdbFind struct {
	MovieResults []tmdbDetails `json:"movie_results"`
	TVResults    []tmdbDetails `json:"tv_results"`
}

// Lookup resolves by TMDB id, falling back to /find with the IMDb id.
// A vote_average of 0 means TMDB has no votes and is reported as not found.
func (t *TMDB) Lookup(ctx context.Context, s Subject) (map[Source]float64, error) {
	q := url.Values{"api_key": {t.apiKey}}

	var d tmdbDetails
	switch {
	case s.TMDBID != "":
		if err := getJSON(ctx, t.client, t.baseURL+"/"+tmdbKind(s.Kind)+"/"+url.PathEscape(s.TMDBID), q, &d); err != nil {
			return nil, err
		}
	case s.IMDbID != "":
		q.Set("external_source", "imdb_id")
		var f tmdbFind
		if err := getJSON(ctx, t.client, t.baseURL+"/find/"+url.PathEscape(s.IMDbID), q, &f); err != nil {
			return nil, err
		}
		results := f.MovieResults
		if s.Kind == KindShow {
			results = f.TVResults
		}
		if len(results) == 0 {
			return nil, ErrNotFound
		}
		d = results[0]
	default:
		return nil, ErrNotFound
	}

	if d.VoteAverage <= 0 {
		return nil, ErrNotFound
	}
	return map[Source]float64{SourceTMDB: d.VoteAverage}, nil
}

func tmdbKind(k Kind) string {
	if k == KindShow {
		return "tv"
	}
	return "movie"
}
