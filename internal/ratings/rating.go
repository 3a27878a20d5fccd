// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package ratings resolves per-source ratings for a media item.
//
// Four sources are supported: TMDB, IMDb, Rotten Tomatoes critic and Rotten
// Tomatoes audience. Values embedded in Plex metadata win; a source missing
// from Plex is looked up through the external provider mapped to it. Every
// source is resolved independently, so a failing provider only leaves its
// own sources missing.
package ratings

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by providers when they have no value for an item.
var ErrNotFound = errors.New("rating not found")

// Source identifies a rating source.
type Source string

const (
	SourceTMDB       Source = "tmdb"
	SourceIMDb       Source = "imdb"
	SourceRTCritic   Source = "rt_critic"
	SourceRTAudience Source = "rt_audience"
)

// AllSources lists every source in canonical render order.
var AllSources = []Source{SourceTMDB, SourceIMDb, SourceRTCritic, SourceRTAudience}

// ParseSource validates a source name.
func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllSources {
		if src == known {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown rating source %q", s)
}

// ParseSources validates a list of names, dropping duplicates and returning
// them in canonical order.
func ParseSources(names []string) ([]Source, error) {
	seen := make(map[Source]bool, len(names))
	for _, n := range names {
		src, err := ParseSource(n)
		if err != nil {
			return nil, err
		}
		seen[src] = true
	}
	out := make([]Source, 0, len(seen))
	for _, src := range AllSources {
		if seen[src] {
			out = append(out, src)
		}
	}
	return out, nil
}

// Scale returns the native scale of the source.
func (s Source) Scale() Scale {
	switch s {
	case SourceRTCritic, SourceRTAudience:
		return ScaleHundred
	default:
		return ScaleTen
	}
}

// Label is the short text drawn when no logo asset is available.
func (s Source) Label() string {
	switch s {
	case SourceTMDB:
		return "TMDB"
	case SourceIMDb:
		return "IMDb"
	case SourceRTCritic:
		return "RT"
	case SourceRTAudience:
		return "POP"
	default:
		return strings.ToUpper(string(s))
	}
}

// Scale is the upper bound of a source's native range.
type Scale int

const (
	ScaleTen     Scale = 10
	ScaleHundred Scale = 100
)

// Origin records where a value came from.
type Origin string

const (
	OriginPlex     Origin = "plex"
	OriginExternal Origin = "external"
	OriginMissing  Origin = "missing"
)

// Rating is one source's value on its native scale.
type Rating struct {
	Value  float64 `json:"value"`
	Scale  Scale   `json:"scale"`
	Origin Origin  `json:"origin"`
}

// Resolved reports whether the rating carries a value.
func (r Rating) Resolved() bool {
	return r.Origin == OriginPlex || r.Origin == OriginExternal
}

// Missing returns the missing marker for src.
func Missing(src Source) Rating {
	return Rating{Scale: src.Scale(), Origin: OriginMissing}
}

// RatingSet maps each requested source to its rating.
type RatingSet map[Source]Rating

// AnyResolved reports whether at least one of the given sources has a value.
func (rs RatingSet) AnyResolved(sources []Source) bool {
	for _, src := range sources {
		if rs[src].Resolved() {
			return true
		}
	}
	return false
}

// Values returns resolved values keyed by source name, for snapshots.
func (rs RatingSet) Values() map[string]float64 {
	out := make(map[string]float64, len(rs))
	for src, r := range rs {
		if r.Resolved() {
			out[string(src)] = r.Value
		}
	}
	return out
}

// Kind is the Plex library type of an item.
type Kind string

const (
	KindMovie Kind = "movie"
	KindShow  Kind = "show"
)

// Subject is what the normalizer needs to know about an item.
type Subject struct {
	Title  string
	Kind   Kind
	TMDBID string
	IMDbID string

	// Embedded holds values Plex already carries, on native scales.
	Embedded map[Source]float64
}
