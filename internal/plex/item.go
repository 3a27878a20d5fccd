// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package plex

import (
	"strings"

	"github.com/tomtom215/marquee/internal/ratings"
)

// Library is a Plex library section.
type Library struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"` // "movie", "show", "artist", "photo"
}

// Supported reports whether items of this library can carry rating badges.
func (l Library) Supported() bool {
	return l.Type == string(ratings.KindMovie) || l.Type == string(ratings.KindShow)
}

// Item is a movie or show as returned by /library/metadata.
type Item struct {
	RatingKey    string `json:"ratingKey"`
	Key          string `json:"key"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	Year         int    `json:"year,omitempty"`
	Thumb        string `json:"thumb,omitempty"`
	LibraryTitle string `json:"librarySectionTitle,omitempty"`
	GUID         string `json:"guid,omitempty"` // primary agent guid, legacy agents embed ids here
	Guids        []Guid `json:"Guid,omitempty"`

	// Scalar rating fields sit beside the Rating array in Plex responses and
	// must be declared so they never decode into it.
	CriticRating   float64  `json:"rating,omitempty"`
	AudienceRating float64  `json:"audienceRating,omitempty"`
	Ratings        []Rating `json:"Rating,omitempty"`
}

// Guid is one external identifier, e.g. "tmdb://603" or "imdb://tt0133093".
type Guid struct {
	ID string `json:"id"`
}

// Rating is one entry of Plex's Rating array.
type Rating struct {
	Image string  `json:"image"` // e.g. "rottentomatoes://image.rating.ripe"
	Value float64 `json:"value"`
	Type  string  `json:"type"` // "critic" or "audience"
}

// Kind maps the Plex type to a ratings.Kind.
func (it *Item) Kind() ratings.Kind {
	if it.Type == string(ratings.KindShow) {
		return ratings.KindShow
	}
	return ratings.KindMovie
}

// TMDBID returns the numeric TMDB id, or "".
func (it *Item) TMDBID() string {
	return it.externalID("tmdb://", "com.plexapp.agents.themoviedb://")
}

// IMDbID returns the "tt" prefixed IMDb id, or "".
func (it *Item) IMDbID() string {
	id := it.externalID("imdb://", "com.plexapp.agents.imdb://")
	if !strings.HasPrefix(id, "tt") {
		return ""
	}
	return id
}

func (it *Item) externalID(prefix, legacyPrefix string) string {
	for _, g := range it.Guids {
		if v, ok := strings.CutPrefix(g.ID, prefix); ok && v != "" {
			return v
		}
	}
	if v, ok := strings.CutPrefix(it.GUID, legacyPrefix); ok {
		if i := strings.IndexByte(v, '?'); i >= 0 {
			v = v[:i]
		}
		return v
	}
	return ""
}

// EmbeddedRatings decodes the Rating array into native-scale values.
// Rotten Tomatoes entries are reported by Plex on a 0-10 scale and are
// multiplied by ten. The first entry per source wins.
func (it *Item) EmbeddedRatings() map[ratings.Source]float64 {
	out := make(map[ratings.Source]float64, len(it.Ratings))
	for _, r := range it.Ratings {
		src, scale, ok := classifyRating(r)
		if !ok || r.Value <= 0 {
			continue
		}
		if _, dup := out[src]; dup {
			continue
		}
		out[src] = r.Value * scale
	}
	return out
}

func classifyRating(r Rating) (ratings.Source, float64, bool) {
	image := strings.ToLower(r.Image)
	switch {
	case r.Type == "critic" && strings.Contains(image, "rottentomatoes"):
		return ratings.SourceRTCritic, 10, true
	case r.Type == "audience" && strings.Contains(image, "rottentomatoes"):
		return ratings.SourceRTAudience, 10, true
	case r.Type == "audience" && strings.Contains(image, "imdb"):
		return ratings.SourceIMDb, 1, true
	case r.Type == "audience" && strings.Contains(image, "themoviedb"):
		return ratings.SourceTMDB, 1, true
	default:
		return "", 0, false
	}
}

// Subject projects the item into what the rating normalizer consumes.
func (it *Item) Subject() ratings.Subject {
	return ratings.Subject{
		Title:    it.Title,
		Kind:     it.Kind(),
		TMDBID:   it.TMDBID(),
		IMDbID:   it.IMDbID(),
		Embedded: it.EmbeddedRatings(),
	}
}
