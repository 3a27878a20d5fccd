// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/badge"
)

// maxJSONBody bounds decoded request bodies other than previews.
const maxJSONBody = 1 << 20

// maxPreviewBody bounds preview requests, which may carry a poster.
const maxPreviewBody = 20 << 20

// RunRequest is the body of POST /api/process, /api/restore and
// /api/fetch-fresh. Every field is optional.
type RunRequest struct {
	// Libraries by title; empty means every movie and show library.
	Libraries []string `json:"libraries" validate:"omitempty,max=50,dive,required,max=255"`

	// Force re-renders items that already have a backup.
	Force bool `json:"force"`

	// Limit caps the number of items per library. Zero is unlimited.
	Limit int `json:"limit" validate:"gte=0,lte=100000"`

	// RatingKeys restricts the run to specific items.
	RatingKeys []string `json:"rating_keys" validate:"omitempty,max=1000,dive,required,alphanum,max=32"`

	// Style overrides the saved style for this run only.
	Style *badge.Spec `json:"style,omitempty" validate:"omitempty"`
}

// SettingsRequest is the body of PUT /api/settings.
type SettingsRequest struct {
	Style badge.Spec `json:"style"`
}

// PreviewRequest is the body of POST /api/preview.
type PreviewRequest struct {
	// Style to preview; the saved style is used when absent.
	Style *badge.Spec `json:"style,omitempty" validate:"omitempty"`

	// Ratings overrides the sample values, keyed by source name.
	Ratings map[string]float64 `json:"ratings,omitempty" validate:"omitempty,dive,keys,oneof=tmdb imdb rt_critic rt_audience,endkeys,gte=0,lte=100"`

	// Poster is an optional JPEG, PNG or WebP image (base64 in JSON).
	// A synthetic gradient of Width x Height is used without one.
	Poster []byte `json:"poster,omitempty"`
	Width  int    `json:"width" validate:"omitempty,gte=100,lte=4000"`
	Height int    `json:"height" validate:"omitempty,gte=150,lte=6000"`
}

// decodeJSONBody decodes a JSON body of at most limit bytes into v. An
// empty body leaves v untouched.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}
