// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"fmt"
	"image"
	"image/color"
	"net/http"
	"strconv"

	"github.com/tomtom215/marquee/internal/badge"
	"github.com/tomtom215/marquee/internal/ratings"
)

// Synthetic poster size when no poster is supplied.
const (
	previewWidth  = 1000
	previewHeight = 1500
)

// sampleRatings shows one fresh and one rotten Rotten Tomatoes glyph.
var sampleRatings = map[ratings.Source]float64{
	ratings.SourceTMDB:       7.8,
	ratings.SourceIMDb:       8.1,
	ratings.SourceRTCritic:   92,
	ratings.SourceRTAudience: 54,
}

// Preview renders the style onto a poster and returns a PNG. It uses the
// same renderer as a real run.
// POST /api/preview
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := decodeJSONBody(w, r, maxPreviewBody, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	spec := h.savedSpec(r.Context())
	if req.Style != nil {
		spec = *req.Style
	}
	style, err := spec.Style()
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	set, err := previewRatings(req.Ratings)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	var poster image.Image
	if len(req.Poster) > 0 {
		poster, _, err = badge.Decode(req.Poster)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "Poster is not a JPEG, PNG or WebP image", nil)
			return
		}
	} else {
		width, height := req.Width, req.Height
		if width == 0 {
			width = previewWidth
		}
		if height == 0 {
			height = previewHeight
		}
		poster = syntheticPoster(width, height)
	}

	out, err := h.renderer.Compose(poster, set, style)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to render preview", err)
		return
	}
	data, err := badge.EncodeBytes(out, badge.FormatPNG, 0)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to encode preview", err)
		return
	}

	w.Header().Set("Content-Type", badge.FormatPNG.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// previewRatings merges overrides into the sample values. Values must fit
// the source's native scale.
func previewRatings(overrides map[string]float64) (ratings.RatingSet, error) {
	values := make(map[ratings.Source]float64, len(sampleRatings))
	for src, v := range sampleRatings {
		values[src] = v
	}
	for name, v := range overrides {
		src, err := ratings.ParseSource(name)
		if err != nil {
			return nil, err
		}
		if v > float64(src.Scale()) {
			return nil, fmt.Errorf("%s rating %.1f exceeds %d", src, v, src.Scale())
		}
		values[src] = v
	}

	set := make(ratings.RatingSet, len(values))
	for src, v := range values {
		set[src] = ratings.Rating{Value: v, Scale: src.Scale(), Origin: ratings.OriginExternal}
	}
	return set, nil
}

// syntheticPoster is a dark vertical gradient.
func syntheticPoster(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		t := float64(y) / float64(h)
		c := color.NRGBA{
			R: uint8(30 + 40*t),
			G: uint8(40 + 20*t),
			B: uint8(70 - 40*t),
			A: 255,
		}
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < len(row); x += 4 {
			row[x], row[x+1], row[x+2], row[x+3] = c.R, c.G, c.B, c.A
		}
	}
	return img
}
