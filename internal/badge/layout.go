// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package badge

import (
	"image"

	"github.com/tomtom215/marquee/internal/ratings"
)

// AspectRatio is badge height divided by badge width.
const AspectRatio = 1.4

// Layout maps each enabled source to its badge rectangle on a w×h poster.
//
// Anchors are clamped to [0, 100] percent before scaling, but the badge
// size is not subtracted from the upper bound: a badge anchored near the
// right or bottom edge extends past the poster and is clipped when drawn.
// Badges are placed independently and may overlap.
func Layout(style Style, w, h int) map[ratings.Source]image.Rectangle {
	rects := make(map[ratings.Source]image.Rectangle, len(style.Sources))
	for _, src := range style.Sources {
		p := style.Placement(src)

		bw := int(p.Width * float64(w) / 100)
		if bw < 1 {
			bw = 1
		}
		bh := int(float64(bw) * AspectRatio)

		x := int(clampPercent(p.X) * float64(w) / 100)
		y := int(clampPercent(p.Y) * float64(h) / 100)

		rects[src] = image.Rect(x, y, x+bw, y+bh)
	}
	return rects
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
