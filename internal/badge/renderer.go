// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package badge

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/tomtom215/marquee/internal/ratings"
)

// Renderer composites rating badges onto posters. It holds no per-call
// state and is safe for concurrent use.
type Renderer struct {
	fonts *FontSet
	logos *Logos
}

// NewRenderer creates a renderer. Nil arguments fall back to embedded
// fonts and text labels.
func NewRenderer(fonts *FontSet, logos *Logos) *Renderer {
	if fonts == nil {
		fonts = NewFontSet("")
	}
	if logos == nil {
		logos = NewLogos(nil)
	}
	return &Renderer{fonts: fonts, logos: logos}
}

// Compose lays out and renders badges for every enabled, resolved source.
func (r *Renderer) Compose(poster image.Image, set ratings.RatingSet, style Style) (*image.NRGBA, error) {
	b := poster.Bounds()
	return r.Render(poster, set, Layout(style, b.Dx(), b.Dy()), style)
}

// Render draws one badge per source that is enabled in style, resolved in
// set and present in rects. The poster is never modified; a new image of
// the same dimensions is returned. Badges that overflow the poster edge are
// clipped.
func (r *Renderer) Render(poster image.Image, set ratings.RatingSet, rects map[ratings.Source]image.Rectangle, style Style) (*image.NRGBA, error) {
	out := imaging.Clone(poster)

	for _, src := range ratings.AllSources {
		if !style.Enabled(src) {
			continue
		}
		rating, ok := set[src]
		if !ok || !rating.Resolved() {
			continue
		}
		rect, ok := rects[src]
		if !ok || rect.Empty() {
			continue
		}

		tile, err := r.badge(src, rating, rect.Dx(), rect.Dy(), style)
		if err != nil {
			return nil, fmt.Errorf("render %s badge: %w", src, err)
		}
		draw.Draw(out, rect, tile, image.Point{}, draw.Over)
	}
	return out, nil
}

// badge renders a single w x h tile: rounded translucent panel, logo in the
// upper part and the formatted value below it.
func (r *Renderer) badge(src ratings.Source, rating ratings.Rating, w, h int, style Style) (image.Image, error) {
	tile := newTile(w, h, style.Opacity)

	pad := w * 6 / 100
	inner := image.Rect(pad, pad, w-pad, h-pad)
	if inner.Empty() {
		inner = image.Rect(0, 0, w, h)
	}
	split := inner.Min.Y + inner.Dy()*55/100
	logoBox := image.Rect(inner.Min.X, inner.Min.Y, inner.Max.X, split)
	textBox := image.Rect(inner.Min.X, split, inner.Max.X, inner.Max.Y)

	key := LogoKey(src, rating.Value)
	if logo, ok := r.logos.Get(key); ok {
		placeLogo(tile, logo, logoBox, style.LogoScale*logoBoost(key))
	} else if err := r.text(tile, src.Label(), logoBox, style.Font, labelColor, style.FontScale, 0); err != nil {
		return nil, err
	}

	shadow := w / 100
	if shadow < 1 {
		shadow = 1
	}
	if err := r.text(tile, FormatValue(rating), textBox, style.Font, style.Color, style.FontScale, shadow); err != nil {
		return nil, err
	}
	return tile.Image(), nil
}

func (r *Renderer) text(dc *gg.Context, s string, box image.Rectangle, f Font, fg color.Color, scale float64, shadow int) error {
	if box.Empty() {
		return nil
	}
	size := float64(box.Dy()) * 0.6 * scale
	face, err := fitText(r.fonts, f, s, size, box.Dx())
	if err != nil {
		return err
	}
	defer face.Close()

	drawCenteredText(dc, face, s, box, fg, shadow)
	return nil
}

// placeLogo scales logo to fit box, preserving aspect ratio, then applies
// scale and centers it. A logo scaled past the box is clipped to the tile.
func placeLogo(dc *gg.Context, logo image.Image, box image.Rectangle, scale float64) {
	lb := logo.Bounds()
	if lb.Empty() || box.Empty() {
		return
	}
	fit := float64(box.Dx()) / float64(lb.Dx())
	if hf := float64(box.Dy()) / float64(lb.Dy()); hf < fit {
		fit = hf
	}
	w := int(float64(lb.Dx()) * fit * scale)
	h := int(float64(lb.Dy()) * fit * scale)
	if w < 1 || h < 1 {
		return
	}

	scaled := imaging.Resize(logo, w, h, imaging.Lanczos)
	x := box.Min.X + (box.Dx()-w)/2
	y := box.Min.Y + (box.Dy()-h)/2
	dc.DrawImage(scaled, x, y)
}
