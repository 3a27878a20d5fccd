// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package badge

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

var (
	shadowColor = color.NRGBA{A: 200}
	labelColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// newTile returns a w x h drawing context holding the badge panel: a
// rounded rectangle filled with translucent black.
func newTile(w, h int, opacity uint8) *gg.Context {
	dc := gg.NewContext(w, h)
	if opacity == 0 {
		return dc
	}
	fw, fh := float64(w), float64(h)
	dc.DrawRoundedRectangle(0, 0, fw, fh, fw/10)
	dc.SetColor(color.NRGBA{A: opacity})
	dc.Fill()
	return dc
}

// drawCenteredText writes text centered in box with a drop shadow offset
// by shadow pixels down and to the right.
func drawCenteredText(dc *gg.Context, face font.Face, text string, box image.Rectangle, fg color.Color, shadow int) {
	dc.SetFontFace(face)
	cx := float64(box.Min.X) + float64(box.Dx())/2
	cy := float64(box.Min.Y) + float64(box.Dy())/2

	if shadow > 0 {
		off := float64(shadow)
		dc.SetColor(shadowColor)
		dc.DrawStringAnchored(text, cx+off, cy+off, 0.5, 0.5)
	}
	dc.SetColor(fg)
	dc.DrawStringAnchored(text, cx, cy, 0.5, 0.5)
}

// fitText returns the largest face no bigger than size whose rendering of
// text fits within maxWidth. The caller closes the returned face.
func fitText(fonts *FontSet, f Font, text string, size float64, maxWidth int) (font.Face, error) {
	for {
		face, err := fonts.Face(f, size)
		if err != nil {
			return nil, err
		}
		if size <= 4 || font.MeasureString(face, text).Ceil() <= maxWidth {
			return face, nil
		}
		_ = face.Close()
		size *= 0.9
	}
}
