// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package badge

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/tomtom215/marquee/internal/ratings"
)

// Placement positions one badge, in percent of the poster.
type Placement struct {
	// X and Y anchor the badge's top-left corner.
	X float64
	Y float64

	// Width is the badge width as a share of poster width.
	Width float64
}

// Style is a validated badge configuration.
type Style struct {
	Sources    []ratings.Source
	Placements map[ratings.Source]Placement
	Font       Font
	Color      color.NRGBA
	Opacity    uint8
	FontScale  float64
	LogoScale  float64
}

// Gold is the default rating text color.
var Gold = color.NRGBA{R: 255, G: 215, B: 0, A: 255}

// DefaultPlacements lays the four badges out in a row along the top edge.
func DefaultPlacements() map[ratings.Source]Placement {
	return map[ratings.Source]Placement{
		ratings.SourceTMDB:       {X: 2, Y: 2, Width: 14},
		ratings.SourceIMDb:       {X: 18, Y: 2, Width: 14},
		ratings.SourceRTCritic:   {X: 34, Y: 2, Width: 14},
		ratings.SourceRTAudience: {X: 50, Y: 2, Width: 14},
	}
}

// DefaultStyle enables all sources with gold text on a half-opaque panel.
func DefaultStyle() Style {
	return Style{
		Sources:    append([]ratings.Source(nil), ratings.AllSources...),
		Placements: DefaultPlacements(),
		Font:       DefaultFont,
		Color:      Gold,
		Opacity:    128,
		FontScale:  1,
		LogoScale:  1,
	}
}

// Enabled reports whether src is drawn.
func (s Style) Enabled(src ratings.Source) bool {
	for _, e := range s.Sources {
		if e == src {
			return true
		}
	}
	return false
}

// Placement returns the placement for src, falling back to the default.
func (s Style) Placement(src ratings.Source) Placement {
	if p, ok := s.Placements[src]; ok {
		return p
	}
	return DefaultPlacements()[src]
}

// Spec is the wire and config form of Style.
type Spec struct {
	Sources    []string                 `json:"sources" koanf:"sources" validate:"omitempty,dive,oneof=tmdb imdb rt_critic rt_audience"`
	Placements map[string]PlacementSpec `json:"placements,omitempty" koanf:"placements" validate:"omitempty,dive"`
	Font       string                   `json:"font" koanf:"font" validate:"omitempty,badgefont"`
	Color      string                   `json:"color" koanf:"color" validate:"omitempty,badgecolor"`
	Opacity    int                      `json:"opacity" koanf:"opacity" validate:"gte=0,lte=255"`
	FontScale  float64                  `json:"font_scale" koanf:"font_scale" validate:"gte=0,lte=5"`
	LogoScale  float64                  `json:"logo_scale" koanf:"logo_scale" validate:"gte=0,lte=5"`
}

// PlacementSpec is the wire form of Placement.
type PlacementSpec struct {
	X     float64 `json:"x" koanf:"x" validate:"gte=0,lte=100"`
	Y     float64 `json:"y" koanf:"y" validate:"gte=0,lte=100"`
	Width float64 `json:"width" koanf:"width" validate:"gt=0,lte=100"`
}

// DefaultSpec is SpecFrom(DefaultStyle()).
func DefaultSpec() Spec {
	return SpecFrom(DefaultStyle())
}

// Style validates sp and converts it. Zero scales become 1 and an empty
// color becomes Gold; an empty source list stays empty (nothing drawn).
func (sp Spec) Style() (Style, error) {
	sources, err := ratings.ParseSources(sp.Sources)
	if err != nil {
		return Style{}, err
	}

	font, err := ParseFont(sp.Font)
	if err != nil {
		return Style{}, err
	}

	col := Gold
	if sp.Color != "" {
		if col, err = ParseColor(sp.Color); err != nil {
			return Style{}, err
		}
	}

	if sp.Opacity < 0 || sp.Opacity > 255 {
		return Style{}, fmt.Errorf("opacity must be between 0 and 255, got %d", sp.Opacity)
	}

	st := Style{
		Sources:    sources,
		Placements: DefaultPlacements(),
		Font:       font,
		Color:      col,
		Opacity:    uint8(sp.Opacity),
		FontScale:  orOne(sp.FontScale),
		LogoScale:  orOne(sp.LogoScale),
	}

	for name, p := range sp.Placements {
		src, err := ratings.ParseSource(name)
		if err != nil {
			return Style{}, fmt.Errorf("placements: %w", err)
		}
		if p.X < 0 || p.X > 100 || p.Y < 0 || p.Y > 100 {
			return Style{}, fmt.Errorf("placements.%s position must be within 0..100, got (%v, %v)", name, p.X, p.Y)
		}
		if p.Width <= 0 || p.Width > 100 {
			return Style{}, fmt.Errorf("placements.%s.width must be in (0, 100], got %v", name, p.Width)
		}
		st.Placements[src] = Placement(p)
	}
	return st, nil
}

// SpecFrom converts a Style back to its wire form.
func SpecFrom(s Style) Spec {
	sp := Spec{
		Sources:    make([]string, 0, len(s.Sources)),
		Placements: make(map[string]PlacementSpec, len(s.Placements)),
		Font:       s.Font.String(),
		Color:      FormatColor(s.Color),
		Opacity:    int(s.Opacity),
		FontScale:  s.FontScale,
		LogoScale:  s.LogoScale,
	}
	for _, src := range s.Sources {
		sp.Sources = append(sp.Sources, string(src))
	}
	for src, p := range s.Placements {
		sp.Placements[string(src)] = PlacementSpec(p)
	}
	return sp
}

func orOne(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}

// ParseColor accepts #RRGGBB or #RRGGBBAA.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("color %q must be #RRGGBB or #RRGGBBAA", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// FormatColor renders c as #RRGGBBAA.
func FormatColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}
