// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package badge

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tomtom215/marquee/internal/ratings"
)

func TestLogoKey_FreshThreshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src   ratings.Source
		value float64
		want  string
	}{
		{ratings.SourceRTCritic, 59, LogoRTRotten},
		{ratings.SourceRTCritic, 59.4, LogoRTRotten},
		{ratings.SourceRTCritic, 59.5, LogoRTFresh},
		{ratings.SourceRTCritic, 60, LogoRTFresh},
		{ratings.SourceRTCritic, 100, LogoRTFresh},
		{ratings.SourceRTAudience, 59, LogoRTAudienceRotten},
		{ratings.SourceRTAudience, 60, LogoRTAudienceFresh},
		{ratings.SourceTMDB, 3, LogoTMDB},
		{ratings.SourceIMDb, 9.9, LogoIMDb},
	}
	for _, tt := range tests {
		if got := LogoKey(tt.src, tt.value); got != tt.want {
			t.Errorf("LogoKey(%s, %v) = %s, want %s", tt.src, tt.value, got, tt.want)
		}
	}
}

func TestLogoBoost(t *testing.T) {
	t.Parallel()

	if got := logoBoost(LogoRTAudienceFresh); got != 1.2 {
		t.Errorf("boost(audience fresh) = %v, want 1.2", got)
	}
	if got := logoBoost(LogoRTAudienceRotten); got != 1.3 {
		t.Errorf("boost(audience rotten) = %v, want 1.3", got)
	}
	if got := logoBoost(LogoRTFresh); got != 1 {
		t.Errorf("boost(critic fresh) = %v, want 1", got)
	}
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rating ratings.Rating
		want   string
	}{
		{ratings.Rating{Value: 8, Scale: ratings.ScaleTen}, "8.0"},
		{ratings.Rating{Value: 7.55, Scale: ratings.ScaleTen}, "7.6"},
		{ratings.Rating{Value: 7.26, Scale: ratings.ScaleTen}, "7.3"},
		{ratings.Rating{Value: 7.24, Scale: ratings.ScaleTen}, "7.2"},
		{ratings.Rating{Value: 10, Scale: ratings.ScaleTen}, "10.0"},
		{ratings.Rating{Value: 63.4, Scale: ratings.ScaleHundred}, "63%"},
		{ratings.Rating{Value: 63.5, Scale: ratings.ScaleHundred}, "64%"},
		{ratings.Rating{Value: 0, Scale: ratings.ScaleHundred}, "0%"},
		{ratings.Rating{Value: 100, Scale: ratings.ScaleHundred}, "100%"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.rating); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.rating.Value, got, tt.want)
		}
	}
}

func TestParseFont(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id      string
		want    Font
		wantErr bool
	}{
		{"", DefaultFont, false},
		{"DejaVuSans-Bold", Font{FamilySans, true, false}, false},
		{"DejaVuSans", Font{FamilySans, false, false}, false},
		{"DejaVuSans-Oblique", Font{FamilySans, false, true}, false},
		{"DejaVuSans-BoldOblique", Font{FamilySans, true, true}, false},
		{"DejaVuSerif-Italic", Font{FamilySerif, false, true}, false},
		{"DejaVuSerif-Bold", Font{FamilySerif, true, false}, false},
		{"DejaVuSansMono-BoldOblique", Font{FamilyMono, true, true}, false},
		{"DejaVuSansMono", Font{FamilyMono, false, false}, false},
		{"DejaVuSerif-BoldItalic", Font{}, true},
		{"Helvetica", Font{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFont(tt.id)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFont) {
					t.Errorf("ParseFont(%q) err = %v, want ErrUnknownFont", tt.id, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFont(%q): %v", tt.id, err)
			}
			if got != tt.want {
				t.Errorf("ParseFont(%q) = %+v, want %+v", tt.id, got, tt.want)
			}
		})
	}
}

func TestFontNamesRoundTrip(t *testing.T) {
	t.Parallel()

	if len(Fonts) != 11 {
		t.Fatalf("len(Fonts) = %d, want 11", len(Fonts))
	}
	for _, f := range Fonts {
		got, err := ParseFont(f.String())
		if err != nil {
			t.Errorf("ParseFont(%s): %v", f, err)
			continue
		}
		if got != f {
			t.Errorf("ParseFont(%s) = %+v, want %+v", f, got, f)
		}
	}
}

func TestLayout_Default(t *testing.T) {
	t.Parallel()

	rects := Layout(DefaultStyle(), 1000, 1500)
	if len(rects) != 4 {
		t.Fatalf("len(rects) = %d, want 4", len(rects))
	}

	tmdb := rects[ratings.SourceTMDB]
	if tmdb.Min.X != 20 || tmdb.Min.Y != 30 {
		t.Errorf("tmdb origin = %v, want (20,30)", tmdb.Min)
	}
	if tmdb.Dx() != 140 {
		t.Errorf("tmdb width = %d, want 140", tmdb.Dx())
	}
	if h := tmdb.Dy(); h < 195 || h > 196 {
		t.Errorf("tmdb height = %d, want ~196", h)
	}
	if rects[ratings.SourceIMDb].Min.X != 180 {
		t.Errorf("imdb x = %d, want 180", rects[ratings.SourceIMDb].Min.X)
	}
}

func TestLayout_ClampsAndOverflows(t *testing.T) {
	t.Parallel()

	style := DefaultStyle()
	style.Sources = []ratings.Source{ratings.SourceTMDB}
	style.Placements[ratings.SourceTMDB] = Placement{X: 150, Y: -10, Width: 14}

	r := Layout(style, 1000, 1500)[ratings.SourceTMDB]
	if r.Min.X != 1000 || r.Min.Y != 0 {
		t.Errorf("origin = %v, want (1000,0)", r.Min)
	}
	if r.Max.X <= 1000 {
		t.Errorf("rect %v should extend past the right edge", r)
	}
}

func TestLayout_MinimumWidth(t *testing.T) {
	t.Parallel()

	style := DefaultStyle()
	rects := Layout(style, 3, 3)
	for src, r := range rects {
		if r.Dx() < 1 {
			t.Errorf("%s width = %d, want >= 1", src, r.Dx())
		}
	}
}

func TestSpecRoundTrip(t *testing.T) {
	t.Parallel()

	want := DefaultStyle()
	got, err := SpecFrom(want).Style()
	if err != nil {
		t.Fatalf("Style: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestSpecStyle_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mod  func(*Spec)
	}{
		{"unknown source", func(s *Spec) { s.Sources = []string{"letterboxd"} }},
		{"unknown font", func(s *Spec) { s.Font = "Comic" }},
		{"bad color", func(s *Spec) { s.Color = "gold" }},
		{"opacity", func(s *Spec) { s.Opacity = 300 }},
		{"placement width", func(s *Spec) {
			s.Placements = map[string]PlacementSpec{"tmdb": {X: 1, Y: 1, Width: 0}}
		}},
		{"placement source", func(s *Spec) {
			s.Placements = map[string]PlacementSpec{"metacritic": {Width: 10}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sp := DefaultSpec()
			tt.mod(&sp)
			if _, err := sp.Style(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	t.Parallel()

	c, err := ParseColor("#FFD700")
	if err != nil {
		t.Fatalf("ParseColor: %v", err)
	}
	if c != Gold {
		t.Errorf("ParseColor(#FFD700) = %v, want %v", c, Gold)
	}

	c, err = ParseColor("#00000080")
	if err != nil {
		t.Fatalf("ParseColor: %v", err)
	}
	if c.A != 0x80 {
		t.Errorf("alpha = %d, want 128", c.A)
	}
	if got := FormatColor(Gold); got != "#FFD700FF" {
		t.Errorf("FormatColor(Gold) = %s", got)
	}
}
