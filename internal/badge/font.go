// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package badge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFont is returned for font identifiers outside the supported set.
var ErrUnknownFont = errors.New("unknown font")

// Family is a typeface family.
type Family uint8

const (
	FamilySans Family = iota
	FamilySerif
	FamilyMono
)

func (f Family) String() string {
	switch f {
	case FamilySerif:
		return "Serif"
	case FamilyMono:
		return "SansMono"
	default:
		return "Sans"
	}
}

// Font is a family, weight and slant combination.
type Font struct {
	Family Family
	Bold   bool
	Italic bool
}

// DefaultFont is DejaVuSans-Bold.
var DefaultFont = Font{Family: FamilySans, Bold: true}

// Fonts lists the supported combinations. Serif has no bold italic face.
var Fonts = []Font{
	{FamilySans, false, false},
	{FamilySans, true, false},
	{FamilySans, false, true},
	{FamilySans, true, true},
	{FamilySerif, false, false},
	{FamilySerif, true, false},
	{FamilySerif, false, true},
	{FamilyMono, false, false},
	{FamilyMono, true, false},
	{FamilyMono, false, true},
	{FamilyMono, true, true},
}

// ParseFont classifies a font identifier such as "DejaVuSans-BoldOblique".
//
// "Bold" selects bold, "Oblique" or "Italic" selects italic, "Serif" or
// "Mono" selects the family and "Sans" alone selects sans. An identifier
// naming none of the families, or a combination outside Fonts, is
// rejected. An empty identifier yields DefaultFont.
func ParseFont(id string) (Font, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultFont, nil
	}

	var f Font
	switch {
	case strings.Contains(id, "Mono"):
		f.Family = FamilyMono
	case strings.Contains(id, "Serif"):
		f.Family = FamilySerif
	case strings.Contains(id, "Sans"):
		f.Family = FamilySans
	default:
		return Font{}, fmt.Errorf("%w: %q", ErrUnknownFont, id)
	}
	f.Bold = strings.Contains(id, "Bold")
	f.Italic = strings.Contains(id, "Oblique") || strings.Contains(id, "Italic")

	if !f.Supported() {
		return Font{}, fmt.Errorf("%w: %q has no %s face", ErrUnknownFont, id, f.style())
	}
	return f, nil
}

// Supported reports whether f is one of Fonts.
func (f Font) Supported() bool {
	for _, known := range Fonts {
		if f == known {
			return true
		}
	}
	return false
}

// String returns the canonical DejaVu face name, which is also the file
// name (without .ttf) looked up in the font directory.
func (f Font) String() string {
	name := "DejaVu" + f.Family.String()
	if s := f.style(); s != "" {
		name += "-" + s
	}
	return name
}

func (f Font) style() string {
	slant := "Oblique"
	if f.Family == FamilySerif {
		slant = "Italic"
	}
	switch {
	case f.Bold && f.Italic:
		return "Bold" + slant
	case f.Bold:
		return "Bold"
	case f.Italic:
		return slant
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Font) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Font) UnmarshalText(b []byte) error {
	parsed, err := ParseFont(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
