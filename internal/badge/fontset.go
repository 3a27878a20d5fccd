// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package badge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/tomtom215/marquee/internal/logging"
)

// FontSet resolves Fonts to parsed faces. A face is read from
// <dir>/<Font.String()>.ttf when present; otherwise the matching embedded
// Go font is used, so rendering never depends on system fonts.
type FontSet struct {
	dir string

	mu     sync.Mutex
	parsed map[Font]*opentype.Font
}

// NewFontSet creates a FontSet. dir may be empty.
func NewFontSet(dir string) *FontSet {
	return &FontSet{dir: dir, parsed: make(map[Font]*opentype.Font)}
}

// Face returns a face for f at size pixels. The caller closes it.
func (fs *FontSet) Face(f Font, size float64) (font.Face, error) {
	if size < 1 {
		size = 1
	}
	otf, err := fs.load(f)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s face: %w", f, err)
	}
	return face, nil
}

func (fs *FontSet) load(f Font) (*opentype.Font, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if otf, ok := fs.parsed[f]; ok {
		return otf, nil
	}

	data, source := fs.read(f)
	otf, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s from %s: %w", f, source, err)
	}
	fs.parsed[f] = otf
	return otf, nil
}

func (fs *FontSet) read(f Font) ([]byte, string) {
	if fs.dir != "" {
		path := filepath.Join(fs.dir, f.String()+".ttf")
		data, err := os.ReadFile(path) //nolint:gosec // path built from a fixed face name
		if err == nil {
			return data, path
		}
		if !errors.Is(err, os.ErrNotExist) {
			logging.Warn().Err(err).Str("path", path).Msg("Failed to read font, using embedded fallback")
		}
	}
	return embeddedFont(f), "embedded"
}

func embeddedFont(f Font) []byte {
	if f.Family == FamilyMono {
		switch {
		case f.Bold && f.Italic:
			return gomonobolditalic.TTF
		case f.Bold:
			return gomonobold.TTF
		case f.Italic:
			return gomonoitalic.TTF
		default:
			return gomono.TTF
		}
	}
	switch {
	case f.Bold && f.Italic:
		return gobolditalic.TTF
	case f.Bold:
		return gobold.TTF
	case f.Italic:
		return goitalic.TTF
	default:
		return goregular.TTF
	}
}
