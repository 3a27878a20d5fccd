// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package badge

import (
	"errors"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/tomtom215/marquee/internal/logging"
)

// Logos holds decoded logo assets by key.
type Logos struct {
	images map[string]image.Image
}

// NewLogos wraps already decoded images.
func NewLogos(images map[string]image.Image) *Logos {
	if images == nil {
		images = make(map[string]image.Image)
	}
	return &Logos{images: images}
}

// LoadLogos reads <dir>/<key>.png for every LogoKeys entry. Missing or
// unreadable files are logged and skipped; the renderer draws a text label
// in their place.
func LoadLogos(dir string) *Logos {
	l := NewLogos(nil)
	if dir == "" {
		return l
	}
	for _, key := range LogoKeys {
		path := filepath.Join(dir, key+".png")
		img, err := imaging.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logging.Debug().Str("logo", key).Msg("Logo asset not found, using text label")
			} else {
				logging.Warn().Err(err).Str("path", path).Msg("Failed to load logo asset")
			}
			continue
		}
		l.images[key] = imaging.Clone(img)
	}
	return l
}

// Get returns the logo for key.
func (l *Logos) Get(key string) (image.Image, bool) {
	if l == nil {
		return nil, false
	}
	img, ok := l.images[key]
	return img, ok
}

// Len returns how many logos are loaded.
func (l *Logos) Len() int {
	if l == nil {
		return 0
	}
	return len(l.images)
}
