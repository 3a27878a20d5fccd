// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package backup

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no backup exists for an item.
	ErrNotFound = errors.New("backup not found")

	// ErrExists is returned by Create when the item already has a backup.
	ErrExists = errors.New("backup already exists")

	// ErrChecksumMismatch is returned when a stored original no longer
	// matches the checksum recorded at creation.
	ErrChecksumMismatch = errors.New("backup checksum mismatch")
)

const (
	metadataFile   = "metadata.json"
	originalPrefix = "poster_original"
)

// Record describes one item's stored original poster. It is written once,
// next to the original, and never rewritten by processing.
type Record struct {
	Library      string             `json:"library_name"`
	RatingKey    string             `json:"rating_key"`
	Title        string             `json:"item_title"`
	Year         int                `json:"year,omitempty"`
	TMDBID       string             `json:"tmdb_id,omitempty"`
	IMDbID       string             `json:"imdb_id,omitempty"`
	Ratings      map[string]float64 `json:"ratings"`
	OriginalFile string             `json:"original_file"`
	Size         int64              `json:"size_bytes"`
	Checksum     string             `json:"checksum"`
	BackedUpAt   time.Time          `json:"backed_up_at"`
}

// Stats summarizes the backups of one library.
type Stats struct {
	Library    string     `json:"library"`
	Items      int        `json:"items"`
	TotalBytes int64      `json:"total_bytes"`
	Oldest     *time.Time `json:"oldest,omitempty"`
	Newest     *time.Time `json:"newest,omitempty"`
}
