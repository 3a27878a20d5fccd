// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"errors"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/marquee/internal/backup"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/plex"
)

// LibraryInfo is one entry of GET /api/libraries.
type LibraryInfo struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// LibraryStats is the body of GET /api/libraries/{name}/stats.
type LibraryStats struct {
	Library        string  `json:"library"`
	TotalItems     int     `json:"total_items"`
	ProcessedItems int     `json:"processed_items"`
	SuccessRate    float64 `json:"success_rate"`
	BackupBytes    int64   `json:"backup_bytes"`
}

// Libraries lists the movie and show libraries with their item counts. A
// count that cannot be read is reported as zero.
// GET /api/libraries
func (h *Handler) Libraries(w http.ResponseWriter, r *http.Request) {
	libs, err := h.plex.ListLibraries(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, ErrCodeUpstream, "Failed to list Plex libraries", err)
		return
	}

	out := make([]LibraryInfo, 0, len(libs))
	for _, lib := range libs {
		if !lib.Supported() {
			continue
		}
		count, err := h.plex.CountItems(r.Context(), lib.Key)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("library", lib.Title).Msg("Failed to count library items")
		}
		out = append(out, LibraryInfo{Key: lib.Key, Name: lib.Title, Type: lib.Type, Count: count})
	}
	respondJSON(w, http.StatusOK, success(r, out))
}

// LibraryStats reports how much of a library has been processed.
// GET /api/libraries/{name}/stats
func (h *Handler) LibraryStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	lib, err := h.plex.FindLibrary(r.Context(), name)
	if errors.Is(err, plex.ErrNotFound) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Library not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, ErrCodeUpstream, "Failed to read Plex libraries", err)
		return
	}

	total, err := h.plex.CountItems(r.Context(), lib.Key)
	if err != nil {
		respondError(w, http.StatusBadGateway, ErrCodeUpstream, "Failed to count library items", err)
		return
	}

	stats := LibraryStats{Library: lib.Title, TotalItems: total}
	bs, err := h.backups.Stats(lib.Title)
	switch {
	case errors.Is(err, backup.ErrNotFound):
	case err != nil:
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to read backups", err)
		return
	default:
		stats.ProcessedItems = bs.Items
		stats.BackupBytes = bs.TotalBytes
	}
	stats.SuccessRate = successRate(stats.ProcessedItems, stats.TotalItems)

	respondJSON(w, http.StatusOK, success(r, stats))
}

// successRate is processed/total as a percentage rounded to one decimal.
func successRate(processed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(processed)/float64(total)*1000) / 10
}
