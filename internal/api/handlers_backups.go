// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/marquee/internal/backup"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/processor"
)

// ListBackups returns the backup records of a library ordered by title.
// GET /api/backups/{library}
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	library := chi.URLParam(r, "library")

	records, err := h.backups.List(library)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "Failed to list backups", err)
		return
	}
	respondJSON(w, http.StatusOK, success(r, records))
}

// DeleteLibraryBackups removes every backup of a library.
// DELETE /api/backups/{library}
func (h *Handler) DeleteLibraryBackups(w http.ResponseWriter, r *http.Request) {
	h.deleteBackups(w, r, chi.URLParam(r, "library"), "")
}

// DeleteItemBackup removes the backup of one item.
// DELETE /api/backups/{library}/{item}
func (h *Handler) DeleteItemBackup(w http.ResponseWriter, r *http.Request) {
	h.deleteBackups(w, r, chi.URLParam(r, "library"), chi.URLParam(r, "item"))
}

// DeleteAllBackups removes every backup.
// DELETE /api/backups
func (h *Handler) DeleteAllBackups(w http.ResponseWriter, r *http.Request) {
	h.deleteBackups(w, r, "", "")
}

// backupTarget validates the path parameters of a delete.
type backupTarget struct {
	Library string `json:"library" validate:"required,max=255"`
	Item    string `json:"item" validate:"omitempty,alphanum,max=32"`
}

func (h *Handler) deleteBackups(w http.ResponseWriter, r *http.Request, library, ratingKey string) {
	if library != "" {
		if apiErr := validateRequest(&backupTarget{Library: library, Item: ratingKey}); apiErr != nil {
			respondAPIError(w, http.StatusBadRequest, apiErr)
			return
		}
	}

	n, err := h.runs.DeleteBackups(library, ratingKey)
	switch {
	case errors.Is(err, processor.ErrRunInProgress):
		respondError(w, http.StatusConflict, ErrCodeConflict, "Cannot delete backups while a run is in progress", nil)
		return
	case errors.Is(err, backup.ErrNotFound):
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Backup not found", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to delete backups", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("library", sanitizeLogValue(library)).
		Str("rating_key", sanitizeLogValue(ratingKey)).
		Int("deleted", n).
		Msg("Backups deleted via API")
	respondJSON(w, http.StatusOK, success(r, map[string]int{"deleted": n}))
}
