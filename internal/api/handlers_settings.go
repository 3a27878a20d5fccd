// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/settings"
)

// SettingsResponse is the body of GET and PUT /api/settings.
type SettingsResponse struct {
	Settings settings.Settings `json:"settings"`
	Saved    bool              `json:"saved"`
}

// GetSettings returns the last saved style, or the configured default
// with saved=false.
// GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.Load(r.Context())
	switch {
	case errors.Is(err, settings.ErrNotFound):
		respondJSON(w, http.StatusOK, success(r, SettingsResponse{
			Settings: settings.Settings{Style: h.defaultStyle},
		}))
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to load settings", err)
		return
	}
	respondJSON(w, http.StatusOK, success(r, SettingsResponse{Settings: *st, Saved: true}))
}

// PutSettings validates and saves a style.
// PUT /api/settings
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := decodeJSONBody(w, r, maxJSONBody, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	if _, err := req.Style.Style(); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	st := &settings.Settings{Style: req.Style}
	if err := h.settings.Save(r.Context(), st); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to save settings", err)
		return
	}

	logging.Ctx(r.Context()).Info().Strs("sources", req.Style.Sources).Msg("Settings saved")
	respondJSON(w, http.StatusOK, success(r, SettingsResponse{Settings: *st, Saved: true}))
}
