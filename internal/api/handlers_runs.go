// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/processor"
)

// FetchFreshWarning is returned with every fetch-fresh start. Items keep
// their backups, so they still count as processed and a normal run skips
// them even though the active poster no longer carries badges.
const FetchFreshWarning = "Fetched posters replace badged ones but backups are kept: " +
	"these items still count as processed and will be skipped by normal runs. " +
	"Use force or delete their backups to badge them again."

// Process starts a badge run.
// POST /api/process
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	h.startRun(w, r, processor.KindProcess)
}

// Restore starts a run that uploads backed-up originals.
// POST /api/restore
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	h.startRun(w, r, processor.KindRestore)
}

// FetchFresh starts a run that replaces active posters with upstream ones.
// POST /api/fetch-fresh
func (h *Handler) FetchFresh(w http.ResponseWriter, r *http.Request) {
	h.startRun(w, r, processor.KindFetchFresh)
}

func (h *Handler) startRun(w http.ResponseWriter, r *http.Request, kind processor.Kind) {
	var req RunRequest
	if err := decodeJSONBody(w, r, maxJSONBody, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	spec := h.savedSpec(r.Context())
	if req.Style != nil {
		spec = *req.Style
	}
	style, err := spec.Style()
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	runID, err := h.runs.Start(r.Context(), processor.Request{
		Kind:       kind,
		Libraries:  req.Libraries,
		Force:      req.Force,
		Style:      style,
		Limit:      req.Limit,
		RatingKeys: req.RatingKeys,
		Trigger:    processor.TriggerAPI,
	})
	switch {
	case errors.Is(err, processor.ErrRunInProgress):
		respondError(w, http.StatusConflict, ErrCodeConflict, "A run is already in progress", nil)
		return
	case errors.Is(err, processor.ErrInvalidRequest):
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to start run", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("run_id", runID).
		Str("kind", string(kind)).
		Msg("Run requested")

	data := map[string]interface{}{
		"run_id": runID,
		"kind":   kind,
		"status": "started",
	}
	if kind == processor.KindFetchFresh {
		data["warning"] = FetchFreshWarning
	}
	respondJSON(w, http.StatusAccepted, success(r, data))
}

// Stop asks the active run to stop after the current item.
// POST /api/stop
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	if !h.runs.Cancel() {
		respondJSON(w, http.StatusOK, success(r, map[string]string{
			"status":  "idle",
			"message": "No run in progress",
		}))
		return
	}
	respondJSON(w, http.StatusOK, success(r, map[string]string{
		"status":  "stopping",
		"message": "Processing will stop after current item",
	}))
}

// Status returns the current or most recent run.
// GET /api/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, success(r, h.runs.Status()))
}

// Runs returns recent run history, newest first.
// GET /api/runs?limit=20
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 20)
	if limit < 1 || limit > 500 {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "limit must be between 1 and 500", nil)
		return
	}

	runs, err := h.settings.RecentRuns(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to read run history", err)
		return
	}
	respondJSON(w, http.StatusOK, success(r, runs))
}
