// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"net/http"
	"time"
)

// healthPingTimeout bounds the Plex reachability check.
const healthPingTimeout = 5 * time.Second

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Uptime        float64 `json:"uptime_seconds"`
	PlexReachable bool    `json:"plex_reachable"`
	PlexVersion   string  `json:"plex_version,omitempty"`
	PlexError     string  `json:"plex_error,omitempty"`
	PlexBreaker   string  `json:"plex_breaker"`
	RunActive     bool    `json:"run_active"`
}

// Health reports liveness and whether Plex answers. The service is alive
// even when Plex is down, so the status code stays 200 and the body says
// "degraded".
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "healthy",
		Uptime:      time.Since(h.startTime).Seconds(),
		PlexBreaker: h.plex.BreakerState(),
		RunActive:   h.runs.Busy(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	id, err := h.plex.Ping(ctx)
	if err != nil {
		resp.Status = "degraded"
		resp.PlexError = err.Error()
	} else {
		resp.PlexReachable = true
		resp.PlexVersion = id.Version
	}

	respondJSON(w, http.StatusOK, success(r, resp))
}
