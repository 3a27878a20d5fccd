// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/webhook"
)

// PlexWebhook receives Plex webhook notifications. library.new events for
// movies and shows are queued for a batched process run; every other event
// is acknowledged and dropped.
//
// Webhook Setup:
//  1. Go to Plex Settings → Webhooks
//  2. Add webhook URL: https://your-host/api/webhook/plex
//  3. Optionally set PLEX_WEBHOOK_SECRET and sign requests with
//     X-Plex-Signature (hex HMAC-SHA256 of the JSON payload)
//
// POST /api/webhook/plex
func (h *Handler) PlexWebhook(w http.ResponseWriter, r *http.Request) {
	if h.webhooks == nil {
		respondError(w, http.StatusNotFound, "WEBHOOKS_DISABLED", "Plex webhooks are not enabled", nil)
		return
	}

	payload, err := webhook.Parse(r, h.webhookSecret)
	switch {
	case errors.Is(err, webhook.ErrBadSignature):
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		respondError(w, http.StatusUnauthorized, ErrCodeInvalidSignature, "Webhook signature verification failed", nil)
		return
	case err != nil:
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		respondError(w, http.StatusBadRequest, ErrCodeInvalidPayload, "Failed to parse webhook payload", err)
		return
	}

	queued := h.webhooks.Add(payload)

	logging.Ctx(r.Context()).Debug().
		Str("event", sanitizeLogValue(payload.Event)).
		Str("library", sanitizeLogValue(payload.Metadata.LibraryTitle)).
		Str("title", sanitizeLogValue(payload.Metadata.Title)).
		Bool("queued", queued).
		Msg("Webhook received")

	respondJSON(w, http.StatusOK, success(r, map[string]interface{}{
		"received": true,
		"event":    payload.Event,
		"queued":   queued,
	}))
}
