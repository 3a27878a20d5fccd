// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/marquee/internal/middleware"
)

// Router binds the handler to its routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	websocket     http.HandlerFunc
}

// NewRouter creates a Router. ws serves /ws and may be nil.
func NewRouter(handler *Handler, mw *ChiMiddleware, ws http.HandlerFunc) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw, websocket: ws}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chiMiddleware(middleware.AccessLog))
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(chiMiddleware(middleware.SecurityHeaders))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.With(router.chiMiddleware.RateLimitHealth()).Get("/health", router.handler.Health)

		// Webhooks have their own budget so library scans do not starve the UI.
		r.With(router.chiMiddleware.RateLimitWebhook()).Post("/webhook/plex", router.handler.PlexWebhook)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(chimiddleware.Compress(5, "application/json"))

			r.Get("/libraries", router.handler.Libraries)
			r.Get("/libraries/{name}/stats", router.handler.LibraryStats)

			r.Post("/process", router.handler.Process)
			r.Post("/restore", router.handler.Restore)
			r.Post("/fetch-fresh", router.handler.FetchFresh)
			r.Post("/stop", router.handler.Stop)
			r.Get("/status", router.handler.Status)
			r.Get("/runs", router.handler.Runs)

			r.Delete("/backups", router.handler.DeleteAllBackups)
			r.Get("/backups/{library}", router.handler.ListBackups)
			r.Delete("/backups/{library}", router.handler.DeleteLibraryBackups)
			r.Delete("/backups/{library}/{item}", router.handler.DeleteItemBackup)

			r.Get("/settings", router.handler.GetSettings)
			r.Put("/settings", router.handler.PutSettings)
		})

		r.With(router.chiMiddleware.RateLimitPreview()).Post("/preview", router.handler.Preview)
	})

	if router.websocket != nil {
		r.Get("/ws", router.websocket)
	}
	r.Handle("/metrics", promhttp.Handler())

	return r
}
