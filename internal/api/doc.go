// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package api provides the HTTP API of Marquee.

The API controls the single-flight processor and exposes libraries,
backups, saved settings, previews and the Plex webhook receiver. Routing
uses chi; every JSON response shares one envelope:

	{
	  "status": "success" | "error",
	  "data": ...,
	  "metadata": {"timestamp": "...", "request_id": "..."},
	  "error": {"code": "CONFLICT", "message": "..."}
	}

Endpoints:

	GET    /api/health                     liveness plus Plex reachability
	GET    /api/libraries                  movie and show libraries with counts
	GET    /api/libraries/{name}/stats     total, processed and success rate
	POST   /api/process                    start a badge run (409 while busy)
	POST   /api/restore                    upload backed-up originals
	POST   /api/fetch-fresh                replace posters with upstream ones
	POST   /api/stop                       stop after the current item
	GET    /api/status                     current or last run
	GET    /api/runs?limit=20              run history
	GET    /api/backups/{library}          backup records
	DELETE /api/backups[/{library}[/{item}]]
	GET    /api/settings                   saved style
	PUT    /api/settings                   save style
	POST   /api/preview                    PNG preview
	POST   /api/webhook/plex               Plex webhook receiver
	GET    /ws                             progress stream
	GET    /metrics                        Prometheus

Middleware order: request id, real IP, access log, panic recovery, CORS,
security headers, then per-group Prometheus instrumentation, per-IP rate
limits (go-chi/httprate) and compression.

Usage:

	handler := api.NewHandler(api.Deps{Plex: client, Runs: proc, ...})
	mw := api.NewChiMiddlewareFromServer(origins, 120, time.Minute, false)
	router := api.NewRouter(handler, mw, websocket.Handler(hub, origins))
	srv := &http.Server{Addr: addr, Handler: router.SetupChi()}
*/
package api
