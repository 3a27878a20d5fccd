// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package middleware provides HTTP middleware shared by the API router.

Middleware here uses the func(http.HandlerFunc) http.HandlerFunc shape;
the api package adapts it for chi's r.Use.

  - RequestID: accepts or generates X-Request-ID and stores it for logging.Ctx
  - AccessLog: one structured log line per request
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern so path parameters do not explode cardinality
  - SecurityHeaders: nosniff, frame denial, referrer policy, HSTS over TLS
*/
package middleware
