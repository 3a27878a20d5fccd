// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package services provides suture.Service wrappers for Marquee components.

Each wrapper implements suture.Service and fmt.Stringer:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server; ListenAndServe in a goroutine, Shutdown on cancel

Runners (RunnerService):
  - Names components whose Serve already blocks until cancel: the
    WebSocket hub, the processor, the webhook batcher, the scheduler

Cache Sweeper (CacheSweeperService):
  - Periodically drops expired entries from a provider's rating cache
*/
package services
