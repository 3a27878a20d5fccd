// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package websocket pushes run progress to browser clients.

The hub owns the client set and fans messages out to per-client send
buffers. A client whose buffer is full is disconnected rather than
allowed to slow the processor down; the pollable /api/status snapshot
stays authoritative.

Message Types:

  - run_status: current snapshot, sent once on connect
  - run_started, run_progress, run_finished: run lifecycle
  - ping / pong: client keepalive

Usage:

	hub := websocket.NewHub()
	hub.SetSnapshot(func() interface{} { return proc.Status() })
	go hub.Serve(ctx)
	r.Get("/ws", websocket.Handler(hub, []string{"*"}))
*/
package websocket
