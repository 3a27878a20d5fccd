// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package main is the entry point for the Marquee server.

Marquee fetches TMDB, IMDb and Rotten Tomatoes ratings for the movies and
shows of a Plex server, draws them as badges onto each poster and uploads
the result, keeping the original poster as a backup so it can be restored.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("marquee")
	├── DataSupervisor ("data-layer")
	│   └── Provider cache sweepers (one per enabled provider)
	├── ProcessingSupervisor ("processing-layer")
	│   ├── Processor (single-flight library runs)
	│   ├── Webhook Batcher (optional, WEBHOOK_ENABLED)
	│   └── Scheduler (optional, SCHEDULE_ENABLED)
	└── APISupervisor ("api-layer")
	    ├── WebSocket Hub (progress stream)
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, optional config.yaml and environment
 2. Logging: zerolog, level and format from LOG_LEVEL / LOG_FORMAT
 3. Settings store: BadgerDB (saved style and run history)
 4. Backups, Plex client, rating providers, renderer
 5. Processor, webhook batcher, scheduler
 6. HTTP API and WebSocket hub

# Configuration

Minimal setup:

	export PLEX_URL=http://plex:32400
	export PLEX_TOKEN=your-plex-token
	export TMDB_API_KEY=...
	export OMDB_API_KEY=...
	export MDBLIST_API_KEY=...
	./marquee

Nightly runs and webhook-triggered runs for new items:

	export SCHEDULE_ENABLED=true
	export SCHEDULE_CRON="0 3 * * *"
	export WEBHOOK_ENABLED=true
	export PLEX_WEBHOOK_SECRET=$(openssl rand -hex 32)

See internal/config for every variable.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests, an active run stops after its current item, and the
settings store is closed once the tree has stopped.
*/
package main
