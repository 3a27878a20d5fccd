// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package config provides centralized configuration management for Marquee.

Configuration is loaded with koanf in three layers, each overriding the one
before it:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: $CONFIG_PATH, ./config.yaml, /etc/marquee/config.yaml
 3. Environment variables listed in the mapping table

Only mapped environment variables are read; anything else in the
environment is ignored.

# Environment Variables

Plex:
  - PLEX_URL: Plex Media Server URL (default: http://localhost:32400)
  - PLEX_TOKEN: X-Plex-Token
  - PLEX_TIMEOUT: Per-request timeout (default: 30s)
  - PLEX_WEBHOOK_SECRET: Enables X-Plex-Signature verification

Rating providers:
  - TMDB_API_KEY, OMDB_API_KEY, MDBLIST_API_KEY: A provider without a key is disabled
  - TMDB_INTERVAL, OMDB_INTERVAL, MDBLIST_INTERVAL: Minimum spacing between requests
  - PROVIDER_TIMEOUT: Per-request timeout (default: 15s)
  - PROVIDER_CACHE_TTL: How long answers are cached (default: 6h)

Processing:
  - RATE_LIMIT_DELAY: Pause between items (default: 300ms)
  - RESTORE_DELAY: Pause between restored items (default: 100ms)
  - BACKUP_DIR, LOGO_DIR, FONT_DIR: Data and asset directories
  - OUTPUT_FORMAT: jpeg, png or webp (default: keep source format)
  - JPEG_QUALITY: 1-100 (default: 95)

Default badge style:
  - BADGE_SOURCES: Comma-separated list of tmdb, imdb, rt_critic, rt_audience
  - BADGE_FONT: e.g. "Sans Bold" (default: Sans Bold)
  - BADGE_COLOR: #RRGGBB or #RRGGBBAA
  - BADGE_OPACITY: 0-255

Triggers:
  - SCHEDULE_ENABLED, SCHEDULE_CRON, SCHEDULE_LIBRARIES, SCHEDULE_FORCE, SCHEDULE_TIMEZONE
  - WEBHOOK_ENABLED, WEBHOOK_WINDOW, WEBHOOK_RETRY_DELAY, WEBHOOK_LIBRARIES

Server and runtime:
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:8080)
  - CORS_ORIGINS: Comma-separated origins, also used for WebSocket upgrades
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - SETTINGS_PATH: BadgerDB directory; empty keeps settings in memory
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
  - SUPERVISOR_FAILURE_THRESHOLD, SUPERVISOR_FAILURE_DECAY,
    SUPERVISOR_FAILURE_BACKOFF, SUPERVISOR_SHUTDOWN_TIMEOUT

# Usage Example

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatalf("Failed to load config: %v", err)
	}
	fmt.Printf("Listening on %s\n", cfg.Server.Addr())

# Validation

Validate runs one validator per section and returns the first failure.
Errors name the environment variable to fix.
*/
package config
