// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/marquee/internal/badge"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/processor"
	"github.com/tomtom215/marquee/internal/ratings"
	"github.com/tomtom215/marquee/internal/scheduler"
	"github.com/tomtom215/marquee/internal/settings"
	"github.com/tomtom215/marquee/internal/webhook"
)

// newProviders guards every provider that has an API key. Without keys
// only ratings embedded in Plex metadata are drawn.
func newProviders(cfg *config.ProvidersConfig) []*ratings.Guarded {
	type entry struct {
		pc       config.ProviderConfig
		provider func(baseURL, key string) ratings.Provider
	}
	entries := []entry{
		{cfg.TMDB, func(u, k string) ratings.Provider { return ratings.NewTMDB(u, k, cfg.Timeout) }},
		{cfg.OMDb, func(u, k string) ratings.Provider { return ratings.NewOMDb(u, k, cfg.Timeout) }},
		{cfg.MDBList, func(u, k string) ratings.Provider { return ratings.NewMDBList(u, k, cfg.Timeout) }},
	}

	var out []*ratings.Guarded
	for _, e := range entries {
		if !e.pc.Enabled() {
			continue
		}
		// An empty base URL selects the provider's public endpoint.
		g := ratings.Guard(e.provider(e.pc.BaseURL, e.pc.APIKey), ratings.GuardOptions{
			Interval: e.pc.Interval,
			CacheTTL: cfg.CacheTTL,
		})
		logging.Info().
			Str("provider", g.Name()).
			Dur("interval", e.pc.Interval).
			Dur("cache_ttl", cfg.CacheTTL).
			Msg("Rating provider enabled")
		out = append(out, g)
	}
	if len(out) == 0 {
		logging.Warn().Msg("No rating provider API keys configured; only Plex-embedded ratings will be used")
	}
	return out
}

func newResolver(guarded []*ratings.Guarded) *ratings.Normalizer {
	providers := make([]ratings.Provider, len(guarded))
	for i, g := range guarded {
		providers[i] = g
	}
	return ratings.NewNormalizer(providers...)
}

func newRenderer(cfg *config.ProcessingConfig) *badge.Renderer {
	logos := badge.LoadLogos(cfg.LogoDir)
	logging.Info().Str("dir", cfg.LogoDir).Int("logos", logos.Len()).Msg("Badge logos loaded")
	return badge.NewRenderer(badge.NewFontSet(cfg.FontDir), logos)
}

func processorOptions(cfg *config.ProcessingConfig) (processor.Options, error) {
	opts := processor.DefaultOptions()
	opts.ItemDelay = cfg.ItemDelay
	opts.RestoreDelay = cfg.RestoreDelay
	if cfg.JPEGQuality > 0 {
		opts.Quality = cfg.JPEGQuality
	}
	if cfg.OutputFormat != "" {
		f, err := badge.ParseFormat(cfg.OutputFormat)
		if err != nil {
			return opts, fmt.Errorf("OUTPUT_FORMAT: %w", err)
		}
		opts.OutputFormat = f
	}
	return opts, nil
}

// savedStyle renders unattended runs with the style last saved from the
// UI, falling back to the configured one.
func savedStyle(store *settings.Store, fallback badge.Spec) func(ctx context.Context) badge.Style {
	return func(ctx context.Context) badge.Style {
		style, err := store.StyleOr(ctx, fallback).Style()
		if err != nil {
			logging.Warn().Err(err).Msg("Configured style is invalid, using defaults")
			return badge.DefaultStyle()
		}
		return style
	}
}

func newBatcher(cfg *config.WebhookConfig, proc *processor.Processor, style func(context.Context) badge.Style) *webhook.Batcher {
	if !cfg.Enabled {
		logging.Info().Msg("Plex webhooks disabled (WEBHOOK_ENABLED=false)")
		return nil
	}
	logging.Info().
		Dur("window", cfg.Window).
		Strs("libraries", cfg.Libraries).
		Msg("Plex webhook batching enabled")
	return webhook.NewBatcher(proc, style, webhook.Config{
		Window:     cfg.Window,
		RetryDelay: cfg.RetryDelay,
		Libraries:  cfg.Libraries,
	})
}

func newScheduler(cfg *config.ScheduleConfig, proc *processor.Processor, style func(context.Context) badge.Style) (*scheduler.Scheduler, error) {
	if !cfg.Enabled {
		logging.Info().Msg("Scheduled runs disabled (SCHEDULE_ENABLED=false)")
		return nil, nil
	}
	loc := time.Local
	if cfg.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("SCHEDULE_TIMEZONE: %w", err)
		}
	}
	return scheduler.New(proc, style, scheduler.Config{
		Spec:      cfg.Cron,
		Libraries: cfg.Libraries,
		Force:     cfg.Force,
		Location:  loc,
	})
}

// watchLogLevel applies LOG_LEVEL changes made in the config file without
// a restart. Other settings need a restart.
func watchLogLevel() {
	path := config.ConfigFile()
	if path == "" {
		return
	}
	err := config.WatchConfigFile(path, func() {
		cfg, err := config.LoadFile(path)
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Ignoring invalid config change")
			return
		}
		logging.SetLevelString(cfg.Logging.Level)
		logging.Info().Str("level", cfg.Logging.Level).Msg("Log level reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
	}
}
