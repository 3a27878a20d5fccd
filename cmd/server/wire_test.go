// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/badge"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/processor"
	"github.com/tomtom215/marquee/internal/ratings"
	"github.com/tomtom215/marquee/internal/settings"
)

func TestNewProviders(t *testing.T) {
	cfg := &config.ProvidersConfig{
		TMDB:     config.ProviderConfig{APIKey: "tmdb-key"},
		MDBList:  config.ProviderConfig{APIKey: "mdb-key", Interval: time.Second},
		Timeout:  time.Second,
		CacheTTL: time.Hour,
	}

	got := newProviders(cfg)
	if len(got) != 2 {
		t.Fatalf("providers = %d, want 2", len(got))
	}
	if got[0].Name() != "tmdb" || got[1].Name() != "mdblist" {
		t.Errorf("names = %s, %s", got[0].Name(), got[1].Name())
	}

	n := newResolver(got)
	for _, tt := range []struct {
		src  ratings.Source
		want bool
	}{
		{ratings.SourceTMDB, true},
		{ratings.SourceIMDb, false},
		{ratings.SourceRTCritic, true},
		{ratings.SourceRTAudience, true},
	} {
		if n.HasProvider(tt.src) != tt.want {
			t.Errorf("HasProvider(%s) = %v, want %v", tt.src, !tt.want, tt.want)
		}
	}

	if got := newProviders(&config.ProvidersConfig{}); len(got) != 0 {
		t.Errorf("providers without keys = %d, want 0", len(got))
	}
}

func TestProcessorOptions(t *testing.T) {
	opts, err := processorOptions(&config.ProcessingConfig{
		ItemDelay:    time.Second,
		RestoreDelay: 2 * time.Second,
		OutputFormat: "webp",
		JPEGQuality:  80,
	})
	if err != nil {
		t.Fatalf("processorOptions: %v", err)
	}
	want := processor.Options{ItemDelay: time.Second, RestoreDelay: 2 * time.Second, OutputFormat: badge.FormatWebP, Quality: 80}
	if opts != want {
		t.Errorf("options = %+v, want %+v", opts, want)
	}

	opts, err = processorOptions(&config.ProcessingConfig{})
	if err != nil {
		t.Fatalf("processorOptions: %v", err)
	}
	if opts.OutputFormat != "" || opts.Quality != badge.DefaultJPEGQuality {
		t.Errorf("default options = %+v", opts)
	}

	if _, err := processorOptions(&config.ProcessingConfig{OutputFormat: "gif"}); err == nil {
		t.Error("processorOptions(gif) = nil error")
	}
}

func TestNewScheduler(t *testing.T) {
	proc := processor.New(processor.Deps{}, processor.DefaultOptions())
	style := func(context.Context) badge.Style { return badge.DefaultStyle() }

	s, err := newScheduler(&config.ScheduleConfig{}, proc, style)
	if err != nil || s != nil {
		t.Errorf("disabled scheduler = %v, %v; want nil, nil", s, err)
	}

	s, err = newScheduler(&config.ScheduleConfig{Enabled: true, Cron: "@daily", Timezone: "UTC"}, proc, style)
	if err != nil || s == nil {
		t.Fatalf("newScheduler = %v, %v", s, err)
	}

	if _, err := newScheduler(&config.ScheduleConfig{Enabled: true, Cron: "@daily", Timezone: "Mars/Olympus"}, proc, style); err == nil {
		t.Error("unknown timezone accepted")
	}
}

func TestNewBatcher_Disabled(t *testing.T) {
	proc := processor.New(processor.Deps{}, processor.DefaultOptions())
	if b := newBatcher(&config.WebhookConfig{}, proc, nil); b != nil {
		t.Error("disabled webhook config produced a batcher")
	}
	if b := newBatcher(&config.WebhookConfig{Enabled: true, Window: time.Second}, proc, nil); b == nil {
		t.Error("enabled webhook config produced no batcher")
	}
}

func TestSavedStyle(t *testing.T) {
	store, err := settings.Open("")
	if err != nil {
		t.Fatalf("settings.Open: %v", err)
	}
	defer store.Close()

	fallback := badge.DefaultSpec()
	fallback.Sources = []string{"tmdb"}
	fn := savedStyle(store, fallback)

	ctx := context.Background()
	if got := fn(ctx).Sources; len(got) != 1 || got[0] != ratings.SourceTMDB {
		t.Errorf("fallback sources = %v", got)
	}

	saved := badge.DefaultSpec()
	saved.Sources = []string{"imdb", "rt_critic"}
	if err := store.Save(ctx, &settings.Settings{Style: saved}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := fn(ctx).Sources; len(got) != 2 || got[0] != ratings.SourceIMDb {
		t.Errorf("saved sources = %v", got)
	}
}
