// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tomtom215/marquee/internal/api"
	"github.com/tomtom215/marquee/internal/backup"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/plex"
	"github.com/tomtom215/marquee/internal/processor"
	"github.com/tomtom215/marquee/internal/settings"
	"github.com/tomtom215/marquee/internal/supervisor"
	"github.com/tomtom215/marquee/internal/supervisor/services"
	ws "github.com/tomtom215/marquee/internal/websocket"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("plex_url", cfg.Plex.URL).
		Str("addr", cfg.Server.Addr()).
		Bool("schedule", cfg.Schedule.Enabled).
		Bool("webhooks", cfg.Webhook.Enabled).
		Msg("Starting Marquee")

	watchLogLevel()

	store, err := settings.Open(cfg.Settings.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open settings store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing settings store")
		}
	}()

	backups, err := backup.NewManager(cfg.Processing.BackupDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize backup manager")
	}

	plexClient := plex.NewClient(cfg.Plex.URL, cfg.Plex.Token, plex.Options{
		Timeout:  cfg.Plex.Timeout,
		PageSize: cfg.Plex.PageSize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if id, err := plexClient.Ping(ctx); err != nil {
		logging.Warn().Err(err).Msg("Plex is not reachable yet; runs will fail until it is")
	} else {
		logging.Info().Str("version", id.Version).Msg("Connected to Plex")
	}

	providers := newProviders(&cfg.Providers)
	resolver := newResolver(providers)
	renderer := newRenderer(&cfg.Processing)

	hub := ws.NewHub()

	opts, err := processorOptions(&cfg.Processing)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid processing options")
	}
	proc := processor.New(processor.Deps{
		Plex:      plexClient,
		Resolver:  resolver,
		Backups:   backups,
		Renderer:  renderer,
		Publisher: hub,
		Recorder:  store,
	}, opts)
	hub.SetSnapshot(func() interface{} { return proc.Status() })

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Data layer
	for _, p := range providers {
		tree.AddDataService(services.NewCacheSweeperService(p, cfg.Providers.SweepInterval))
	}

	// Processing layer
	styleFn := savedStyle(store, cfg.Style)
	tree.AddProcessingService(services.NewProcessorService(proc))

	deps := api.Deps{
		Plex:          plexClient,
		Runs:          proc,
		Backups:       backups,
		Settings:      store,
		Renderer:      renderer,
		DefaultStyle:  cfg.Style,
		WebhookSecret: cfg.Plex.WebhookSecret,
	}
	if batcher := newBatcher(&cfg.Webhook, proc, styleFn); batcher != nil {
		deps.Webhooks = batcher
		tree.AddProcessingService(services.NewWebhookBatcherService(batcher))
	}
	sched, err := newScheduler(&cfg.Schedule, proc, styleFn)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	if sched != nil {
		tree.AddProcessingService(services.NewSchedulerService(sched))
	}

	// API layer
	mw := api.NewChiMiddlewareFromServer(
		cfg.Server.CORSOrigins,
		cfg.Server.RateLimitRequests,
		cfg.Server.RateLimitWindow,
		cfg.Server.RateLimitDisabled,
	)
	if cfg.Server.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	router := api.NewRouter(api.NewHandler(deps), mw, ws.Handler(hub, cfg.Server.CORSOrigins))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree.AddAPIService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		err = <-errCh
	case err = <-errCh:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	// A run goroutine may outlive the processor service; let it record its
	// final state before the store closes.
	proc.Wait()
	logging.Info().Msg("Marquee stopped")
}
