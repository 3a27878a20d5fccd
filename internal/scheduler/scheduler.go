// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package scheduler starts processing runs on a cron schedule. A tick that
// finds the processor busy is skipped, not queued.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/marquee/internal/badge"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/processor"
)

// Starter launches runs. *processor.Processor implements it.
type Starter interface {
	Start(ctx context.Context, req processor.Request) (string, error)
}

// StyleFunc returns the style a scheduled run renders with.
type StyleFunc func(ctx context.Context) badge.Style

// Config describes the scheduled run.
type Config struct {
	// Spec is a standard five-field cron expression or a descriptor such
	// as "@daily".
	Spec      string
	Libraries []string
	Force     bool
	Location  *time.Location
}

// Validate parses a cron expression.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}

// Scheduler runs the configured job under a cron.Cron.
type Scheduler struct {
	starter Starter
	style   StyleFunc
	cfg     Config
	cron    *cron.Cron
}

// New validates cfg.Spec and registers the job. Call Serve to run it.
func New(starter Starter, style StyleFunc, cfg Config) (*Scheduler, error) {
	if style == nil {
		style = func(context.Context) badge.Style { return badge.DefaultStyle() }
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	s := &Scheduler{
		starter: starter,
		style:   style,
		cfg:     cfg,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger{}),
			cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
		),
	}

	ctx := context.Background()
	if _, err := s.cron.AddFunc(cfg.Spec, func() { s.Tick(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", cfg.Spec, err)
	}
	return s, nil
}

// Next returns the next activation time, or zero before Serve starts.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Serve runs the cron loop until ctx is cancelled, then waits for a tick
// in progress to return.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.cron.Start()
	logging.Info().Str("spec", s.cfg.Spec).Time("next", s.Next()).Msg("Scheduler started")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	logging.Info().Msg("Scheduler stopped")
	return ctx.Err()
}

// Tick starts one scheduled run.
func (s *Scheduler) Tick(ctx context.Context) {
	req := processor.Request{
		Kind:      processor.KindProcess,
		Libraries: append([]string(nil), s.cfg.Libraries...),
		Force:     s.cfg.Force,
		Style:     s.style(ctx),
		Trigger:   processor.TriggerSchedule,
	}

	runID, err := s.starter.Start(ctx, req)
	switch {
	case errors.Is(err, processor.ErrRunInProgress):
		metrics.ScheduledRuns.WithLabelValues("skipped").Inc()
		logging.Warn().Msg("Scheduled run skipped: a run is already in progress")
	case err != nil:
		metrics.ScheduledRuns.WithLabelValues("error").Inc()
		logging.Error().Err(err).Msg("Scheduled run failed to start")
	default:
		metrics.ScheduledRuns.WithLabelValues("started").Inc()
		logging.Info().Str("run_id", runID).Strs("libraries", req.Libraries).Msg("Scheduled run started")
	}
}

// cronLogger sends cron's own messages to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logging.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logging.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
