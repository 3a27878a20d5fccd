// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"fmt"
)

// Runner is any component that already follows the suture.Service
// pattern: block until ctx is done, then return ctx.Err().
//
// Satisfied by *websocket.Hub, *processor.Processor, *webhook.Batcher and
// *scheduler.Scheduler.
type Runner interface {
	Serve(ctx context.Context) error
}

// RunnerService gives a Runner a name for supervisor logs.
type RunnerService struct {
	runner Runner
	name   string
}

// NewRunnerService wraps runner under name.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// NewWebSocketHubService wraps the WebSocket hub.
//
//	hub := websocket.NewHub()
//	tree.AddAPIService(services.NewWebSocketHubService(hub))
func NewWebSocketHubService(hub Runner) *RunnerService {
	return NewRunnerService("websocket-hub", hub)
}

// NewProcessorService wraps the library processor. Its Serve cancels the
// active run on shutdown and waits for it.
func NewProcessorService(proc Runner) *RunnerService {
	return NewRunnerService("processor", proc)
}

// NewWebhookBatcherService wraps the Plex webhook batcher.
func NewWebhookBatcherService(batcher Runner) *RunnerService {
	return NewRunnerService("webhook-batcher", batcher)
}

// NewSchedulerService wraps the cron scheduler.
func NewSchedulerService(sched Runner) *RunnerService {
	return NewRunnerService("scheduler", sched)
}

// Serve implements suture.Service. A runner that returns nil before the
// context is done is reported as an error so suture restarts it with
// backoff instead of in a tight loop.
func (s *RunnerService) Serve(ctx context.Context) error {
	err := s.runner.Serve(ctx)
	if err == nil && ctx.Err() == nil {
		return fmt.Errorf("%s stopped unexpectedly", s.name)
	}
	return err
}

// String names the service in supervisor logs.
func (s *RunnerService) String() string {
	return s.name
}
