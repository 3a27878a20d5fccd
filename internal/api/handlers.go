// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"time"

	"github.com/tomtom215/marquee/internal/backup"
	"github.com/tomtom215/marquee/internal/badge"
	"github.com/tomtom215/marquee/internal/plex"
	"github.com/tomtom215/marquee/internal/processor"
	"github.com/tomtom215/marquee/internal/settings"
	"github.com/tomtom215/marquee/internal/webhook"
)

// PlexAPI is the subset of the Plex client the handlers read from.
type PlexAPI interface {
	Ping(ctx context.Context) (*plex.Identity, error)
	ListLibraries(ctx context.Context) ([]plex.Library, error)
	FindLibrary(ctx context.Context, name string) (*plex.Library, error)
	CountItems(ctx context.Context, sectionKey string) (int, error)
	BreakerState() string
}

// RunController starts and observes processor runs.
type RunController interface {
	Start(ctx context.Context, req processor.Request) (string, error)
	Status() processor.Status
	Busy() bool
	Cancel() bool
	DeleteBackups(library, ratingKey string) (int, error)
}

// BackupStore lists stored originals.
type BackupStore interface {
	List(library string) ([]backup.Record, error)
	Stats(library string) (*backup.Stats, error)
}

// SettingsStore persists the saved style and run history.
type SettingsStore interface {
	Load(ctx context.Context) (*settings.Settings, error)
	Save(ctx context.Context, st *settings.Settings) error
	RecentRuns(ctx context.Context, limit int) ([]settings.RunRecord, error)
}

// WebhookSink queues webhook events. A nil sink means webhooks are disabled.
type WebhookSink interface {
	Add(p *webhook.Payload) bool
}

// Deps are the collaborators of Handler.
type Deps struct {
	Plex     PlexAPI
	Runs     RunController
	Backups  BackupStore
	Settings SettingsStore
	Renderer *badge.Renderer
	Webhooks WebhookSink

	// DefaultStyle is used when nothing has been saved yet.
	DefaultStyle badge.Spec
	// WebhookSecret enables X-Plex-Signature verification when set.
	WebhookSecret string
}

// Handler serves the HTTP API.
type Handler struct {
	plex          PlexAPI
	runs          RunController
	backups       BackupStore
	settings      SettingsStore
	renderer      *badge.Renderer
	webhooks      WebhookSink
	defaultStyle  badge.Spec
	webhookSecret string
	startTime     time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		plex:          deps.Plex,
		runs:          deps.Runs,
		backups:       deps.Backups,
		settings:      deps.Settings,
		renderer:      deps.Renderer,
		webhooks:      deps.Webhooks,
		defaultStyle:  deps.DefaultStyle,
		webhookSecret: deps.WebhookSecret,
		startTime:     time.Now(),
	}
}

// savedSpec returns the saved style, or the configured default.
func (h *Handler) savedSpec(ctx context.Context) badge.Spec {
	st, err := h.settings.Load(ctx)
	if err != nil {
		return h.defaultStyle
	}
	return st.Style
}
