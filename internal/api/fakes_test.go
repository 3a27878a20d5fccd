// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/tomtom215/marquee/internal/backup"
	"github.com/tomtom215/marquee/internal/badge"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/plex"
	"github.com/tomtom215/marquee/internal/processor"
	"github.com/tomtom215/marquee/internal/settings"
	"github.com/tomtom215/marquee/internal/webhook"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

type fakePlex struct {
	libraries []plex.Library
	counts    map[string]int
	pingErr   error
	listErr   error
	countErr  error
}

func (f *fakePlex) Ping(context.Context) (*plex.Identity, error) {
	if f.pingErr != nil {
		return nil, f.pingErr
	}
	return &plex.Identity{MachineIdentifier: "abc", Version: "1.40.0"}, nil
}

func (f *fakePlex) ListLibraries(context.Context) ([]plex.Library, error) {
	return f.libraries, f.listErr
}

func (f *fakePlex) FindLibrary(_ context.Context, name string) (*plex.Library, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	for i := range f.libraries {
		if f.libraries[i].Title == name {
			return &f.libraries[i], nil
		}
	}
	return nil, plex.ErrNotFound
}

func (f *fakePlex) CountItems(_ context.Context, key string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.counts[key], nil
}

func (f *fakePlex) BreakerState() string { return "closed" }

type fakeRuns struct {
	mu        sync.Mutex
	busy      bool
	startErr  error
	requests  []processor.Request
	status    processor.Status
	deleteErr error
	deleted   [][2]string
}

func (f *fakeRuns) Start(_ context.Context, req processor.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	if f.busy {
		return "", processor.ErrRunInProgress
	}
	f.requests = append(f.requests, req)
	return "run-1", nil
}

func (f *fakeRuns) Status() processor.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeRuns) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

func (f *fakeRuns) Cancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

func (f *fakeRuns) DeleteBackups(library, ratingKey string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return 0, processor.ErrRunInProgress
	}
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deleted = append(f.deleted, [2]string{library, ratingKey})
	return 1, nil
}

func (f *fakeRuns) lastRequest(t *testing.T) processor.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("no run was started")
	}
	return f.requests[len(f.requests)-1]
}

type fakeBackups struct {
	records map[string][]backup.Record
	stats   map[string]*backup.Stats
}

func (f *fakeBackups) List(library string) ([]backup.Record, error) {
	if recs, ok := f.records[library]; ok {
		return recs, nil
	}
	return []backup.Record{}, nil
}

func (f *fakeBackups) Stats(library string) (*backup.Stats, error) {
	if s, ok := f.stats[library]; ok {
		return s, nil
	}
	return nil, backup.ErrNotFound
}

type fakeSink struct {
	mu       sync.Mutex
	payloads []*webhook.Payload
}

func (f *fakeSink) Add(p *webhook.Payload) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return p.Relevant()
}

// testEnv is a router backed by fakes and an in-memory settings store.
type testEnv struct {
	plex     *fakePlex
	runs     *fakeRuns
	backups  *fakeBackups
	settings *settings.Store
	sink     *fakeSink
	handler  http.Handler
}

type envOption func(*Deps)

func withoutWebhooks() envOption {
	return func(d *Deps) { d.Webhooks = nil }
}

func withWebhookSecret(secret string) envOption {
	return func(d *Deps) { d.WebhookSecret = secret }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	store, err := settings.Open("")
	if err != nil {
		t.Fatalf("settings.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	env := &testEnv{
		plex: &fakePlex{
			libraries: []plex.Library{
				{Key: "1", Title: "Movies", Type: "movie"},
				{Key: "2", Title: "TV Shows", Type: "show"},
				{Key: "3", Title: "Music", Type: "artist"},
			},
			counts: map[string]int{"1": 40, "2": 12, "3": 900},
		},
		runs:     &fakeRuns{status: processor.Status{State: processor.StateIdle}},
		backups:  &fakeBackups{records: map[string][]backup.Record{}, stats: map[string]*backup.Stats{}},
		settings: store,
		sink:     &fakeSink{},
	}

	deps := Deps{
		Plex:         env.plex,
		Runs:         env.runs,
		Backups:      env.backups,
		Settings:     store,
		Renderer:     badge.NewRenderer(nil, nil),
		Webhooks:     env.sink,
		DefaultStyle: badge.DefaultSpec(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	env.handler = NewRouter(NewHandler(deps), NewChiMiddleware(cfg), nil).SetupChi()
	return env
}
