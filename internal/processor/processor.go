// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package processor runs badge, restore and fetch-fresh passes over Plex
libraries.

One run executes at a time. Start rejects a second run with
ErrRunInProgress instead of queueing it, and maintenance actions on the
backup directory take the same guard. Status returns a snapshot without
waiting on the active run. Progress is pushed best-effort through a
Publisher.

Cancel is cooperative: the flag is checked between items and interrupts the
inter-item delay, so an item that has started is always finished.
*/
package processor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/marquee/internal/badge"
	"github.com/tomtom215/marquee/internal/backup"
	"github.com/tomtom215/marquee/internal/plex"
	"github.com/tomtom215/marquee/internal/ratings"
	"github.com/tomtom215/marquee/internal/settings"
)

var (
	// ErrRunInProgress is returned when a run or maintenance action is
	// already active.
	ErrRunInProgress = errors.New("a run is already in progress")

	// ErrUnknownLibrary fails a run that names a library Plex does not have.
	ErrUnknownLibrary = errors.New("unknown library")

	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid run request")
)

// WebSocket message types published during a run.
const (
	MessageRunStarted  = "run_started"
	MessageRunProgress = "run_progress"
	MessageRunFinished = "run_finished"
)

// PlexAPI is the subset of the Plex client a run needs.
type PlexAPI interface {
	ListLibraries(ctx context.Context) ([]plex.Library, error)
	ListItems(ctx context.Context, sectionKey string) ([]plex.Item, error)
	GetItem(ctx context.Context, ratingKey string) (*plex.Item, error)
	DownloadPoster(ctx context.Context, item *plex.Item) ([]byte, string, error)
	UploadPoster(ctx context.Context, ratingKey string, data []byte, contentType string) error
	FetchFresh(ctx context.Context, ratingKey string) (string, error)
}

// Resolver produces the rating set for an item.
type Resolver interface {
	Resolve(ctx context.Context, s ratings.Subject, enabled []ratings.Source) ratings.RatingSet
}

// Publisher receives progress messages. Implementations must not block.
type Publisher interface {
	BroadcastJSON(messageType string, data interface{})
}

// RunRecorder persists a summary of each finished run.
type RunRecorder interface {
	RecordRun(ctx context.Context, r *settings.RunRecord) error
}

// Options tunes a Processor.
type Options struct {
	// ItemDelay separates items of process and fetch-fresh runs.
	ItemDelay time.Duration
	// RestoreDelay separates items of restore runs.
	RestoreDelay time.Duration
	// OutputFormat forces the uploaded format. Empty keeps the source format.
	OutputFormat badge.Format
	// Quality applies to JPEG and WebP output.
	Quality int
}

// DefaultOptions returns the production pacing.
func DefaultOptions() Options {
	return Options{
		ItemDelay:    300 * time.Millisecond,
		RestoreDelay: 100 * time.Millisecond,
		Quality:      badge.DefaultJPEGQuality,
	}
}

// Deps are the collaborators of a Processor. Publisher and Recorder may be nil.
type Deps struct {
	Plex      PlexAPI
	Resolver  Resolver
	Backups   *backup.Manager
	Renderer  *badge.Renderer
	Publisher Publisher
	Recorder  RunRecorder
}

// Processor owns run state.
type Processor struct {
	deps Deps
	opts Options

	mu       sync.RWMutex
	status   Status
	busy     bool
	cancelCh chan struct{}
	stopRun  context.CancelFunc

	wg    sync.WaitGroup
	sleep func(ctx context.Context, cancel <-chan struct{}, d time.Duration) bool
	now   func() time.Time
}

// New creates an idle processor.
func New(deps Deps, opts Options) *Processor {
	if deps.Renderer == nil {
		deps.Renderer = badge.NewRenderer(nil, nil)
	}
	if opts.Quality <= 0 {
		opts.Quality = badge.DefaultJPEGQuality
	}
	return &Processor{
		deps:   deps,
		opts:   opts,
		status: Status{State: StateIdle},
		sleep:  sleepOrCancel,
		now:    time.Now,
	}
}

// Status returns a snapshot of the current or last run.
func (p *Processor) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status.clone()
}

// Busy reports whether a run or maintenance action holds the guard.
func (p *Processor) Busy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.busy
}

// Cancel requests the active run to stop after the current item. It
// reports whether a run was active.
func (p *Processor) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status.State != StateRunning || p.cancelCh == nil {
		return false
	}
	if !p.status.CancelRequested {
		p.status.CancelRequested = true
		close(p.cancelCh)
	}
	return true
}

// Serve blocks until ctx is done, then cancels any active run and waits
// for it to finish. It lets the processor live in the supervisor tree.
func (p *Processor) Serve(ctx context.Context) error {
	<-ctx.Done()

	p.mu.Lock()
	if p.stopRun != nil {
		p.stopRun()
	}
	p.mu.Unlock()
	p.Cancel()

	p.wg.Wait()
	return ctx.Err()
}

// Wait blocks until no run goroutine is active.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// acquire takes the single-flight guard for a maintenance action.
func (p *Processor) acquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.busy {
		return false
	}
	p.busy = true
	return true
}

func (p *Processor) release() {
	p.mu.Lock()
	p.busy = false
	p.mu.Unlock()
}

func (p *Processor) publish(messageType string) {
	if p.deps.Publisher == nil {
		return
	}
	p.deps.Publisher.BroadcastJSON(messageType, p.Status())
}

// sleepOrCancel waits for d. It returns false if the run was cancelled or
// ctx ended first.
func sleepOrCancel(ctx context.Context, cancel <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		case <-cancel:
			return false
		default:
			return true
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-cancel:
		return false
	case <-timer.C:
		return true
	}
}
