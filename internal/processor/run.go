// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/plex"
	"github.com/tomtom215/marquee/internal/settings"
)

// outcome of one item.
type outcome string

const (
	outcomeSuccess outcome = "success"
	outcomeFailed  outcome = "failed"
	outcomeSkipped outcome = "skipped"
)

// workItem is one item queued for the run.
type workItem struct {
	library string
	item    plex.Item
	// full is set when item already carries Guid and Rating arrays.
	full bool
	// err fails the item without touching Plex.
	err error
}

// Start begins a run on its own goroutine and returns its id. It returns
// ErrRunInProgress without touching the current status if the processor is
// busy.
func (p *Processor) Start(ctx context.Context, req Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		metrics.RunsRejected.WithLabelValues(req.Trigger).Inc()
		return "", ErrRunInProgress
	}

	runID := logging.GenerateRunID()
	runCtx, stop := context.WithCancel(logging.ContextWithRunID(context.WithoutCancel(ctx), runID))
	started := p.now()

	p.busy = true
	p.cancelCh = make(chan struct{})
	p.stopRun = stop
	p.status = Status{
		RunID:     runID,
		Kind:      req.Kind,
		State:     StateRunning,
		Trigger:   req.Trigger,
		Libraries: append([]string(nil), req.Libraries...),
		Force:     req.Force,
		StartedAt: &started,
	}
	cancelCh := p.cancelCh
	p.wg.Add(1)
	p.mu.Unlock()

	metrics.RunActive.Set(1)
	logging.Ctx(runCtx).Info().
		Str("kind", string(req.Kind)).
		Str("trigger", req.Trigger).
		Strs("libraries", req.Libraries).
		Bool("force", req.Force).
		Int("rating_keys", len(req.RatingKeys)).
		Msg("Run started")
	p.publish(MessageRunStarted)

	go func() {
		defer p.wg.Done()
		defer stop()
		state, err := p.run(runCtx, cancelCh, &req)
		p.finish(runCtx, &req, state, err)
	}()

	return runID, nil
}

func (p *Processor) run(ctx context.Context, cancelCh <-chan struct{}, req *Request) (State, error) {
	work, err := p.collect(ctx, req)
	if err != nil {
		return StateFailed, err
	}

	p.mu.Lock()
	p.status.Total = len(work)
	p.mu.Unlock()

	delay := p.opts.ItemDelay
	if req.Kind == KindRestore {
		delay = p.opts.RestoreDelay
	}

	for i := range work {
		if p.cancelled(ctx, cancelCh) {
			return StateCancelled, nil
		}
		if i > 0 && !p.sleep(ctx, cancelCh, delay) {
			return StateCancelled, nil
		}

		w := &work[i]
		p.mu.Lock()
		p.status.Current = i + 1
		p.status.CurrentLibrary = w.library
		p.status.CurrentItem = w.item.Title
		p.mu.Unlock()

		start := time.Now()
		out, err := p.handle(ctx, req, w)
		metrics.RecordItem(string(req.Kind), string(out), time.Since(start))
		p.record(w, out, err)

		p.publish(MessageRunProgress)
	}
	return StateCompleted, nil
}

func (p *Processor) cancelled(ctx context.Context, cancelCh <-chan struct{}) bool {
	select {
	case <-cancelCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (p *Processor) handle(ctx context.Context, req *Request, w *workItem) (outcome, error) {
	if w.err != nil {
		return outcomeFailed, w.err
	}
	switch req.Kind {
	case KindRestore:
		return p.restoreItem(ctx, w)
	case KindFetchFresh:
		return p.freshItem(ctx, w)
	default:
		return p.processItem(ctx, req, w)
	}
}

// record updates counters. success + failed + skipped always equals
// Current once an item is recorded.
func (p *Processor) record(w *workItem, out outcome, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch out {
	case outcomeSuccess:
		p.status.Success++
	case outcomeSkipped:
		p.status.Skipped++
	default:
		p.status.Failed++
		if len(p.status.Failures) < maxFailures {
			msg := "unknown error"
			if err != nil {
				msg = err.Error()
			}
			p.status.Failures = append(p.status.Failures, ItemError{
				Library:   w.library,
				RatingKey: w.item.RatingKey,
				Title:     w.item.Title,
				Error:     msg,
			})
		}
	}
}

// collect lists the items of the run in library listing order.
func (p *Processor) collect(ctx context.Context, req *Request) ([]workItem, error) {
	if len(req.RatingKeys) > 0 {
		return p.collectTargeted(ctx, req)
	}

	libs, err := p.libraries(ctx, req.Libraries)
	if err != nil {
		return nil, err
	}

	var work []workItem
	for _, lib := range libs {
		items, err := p.deps.Plex.ListItems(ctx, lib.Key)
		if err != nil {
			return nil, fmt.Errorf("list items of %q: %w", lib.Title, err)
		}
		if req.Limit > 0 && len(items) > req.Limit {
			items = items[:req.Limit]
		}
		for _, it := range items {
			work = append(work, workItem{library: lib.Title, item: it})
		}
		logging.Ctx(ctx).Debug().Str("library", lib.Title).Int("items", len(items)).Msg("Library listed")
	}
	return work, nil
}

// libraries resolves requested titles. An empty request selects every
// movie and show library.
func (p *Processor) libraries(ctx context.Context, names []string) ([]plex.Library, error) {
	all, err := p.deps.Plex.ListLibraries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}

	if len(names) == 0 {
		var out []plex.Library
		for _, lib := range all {
			if lib.Supported() {
				out = append(out, lib)
			}
		}
		return out, nil
	}

	byTitle := make(map[string]plex.Library, len(all))
	for _, lib := range all {
		byTitle[lib.Title] = lib
	}
	out := make([]plex.Library, 0, len(names))
	for _, name := range names {
		lib, ok := byTitle[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLibrary, name)
		}
		out = append(out, lib)
	}
	return out, nil
}

// collectTargeted fetches each requested item directly. Items that cannot
// be fetched are queued as failures so they show up in the counters.
func (p *Processor) collectTargeted(ctx context.Context, req *Request) ([]workItem, error) {
	allowed := make(map[string]bool, len(req.Libraries))
	for _, name := range req.Libraries {
		allowed[name] = true
	}

	work := make([]workItem, 0, len(req.RatingKeys))
	for _, key := range req.RatingKeys {
		it, err := p.deps.Plex.GetItem(ctx, key)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("rating_key", key).Msg("Failed to fetch targeted item")
			lib := ""
			if len(req.Libraries) == 1 {
				lib = req.Libraries[0]
			}
			work = append(work, workItem{library: lib, item: plex.Item{RatingKey: key, Title: key}, err: err})
			continue
		}
		lib := it.LibraryTitle
		if lib == "" && len(req.Libraries) == 1 {
			lib = req.Libraries[0]
		}
		if len(allowed) > 0 && !allowed[lib] {
			continue
		}
		work = append(work, workItem{library: lib, item: *it, full: true})
	}
	return work, nil
}

func (p *Processor) finish(ctx context.Context, req *Request, state State, err error) {
	finished := p.now()

	p.mu.Lock()
	p.status.State = state
	p.status.FinishedAt = &finished
	p.status.CurrentItem = ""
	if err != nil {
		p.status.Error = err.Error()
	}
	snapshot := p.status.clone()
	p.busy = false
	p.cancelCh = nil
	p.stopRun = nil
	p.mu.Unlock()

	metrics.RecordRunFinished(string(req.Kind), string(state))

	ev := logging.Ctx(ctx).Info()
	if state == StateFailed {
		ev = logging.Ctx(ctx).Error().Err(err)
	}
	ev.Str("state", string(state)).
		Int("total", snapshot.Total).
		Int("success", snapshot.Success).
		Int("failed", snapshot.Failed).
		Int("skipped", snapshot.Skipped).
		Dur("duration", finished.Sub(*snapshot.StartedAt)).
		Msg("Run finished")

	if p.deps.Publisher != nil {
		p.deps.Publisher.BroadcastJSON(MessageRunFinished, snapshot)
	}

	if p.deps.Recorder != nil {
		rec := &settings.RunRecord{
			ID:         snapshot.RunID,
			Kind:       string(snapshot.Kind),
			State:      string(state),
			Trigger:    snapshot.Trigger,
			Libraries:  snapshot.Libraries,
			Force:      snapshot.Force,
			Total:      snapshot.Total,
			Success:    snapshot.Success,
			Failed:     snapshot.Failed,
			Skipped:    snapshot.Skipped,
			Error:      snapshot.Error,
			StartedAt:  *snapshot.StartedAt,
			FinishedAt: finished,
		}
		if err := p.deps.Recorder.RecordRun(context.WithoutCancel(ctx), rec); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to record run history")
		}
	}
}
