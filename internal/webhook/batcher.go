// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
batcher.go - Webhook Debounce Batcher

Plex sends one library.new event per item, so a season import or a bulk
scan produces a burst. The batcher collects rating keys into a single
pending batch and starts one targeted run once the burst has been quiet
for the debounce window.

There is never more than one pending batch. When the processor is busy
the batch stays pending, newer events merge into it, and dispatch is
retried after RetryDelay.
*/
//nolint:staticcheck // File documentation, not package doc
package webhook

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/marquee/internal/badge"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/processor"
)

// Starter launches runs. *processor.Processor implements it.
type Starter interface {
	Start(ctx context.Context, req processor.Request) (string, error)
}

// StyleFunc returns the style a webhook run renders with.
type StyleFunc func(ctx context.Context) badge.Style

// Config controls batching.
type Config struct {
	// Window is the quiet period after the last event before dispatch.
	Window time.Duration
	// RetryDelay is the wait before retrying a batch the processor rejected.
	RetryDelay time.Duration
	// Libraries restricts accepted events by library title. Empty accepts
	// every movie and show library.
	Libraries []string
}

// DefaultConfig returns a 30s window with a 1m retry.
func DefaultConfig() Config {
	return Config{Window: 30 * time.Second, RetryDelay: time.Minute}
}

// Batcher debounces webhook events into processing runs. Run it with
// Serve, typically under the supervisor tree.
type Batcher struct {
	starter Starter
	style   StyleFunc
	cfg     Config
	allowed map[string]bool

	mu      sync.Mutex
	pending map[string]struct{}
	order   []string

	notify chan struct{}
}

// NewBatcher creates a batcher. style may be nil, in which case the
// default badge style is used.
func NewBatcher(starter Starter, style StyleFunc, cfg Config) *Batcher {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if style == nil {
		style = func(context.Context) badge.Style { return badge.DefaultStyle() }
	}

	allowed := make(map[string]bool, len(cfg.Libraries))
	for _, lib := range cfg.Libraries {
		allowed[lib] = true
	}

	return &Batcher{
		starter: starter,
		style:   style,
		cfg:     cfg,
		allowed: allowed,
		pending: make(map[string]struct{}),
		notify:  make(chan struct{}, 1),
	}
}

// Add queues the item of a relevant event. It reports whether the event
// was queued; irrelevant events are counted and ignored.
func (b *Batcher) Add(p *Payload) bool {
	if !p.Relevant() || (len(b.allowed) > 0 && !b.allowed[p.Metadata.LibraryTitle]) {
		metrics.WebhookEvents.WithLabelValues(p.Event, "ignored").Inc()
		return false
	}

	b.mu.Lock()
	if _, ok := b.pending[p.Metadata.RatingKey]; !ok {
		b.pending[p.Metadata.RatingKey] = struct{}{}
		b.order = append(b.order, p.Metadata.RatingKey)
	}
	b.mu.Unlock()

	metrics.WebhookEvents.WithLabelValues(p.Event, "queued").Inc()
	logging.Debug().
		Str("rating_key", p.Metadata.RatingKey).
		Str("library", p.Metadata.LibraryTitle).
		Msg("Webhook item queued")

	select {
	case b.notify <- struct{}{}:
	default:
	}
	return true
}

// Pending returns the number of queued items.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// Serve runs the debounce loop until ctx is cancelled.
func (b *Batcher) Serve(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if n := b.Pending(); n > 0 {
				logging.Warn().Int("items", n).Msg("Webhook batch discarded on shutdown")
			}
			return ctx.Err()

		case <-b.notify:
			timer.Reset(b.cfg.Window)

		case <-timer.C:
			if !b.flush(ctx) {
				timer.Reset(b.cfg.RetryDelay)
			}
		}
	}
}

// flush dispatches the pending batch. It returns false when the batch
// must be retried.
func (b *Batcher) flush(ctx context.Context) bool {
	b.mu.Lock()
	keys := append([]string(nil), b.order...)
	b.mu.Unlock()
	if len(keys) == 0 {
		return true
	}

	req := processor.Request{
		Kind:       processor.KindProcess,
		Libraries:  append([]string(nil), b.cfg.Libraries...),
		Style:      b.style(ctx),
		RatingKeys: keys,
		Trigger:    processor.TriggerWebhook,
	}

	runID, err := b.starter.Start(ctx, req)
	switch {
	case errors.Is(err, processor.ErrRunInProgress):
		metrics.WebhookBatches.WithLabelValues("deferred").Inc()
		logging.Info().
			Int("items", len(keys)).
			Dur("retry_in", b.cfg.RetryDelay).
			Msg("Processor busy, webhook batch deferred")
		return false

	case err != nil:
		metrics.WebhookBatches.WithLabelValues("dropped").Inc()
		logging.Error().Err(err).Int("items", len(keys)).Msg("Webhook batch dropped")
		b.remove(keys)
		return true
	}

	metrics.WebhookBatches.WithLabelValues("started").Inc()
	metrics.WebhookBatchSize.Observe(float64(len(keys)))
	logging.Info().Str("run_id", runID).Int("items", len(keys)).Msg("Webhook batch started")
	b.remove(keys)
	return true
}

// remove drops dispatched keys, keeping any that arrived during dispatch.
func (b *Batcher) remove(keys []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, k := range keys {
		delete(b.pending, k)
	}
	kept := b.order[:0]
	for _, k := range b.order {
		if _, ok := b.pending[k]; ok {
			kept = append(kept, k)
		}
	}
	b.order = kept
}
