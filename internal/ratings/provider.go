// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package ratings

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/tomtom215/marquee/internal/breaker"
	"github.com/tomtom215/marquee/internal/cache"
	"github.com/tomtom215/marquee/internal/metrics"
)

// Provider is an external rating service.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Sources lists the sources this provider can answer.
	Sources() []Source

	// Lookup returns values on native scales for any of Sources it found,
	// or ErrNotFound when it has none.
	Lookup(ctx context.Context, s Subject) (map[Source]float64, error)
}

// GuardOptions configures Guard.
type GuardOptions struct {
	// Interval is the minimum spacing between calls to the provider.
	// Zero disables the limiter.
	Interval time.Duration

	// CacheTTL keeps answers (including not-found) for this long.
	// Zero disables caching.
	CacheTTL time.Duration

	// Breaker overrides breaker.DefaultSettings.
	Breaker *breaker.Settings
}

// Guarded decorates a Provider with a call-spacing limiter, a circuit
// breaker, a TTL cache, and deduplication of concurrent identical lookups.
type Guarded struct {
	inner   Provider
	limiter *rate.Limiter
	breaker *breaker.Breaker
	cache   *cache.TTL[lookupResult]
	group   singleflight.Group
}

type lookupResult struct {
	values   map[Source]float64
	notFound bool
}

// Guard wraps p.
func Guard(p Provider, opts GuardOptions) *Guarded {
	g := &Guarded{inner: p}
	if opts.Interval > 0 {
		g.limiter = rate.NewLimiter(rate.Every(opts.Interval), 1)
	}
	if opts.CacheTTL > 0 {
		g.cache = cache.New[lookupResult](opts.CacheTTL)
	}

	settings := breaker.DefaultSettings()
	if opts.Breaker != nil {
		settings = *opts.Breaker
	}
	g.breaker = breaker.New("provider-"+p.Name(), settings, func(err error) bool {
		return errors.Is(err, ErrNotFound)
	})
	return g
}

func (g *Guarded) Name() string { return g.inner.Name() }

func (g *Guarded) Sources() []Source { return g.inner.Sources() }

// SweepCache drops expired cache entries until ctx is done. It returns
// immediately when caching is disabled.
func (g *Guarded) SweepCache(ctx context.Context, interval time.Duration) {
	if g.cache == nil {
		return
	}
	g.cache.RunSweeper(ctx, interval)
}

// Lookup implements Provider.
func (g *Guarded) Lookup(ctx context.Context, s Subject) (map[Source]float64, error) {
	key := cacheKey(g.inner.Name(), s)

	if g.cache != nil {
		if res, ok := g.cache.Get(key); ok {
			metrics.RecordCacheLookup("ratings", true)
			return res.unwrap()
		}
		metrics.RecordCacheLookup("ratings", false)
	}

	v, err, _ := g.group.Do(key, func() (interface{}, error) {
		return g.call(ctx, s)
	})
	if err != nil {
		return nil, err
	}

	res := v.(lookupResult)
	if g.cache != nil {
		g.cache.Set(key, res)
	}
	return res.unwrap()
}

func (g *Guarded) call(ctx context.Context, s Subject) (lookupResult, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return lookupResult{}, err
		}
	}

	start := time.Now()
	values, err := breaker.Do(g.breaker, func() (map[Source]float64, error) {
		return g.inner.Lookup(ctx, s)
	})

	switch {
	case errors.Is(err, ErrNotFound):
		metrics.RecordProviderRequest(g.inner.Name(), "not_found", time.Since(start))
		return lookupResult{notFound: true}, nil
	case err != nil:
		metrics.RecordProviderRequest(g.inner.Name(), "error", time.Since(start))
		return lookupResult{}, err
	}
	metrics.RecordProviderRequest(g.inner.Name(), "success", time.Since(start))
	return lookupResult{values: values}, nil
}

func (r lookupResult) unwrap() (map[Source]float64, error) {
	if r.notFound {
		return nil, ErrNotFound
	}
	return r.values, nil
}

func cacheKey(provider string, s Subject) string {
	return provider + ":" + string(s.Kind) + ":" + s.TMDBID + ":" + s.IMDbID
}
