// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"time"
)

// CacheSweeper matches *ratings.Guarded.
type CacheSweeper interface {
	Name() string
	SweepCache(ctx context.Context, interval time.Duration)
}

// CacheSweeperService evicts expired provider answers on an interval.
type CacheSweeperService struct {
	sweeper  CacheSweeper
	interval time.Duration
	name     string
}

// NewCacheSweeperService creates a sweeper service. A non-positive
// interval becomes 10 minutes.
func NewCacheSweeperService(sweeper CacheSweeper, interval time.Duration) *CacheSweeperService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CacheSweeperService{
		sweeper:  sweeper,
		interval: interval,
		name:     "cache-sweeper-" + sweeper.Name(),
	}
}

// Serve implements suture.Service. SweepCache returns at once when the
// provider has no cache; the service then idles until shutdown.
func (s *CacheSweeperService) Serve(ctx context.Context) error {
	s.sweeper.SweepCache(ctx, s.interval)
	<-ctx.Done()
	return ctx.Err()
}

// String names the service in supervisor logs.
func (s *CacheSweeperService) String() string {
	return s.name
}
