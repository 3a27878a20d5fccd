// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package ratings

import (
	"context"
	"errors"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
)

// Normalizer turns embedded and provider values into a RatingSet.
type Normalizer struct {
	bySource map[Source]Provider
}

// NewNormalizer maps each source to the first provider that offers it.
// Nil providers are ignored, so unconfigured ones can be passed as nil.
func NewNormalizer(providers ...Provider) *Normalizer {
	n := &Normalizer{bySource: make(map[Source]Provider)}
	for _, p := range providers {
		if p == nil {
			continue
		}
		for _, src := range p.Sources() {
			if _, taken := n.bySource[src]; !taken {
				n.bySource[src] = p
			}
		}
	}
	return n
}

// HasProvider reports whether src can be looked up externally.
func (n *Normalizer) HasProvider(src Source) bool {
	_, ok := n.bySource[src]
	return ok
}

// Resolve returns a RatingSet holding exactly the enabled sources.
//
// Plex-embedded values are used first. The remaining sources are grouped by
// provider so that a provider answering several sources is called once.
// A provider error marks only its sources missing.
func (n *Normalizer) Resolve(ctx context.Context, s Subject, enabled []Source) RatingSet {
	set := make(RatingSet, len(enabled))
	want := make(map[Source]bool, len(enabled))
	for _, src := range enabled {
		want[src] = true
	}

	var order []Provider
	pending := make(map[Provider][]Source)

	for _, src := range AllSources {
		if !want[src] {
			continue
		}
		if v, ok := s.Embedded[src]; ok && v > 0 {
			set[src] = Rating{Value: v, Scale: src.Scale(), Origin: OriginPlex}
			continue
		}
		p, ok := n.bySource[src]
		if !ok {
			set[src] = Missing(src)
			continue
		}
		if _, seen := pending[p]; !seen {
			order = append(order, p)
		}
		pending[p] = append(pending[p], src)
	}

	for _, p := range order {
		values, err := p.Lookup(ctx, s)
		if err != nil && !errors.Is(err, ErrNotFound) {
			logging.Ctx(ctx).Warn().Err(err).
				Str("provider", p.Name()).
				Str("title", s.Title).
				Msg("Rating provider lookup failed")
		}
		for _, src := range pending[p] {
			if v, ok := values[src]; ok && err == nil {
				set[src] = Rating{Value: v, Scale: src.Scale(), Origin: OriginExternal}
			} else {
				set[src] = Missing(src)
			}
		}
	}

	for src, r := range set {
		metrics.RatingsResolved.WithLabelValues(string(src), string(r.Origin)).Inc()
	}
	return set
}
