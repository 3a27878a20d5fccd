// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package processor

import (
	"github.com/tomtom215/marquee/internal/logging"
)

// DeleteBackups removes backups while holding the run guard. An empty
// ratingKey removes the whole library; an empty library removes
// everything. The active posters in Plex are not touched, so deleted items
// will be processed again from their current (badged) poster.
func (p *Processor) DeleteBackups(library, ratingKey string) (int, error) {
	if !p.acquire() {
		return 0, ErrRunInProgress
	}
	defer p.release()

	var (
		n   int
		err error
	)
	switch {
	case library == "":
		n, err = p.deps.Backups.DeleteAll()
	case ratingKey == "":
		n, err = p.deps.Backups.DeleteLibrary(library)
	default:
		if err = p.deps.Backups.Delete(library, ratingKey); err == nil {
			n = 1
		}
	}
	if err != nil {
		return n, err
	}

	logging.Info().Str("library", library).Str("rating_key", ratingKey).Int("deleted", n).Msg("Backups deleted")
	return n, nil
}
