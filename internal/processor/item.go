// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package processor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/tomtom215/marquee/internal/backup"
	"github.com/tomtom215/marquee/internal/badge"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/plex"
)

// processItem renders badges for one item.
//
// Order: check backup state, resolve ratings, render, back up the original
// if this is the first time, upload. A backup created here is removed again
// if the upload fails, so a processed item always has an uploaded overlay.
func (p *Processor) processItem(ctx context.Context, req *Request, w *workItem) (outcome, error) {
	log := logging.Ctx(ctx).With().Str("library", w.library).Str("item", w.item.Title).Str("rating_key", w.item.RatingKey).Logger()

	processed := p.deps.Backups.IsProcessed(w.library, w.item.RatingKey)
	if processed && !req.Force {
		log.Debug().Msg("Already processed, skipping")
		return outcomeSkipped, nil
	}

	item := &w.item
	if !w.full {
		full, err := p.deps.Plex.GetItem(ctx, w.item.RatingKey)
		if err != nil {
			return outcomeFailed, fmt.Errorf("get metadata: %w", err)
		}
		item = full
	}

	set := p.deps.Resolver.Resolve(ctx, item.Subject(), req.Style.Sources)
	if !set.AnyResolved(req.Style.Sources) {
		log.Info().Msg("No ratings available, skipping")
		return outcomeSkipped, nil
	}

	// A forced re-render always starts from the stored original so badges
	// never stack.
	var original []byte
	var err error
	if processed {
		original, _, err = p.deps.Backups.Original(w.library, item.RatingKey)
		if err != nil {
			return outcomeFailed, fmt.Errorf("read backup: %w", err)
		}
	} else {
		original, _, err = p.deps.Plex.DownloadPoster(ctx, item)
		if err != nil {
			return outcomeFailed, fmt.Errorf("download poster: %w", err)
		}
	}

	img, srcFormat, err := badge.Decode(original)
	if err != nil {
		return outcomeFailed, fmt.Errorf("decode poster: %w", err)
	}
	rendered, err := p.deps.Renderer.Compose(img, set, req.Style)
	if err != nil {
		return outcomeFailed, err
	}

	outFormat := p.opts.OutputFormat
	if outFormat == "" {
		outFormat = srcFormat
	}
	data, err := badge.EncodeBytes(rendered, outFormat, p.opts.Quality)
	if err != nil {
		return outcomeFailed, fmt.Errorf("encode poster: %w", err)
	}

	created := false
	if !processed {
		_, err := p.deps.Backups.Create(backup.Record{
			Library:   w.library,
			RatingKey: item.RatingKey,
			Title:     item.Title,
			Year:      item.Year,
			TMDBID:    item.TMDBID(),
			IMDbID:    item.IMDbID(),
			Ratings:   set.Values(),
		}, original, srcFormat.Ext())
		if err != nil {
			return outcomeFailed, fmt.Errorf("backup original: %w", err)
		}
		created = true
		if dir, err := p.deps.Backups.ItemDir(w.library, item.RatingKey); err == nil {
			log.Debug().Str("dir", dir).Msg("Original poster backed up")
		}
	}

	if err := p.deps.Plex.UploadPoster(ctx, item.RatingKey, data, outFormat.ContentType()); err != nil {
		if created {
			if derr := p.deps.Backups.Delete(w.library, item.RatingKey); derr != nil {
				log.Warn().Err(derr).Msg("Failed to remove backup after upload failure")
			}
		}
		return outcomeFailed, fmt.Errorf("upload poster: %w", err)
	}

	log.Info().Interface("ratings", set.Values()).Bool("forced", processed).Msg("Poster updated")
	return outcomeSuccess, nil
}

// restoreItem uploads the stored original. Items without a backup are
// skipped. The backup is kept.
func (p *Processor) restoreItem(ctx context.Context, w *workItem) (outcome, error) {
	rec, err := p.deps.Backups.Record(w.library, w.item.RatingKey)
	if errors.Is(err, backup.ErrNotFound) {
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeFailed, fmt.Errorf("read backup: %w", err)
	}
	format, err := badge.ParseFormat(filepath.Ext(rec.OriginalFile))
	if err != nil {
		return outcomeFailed, err
	}

	original, _, err := p.deps.Backups.Original(w.library, w.item.RatingKey)
	if err != nil {
		return outcomeFailed, fmt.Errorf("read backup: %w", err)
	}
	if err := p.deps.Plex.UploadPoster(ctx, w.item.RatingKey, original, format.ContentType()); err != nil {
		return outcomeFailed, fmt.Errorf("upload original: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("library", w.library).
		Str("item", w.item.Title).
		Time("backed_up_at", rec.BackedUpAt).
		Msg("Original poster restored")
	return outcomeSuccess, nil
}

// freshItem selects an upstream poster. The backup is left alone, so the
// item still counts as processed and a normal run will skip it.
func (p *Processor) freshItem(ctx context.Context, w *workItem) (outcome, error) {
	u, err := p.deps.Plex.FetchFresh(ctx, w.item.RatingKey)
	if errors.Is(err, plex.ErrNoFreshPoster) {
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeFailed, fmt.Errorf("fetch fresh poster: %w", err)
	}

	logging.Ctx(ctx).Info().Str("library", w.library).Str("item", w.item.Title).Str("poster", u).Msg("Fresh poster selected")
	return outcomeSuccess, nil
}
