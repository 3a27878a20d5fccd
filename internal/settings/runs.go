// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// RunRecord summarizes one finished run.
type RunRecord struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	State      string    `json:"state"`
	Trigger    string    `json:"trigger"`
	Libraries  []string  `json:"libraries"`
	Force      bool      `json:"force"`
	Total      int       `json:"total"`
	Success    int       `json:"success"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// runKey orders records by finish time; the id keeps keys unique.
func runKey(r *RunRecord) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", runKeyPrefix, r.FinishedAt.UnixNano(), r.ID))
}

// RecordRun stores a finished run. Records expire after the store's run TTL.
func (s *Store) RecordRun(_ context.Context, r *RunRecord) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(runKey(r), data).WithTTL(s.runTTL))
	})
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(_ context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	runs := make([]RunRecord, 0, limit)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(runKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts from the largest key under the prefix.
		seek := append([]byte(runKeyPrefix), 0xff)
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix) && len(runs) < limit; it.Next() {
			var r RunRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return fmt.Errorf("decode run: %w", err)
			}
			runs = append(runs, r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
