// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package settings persists the last saved badge style and a short history
// of finished runs in BadgerDB.
package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/badge"
	"github.com/tomtom215/marquee/internal/logging"
)

// ErrNotFound is returned when nothing has been saved yet.
var ErrNotFound = errors.New("settings not found")

// Key prefixes for BadgerDB storage
const (
	styleKey      = "settings:style"
	runKeyPrefix  = "run:"
	defaultRunTTL = 30 * 24 * time.Hour
)

// Settings is what the UI saves between runs.
type Settings struct {
	Style     badge.Spec `json:"style"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Store is a BadgerDB-backed settings store.
type Store struct {
	db     *badger.DB
	runTTL time.Duration
}

// Open opens (or creates) the store at path. An empty path keeps
// everything in memory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	logging.Info().Str("path", path).Bool("in_memory", path == "").Msg("Settings store opened")
	return &Store{db: db, runTTL: defaultRunTTL}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the saved settings or ErrNotFound.
func (s *Store) Load(_ context.Context) (*Settings, error) {
	var st Settings
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(styleKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get settings: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &st)
		})
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Save validates and stores st. The style must convert to a badge.Style.
func (s *Store) Save(_ context.Context, st *Settings) error {
	if _, err := st.Style.Style(); err != nil {
		return fmt.Errorf("invalid style: %w", err)
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(styleKey), data)
	})
}

// StyleOr returns the saved style, or fallback when none is saved or the
// saved one no longer parses.
func (s *Store) StyleOr(ctx context.Context, fallback badge.Spec) badge.Spec {
	st, err := s.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.Warn().Err(err).Msg("Failed to load saved style, using configured default")
		}
		return fallback
	}
	if _, err := st.Style.Style(); err != nil {
		logging.Warn().Err(err).Msg("Saved style is invalid, using configured default")
		return fallback
	}
	return st.Style
}
