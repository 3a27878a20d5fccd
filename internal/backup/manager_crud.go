// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
)

// Create stores original as the item's backup. ext is the file extension
// including the dot. Returns ErrExists if the item already has a backup;
// an existing backup is never overwritten.
func (m *Manager) Create(rec Record, original []byte, ext string) (*Record, error) {
	if len(original) == 0 {
		return nil, fmt.Errorf("original poster is empty")
	}
	dir, err := m.itemDir(rec.Library, rec.RatingKey)
	if err != nil {
		return nil, err
	}
	if ext == "" || !strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\`) {
		return nil, fmt.Errorf("invalid extension %q", ext)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if fileExists(filepath.Join(dir, metadataFile)) {
		return nil, ErrExists
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create item directory: %w", err)
	}

	sum := sha256.Sum256(original)
	rec.OriginalFile = originalPrefix + ext
	rec.Size = int64(len(original))
	rec.Checksum = hex.EncodeToString(sum[:])
	rec.BackedUpAt = m.now().UTC()
	if rec.Ratings == nil {
		rec.Ratings = map[string]float64{}
	}

	if err := writeFileAtomic(filepath.Join(dir, rec.OriginalFile), original); err != nil {
		return nil, fmt.Errorf("failed to write original poster: %w", err)
	}

	meta, err := json.MarshalIndent(&rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backup metadata: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, metadataFile), meta); err != nil {
		_ = os.Remove(filepath.Join(dir, rec.OriginalFile))
		return nil, fmt.Errorf("failed to write backup metadata: %w", err)
	}

	metrics.BackupsCreated.Inc()
	return &rec, nil
}

// IsProcessed reports whether the item has a complete backup.
func (m *Manager) IsProcessed(library, ratingKey string) bool {
	dir, err := m.itemDir(library, ratingKey)
	if err != nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fileExists(filepath.Join(dir, metadataFile))
}

// Record returns the backup metadata for an item.
func (m *Manager) Record(library, ratingKey string) (*Record, error) {
	dir, err := m.itemDir(library, ratingKey)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return readRecord(dir)
}

// Original returns the stored original poster bytes, verified against the
// recorded checksum.
func (m *Manager) Original(library, ratingKey string) ([]byte, *Record, error) {
	dir, err := m.itemDir(library, ratingKey)
	if err != nil {
		return nil, nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, err := readRecord(dir)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, rec.OriginalFile)) //nolint:gosec // path built from validated components
	if err != nil {
		if isNotExist(err) {
			return nil, nil, fmt.Errorf("%w: original file missing for %s", ErrNotFound, ratingKey)
		}
		return nil, nil, fmt.Errorf("failed to read original poster: %w", err)
	}
	if rec.Checksum != "" {
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != rec.Checksum {
			return nil, nil, fmt.Errorf("%w for %s/%s", ErrChecksumMismatch, library, ratingKey)
		}
	}
	return data, rec, nil
}

// Open returns a reader over the stored original. The caller closes it.
func (m *Manager) Open(library, ratingKey string) (io.ReadCloser, *Record, error) {
	dir, err := m.itemDir(library, ratingKey)
	if err != nil {
		return nil, nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, err := readRecord(dir)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(filepath.Join(dir, rec.OriginalFile)) //nolint:gosec // path built from validated components
	if err != nil {
		if isNotExist(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return f, rec, nil
}

// Delete removes one item's backup. The active poster in Plex is untouched.
func (m *Manager) Delete(library, ratingKey string) error {
	dir, err := m.itemDir(library, ratingKey)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !fileExists(dir) {
		return ErrNotFound
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	metrics.BackupsDeleted.Inc()
	return nil
}

// DeleteLibrary removes every backup of a library and returns how many
// items were removed.
func (m *Manager) DeleteLibrary(library string) (int, error) {
	dir, err := m.libraryDir(library)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return removeLibrary(dir)
}

// DeleteAll removes every backup of every library.
func (m *Manager) DeleteAll() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read backup directory: %w", err)
	}
	total := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := removeLibrary(filepath.Join(m.dir, e.Name()))
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func removeLibrary(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if isNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read library backups: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() && fileExists(filepath.Join(dir, e.Name(), metadataFile)) {
			n++
		}
	}
	if err := os.RemoveAll(dir); err != nil {
		return 0, fmt.Errorf("failed to delete library backups: %w", err)
	}
	metrics.BackupsDeleted.Add(float64(n))
	return n, nil
}

// List returns every backup record of a library, ordered by title.
// Item directories without readable metadata are skipped.
func (m *Manager) List(library string) ([]Record, error) {
	dir, err := m.libraryDir(library)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if isNotExist(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("failed to read library backups: %w", err)
	}

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		rec, err := readRecord(filepath.Join(dir, e.Name()))
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				logging.Warn().Err(err).Str("library", library).Str("item", e.Name()).Msg("Skipping unreadable backup")
			}
			continue
		}
		records = append(records, *rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Title != records[j].Title {
			return records[i].Title < records[j].Title
		}
		return records[i].RatingKey < records[j].RatingKey
	})
	return records, nil
}

// Stats summarizes a library's backups.
func (m *Manager) Stats(library string) (*Stats, error) {
	records, err := m.List(library)
	if err != nil {
		return nil, err
	}
	st := &Stats{Library: library, Items: len(records)}
	for i := range records {
		r := &records[i]
		st.TotalBytes += r.Size
		if st.Oldest == nil || r.BackedUpAt.Before(*st.Oldest) {
			st.Oldest = &r.BackedUpAt
		}
		if st.Newest == nil || r.BackedUpAt.After(*st.Newest) {
			st.Newest = &r.BackedUpAt
		}
	}
	return st, nil
}

func readRecord(dir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, metadataFile)) //nolint:gosec // path built from validated components
	if err != nil {
		if isNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read backup metadata: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse backup metadata: %w", err)
	}
	if rec.OriginalFile == "" || strings.ContainsAny(rec.OriginalFile, `/\`) {
		return nil, fmt.Errorf("backup metadata has invalid original_file %q", rec.OriginalFile)
	}
	return &rec, nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
