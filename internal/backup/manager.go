// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
manager.go - Poster Backup Manager

The manager owns the backup directory:

	<dir>/<library>-<hash>/<rating key>/poster_original.<ext>
	<dir>/<library>-<hash>/<rating key>/metadata.json

<library> is the title with path-unsafe characters replaced and <hash> is
derived from the unmodified title, so titles that sanitize alike still get
separate directories.

metadata.json is written last, with a rename, so its presence is the single
"processed" signal for an item. An interrupted Create leaves no metadata and
the item is treated as unprocessed on the next run.

Thread Safety:
Writes take the manager's mutex. Reads take the read lock so a List never
observes a half-deleted library.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Manager stores and retrieves original posters.
type Manager struct {
	dir string
	mu  sync.RWMutex
	now func() time.Time
}

// NewManager creates the backup directory if needed.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		return nil, fmt.Errorf("backup directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &Manager{dir: dir, now: time.Now}, nil
}

var ratingKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// libraryDirName maps a Plex library name to a single safe path element.
// Distinct names always map to distinct elements.
func libraryDirName(library string) (string, error) {
	raw := strings.TrimSpace(library)
	if raw == "" {
		return "", fmt.Errorf("library name is required")
	}
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, raw)
	if name == "." || name == ".." {
		return "", fmt.Errorf("invalid library name %q", library)
	}
	sum := sha256.Sum256([]byte(raw))
	return name + "-" + hex.EncodeToString(sum[:4]), nil
}

func (m *Manager) libraryDir(library string) (string, error) {
	name, err := libraryDirName(library)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.dir, name), nil
}

// ItemDir returns the directory holding an item's backup. It does not
// check that the backup exists.
func (m *Manager) ItemDir(library, ratingKey string) (string, error) {
	return m.itemDir(library, ratingKey)
}

func (m *Manager) itemDir(library, ratingKey string) (string, error) {
	if !ratingKeyPattern.MatchString(ratingKey) {
		return "", fmt.Errorf("invalid rating key %q", ratingKey)
	}
	lib, err := m.libraryDir(library)
	if err != nil {
		return "", err
	}
	return filepath.Join(lib, ratingKey), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
