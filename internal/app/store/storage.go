/*
Package store contains the persistence core of the service: the file-backed
JSON resource layer, the user and room stores built on top of it, and the
purchase transaction that couples the two.

This file defines the Resource type, a named JSON-array file on disk guarded
by a reader/writer lock. Writes go to a temporary file in the same directory
and are renamed over the target, so a crash mid-write never leaves a
truncated primary file.
*/
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"marsgrid/internal/pkg/logx"
)

// Resource is a single persisted JSON-array file. Reads among themselves are
// concurrent; reads and writes are mutually exclusive.
type Resource struct {
	mu   sync.RWMutex
	path string
}

// NewResource prepares the resource file under dataDir. The directory is
// created if needed. A missing file is initialized from seed when provided,
// or with an empty JSON array otherwise, mirroring a first boot.
func NewResource(dataDir, name string, seed []byte) (*Resource, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	path := filepath.Join(dataDir, name)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		initial := seed
		if len(initial) == 0 {
			initial = []byte("[]")
		}
		if err := os.WriteFile(path, initial, 0o644); err != nil {
			return nil, fmt.Errorf("failed to initialize resource %s: %w", name, err)
		}
		logx.Info("Initialized persisted resource.", "resource", name, "seeded", len(seed) > 0)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat resource %s: %w", name, err)
	}

	return &Resource{path: path}, nil
}

// ReadAll decodes the resource's JSON array into dst (a pointer to a slice).
// A blank file counts as an empty collection. Malformed content is logged and
// reported as an error; callers fall back to an empty collection rather than
// crashing.
func (r *Resource) ReadAll(dst any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	raw, err := os.ReadFile(r.path)
	if err != nil {
		logx.Error(err, "Failed to read persisted resource.", "path", r.path)
		return err
	}

	if strings.TrimSpace(string(raw)) == "" {
		return nil
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		logx.Error(err, "Persisted resource is malformed.", "path", r.path)
		return err
	}

	return nil
}

// WriteAll replaces the resource's content with the pretty-printed JSON
// encoding of src. The data is written to a temporary file in the same
// directory and renamed over the target. A failed rename leaves the original
// file intact and is reported loudly.
func (r *Resource) WriteAll(src any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode resource %s: %w", r.path, err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", r.path, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file for %s: %w", r.path, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file for %s: %w", r.path, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", r.path, err)
	}

	// The temp file lives next to the target, so the rename cannot cross
	// devices. If it still fails, the stale file must not be mistaken for
	// fresh data.
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace resource %s: %w", r.path, err)
	}

	return nil
}
