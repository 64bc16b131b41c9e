// Package cache persists the most recent ProfileSnapshot as a JSON file.
// The dashboard reads only from this file, never from the network. Writes
// are atomic (write-temp-then-rename) so a reader never sees a torn file.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"rltracker/internal/snapshot"
)

type Store struct {
	Path string
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Save writes the snapshot atomically. The previous snapshot stays intact if
// anything fails before the rename.
func (s *Store) Save(snap *snapshot.ProfileSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating cache dir: %w", err)
		}
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp cache file: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing cache file: %w", err)
	}
	return nil
}

// Load returns the cached snapshot, or nil when the file is absent or does
// not parse. Neither case is an error: the dashboard shows its empty state.
func (s *Store) Load() *snapshot.ProfileSnapshot {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("[Cache] read %s: %v\n", s.Path, err)
		}
		return nil
	}

	var snap snapshot.ProfileSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("[Cache] %s does not parse, treating as no data: %v\n", s.Path, err)
		return nil
	}
	return &snap
}
