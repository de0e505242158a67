package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/querycache"
)

// JSON-backed snapshot of the query cache. Single file, human-readable.
// No locking; the last process to exit wins.

const dataFileName = "cache.json"

// Store reads and writes a cache snapshot at a fixed path.
type Store struct {
	path string
}

// New returns a Store at path.
func New(path string) *Store { return &Store{path: path} }

// Default returns a Store in the tada directory.
func Default() (*Store, error) {
	p, err := config.Path(dataFileName)
	if err != nil {
		return nil, err
	}
	return New(p), nil
}

// Path is the snapshot file location.
func (s *Store) Path() string { return s.path }

// Load reads the snapshot. A missing file yields an empty snapshot.
func (s *Store) Load() (querycache.Snapshot, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return querycache.Snapshot{}, nil
		}
		return querycache.Snapshot{}, fmt.Errorf("read file: %w", err)
	}
	var snap querycache.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return querycache.Snapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	return snap, nil
}

// Save writes snap through a temp file so a crash never leaves half a file.
func (s *Store) Save(snap querycache.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Clear removes the snapshot. Missing is fine.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}
