// Package jsonfile stores folio state as JSON files under the data dir.
package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/colonyops/folio/internal/core/recent"
)

// RecentFile is the root JSON structure stored on disk.
type RecentFile struct {
	Entries []recent.Entry `json:"entries"`
}

// RecentStore implements recent.Store using a JSON file for persistence.
type RecentStore struct {
	path string
	mu   sync.RWMutex
}

var _ recent.Store = (*RecentStore)(nil)

// NewRecentStore creates a new JSON file store at the given path.
func NewRecentStore(path string) *RecentStore {
	return &RecentStore{path: path}
}

// List returns all entries, newest first.
func (s *RecentStore) List(ctx context.Context) ([]recent.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}

	return file.Entries, nil
}

// Get returns the entry for path. Returns ErrNotFound if not found.
func (s *RecentStore) Get(ctx context.Context, path string) (recent.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return recent.Entry{}, err
	}

	for _, entry := range file.Entries {
		if entry.Path == path {
			return entry, nil
		}
	}

	return recent.Entry{}, recent.ErrNotFound
}

// Touch records entry as the most recently read.
func (s *RecentStore) Touch(ctx context.Context, entry recent.Entry, maxEntries int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	file.Entries = recent.Promote(file.Entries, entry, maxEntries)
	return s.save(file)
}

// Clear removes all entries.
func (s *RecentStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(RecentFile{Entries: []recent.Entry{}})
}

// load reads the file from disk.
// Returns empty RecentFile if file doesn't exist.
func (s *RecentStore) load() (RecentFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return RecentFile{}, nil
		}
		return RecentFile{}, err
	}

	if len(data) == 0 {
		return RecentFile{}, nil
	}

	var file RecentFile
	if err := json.Unmarshal(data, &file); err != nil {
		return RecentFile{}, err
	}

	return file, nil
}

// save writes the file to disk atomically.
func (s *RecentStore) save(file RecentFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}
