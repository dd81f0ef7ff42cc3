package task

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store defines whole-list persistence for tasks. The list is always
// written as a single unit; there are no partial writes.
type Store interface {
	Load() ([]Task, error)
	Save(tasks []Task) error
}

// ListStore persists the full task list as one JSON array on disk.
type ListStore struct {
	mu   sync.Mutex
	path string
}

// NewListStore creates a ListStore backed by the file at path.
func NewListStore(path string) *ListStore {
	return &ListStore{path: path}
}

// Load reads the persisted list. A missing file, malformed JSON, or a
// non-array value all yield an empty list rather than an error.
func (s *ListStore) Load() ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Task{}, nil
		}
		return nil, fmt.Errorf("read tasks: %w", err)
	}

	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		// Corrupt store is treated as empty, not fatal.
		return []Task{}, nil
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// Save atomically overwrites the persisted list using a temp file + rename.
func (s *ListStore) Save(tasks []Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tasks tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename tasks: %w", err)
	}
	return nil
}
