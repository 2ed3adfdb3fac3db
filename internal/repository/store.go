package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is the shared root of a directory-tree-backed store. It owns the
// per-session mutexes that serialize read-modify-write sequences on shared
// JSON files (the session manifest, objects.json).
type FileStore struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &FileStore{
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Root returns the store's base directory.
func (s *FileStore) Root() string {
	return s.root
}

// SessionDir returns the directory for a session id, without creating it.
func (s *FileStore) SessionDir(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

// LockSession acquires the session's mutex and returns the release func.
func (s *FileStore) LockSession(sessionID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func readJSONFile(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func writeJSONFile(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}
