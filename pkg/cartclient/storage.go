// Package cartclient is the storefront-side SDK for abandoned cart tracking:
// it watches a cart store, debounces changes, syncs snapshots to the tracking
// service and restores recovered carts.
package cartclient

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Storage slot keys. The recovery token survives across sessions; the session
// id only lives as long as the session store does.
const (
	RecoveryTokenKey = "cart_recovery_token"
	SessionIDKey     = "session_id"
)

// Store is a minimal key/value facade over whatever the host application
// uses for client-side persistence.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStore is an in-memory Store, suitable for session-scoped state and
// tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for a key.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

// Set stores a value under a key.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete removes a key.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// FileStore is a durable Store backed by a single JSON file. It covers the
// recovery token slot, which must outlive the process.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed store at the given path. The parent
// directory is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Get returns the value for a key.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false
	}
	value, ok := values[key]
	return value, ok
}

// Set stores a value under a key and flushes to disk.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

// Delete removes a key and flushes to disk.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.save(values)
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		// A corrupt state file is discarded rather than wedging the client.
		return make(map[string]string), nil
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
