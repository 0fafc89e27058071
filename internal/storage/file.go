package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// fileStore persists state as a single JSON object in a file. Writes go
// through a temp file plus rename so a crash mid-write cannot leave a
// truncated state file behind.
type fileStore struct {
	path   string
	logger zerolog.Logger

	mu     sync.RWMutex
	values map[string]string
}

// NewFileStore creates a file-backed store at path. The file is not
// read until Load is called.
func NewFileStore(path string, logger zerolog.Logger) Store {
	return &fileStore{
		path:   path,
		logger: logger.With().Str("component", "storage").Logger(),
		values: make(map[string]string),
	}
}

func (f *fileStore) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *fileStore) Set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}

func (f *fileStore) Delete(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
}

// Load reads the state file. A missing file is not an error; a corrupt
// file is logged and treated as empty state (logged-out equivalent).
func (f *fileStore) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values = make(map[string]string)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		f.logger.Warn().
			Str("path", f.path).
			Err(err).
			Msg("state file is corrupt, starting from empty state")
		return nil
	}

	f.values = values
	return nil
}

// Save writes the state file atomically.
func (f *fileStore) Save() error {
	f.mu.RLock()
	data, err := json.Marshal(f.values)
	f.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

// memoryStore is an in-memory Store for tests and ephemeral sessions.
type memoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates a Store with no backing medium. Load and Save
// are no-ops.
func NewMemoryStore() Store {
	return &memoryStore{values: make(map[string]string)}
}

func (m *memoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *memoryStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *memoryStore) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

func (m *memoryStore) Load() error { return nil }
func (m *memoryStore) Save() error { return nil }
