// Package session manages the asker's local identity and persisted message
// log. Askers have no accounts; a generated session identifier in durable
// local storage is the only thing that addresses them.
package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Storage is a durable string key-value store. The file implementation
// below is the real medium; tests substitute an in-memory one.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// FileStorage keeps all values in a single JSON file under a state
// directory, loaded once and rewritten on every mutation.
type FileStorage struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// NewFileStorage opens (or creates) the state file inside dir. A corrupt or
// unreadable state file is treated as empty rather than fatal.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	fs := &FileStorage{
		path:   filepath.Join(dir, "state.json"),
		values: make(map[string]string),
	}

	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		slog.Warn("failed to read client state, starting empty", "path", fs.path, "error", err)
		return fs, nil
	}
	if err := json.Unmarshal(data, &fs.values); err != nil {
		slog.Warn("client state file is corrupt, starting empty", "path", fs.path, "error", err)
		fs.values = make(map[string]string)
	}
	return fs, nil
}

// Get returns the value for key and whether it was present.
func (f *FileStorage) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

// Set stores the value for key and persists the state file.
func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return f.flush()
}

// Delete removes key and persists the state file.
func (f *FileStorage) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return f.flush()
}

func (f *FileStorage) flush() error {
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode client state: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("write client state: %w", err)
	}
	return nil
}
