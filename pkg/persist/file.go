package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

const fileVersion = "1.0"

// FileStore implements Gateway with a single JSON file. Every Set rewrites
// the file through a temp file and rename.
type FileStore struct {
	path    string
	mu      sync.RWMutex
	values  map[string]json.RawMessage
	version string
}

type fileContents struct {
	Version string                     `json:"version"`
	Values  map[string]json.RawMessage `json:"values"`
}

// NewFileStore opens the store at path. A missing file is an empty store.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state file path is required")
	}

	s := &FileStore{
		path:    path,
		values:  make(map[string]json.RawMessage),
		version: fileVersion,
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load state from %s: %w", path, err)
	}
	return s, nil
}

func (s *FileStore) load() error {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open state file: %w", err)
	}
	defer file.Close()

	var contents fileContents
	if err := json.NewDecoder(file).Decode(&contents); err != nil {
		return fmt.Errorf("failed to decode state file: %w", err)
	}
	if contents.Version != "" {
		s.version = contents.Version
	}
	if contents.Values != nil {
		s.values = contents.Values
	}
	return nil
}

// Get decodes the value under key into out.
func (s *FileStore) Get(key string, out any) error {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Set stores value under key and writes the file.
func (s *FileStore) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.values[key]
	s.values[key] = raw
	if err := s.save(); err != nil {
		if existed {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// save writes the file. Callers hold the lock.
func (s *FileStore) save() error {
	if err := ensureDir(s.path); err != nil {
		return err
	}

	// Create temp file for atomic write
	tempPath := s.path + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(fileContents{Version: s.version, Values: s.values}); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Keys returns the stored keys in no particular order.
func (s *FileStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}

// Close is a no-op; every Set is already on disk.
func (s *FileStore) Close() error {
	return nil
}
