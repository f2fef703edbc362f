// Package persist stores small JSON-encoded values under string keys.
//
// The tab store uses it to checkpoint its layout. Two backends exist: a
// single JSON file rewritten atomically on every write, and a bbolt
// database.
package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Get for keys that were never set.
var ErrNotFound = errors.New("key not found")

// Gateway is a key-value store for JSON-encodable values.
type Gateway interface {
	// Get decodes the value stored under key into out.
	Get(key string, out any) error
	// Set encodes value and stores it under key.
	Set(key string, value any) error
	Close() error
}

// Backend names.
const (
	BackendFile = "file"
	BackendBolt = "bolt"
)

// DefaultPath returns the default state file for backend under dir.
func DefaultPath(dir, backend string) string {
	if backend == BackendBolt {
		return filepath.Join(dir, "state.db")
	}
	return filepath.Join(dir, "state.json")
}

// Open opens the named backend at path.
func Open(backend, path string) (Gateway, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return NewFileStore(path)
	case BackendBolt:
		return NewBoltStore(path)
	default:
		return nil, fmt.Errorf("unknown state backend %q", backend)
	}
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return nil
}
