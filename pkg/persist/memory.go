package persist

import (
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore implements Gateway in memory. Values still round-trip through
// JSON so callers observe the same encoding as the disk backends.
type MemoryStore struct {
	mu      sync.RWMutex
	values  map[string][]byte
	failSet error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) Get(key string, out any) error {
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

func (s *MemoryStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	s.values[key] = raw
	return nil
}

// FailSets makes every later Set fail with err. A nil err clears it.
func (s *MemoryStore) FailSets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSet = err
}

// Raw returns the encoded value under key.
func (s *MemoryStore) Raw(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.values[key]
	return string(raw), ok
}

func (s *MemoryStore) Close() error {
	return nil
}
