package persist

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketState = []byte("state")

// BoltStore implements Gateway on a bbolt database with a single bucket.
type BoltStore struct {
	db   *bolt.DB
	path string
}

// NewBoltStore opens or creates the database at path. It fails after two
// seconds if another process holds the file lock.
func NewBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state db path is required")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open state db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketState)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init state db: %w", err)
	}
	return &BoltStore{db: db, path: path}, nil
}

// Get decodes the value under key into out.
func (s *BoltStore) Get(key string, out any) error {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketState)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction
		raw = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Set stores value under key.
func (s *BoltStore) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketState)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), raw)
	})
}

// Path returns the database file path.
func (s *BoltStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
