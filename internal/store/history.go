package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketHistory = []byte("history")

// DefaultHistorySize is used when a non-positive size is requested
const DefaultHistorySize = 50

// HistoryStore keeps the queries a user submitted, newest last.
// It never stores fetched posts.
type HistoryStore struct {
	db      *bolt.DB
	maxSize int

	mu     sync.Mutex
	memory []string // Memory-only mode
}

// NewHistoryStore opens the history database at path.
// An empty path gives a memory-only store.
func NewHistoryStore(path string, maxSize int) (*HistoryStore, error) {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	if path == "" {
		return &HistoryStore{maxSize: maxSize}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketHistory)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &HistoryStore{db: db, maxSize: maxSize}, nil
}

func (s *HistoryStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Add records query as the newest entry.
// Blank queries are ignored and an older identical entry is replaced.
func (s *HistoryStore) Add(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		kept := s.memory[:0]
		for _, q := range s.memory {
			if q != query {
				kept = append(kept, q)
			}
		}
		s.memory = append(kept, query)
		if over := len(s.memory) - s.maxSize; over > 0 {
			s.memory = append([]string(nil), s.memory[over:]...)
		}
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)

		// Collect first, deleting while iterating skips keys
		var stale [][]byte
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if string(v) == query {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		if err := b.Put(itob(seq), []byte(query)); err != nil {
			return err
		}

		return trim(b, s.maxSize)
	})
}

// trim deletes the oldest entries beyond maxSize
func trim(b *bolt.Bucket, maxSize int) error {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}

	over := len(keys) - maxSize
	for i := 0; i < over; i++ {
		if err := b.Delete(keys[i]); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns up to n queries, newest first. n <= 0 returns all.
func (s *HistoryStore) Recent(n int) ([]string, error) {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		var out []string
		for i := len(s.memory) - 1; i >= 0 && (n <= 0 || len(out) < n); i-- {
			out = append(out, s.memory[i])
		}
		return out, nil
	}

	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketHistory).Cursor()
		for k, v := c.Last(); k != nil && (n <= 0 || len(out) < n); k, v = c.Prev() {
			out = append(out, string(v))
		}
		return nil
	})
	return out, err
}

// Clear removes every entry
func (s *HistoryStore) Clear() error {
	if s.db == nil {
		s.mu.Lock()
		s.memory = nil
		s.mu.Unlock()
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketHistory); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketHistory)
		return err
	})
}

// itob encodes a sequence number so keys sort in insertion order
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
