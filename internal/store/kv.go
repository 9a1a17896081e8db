package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// KV is a durable string key-value store, the persistence capability a host
// exposes to the detector.
type KV interface {
	// Get returns ErrNotFound when key is absent.
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// SQLiteKV stores keys in the kv table of the state database.
// Writes are serialized by an internal mutex.
type SQLiteKV struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteKV wraps an opened and migrated state database.
func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

func (s *SQLiteKV) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("store: get %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteKV) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at_ns)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value         = excluded.value,
			updated_at_ns = excluded.updated_at_ns
	`, key, value, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("store: set %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}

// MemoryKV is a process-local KV used by tests and by hosts that do not need
// the fingerprint to survive a restart.
type MemoryKV struct {
	m *xsync.Map[string, string]
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{m: xsync.NewMap[string, string]()}
}

func (s *MemoryKV) Get(key string) (string, error) {
	v, ok := s.m.Load(key)
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryKV) Set(key, value string) error {
	s.m.Store(key, value)
	return nil
}

func (s *MemoryKV) Delete(key string) error {
	s.m.Delete(key)
	return nil
}
