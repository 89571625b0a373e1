// Package cache stores solve reports keyed by problem fingerprint.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotFound is returned by Get and Delete when no entry exists for a key.
var ErrNotFound = errors.New("cache: entry not found")

// Store persists encoded reports. Implementations are safe for concurrent
// use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// IsNotFound reports whether err means the key does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore. Entries never expire when ttl is
// zero.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the value stored under key.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || s.expired(e) {
		return nil, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	return append([]byte(nil), e.value...), nil
}

// Put stores a copy of value under key.
func (s *MemoryStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := memoryEntry{value: append([]byte(nil), value...)}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || s.expired(e) {
		delete(s.entries, key)
		return fmt.Errorf("delete %q: %w", key, ErrNotFound)
	}
	delete(s.entries, key)
	return nil
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if !s.expired(e) {
			n++
		}
	}
	return n
}

// Close drops every entry.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expires.IsZero() && !s.now().Before(e.expires)
}
