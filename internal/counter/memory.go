package counter

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	n         int64
	s         string
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is an in-process Store for tests and local development. It is
// selected at construction time, never branched on inside business logic.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// SetClock overrides the time source, letting tests advance past TTLs.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) live(key string) *memoryEntry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil
	}
	return e
}

// Incr atomically increments the counter under the store lock.
func (s *MemoryStore) Incr(_ context.Context, key string, by int64, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		e = &memoryEntry{}
		s.entries[key] = e
	}
	e.n += by
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	return e.n, nil
}

// Get returns the counter value, or 0 when absent or expired.
func (s *MemoryStore) Get(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.live(key); e != nil {
		return e.n, nil
	}
	return 0, nil
}

// Delete removes the key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// SetValue stores a string value.
func (s *MemoryStore) SetValue(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &memoryEntry{s: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

// GetValue returns the stored string, or "" when absent or expired.
func (s *MemoryStore) GetValue(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.live(key); e != nil {
		return e.s, nil
	}
	return "", nil
}
