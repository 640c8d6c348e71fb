package contextstore

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// InMemoryStore is an in-process TTL cache for local/dev use and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Test hook for expiry behavior.
func (s *InMemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *InMemoryStore) Set(_ context.Context, ns Namespace, externalID int64, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key(ns, externalID)] = entry{
		value:     value,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, ns Namespace, externalID int64) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key(ns, externalID)]
	if !ok || !s.now().Before(e.expiresAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *InMemoryStore) Close() error { return nil }

// ExpiresAt reports the expiry horizon of a live entry. Test hook.
func (s *InMemoryStore) ExpiresAt(ns Namespace, externalID int64) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key(ns, externalID)]
	if !ok {
		return time.Time{}, false
	}
	return e.expiresAt, true
}
