package cache

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/idxscreen/pkg/logger"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an unbounded in-process Store.
// Expired entries are evicted lazily on the read that observes them, or by Purge.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	clock   Clock
	logger  *logger.Logger
}

// NewMemoryStore creates a memory store; a nil clock uses the wall clock
func NewMemoryStore(clock Clock, log *logger.Logger) *MemoryStore {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MemoryStore{
		entries: make(map[string]entry),
		clock:   clock,
		logger:  log,
	}
}

// Get returns the value if present and not yet expired.
// An entry read at or after its expiry instant is deleted and reported absent.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[key]
	if !exists {
		return nil, false, nil
	}

	if !s.clock.Now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}

	return e.value, true, nil
}

// Set stores value until now+ttl, overwriting any previous entry
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{
		value:     value,
		expiresAt: s.clock.Now().Add(ttl),
	}
	return nil
}

// Delete removes a key
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Len returns the number of stored entries, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Purge removes every expired entry and returns how many were dropped
func (s *MemoryStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	count := 0

	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
			count++
		}
	}

	if count > 0 {
		s.logger.WithField("count", count).Info("Purged expired cache entries")
	}

	return count
}

// Stats returns cache statistics
func (s *MemoryStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{TotalCount: len(s.entries)}
	now := s.clock.Now()
	for _, e := range s.entries {
		if !now.Before(e.expiresAt) {
			stats.ExpiredCount++
		}
	}
	return stats
}
