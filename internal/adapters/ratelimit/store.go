// Package ratelimit implements fixed-window request throttling behind an
// injected store, so the in-process map can be swapped for Redis in a
// multi-process deployment.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store tracks per-key request counts inside a fixed window. Incr
// returns the count including the current request; the window boundary
// is set by the first request after the previous window elapsed.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type bucket struct {
	count int64
	reset time.Time
}

// MemoryStore is the single-process store. Expired buckets are replaced
// on next access; keys self-expire, so there is no eviction loop. Key
// growth under many distinct client IPs is unbounded, a known limitation
// for this traffic profile.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]bucket
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]bucket), now: time.Now}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || !now.Before(b.reset) {
		s.buckets[key] = bucket{count: 1, reset: now.Add(window)}
		return 1, nil
	}
	b.count++
	s.buckets[key] = b
	return b.count, nil
}
