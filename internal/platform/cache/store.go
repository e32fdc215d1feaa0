// Package cache is an in-process read-through cache for repository lists.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/zeal-league/internal/platform/resilience"
)

const DefaultMaxEntries = 1024

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is a bounded TTL cache. Loads for one key are collapsed, and a load
// that started before an invalidation is returned to its callers but not kept.
type Store struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu         sync.Mutex
	entries    map[string]entry
	generation uint64
	flight     resilience.Group[any]
}

type Option func(*Store)

// WithMaxEntries caps the number of keys. When full, expired keys go first,
// then the key closest to expiry.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		ttl:        ttl,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		entries:    make(map[string]entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(key)
}

func (s *Store) getLocked(key string) (any, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.expired(e, s.now()) {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

func (s *Store) expired(e entry, now time.Time) bool {
	return s.ttl > 0 && !e.expiresAt.After(now)
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}
	s.mu.Lock()
	s.setLocked(key, value)
	s.mu.Unlock()
}

func (s *Store) setLocked(key string, value any) {
	now := s.now()
	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxEntries {
		s.evictLocked(now)
	}
	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl)
	}
	s.entries[key] = entry{value: value, expiresAt: expiresAt}
}

func (s *Store) evictLocked(now time.Time) {
	victim := ""
	var soonest time.Time
	for k, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, k)
			continue
		}
		if victim == "" || e.expiresAt.Before(soonest) {
			victim, soonest = k, e.expiresAt
		}
	}
	if len(s.entries) >= s.maxEntries && victim != "" {
		delete(s.entries, victim)
	}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}
	s.mu.Lock()
	delete(s.entries, key)
	s.generation++
	s.mu.Unlock()
}

func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}
	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.generation++
	s.mu.Unlock()
}

func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}
	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		s.mu.Lock()
		if cached, ok := s.getLocked(key); ok {
			s.mu.Unlock()
			return cached, nil
		}
		startGen := s.generation
		s.mu.Unlock()

		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.generation == startGen {
			s.setLocked(key, loaded)
		}
		s.mu.Unlock()
		return loaded, nil
	})
	return value, err
}
