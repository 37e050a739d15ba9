package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

const layerMemory = "memory"

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces the time source used for stamping and expiry checks.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// WithSweepInterval overrides the sweep interval (defaults to the TTL).
// A non-positive interval disables the background sweep.
func WithSweepInterval(interval time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		s.sweepInterval = interval
	}
}

// MemoryStore is an in-process Store. Expired entries are dropped lazily on
// lookup and by a periodic sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryStore creates an in-memory store and starts its sweep loop.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &MemoryStore{
		entries:       make(map[string]*Entry),
		ttl:           ttl,
		sweepInterval: ttl,
		now:           time.Now,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sweepInterval > 0 {
		go s.sweepLoop()
	} else {
		close(s.done)
	}

	return s
}

// TTL returns the validity window of entries.
func (s *MemoryStore) TTL() time.Duration {
	return s.ttl
}

// Get retrieves an entry, revalidating its timestamp.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues(layerMemory).Inc()
		return nil, ErrCacheMiss
	}

	if entry.IsExpiredAt(s.ttl, s.now()) {
		s.mu.Lock()
		// Only drop it if nobody replaced it in the meantime.
		if current, ok := s.entries[key]; ok && current == entry {
			delete(s.entries, key)
			CacheEvictions.WithLabelValues(layerMemory).Inc()
		}
		s.mu.Unlock()

		CacheMisses.WithLabelValues(layerMemory).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(layerMemory).Inc()
	return entry, nil
}

// Set stores an entry. A zero CachedAt is stamped with the store clock.
func (s *MemoryStore) Set(_ context.Context, key string, entry *Entry) error {
	if entry == nil {
		return ErrInvalidEntry
	}
	if entry.CachedAt.IsZero() {
		entry.CachedAt = s.now()
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()

	return nil
}

// Delete removes a single entry.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// DeleteMatching removes all entries whose key contains substr.
func (s *MemoryStore) DeleteMatching(_ context.Context, substr string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.entries {
		if strings.Contains(key, substr) {
			delete(s.entries, key)
			removed++
		}
	}

	CacheInvalidations.WithLabelValues(layerMemory).Add(float64(removed))
	return removed, nil
}

// Clear removes all entries.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	removed := len(s.entries)
	s.entries = make(map[string]*Entry)
	s.mu.Unlock()

	CacheInvalidations.WithLabelValues(layerMemory).Add(float64(removed))
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes every expired entry and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if entry.IsExpiredAt(s.ttl, now) {
			delete(s.entries, key)
			removed++
		}
	}

	CacheEvictions.WithLabelValues(layerMemory).Add(float64(removed))
	return removed
}

// Close stops the sweep loop. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
	return nil
}

func (s *MemoryStore) sweepLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
