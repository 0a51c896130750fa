// Package store provides the in-memory key-value table for MistKV.
//
// The table is shared by every connection worker and the background
// sweeper. Reads observe expiry lazily: an entry whose deadline has
// passed is reported absent but left in place until the next sweep
// pass physically removes it.
package store

import (
	"sync"
	"time"

	"github.com/mistkv/mistkv-go/internal/resp"
	"github.com/mistkv/mistkv-go/pkg/cmap"
)

// Entry is one stored value with an optional absolute expiry.
// The zero ExpiresAt means the entry never expires.
type Entry struct {
	Value     resp.Value
	ExpiresAt time.Time
}

// Expired reports whether the entry's deadline is at or before now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !e.ExpiresAt.After(now)
}

// Store is the concurrent key-value table.
//
// Individual gets and sets are atomic at shard granularity; the
// store-level RWMutex exists only so a sweep pass excludes all
// client-facing operations for its duration. The lock is never held
// across I/O.
type Store struct {
	entries *cmap.Map[Entry]

	// mu is held shared by Get/Set/Len and exclusively by Sweep.
	mu sync.RWMutex

	clock func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithClock overrides the time source, for deterministic expiry tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithShards sets the shard count of the backing map.
func WithShards(n int) Option {
	return func(s *Store) {
		s.entries = cmap.NewWithShards[Entry](n)
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: cmap.New[Entry](),
		clock:   time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Get returns a deep copy of the value stored under key.
//
// An entry whose expiry has elapsed is reported absent but not
// removed; physical removal is the sweeper's job.
func (s *Store) Get(key string) (resp.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries.Get(key)
	if !ok || entry.Expired(s.clock()) {
		return resp.Nil(), false
	}
	return entry.Value.Clone(), true
}

// Set inserts or replaces the entry under key. A prior entry is
// discarded unconditionally, regardless of its own expiry state.
// The zero expiresAt stores the entry without expiry.
func (s *Store) Set(key string, value resp.Value, expiresAt time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.entries.Set(key, Entry{
		Value:     value.Clone(),
		ExpiresAt: expiresAt,
	})
}

// Sweep atomically removes every entry whose expiry has elapsed and
// returns the number removed. Entries without expiry are never swept.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()

	var expired []string
	s.entries.Range(func(key string, entry Entry) bool {
		if entry.Expired(now) {
			expired = append(expired, key)
		}
		return true
	})

	for _, key := range expired {
		s.entries.Delete(key)
	}
	return len(expired)
}

// Len returns the number of entries physically present, expired but
// unswept entries included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Count()
}
