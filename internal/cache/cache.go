// Package cache provides the process-local, time-bounded response cache that sits
// in front of the upstream vendor APIs.
//
// Entries are never evicted: a stale entry stays in the map until the next miss
// for its key overwrites it. Memory therefore grows with the number of distinct
// keys seen during the process lifetime.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ckiertz4887/website-roast/internal/core"
)

// DefaultTTL is how long an entry is served before the next request refetches it.
const DefaultTTL = 24 * time.Hour

// Entry is a cached payload together with the instant it was stored.
type Entry[T any] struct {
	Key       string
	Payload   T
	Timestamp time.Time
}

// Observer receives lookup outcomes, e.g. for Prometheus counters.
type Observer interface {
	CacheLookup(cache string, hit bool)
}

// Option configures a Store.
type Option func(*options)

type options struct {
	now      func() time.Time
	observer Observer
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithObserver reports hits and misses to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// Store is a keyed, TTL-validated in-memory store. It is safe for concurrent use.
// Get and Put are atomic with respect to each other; Do additionally collapses
// concurrent misses for one key into a single fill call.
type Store[T any] struct {
	name     string
	mu       sync.RWMutex
	entries  map[string]Entry[T]
	ttl      time.Duration
	now      func() time.Time
	observer Observer
	flights  singleflight.Group
}

// New creates an empty store. name labels the store in logs and metrics.
func New[T any](name string, opts ...Option) *Store[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		name:     name,
		entries:  make(map[string]Entry[T]),
		ttl:      DefaultTTL,
		now:      o.now,
		observer: o.observer,
	}
}

// Get returns the entry stored under key, valid or not. Returns nil if absent.
func (s *Store[T]) Get(key string) *Entry[T] {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return &entry
}

// Put stores payload under key, replacing any previous entry.
func (s *Store[T]) Put(key string, payload T) {
	s.mu.Lock()
	s.entries[key] = Entry[T]{
		Key:       key,
		Payload:   payload,
		Timestamp: s.now(),
	}
	s.mu.Unlock()
}

// IsValid reports whether entry is present and younger than the TTL.
func (s *Store[T]) IsValid(entry *Entry[T]) bool {
	if entry == nil {
		return false
	}
	return s.now().Sub(entry.Timestamp) < s.ttl
}

// Lookup returns the payload for key if a valid entry exists.
func (s *Store[T]) Lookup(key string) (T, bool) {
	entry := s.Get(key)
	hit := s.IsValid(entry)
	if s.observer != nil {
		s.observer.CacheLookup(s.name, hit)
	}
	if !hit {
		var zero T
		return zero, false
	}
	return entry.Payload, true
}

// Len returns the number of stored entries, including stale ones.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Do returns the cached payload for key, or calls fill once on a miss and stores
// its result. Concurrent callers missing on the same key share one fill call.
// fill runs detached from ctx cancellation so that an abandoned request still
// populates the cache; ctx only bounds how long this caller waits.
// Errors are returned to every waiter and never cached.
func (s *Store[T]) Do(ctx context.Context, key string, fill func(context.Context) (T, error)) (T, core.CacheStatus, error) {
	var zero T

	if payload, ok := s.Lookup(key); ok {
		return payload, core.CacheHit, nil
	}

	fillCtx := context.WithoutCancel(ctx)
	ch := s.flights.DoChan(key, func() (interface{}, error) {
		// A flight that finished between Lookup and DoChan may have filled the key.
		if entry := s.Get(key); s.IsValid(entry) {
			return entry.Payload, nil
		}
		payload, err := fill(fillCtx)
		if err != nil {
			return nil, err
		}
		s.Put(key, payload)
		return payload, nil
	})

	select {
	case <-ctx.Done():
		return zero, core.CacheMiss, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, core.CacheMiss, res.Err
		}
		payload, ok := res.Val.(T)
		if !ok {
			return zero, core.CacheMiss, fmt.Errorf("cache %s: unexpected payload type %T", s.name, res.Val)
		}
		return payload, core.CacheMiss, nil
	}
}
