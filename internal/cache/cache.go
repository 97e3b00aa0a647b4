// Package cache provides independently keyed TTL tiers. Each tier is its
// own namespace with its own time-to-live; there is no global cache.
// Readers treat expired-but-present entries as absent (lazy expiry), and a
// periodic sweeper physically removes them.
package cache

import (
	"sync"
	"time"

	"lp-tracker/internal/metrics"
)

// Status is the result of a three-state lookup. The distinction between
// Expired and Miss only survives until the sweep removes the entry.
type Status int

const (
	Miss Status = iota
	Hit
	Expired
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Tier is one key->value mapping with a fixed TTL. Safe for concurrent
// use; values are copied in and out, never shared by reference with the
// tier's internal entry.
type Tier[V any] struct {
	name    string
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]entry[V]

	now func() time.Time // swapped in tests
}

func NewTier[V any](name string, ttl time.Duration) *Tier[V] {
	return &Tier[V]{
		name:    name,
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

func (t *Tier[V]) Name() string { return t.name }

func (t *Tier[V]) TTL() time.Duration { return t.ttl }

// Get returns the value only if it was stored less than TTL ago.
func (t *Tier[V]) Get(key string) (V, bool) {
	v, status := t.Lookup(key)
	return v, status == Hit
}

// Lookup reports whether the key is live, present-but-expired, or absent.
func (t *Tier[V]) Lookup(key string) (V, Status) {
	t.mu.RLock()
	e, ok := t.entries[key]
	t.mu.RUnlock()

	var zero V
	if !ok {
		metrics.CacheMisses.WithLabelValues(t.name).Inc()
		return zero, Miss
	}
	if t.now().Sub(e.storedAt) >= t.ttl {
		metrics.CacheMisses.WithLabelValues(t.name).Inc()
		return zero, Expired
	}
	metrics.CacheHits.WithLabelValues(t.name).Inc()
	return e.value, Hit
}

// Put overwrites unconditionally and resets the entry's TTL clock.
func (t *Tier[V]) Put(key string, value V) {
	t.mu.Lock()
	t.entries[key] = entry[V]{value: value, storedAt: t.now()}
	t.mu.Unlock()
}

func (t *Tier[V]) Delete(key string) {
	t.mu.Lock()
	delete(t.entries, key)
	t.mu.Unlock()
}

func (t *Tier[V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Sweep removes every entry whose TTL has elapsed and returns the count.
// This is the only path that reclaims memory for keys that stop being
// read.
func (t *Tier[V]) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, e := range t.entries {
		if now.Sub(e.storedAt) >= t.ttl {
			delete(t.entries, key)
			removed++
		}
	}
	return removed
}
