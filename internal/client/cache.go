package client

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

type cacheEntry struct {
	value any
	stale bool
}

// QueryCache stores query results by key. Invalidated entries stay readable
// until the next Fetch replaces them with a fresh server read.
type QueryCache struct {
	mu       sync.RWMutex
	entries  map[string]cacheEntry
	mutating sync.Mutex
}

// NewQueryCache returns an empty cache.
func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[string]cacheEntry)}
}

// Key builds a cache key from a procedure name and its parameters.
// Keys of one procedure share the "procedure:" prefix.
func Key(procedure string, params any) string {
	if params == nil {
		return procedure + ":"
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return procedure + ":?"
	}
	return procedure + ":" + string(raw)
}

// Get returns the cached value and whether it is still fresh.
func (q *QueryCache) Get(key string) (value any, fresh, ok bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	entry, ok := q.entries[key]
	return entry.value, ok && !entry.stale, ok
}

// Set stores a fresh value.
func (q *QueryCache) Set(key string, value any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[key] = cacheEntry{value: value}
}

// Invalidate marks every entry under prefix stale and returns how many matched.
func (q *QueryCache) Invalidate(prefix string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for key, entry := range q.entries {
		if strings.HasPrefix(key, prefix) {
			entry.stale = true
			q.entries[key] = entry
			n++
		}
	}
	return n
}

// Patch replaces every value under prefix with fn's result. Patched entries keep their freshness.
func (q *QueryCache) Patch(prefix string, fn func(key string, value any) any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for key, entry := range q.entries {
		if strings.HasPrefix(key, prefix) {
			entry.value = fn(key, entry.value)
			q.entries[key] = entry
		}
	}
}

func (q *QueryCache) snapshot(prefixes []string) map[string]cacheEntry {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make(map[string]cacheEntry)
	for key, entry := range q.entries {
		if hasAnyPrefix(key, prefixes) {
			out[key] = entry
		}
	}
	return out
}

// restore puts the snapshot back and drops entries created after it was taken.
func (q *QueryCache) restore(prefixes []string, snapshot map[string]cacheEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for key := range q.entries {
		if hasAnyPrefix(key, prefixes) {
			if _, kept := snapshot[key]; !kept {
				delete(q.entries, key)
			}
		}
	}
	for key, entry := range snapshot {
		q.entries[key] = entry
	}
}

// Fetch returns the fresh cached value for key or loads it with fn.
func Fetch[T any](ctx context.Context, q *QueryCache, key string, fn func(context.Context) (T, error)) (T, error) {
	if value, fresh, ok := q.Get(key); ok && fresh {
		if typed, ok := value.(T); ok {
			return typed, nil
		}
	}

	value, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	q.Set(key, value)
	return value, nil
}

// Mutation describes one optimistic write.
type Mutation struct {
	// Prefixes name the cache entries the write affects.
	Prefixes []string
	// Optimistic patches the cache before the remote call. Optional.
	Optimistic func(q *QueryCache)
	// Run performs the remote call.
	Run func(ctx context.Context) error
}

// Mutate runs m exclusively: snapshot the affected entries, apply the
// optimistic patch, run the call, restore the snapshot if it failed, then
// mark the affected entries stale whatever the outcome.
func (q *QueryCache) Mutate(ctx context.Context, m Mutation) error {
	q.mutating.Lock()
	defer q.mutating.Unlock()

	snapshot := q.snapshot(m.Prefixes)
	if m.Optimistic != nil {
		m.Optimistic(q)
	}

	err := m.Run(ctx)
	if err != nil {
		q.restore(m.Prefixes, snapshot)
	}
	for _, prefix := range m.Prefixes {
		q.Invalidate(prefix)
	}
	return err
}

func hasAnyPrefix(key string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
