package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Keyed is a capacity-bounded, construct-once-per-key cache. Concurrent
// misses on the same key share a single build; values are read-only once
// stored.
type Keyed[V any] struct {
	entries *lru.Cache[string, V]
	group   singleflight.Group
}

// NewKeyed creates a cache holding at most size entries.
func NewKeyed[V any](size int) (*Keyed[V], error) {
	if size <= 0 {
		size = 1
	}
	entries, err := lru.New[string, V](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &Keyed[V]{entries: entries}, nil
}

// Get returns the value for key, calling build on a miss.
// Build errors are returned to every waiting caller and are not cached.
func (k *Keyed[V]) Get(key string, build func() (V, error)) (V, error) {
	if v, ok := k.entries.Get(key); ok {
		return v, nil
	}

	v, err, _ := k.group.Do(key, func() (any, error) {
		if v, ok := k.entries.Get(key); ok {
			return v, nil
		}
		v, err := build()
		if err != nil {
			return nil, err
		}
		k.entries.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Len returns the number of cached entries.
func (k *Keyed[V]) Len() int {
	return k.entries.Len()
}

// Purge drops every cached entry.
func (k *Keyed[V]) Purge() {
	k.entries.Purge()
}
