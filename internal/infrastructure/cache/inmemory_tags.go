package cache

import (
	"context"
	"sync"
)

// InMemoryTagInvalidator implements TagInvalidator with a process-local map.
// Suitable for single-instance deployments and tests; version counters are
// lost on restart, which only means caches recompute once.
type InMemoryTagInvalidator struct {
	mu       sync.RWMutex
	versions map[string]int64
}

// NewInMemoryTagInvalidator creates an in-memory tag invalidator
func NewInMemoryTagInvalidator() *InMemoryTagInvalidator {
	return &InMemoryTagInvalidator{
		versions: make(map[string]int64),
	}
}

// Invalidate bumps the version of each tag
func (i *InMemoryTagInvalidator) Invalidate(_ context.Context, tags ...string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		i.versions[tag]++
	}
	return nil
}

// Version returns the tag's version, zero when never invalidated
func (i *InMemoryTagInvalidator) Version(_ context.Context, tag string) (int64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.versions[tag], nil
}

// Close is a no-op for the in-memory implementation
func (i *InMemoryTagInvalidator) Close() error {
	return nil
}
