// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

// Package cache provides a small time-bounded value cache. The pipeline uses
// it to serve one snapshot to a burst of refresh jobs instead of re-reading
// the full tables for each one.
package cache

import (
	"sync"
	"time"
)

// TTL caches a single value for a fixed lifetime. The zero value is not
// usable; construct with NewTTL.
type TTL[T any] struct {
	mu       sync.Mutex
	value    T
	expires  time.Time
	lifetime time.Duration
	now      func() time.Time
}

// NewTTL creates a cache holding values for the given lifetime. A
// non-positive lifetime disables caching entirely: Get always misses.
func NewTTL[T any](lifetime time.Duration) *TTL[T] {
	return &TTL[T]{lifetime: lifetime, now: time.Now}
}

// Get returns the cached value, or loads, stores, and returns a fresh one.
// Concurrent callers serialize on the load, so a burst triggers it once.
func (c *TTL[T]) Get(load func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lifetime > 0 && c.now().Before(c.expires) {
		return c.value, nil
	}

	value, err := load()
	if err != nil {
		var zero T
		return zero, err
	}

	c.value = value
	c.expires = c.now().Add(c.lifetime)
	return value, nil
}

// Invalidate drops the cached value so the next Get reloads.
func (c *TTL[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires = time.Time{}
}
