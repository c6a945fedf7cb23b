// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"time"
)

// TypedCache provides type-safe caching over a Cache, storing values as JSON
// under a fixed key namespace.
type TypedCache[T any] struct {
	cache      Cache
	namespace  string
	defaultTTL time.Duration
}

// NewTypedCache creates a TypedCache whose keys are prefixed with namespace.
func NewTypedCache[T any](cache Cache, namespace string, defaultTTL time.Duration) *TypedCache[T] {
	return &TypedCache[T]{
		cache:      cache,
		namespace:  namespace,
		defaultTTL: defaultTTL,
	}
}

// Get returns the value and true if found, nil and false otherwise.
// Undecodable entries are treated as misses.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.cache.Get(ctx, c.namespace+key)
	if err != nil {
		return nil, false
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}

	return &value, true
}

// Set stores a value with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.cache.Set(ctx, c.namespace+key, data, c.defaultTTL)
}

// Delete removes a key from the cache.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, c.namespace+key)
}

// Purge removes every key in this cache's namespace.
func (c *TypedCache[T]) Purge(ctx context.Context) error {
	return c.cache.DeleteByPrefix(ctx, c.namespace)
}

// GetOrSet returns the cached value, or computes it with fn and stores it.
// A failed store does not fail the call.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, fn func() (*T, error)) (*T, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return nil, err
	}

	_ = c.Set(ctx, key, value)
	return value, nil
}
