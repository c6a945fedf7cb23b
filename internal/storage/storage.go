// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage wraps the S3-compatible object store that holds original
// uploads and their generated variants.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Storage is the object store contract used by the media pipeline.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Delete(ctx context.Context, keys []string) error
	// SignPut returns a URL that authorizes a single PUT of key until ttl elapses.
	SignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	// URL returns the public URL an object is served from.
	URL(key string) string
}

// DeleteAll lists every object in the bucket and deletes them in one batch.
// Writers running concurrently may leave objects behind.
func DeleteAll(ctx context.Context, s Storage) (int, error) {
	objects, err := s.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("listing objects: %w", err)
	}
	if len(objects) == 0 {
		return 0, nil
	}

	keys := make([]string, len(objects))
	for i, obj := range objects {
		keys[i] = obj.Key
	}
	if err := s.Delete(ctx, keys); err != nil {
		return 0, fmt.Errorf("deleting %d objects: %w", len(keys), err)
	}
	return len(keys), nil
}

// ReadAll fetches an object fully into memory.
func ReadAll(ctx context.Context, s Storage, key string) ([]byte, error) {
	rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}
