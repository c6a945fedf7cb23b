// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Storage used for local development and tests.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string

	// FailOn, when set, is consulted before every operation and may return an
	// error to simulate an unavailable store.
	FailOn func(op, key string) error
}

type memoryObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// NewMemory creates an empty in-memory store serving URLs under baseURL.
func NewMemory(baseURL string) *Memory {
	return &Memory{
		objects: make(map[string]memoryObject),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (m *Memory) fail(op, key string) error {
	if m.FailOn == nil {
		return nil
	}
	return m.FailOn(op, key)
}

// Put stores a copy of r.
func (m *Memory) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if err := m.fail("put", key); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading body for %s: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType, modified: time.Now()}
	return nil
}

// Get returns a reader over a copy of the stored bytes.
func (m *Memory) Get(_ context.Context, key string) (io.ReadCloser, error) {
	if err := m.fail("get", key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

// List returns objects under prefix sorted by key.
func (m *Memory) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	if err := m.fail("list", prefix); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var objects []ObjectInfo
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, ObjectInfo{
				Key:          key,
				Size:         int64(len(obj.data)),
				ContentType:  obj.contentType,
				LastModified: obj.modified,
			})
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Delete removes keys; missing keys are ignored like S3 does.
func (m *Memory) Delete(_ context.Context, keys []string) error {
	for _, key := range keys {
		if err := m.fail("delete", key); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.objects, key)
	}
	return nil
}

// SignPut returns a fake signed URL that encodes the expiry.
func (m *Memory) SignPut(_ context.Context, key, contentType string, ttl time.Duration) (string, error) {
	if err := m.fail("sign", key); err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("content-type", contentType)
	q.Set("expires", time.Now().Add(ttl).UTC().Format(time.RFC3339))
	return m.URL(key) + "?" + q.Encode(), nil
}

// URL returns baseURL/key.
func (m *Memory) URL(key string) string {
	return m.baseURL + "/" + key
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Has reports whether key exists.
func (m *Memory) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}
