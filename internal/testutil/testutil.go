// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the novice project.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/jknm/novice/internal/model"
	"github.com/jknm/novice/internal/storage"
	"github.com/jknm/novice/internal/store"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a logger that discards everything.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary test database with all migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "novice-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}
}

// TestStorage returns an empty in-memory object store.
func TestStorage() *storage.Memory {
	return storage.NewMemory("https://media.test")
}

// PNG renders a gradient PNG of the given size.
func PNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 96, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

// StaticDirectory is a directory source returning a fixed user list.
type StaticDirectory struct {
	mu      sync.Mutex
	Entries []model.DirectoryEntry
	Err     error
	Calls   int
}

// ListUsers returns the configured entries or error.
func (d *StaticDirectory) ListUsers(_ context.Context) ([]model.DirectoryEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls++
	if d.Err != nil {
		return nil, d.Err
	}
	out := make([]model.DirectoryEntry, len(d.Entries))
	copy(out, d.Entries)
	return out, nil
}

// SetEntries replaces the entries returned by later calls.
func (d *StaticDirectory) SetEntries(entries []model.DirectoryEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Entries = entries
}
