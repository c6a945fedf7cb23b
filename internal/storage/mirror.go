// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jknm/novice/internal/util"
)

// MirrorResult summarizes a Mirror run.
type MirrorResult struct {
	Downloaded int
	Skipped    int
}

// Mirror copies every object of s into dir, keeping the key layout.
// Files whose local size already matches the remote size are skipped.
func Mirror(ctx context.Context, s Storage, dir string, logger *slog.Logger) (MirrorResult, error) {
	var result MirrorResult

	objects, err := s.List(ctx, "")
	if err != nil {
		return result, fmt.Errorf("listing objects: %w", err)
	}

	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		target, err := util.SafeJoinPath(dir, obj.Key)
		if err != nil {
			return result, err
		}

		if info, err := os.Stat(target); err == nil && info.Size() == obj.Size {
			result.Skipped++
			continue
		}

		if err := download(ctx, s, obj.Key, target); err != nil {
			return result, err
		}
		result.Downloaded++
		logger.Debug("mirrored object", "key", obj.Key, "size", obj.Size)
	}

	logger.Info("mirror finished", "dir", dir, "downloaded", result.Downloaded, "skipped", result.Skipped)
	return result, nil
}

func download(ctx context.Context, s Storage, key, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", key, err)
	}

	rc, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(target), ".mirror-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, rc); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("downloading %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("moving %s into place: %w", key, err)
	}
	return nil
}
