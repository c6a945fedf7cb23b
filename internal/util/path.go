// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileExtension returns the lowercased suffix of a filename without the dot.
// Names without a usable suffix yield fallback.
func FileExtension(filename, fallback string) string {
	base := filepath.Base(filename)
	idx := strings.LastIndex(base, ".")
	if idx <= 0 || idx == len(base)-1 {
		return fallback
	}
	ext := strings.ToLower(base[idx+1:])
	for _, r := range ext {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return fallback
		}
	}
	return ext
}

// SafeJoinPath joins an object key below baseDir and rejects keys that would
// escape it (for example "../../etc/passwd").
func SafeJoinPath(baseDir, key string) (string, error) {
	absBase, err := filepath.Abs(filepath.Clean(baseDir))
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	target := filepath.Join(absBase, filepath.FromSlash(key))
	if target != absBase && !strings.HasPrefix(target, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %q escapes %q", key, baseDir)
	}
	return target, nil
}
