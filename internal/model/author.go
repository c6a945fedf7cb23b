// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "fmt"

// AuthorType distinguishes club members from guest writers.
type AuthorType string

// Author types
const (
	AuthorTypeMember AuthorType = "member"
	AuthorTypeGuest  AuthorType = "guest"
)

// ParseAuthorType converts a string into an AuthorType.
func ParseAuthorType(s string) (AuthorType, error) {
	switch AuthorType(s) {
	case AuthorTypeMember, AuthorTypeGuest:
		return AuthorType(s), nil
	default:
		return "", fmt.Errorf("unknown author type %q", s)
	}
}

// DirectoryEntry is one user as reported by the external workspace directory.
type DirectoryEntry struct {
	Name     string
	Email    string
	GoogleID string
}
