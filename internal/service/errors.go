// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the article, media, search and author
// operations on top of the store, object storage and job queue.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jknm/novice/internal/auth"
	"github.com/jknm/novice/internal/document"
)

// Error kinds returned by services. Callers match them with errors.Is.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrContentShape    = errors.New("invalid content")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
)

// requireIdentity aborts gated operations before any read or write.
func requireIdentity(ctx context.Context) (auth.Identity, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return auth.Identity{}, ErrUnauthenticated
	}
	return id, nil
}

func isAuthenticated(ctx context.Context) bool {
	_, ok := auth.FromContext(ctx)
	return ok
}

// notFound converts sql.ErrNoRows into ErrNotFound with a description.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
	}
	return err
}

// contentError tags document shape failures with ErrContentShape.
func contentError(err error) error {
	switch {
	case errors.Is(err, document.ErrNotH1),
		errors.Is(err, document.ErrEmptyDocument),
		errors.Is(err, document.ErrUnparseable):
		return fmt.Errorf("%w: %w", ErrContentShape, err)
	default:
		return err
	}
}
