// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package directory reads club members from the Google Workspace directory.
package directory

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/option"

	"github.com/jknm/novice/internal/model"
)

// Directory lists users of an external workspace directory.
type Directory interface {
	ListUsers(ctx context.Context) ([]model.DirectoryEntry, error)
}

// Config holds Google Admin SDK settings.
type Config struct {
	// CredentialsB64 is the service account key JSON, base64 encoded.
	CredentialsB64 string
	// CustomerID is the workspace customer id ("my_customer" for the caller's own).
	CustomerID string
	// Subject is the admin user impersonated through domain-wide delegation.
	Subject string
}

// ErrNotConfigured is returned when no credentials are configured.
var ErrNotConfigured = errors.New("directory credentials not configured")

const pageSize = 100

// Google lists users through the Admin SDK Directory API.
type Google struct {
	svc      *admin.Service
	customer string
}

// NewGoogle builds a directory client from a base64 service account key.
func NewGoogle(ctx context.Context, cfg Config) (*Google, error) {
	if cfg.CredentialsB64 == "" {
		return nil, ErrNotConfigured
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(cfg.CredentialsB64))
	if err != nil {
		return nil, fmt.Errorf("decoding directory credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSONWithParams(ctx, raw, google.CredentialsParams{
		Scopes:  []string{admin.AdminDirectoryUserReadonlyScope},
		Subject: cfg.Subject,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing directory credentials: %w", err)
	}

	return NewGoogleWithOptions(ctx, cfg.CustomerID, option.WithCredentials(creds))
}

// NewGoogleWithOptions builds a directory client from explicit client options.
func NewGoogleWithOptions(ctx context.Context, customer string, opts ...option.ClientOption) (*Google, error) {
	if customer == "" {
		customer = "my_customer"
	}
	svc, err := admin.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating directory service: %w", err)
	}
	return &Google{svc: svc, customer: customer}, nil
}

// ListUsers pages through every user ordered by email. Users missing an id,
// primary email or full name are skipped.
func (g *Google) ListUsers(ctx context.Context) ([]model.DirectoryEntry, error) {
	var entries []model.DirectoryEntry

	call := g.svc.Users.List().
		Customer(g.customer).
		OrderBy("email").
		MaxResults(pageSize).
		Projection("basic")

	err := call.Pages(ctx, func(page *admin.Users) error {
		entries = append(entries, toEntries(page.Users)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing directory users: %w", err)
	}
	return entries, nil
}

func toEntries(users []*admin.User) []model.DirectoryEntry {
	out := make([]model.DirectoryEntry, 0, len(users))
	for _, u := range users {
		if u == nil || u.Id == "" || u.PrimaryEmail == "" || u.Name == nil || u.Name.FullName == "" {
			continue
		}
		out = append(out, model.DirectoryEntry{
			Name:     u.Name.FullName,
			Email:    u.PrimaryEmail,
			GoogleID: u.Id,
		})
	}
	return out
}

var _ Directory = (*Google)(nil)
