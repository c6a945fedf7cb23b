// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jknm/novice/internal/directory"
	"github.com/jknm/novice/internal/metrics"
	"github.com/jknm/novice/internal/model"
	"github.com/jknm/novice/internal/store"
	"github.com/jknm/novice/internal/util"
)

// AuthorService manages authors and mirrors the workspace directory into them.
type AuthorService struct {
	db        *sql.DB
	queries   *store.Queries
	directory directory.Directory
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewAuthorService creates an author service. dir may be nil when no
// directory is configured.
func NewAuthorService(db *sql.DB, dir directory.Directory, m *metrics.Metrics, logger *slog.Logger) *AuthorService {
	return &AuthorService{
		db:        db,
		queries:   store.New(db),
		directory: dir,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// SyncResult counts what a directory sync did.
type SyncResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

// AuthorInput holds author fields set by an editor.
type AuthorInput struct {
	AuthorType model.AuthorType `json:"author_type"`
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Image      string           `json:"image"`
	GoogleID   string           `json:"google_id"`
}

// SyncFromDirectory reconciles directory users into authors by google id.
// It only adds members and updates name and email; authors missing from the
// directory are left alone and author_type/user_id are never touched.
func (s *AuthorService) SyncFromDirectory(ctx context.Context) (SyncResult, error) {
	if s.directory == nil {
		return SyncResult{}, fmt.Errorf("directory sync: %w", directory.ErrNotConfigured)
	}

	entries, err := s.directory.ListUsers(ctx)
	if err != nil {
		s.logger.Error("fetching directory users failed", "category", "author", "error", err)
		return SyncResult{}, fmt.Errorf("fetching directory users: %w", err)
	}

	var res SyncResult
	now := util.UnixMilli(s.now())
	err = store.InTx(ctx, s.db, func(q *store.Queries) error {
		for _, e := range entries {
			if e.GoogleID == "" || strings.TrimSpace(e.Name) == "" {
				res.Skipped++
				continue
			}

			existing, err := q.GetAuthorByGoogleID(ctx, e.GoogleID)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				if _, err := q.CreateAuthor(ctx, store.CreateAuthorParams{
					AuthorType: string(model.AuthorTypeMember),
					Name:       e.Name,
					GoogleID:   util.NullStringFromValue(e.GoogleID),
					Email:      util.NullStringFromValue(e.Email),
					CreatedAt:  now,
					UpdatedAt:  now,
				}); err != nil {
					return fmt.Errorf("creating author for %s: %w", e.Email, err)
				}
				res.Created++
			case err != nil:
				return err
			case existing.Name == e.Name && existing.Email.String == e.Email:
				res.Unchanged++
			default:
				if err := q.UpdateAuthorContact(ctx, store.UpdateAuthorContactParams{
					ID:        existing.ID,
					Name:      e.Name,
					Email:     util.NullStringFromValue(e.Email),
					UpdatedAt: now,
				}); err != nil {
					return fmt.Errorf("updating author %d: %w", existing.ID, err)
				}
				res.Updated++
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("directory sync failed", "category", "author", "error", err)
		return SyncResult{}, err
	}

	s.metrics.AuthorSync(res.Created, res.Updated, res.Unchanged)
	s.logger.Info("directory sync finished", "category", "author",
		"created", res.Created, "updated", res.Updated, "unchanged", res.Unchanged, "skipped", res.Skipped)
	return res, nil
}

// List returns all authors ordered by name.
func (s *AuthorService) List(ctx context.Context) ([]Author, error) {
	rows, err := s.queries.ListAuthors(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing authors: %w", err)
	}
	out := make([]Author, len(rows))
	for i, a := range rows {
		out[i] = authorFromStore(a)
	}
	return out, nil
}

// Get returns one author.
func (s *AuthorService) Get(ctx context.Context, id int64) (Author, error) {
	a, err := s.queries.GetAuthorByID(ctx, id)
	if err != nil {
		return Author{}, notFound(err, "author %d", id)
	}
	return authorFromStore(a), nil
}

// Create adds an author.
func (s *AuthorService) Create(ctx context.Context, in AuthorInput) (Author, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return Author{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Author{}, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}
	if in.AuthorType == "" {
		in.AuthorType = model.AuthorTypeMember
	}
	if _, err := model.ParseAuthorType(string(in.AuthorType)); err != nil {
		return Author{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	now := util.UnixMilli(s.now())
	a, err := s.queries.CreateAuthor(ctx, store.CreateAuthorParams{
		AuthorType: string(in.AuthorType),
		Name:       name,
		GoogleID:   util.NullStringFromValue(strings.TrimSpace(in.GoogleID)),
		Email:      util.NullStringFromValue(strings.TrimSpace(in.Email)),
		Image:      util.NullStringFromValue(strings.TrimSpace(in.Image)),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return Author{}, fmt.Errorf("google id %q already linked to another author: %w", in.GoogleID, ErrConflict)
		}
		return Author{}, fmt.Errorf("creating author: %w", err)
	}

	s.logger.Info("author created", "category", "author", "author_id", a.ID, "author_type", a.AuthorType)
	return authorFromStore(a), nil
}

// Update changes the editable fields of an author. Type, google id and user
// id stay as they are.
func (s *AuthorService) Update(ctx context.Context, id int64, in AuthorInput) (Author, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return Author{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Author{}, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}

	a, err := s.queries.UpdateAuthor(ctx, store.UpdateAuthorParams{
		ID:        id,
		Name:      name,
		Email:     util.NullStringFromValue(strings.TrimSpace(in.Email)),
		Image:     util.NullStringFromValue(strings.TrimSpace(in.Image)),
		UpdatedAt: util.UnixMilli(s.now()),
	})
	if err != nil {
		return Author{}, notFound(err, "author %d", id)
	}
	return authorFromStore(a), nil
}

// Remove deletes an author that no article references.
func (s *AuthorService) Remove(ctx context.Context, id int64) error {
	if _, err := requireIdentity(ctx); err != nil {
		return err
	}

	return store.InTx(ctx, s.db, func(q *store.Queries) error {
		if _, err := q.GetAuthorByID(ctx, id); err != nil {
			return notFound(err, "author %d", id)
		}
		n, err := q.CountArticlesForAuthor(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("author %d is linked to %d articles: %w", id, n, ErrConflict)
		}
		if err := q.DeleteAuthor(ctx, id); err != nil {
			if store.IsForeignKeyViolation(err) {
				return fmt.Errorf("author %d is still linked: %w", id, ErrConflict)
			}
			return err
		}
		return nil
	})
}

// CreateGuest adds a guest author with only a name.
func (s *AuthorService) CreateGuest(ctx context.Context, name string) (Author, error) {
	return s.Create(ctx, AuthorInput{AuthorType: model.AuthorTypeGuest, Name: name})
}

// RenameGuest renames a guest author. Members are renamed by the directory sync.
func (s *AuthorService) RenameGuest(ctx context.Context, id int64, name string) (Author, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return Author{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Author{}, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}

	a, err := s.queries.RenameGuestAuthor(ctx, id, name, util.UnixMilli(s.now()))
	if err == nil {
		return authorFromStore(a), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Author{}, err
	}
	if _, err := s.queries.GetAuthorByID(ctx, id); err != nil {
		return Author{}, notFound(err, "author %d", id)
	}
	return Author{}, fmt.Errorf("author %d is not a guest: %w", id, ErrInvalidState)
}
