// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jknm/novice/internal/directory"
	"github.com/jknm/novice/internal/model"
	"github.com/jknm/novice/internal/testutil"
)

func authorByGoogleID(t *testing.T, env *testEnv, googleID string) Author {
	t.Helper()
	all, err := env.authors.List(anonCtx())
	require.NoError(t, err)
	for _, a := range all {
		if a.GoogleID == googleID {
			return a
		}
	}
	t.Fatalf("no author with google id %q", googleID)
	return Author{}
}

func TestSyncFromDirectory(t *testing.T) {
	env := newTestEnv(t)
	ctx := authCtx()

	env.directory.SetEntries([]model.DirectoryEntry{
		{GoogleID: "g1", Name: "Ana Novak", Email: "ana@jknm.si"},
		{GoogleID: "g2", Name: "Bor Kranjc", Email: "bor@jknm.si"},
		{GoogleID: "", Name: "No Id", Email: "x@jknm.si"},
	})

	res, err := env.authors.SyncFromDirectory(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Created: 2, Skipped: 1}, res)

	ana := authorByGoogleID(t, env, "g1")
	assert.Equal(t, model.AuthorTypeMember, ana.AuthorType)
	assert.Equal(t, "Ana Novak", ana.Name)

	t.Run("second run is a no-op", func(t *testing.T) {
		res, err := env.authors.SyncFromDirectory(ctx)
		require.NoError(t, err)
		assert.Equal(t, SyncResult{Unchanged: 2, Skipped: 1}, res)

		all, err := env.authors.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("renames and keeps type", func(t *testing.T) {
		// A guest that was later given a directory account stays a guest.
		_, err := env.db.Exec(`UPDATE authors SET author_type = 'guest' WHERE google_id = 'g2'`)
		require.NoError(t, err)

		env.directory.SetEntries([]model.DirectoryEntry{
			{GoogleID: "g1", Name: "Ana Horvat", Email: "ana.horvat@jknm.si"},
			{GoogleID: "g2", Name: "Bor Kranjc", Email: "bor@jknm.si"},
		})
		res, err := env.authors.SyncFromDirectory(ctx)
		require.NoError(t, err)
		assert.Equal(t, SyncResult{Updated: 1, Unchanged: 1}, res)

		ana := authorByGoogleID(t, env, "g1")
		assert.Equal(t, "Ana Horvat", ana.Name)
		assert.Equal(t, "ana.horvat@jknm.si", ana.Email)

		bor := authorByGoogleID(t, env, "g2")
		assert.Equal(t, model.AuthorTypeGuest, bor.AuthorType)
	})

	t.Run("authors missing from the directory survive", func(t *testing.T) {
		env.directory.SetEntries(nil)
		_, err := env.authors.SyncFromDirectory(ctx)
		require.NoError(t, err)

		all, err := env.authors.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestSyncFromDirectoryErrors(t *testing.T) {
	env := newTestEnv(t)

	env.directory.Err = errors.New("quota exceeded")
	_, err := env.authors.SyncFromDirectory(authCtx())
	assert.ErrorContains(t, err, "quota exceeded")

	all, err := env.authors.List(anonCtx())
	require.NoError(t, err)
	assert.Empty(t, all)

	unconfigured := NewAuthorService(env.db, nil, nil, testutil.TestLoggerSilent())
	_, err = unconfigured.SyncFromDirectory(authCtx())
	assert.ErrorIs(t, err, directory.ErrNotConfigured)
}

func TestAuthorCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := authCtx()

	m, err := env.authors.Create(ctx, AuthorInput{Name: " Cilka ", Email: "cilka@jknm.si", GoogleID: "g9"})
	require.NoError(t, err)
	assert.Equal(t, "Cilka", m.Name)
	assert.Equal(t, model.AuthorTypeMember, m.AuthorType)

	_, err = env.authors.Create(ctx, AuthorInput{Name: "Twin", GoogleID: "g9"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = env.authors.Create(ctx, AuthorInput{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.authors.Create(ctx, AuthorInput{Name: "X", AuthorType: "robot"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.authors.Create(anonCtx(), AuthorInput{Name: "X"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	updated, err := env.authors.Update(ctx, m.ID, AuthorInput{Name: "Cilka Zupan", Image: "https://img/c.png"})
	require.NoError(t, err)
	assert.Equal(t, "Cilka Zupan", updated.Name)
	assert.Equal(t, "g9", updated.GoogleID)
	assert.Equal(t, "https://img/c.png", updated.Image)
	_, err = env.authors.Update(ctx, 999, AuthorInput{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := env.authors.Get(anonCtx(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cilka Zupan", got.Name)
	_, err = env.authors.Get(anonCtx(), 999)
	assert.ErrorIs(t, err, ErrNotFound)

	env.publishArticle(t, "Z avtorico", "x", time.Now(), m.ID)
	assert.ErrorIs(t, env.authors.Remove(ctx, m.ID), ErrConflict)

	loner, err := env.authors.Create(ctx, AuthorInput{Name: "Loner"})
	require.NoError(t, err)
	require.NoError(t, env.authors.Remove(ctx, loner.ID))
	assert.ErrorIs(t, env.authors.Remove(ctx, loner.ID), ErrNotFound)
}

func TestGuests(t *testing.T) {
	env := newTestEnv(t)
	ctx := authCtx()

	g, err := env.authors.CreateGuest(ctx, "Gostujoči pisec")
	require.NoError(t, err)
	assert.Equal(t, model.AuthorTypeGuest, g.AuthorType)

	renamed, err := env.authors.RenameGuest(ctx, g.ID, "Gost")
	require.NoError(t, err)
	assert.Equal(t, "Gost", renamed.Name)

	member, err := env.authors.Create(ctx, AuthorInput{Name: "Član"})
	require.NoError(t, err)
	_, err = env.authors.RenameGuest(ctx, member.ID, "x")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = env.authors.RenameGuest(ctx, 999, "x")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.authors.RenameGuest(ctx, g.ID, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
