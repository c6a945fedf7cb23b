// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jknm/novice/internal/jobs"
	"github.com/jknm/novice/internal/logging"
	"github.com/jknm/novice/internal/model"
	"github.com/jknm/novice/internal/testutil"
)

func TestDeleteEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := authCtx()

	author := env.guest(t, "Ostane")
	published := env.publishArticle(t, "Izbrisano", "x", time.Now(), author.ID)
	u := env.upload(t, "a.png", "image/png", testutil.PNG(t, 500, 400))
	_, err := env.media.ConfirmUpload(ctx, u.MediaID, published.ID, nil)
	require.NoError(t, err)
	for _, err := range env.submitter.runAll(context.Background()) {
		require.NoError(t, err)
	}
	// Cached for anonymous readers.
	_, err = env.articles.GetBySlug(anonCtx(), published.Slug)
	require.NoError(t, err)
	require.Positive(t, env.storage.Len())

	_, err = env.admin.DeleteEverything(anonCtx())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	objects := env.storage.Len()
	res, err := env.admin.DeleteEverything(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Articles)
	assert.Equal(t, int64(1), res.Media)
	assert.True(t, res.BucketPurgeQueued)
	assert.Equal(t, objects, env.storage.Len(), "the bucket is emptied in the background")

	require.Equal(t, 1, env.submitter.count())
	for _, err := range env.submitter.runAll(context.Background()) {
		require.NoError(t, err)
	}
	assert.Zero(t, env.storage.Len())

	_, err = env.articles.GetBySlug(anonCtx(), published.Slug)
	assert.ErrorIs(t, err, ErrNotFound, "cache was purged")

	authors, err := env.authors.List(ctx)
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, author.ID, authors[0].ID)

	var variants int
	require.NoError(t, env.db.QueryRow(`SELECT COUNT(*) FROM media_variants`).Scan(&variants))
	assert.Zero(t, variants)
}

func TestDeleteEverythingBucketErrorsBecomeEvents(t *testing.T) {
	env := newTestEnv(t)
	logger := slog.New(logging.NewEventLogHandler(testutil.TestLoggerSilent().Handler(), env.db))
	admin := NewAdminService(env.db, env.storage, env.articles, env.submitter, logger)

	env.upload(t, "a.pdf", "application/pdf", []byte("x"))
	env.storage.FailOn = func(op, _ string) error {
		if op == "delete" {
			return errors.New("access denied")
		}
		return nil
	}

	res, err := admin.DeleteEverything(authCtx())
	require.NoError(t, err, "the request does not wait for the bucket")
	assert.True(t, res.BucketPurgeQueued)

	var n int
	require.NoError(t, env.db.QueryRow(`SELECT COUNT(*) FROM media`).Scan(&n))
	assert.Zero(t, n, "database reset is not rolled back by a storage error")

	errs := env.submitter.runAll(context.Background())
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "access denied")
	assert.Equal(t, 1, env.storage.Len())

	events, err := admin.ListEvents(authCtx(), model.EventLevelError, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "emptying bucket failed", events[0].Message)
	assert.Equal(t, "storage", events[0].Category)
	assert.Contains(t, events[0].Metadata, "access denied")
}

func TestDeleteEverythingWithFullQueue(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "a.pdf", "application/pdf", []byte("x"))
	env.submitter.err = jobs.ErrQueueFull

	res, err := env.admin.DeleteEverything(authCtx())
	require.NoError(t, err)
	assert.False(t, res.BucketPurgeQueued)
	assert.Equal(t, 1, env.storage.Len())
}

func TestListAndPruneEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := authCtx()

	logger := slog.New(logging.NewEventLogHandler(testutil.TestLoggerSilent().Handler(), env.db))
	logger.Info("not stored")
	logger.Warn("disk nearly full", "category", "storage")
	logger.Error("sync failed", "category", "author", "error", "boom")

	events, err := env.admin.ListEvents(ctx, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "sync failed", events[0].Message)
	assert.Equal(t, model.EventLevelError, events[0].Level)
	assert.Equal(t, "author", events[0].Category)
	assert.True(t, strings.Contains(events[0].Metadata, "boom"), events[0].Metadata)

	warnings, err := env.admin.ListEvents(ctx, model.EventLevelWarning, 10, 0)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "storage", warnings[0].Category)

	_, err = env.admin.ListEvents(ctx, "debug", 10, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.admin.ListEvents(anonCtx(), "", 10, 0)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	n, err := env.admin.PruneEvents(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = env.admin.PruneEvents(ctx, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
