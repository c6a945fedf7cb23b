// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jknm/novice/internal/auth"
	"github.com/jknm/novice/internal/cache"
	"github.com/jknm/novice/internal/jobs"
	"github.com/jknm/novice/internal/metrics"
	"github.com/jknm/novice/internal/model"
	"github.com/jknm/novice/internal/storage"
	"github.com/jknm/novice/internal/testutil"
)

// recordingSubmitter keeps submitted jobs so tests decide when they run.
type recordingSubmitter struct {
	mu   sync.Mutex
	jobs []jobs.Job
	err  error
}

func (r *recordingSubmitter) Submit(job jobs.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.jobs = append(r.jobs, job)
	return nil
}

// runAll runs and clears every queued job, returning their errors.
func (r *recordingSubmitter) runAll(ctx context.Context) []error {
	r.mu.Lock()
	pending := r.jobs
	r.jobs = nil
	r.mu.Unlock()

	errs := make([]error, 0, len(pending))
	for _, j := range pending {
		errs = append(errs, j.Run(ctx))
	}
	return errs
}

func (r *recordingSubmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

type testEnv struct {
	db        *sql.DB
	storage   *storage.Memory
	submitter *recordingSubmitter
	metrics   *metrics.Metrics
	directory *testutil.StaticDirectory

	articles *ArticleService
	search   *SearchService
	media    *MediaService
	pipeline *VariantPipeline
	authors  *AuthorService
	admin    *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	logger := testutil.TestLoggerSilent()
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })

	env := &testEnv{
		db:        db,
		storage:   testutil.TestStorage(),
		submitter: &recordingSubmitter{},
		metrics:   metrics.New(),
		directory: &testutil.StaticDirectory{},
	}
	env.articles = NewArticleService(db, mem, logger)
	env.search = NewSearchService(db)
	env.pipeline = NewVariantPipeline(db, env.storage, env.metrics, logger, 4)
	env.media = NewMediaService(db, env.storage, env.pipeline, env.submitter, 0, logger)
	env.authors = NewAuthorService(db, env.directory, env.metrics, logger)
	env.admin = NewAdminService(db, env.storage, env.articles, env.submitter, logger)
	return env
}

func authCtx() context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{Subject: "editor-1", Email: "urednik@jknm.si"})
}

func anonCtx() context.Context {
	return context.Background()
}

// content builds an editor document: an H1 followed by paragraphs.
func content(title string, paragraphs ...string) json.RawMessage {
	nodes := []map[string]any{
		{"type": "h1", "children": []any{map[string]any{"text": title}}},
	}
	for _, p := range paragraphs {
		nodes = append(nodes, map[string]any{"type": "p", "children": []any{map[string]any{"text": p}}})
	}
	data, _ := json.Marshal(nodes)
	return data
}

func (e *testEnv) guest(t *testing.T, name string) Author {
	t.Helper()
	a, err := e.authors.CreateGuest(authCtx(), name)
	require.NoError(t, err)
	return a
}

// publishArticle creates and publishes an article in one step.
func (e *testEnv) publishArticle(t *testing.T, title, body string, at time.Time, authorIDs ...int64) Article {
	t.Helper()
	ctx := authCtx()

	draft, err := e.articles.CreateDraft(ctx)
	require.NoError(t, err)

	published, err := e.articles.PublishDraft(ctx, draft.ID, PublishParams{
		Content:     content(title, body),
		AuthorIDs:   authorIDs,
		PublishedAt: &at,
	})
	require.NoError(t, err)
	return published
}

// upload issues an upload URL and stores data under the returned key.
func (e *testEnv) upload(t *testing.T, filename, contentType string, data []byte) UploadURL {
	t.Helper()
	u, err := e.media.GenerateUploadURL(authCtx(), filename, contentType, int64(len(data)))
	require.NoError(t, err)
	require.NoError(t, e.storage.Put(context.Background(), u.Key, bytes.NewReader(data), int64(len(data)), contentType))
	return u
}

func (e *testEnv) mediaStatus(t *testing.T, id int64) model.UploadStatus {
	t.Helper()
	var status string
	require.NoError(t, e.db.QueryRow(`SELECT upload_status FROM media WHERE id = ?`, id).Scan(&status))
	return model.UploadStatus(status)
}
