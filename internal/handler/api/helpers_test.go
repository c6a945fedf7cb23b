// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/jknm/novice/internal/auth"
	"github.com/jknm/novice/internal/cache"
	"github.com/jknm/novice/internal/jobs"
	"github.com/jknm/novice/internal/metrics"
	"github.com/jknm/novice/internal/scheduler"
	"github.com/jknm/novice/internal/service"
	"github.com/jknm/novice/internal/storage"
	"github.com/jknm/novice/internal/testutil"
)

const testSecret = "test-secret-that-is-at-least-32-bytes"

// heldJobs keeps submitted jobs so tests can run them synchronously.
type heldJobs struct {
	mu   sync.Mutex
	jobs []jobs.Job
}

func (h *heldJobs) Submit(job jobs.Job) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs = append(h.jobs, job)
	return nil
}

func (h *heldJobs) runAll(t *testing.T) {
	t.Helper()
	h.mu.Lock()
	pending := h.jobs
	h.jobs = nil
	h.mu.Unlock()
	for _, j := range pending {
		require.NoError(t, j.Run(context.Background()))
	}
}

type testServer struct {
	db        *sql.DB
	router    chi.Router
	tokens    *auth.TokenManager
	jobs      *heldJobs
	storage   *storage.Memory
	directory *testutil.StaticDirectory
	scheduler *scheduler.Scheduler
	token     string
}

// testSetup wires real services over a temporary database and in-memory
// storage behind the API router.
func testSetup(t *testing.T) *testServer {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	logger := testutil.TestLoggerSilent()
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })

	store := testutil.TestStorage()
	m := metrics.New()
	held := &heldJobs{}
	dir := &testutil.StaticDirectory{}

	articles := service.NewArticleService(db, mem, logger)
	pipeline := service.NewVariantPipeline(db, store, m, logger, 2)
	authors := service.NewAuthorService(db, dir, m, logger)
	sched := scheduler.New(logger)

	h := NewHandler(Services{
		Articles:  articles,
		Search:    service.NewSearchService(db),
		Media:     service.NewMediaService(db, store, pipeline, held, 0, logger),
		Authors:   authors,
		Admin:     service.NewAdminService(db, store, articles, held, logger),
		Scheduler: sched,
	}, logger)

	tokens, err := auth.NewTokenManager(testSecret, "novice-test", time.Hour)
	require.NoError(t, err)
	token, _, err := tokens.Issue(auth.Identity{Subject: "editor-1", Email: "urednik@jknm.si"})
	require.NoError(t, err)

	return &testServer{
		db:        db,
		router:    h.Routes(tokens, nil),
		tokens:    tokens,
		jobs:      held,
		storage:   store,
		directory: dir,
		scheduler: sched,
		token:     token,
	}
}

// do sends a request through the router. authed adds the editor token.
func (s *testServer) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data field of a success envelope into dst and
// returns the meta block.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) *Meta {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
		Meta *Meta           `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if dst != nil {
		require.NoError(t, json.Unmarshal(env.Data, dst))
	}
	return env.Meta
}

// assertStatusCode checks that the response has the expected status code.
func assertStatusCode(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Fatalf("expected status %d, got %d: %s", expected, w.Code, w.Body.String())
	}
}

// assertErrorResponse unmarshals and validates an error response.
func assertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedCode string) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error.Code != expectedCode {
		t.Errorf("expected code '%s', got %s", expectedCode, resp.Error.Code)
	}
	return resp
}

// document builds an editor document with a leading H1.
func document(title string, paragraphs ...string) json.RawMessage {
	nodes := []map[string]any{
		{"type": "h1", "children": []any{map[string]any{"text": title}}},
	}
	for _, p := range paragraphs {
		nodes = append(nodes, map[string]any{"type": "p", "children": []any{map[string]any{"text": p}}})
	}
	data, _ := json.Marshal(nodes)
	return data
}

// publish creates and publishes an article through the API.
func (s *testServer) publish(t *testing.T, title, body string, authorIDs ...int64) service.Article {
	t.Helper()

	w := s.do(t, http.MethodPost, "/articles/drafts", nil, true)
	assertStatusCode(t, w, http.StatusCreated)
	var draft service.Article
	decodeData(t, w, &draft)

	if authorIDs == nil {
		authorIDs = []int64{}
	}
	w = s.do(t, http.MethodPost, "/articles/"+itoa(draft.ID)+"/publish", PublishRequest{
		Content:   document(title, body),
		AuthorIDs: authorIDs,
	}, true)
	assertStatusCode(t, w, http.StatusOK)
	var published service.Article
	decodeData(t, w, &published)
	return published
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
