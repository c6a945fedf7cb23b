// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jknm/novice/internal/directory"
	"github.com/jknm/novice/internal/jobs"
	"github.com/jknm/novice/internal/scheduler"
	"github.com/jknm/novice/internal/service"
	"github.com/jknm/novice/internal/testutil"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	done := true
	WriteSuccess(w, map[string]string{"name": "test"}, &Meta{Cursor: "abc", IsDone: &done})

	assertStatusCode(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type 'application/json', got %s", ct)
	}

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Meta == nil {
		t.Fatal("expected meta to be present")
	}
	if resp.Meta.Cursor != "abc" || resp.Meta.IsDone == nil || !*resp.Meta.IsDone {
		t.Errorf("unexpected meta %+v", resp.Meta)
	}
}

func TestWriteBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	WriteBadRequest(w, "Invalid input", map[string]string{"filename": "required"})

	assertStatusCode(t, w, http.StatusBadRequest)
	resp := assertErrorResponse(t, w, "bad_request")
	if resp.Error.Details["filename"] != "required" {
		t.Errorf("expected filename detail, got %v", resp.Error.Details)
	}
}

func TestWriteServiceError(t *testing.T) {
	h := NewHandler(Services{}, testutil.TestLoggerSilent())

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrUnauthenticated, http.StatusUnauthorized, "unauthorized"},
		{fmt.Errorf("article 3: %w", service.ErrNotFound), http.StatusNotFound, "not_found"},
		{scheduler.ErrTaskNotFound, http.StatusNotFound, "not_found"},
		{service.ErrInvalidState, http.StatusConflict, "invalid_state"},
		{service.ErrConflict, http.StatusConflict, "conflict"},
		{service.ErrContentShape, http.StatusUnprocessableEntity, "content_shape"},
		{service.ErrInvalidInput, http.StatusBadRequest, "bad_request"},
		{scheduler.ErrInvalidSchedule, http.StatusBadRequest, "bad_request"},
		{directory.ErrNotConfigured, http.StatusServiceUnavailable, "not_configured"},
		{jobs.ErrQueueFull, http.StatusServiceUnavailable, "busy"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/x", nil)
			h.writeServiceError(w, r, tt.err)

			assertStatusCode(t, w, tt.status)
			resp := assertErrorResponse(t, w, tt.code)
			if tt.status == http.StatusInternalServerError && strings.Contains(resp.Error.Message, "fire") {
				t.Error("internal error text leaked to client")
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		ok     bool
		status int
	}{
		{"valid", `{"name":"Jamar"}`, true, 0},
		{"empty", ``, false, http.StatusBadRequest},
		{"malformed", `{"name":`, false, http.StatusBadRequest},
		{"unknown field", `{"name":"x","extra":1}`, false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst GuestRequest
			ok := decodeJSON(w, r, &dst)
			if ok != tt.ok {
				t.Fatalf("decodeJSON() = %v, want %v", ok, tt.ok)
			}
			if !ok {
				assertStatusCode(t, w, tt.status)
			}
		})
	}
}

func TestDecodeJSONTooLarge(t *testing.T) {
	w := httptest.NewRecorder()
	body := `{"name":"` + strings.Repeat("a", maxBodySize) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dst GuestRequest
	if decodeJSON(w, r, &dst) {
		t.Fatal("expected oversized body to be rejected")
	}
	assertStatusCode(t, w, http.StatusRequestEntityTooLarge)
}

func TestRoutesRejectBadToken(t *testing.T) {
	s := testSetup(t)

	req := httptest.NewRequest(http.MethodGet, "/articles", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assertStatusCode(t, w, http.StatusUnauthorized)
}

func TestRoutesAnonymousMutationsRejected(t *testing.T) {
	s := testSetup(t)

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/articles/drafts", nil},
		{http.MethodPut, "/articles/1/draft", UpdateDraftRequest{Content: document("Naslov")}},
		{http.MethodPost, "/media/upload-url", UploadURLRequest{Filename: "a.jpg", ContentType: "image/jpeg", Size: 10}},
		{http.MethodPost, "/authors/guests", GuestRequest{Name: "Gost"}},
		{http.MethodPost, "/admin/reset", nil},
		{http.MethodGet, "/admin/tasks", nil},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.body, false)
			assertStatusCode(t, w, http.StatusUnauthorized)
		})
	}
}
