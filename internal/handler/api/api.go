// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST API handlers for the news backend.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jknm/novice/internal/directory"
	"github.com/jknm/novice/internal/jobs"
	"github.com/jknm/novice/internal/scheduler"
	"github.com/jknm/novice/internal/service"
)

// maxBodySize bounds JSON request bodies. Article documents are the largest.
const maxBodySize = 8 << 20

// Services bundles what the handlers call into.
type Services struct {
	Articles  *service.ArticleService
	Search    *service.SearchService
	Media     *service.MediaService
	Authors   *service.AuthorService
	Admin     *service.AdminService
	Scheduler *scheduler.Scheduler
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	articles  *service.ArticleService
	search    *service.SearchService
	media     *service.MediaService
	authors   *service.AuthorService
	admin     *service.AdminService
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
}

// NewHandler creates a new API handler. Scheduler may be nil.
func NewHandler(s Services, logger *slog.Logger) *Handler {
	return &Handler{
		articles:  s.Articles,
		search:    s.Search,
		media:     s.Media,
		authors:   s.Authors,
		admin:     s.Admin,
		scheduler: s.Scheduler,
		logger:    logger,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata. Offset pages report Total, Limit and
// Offset; cursor pages report Cursor and IsDone.
type Meta struct {
	Total  int64  `json:"total,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
	Cursor string `json:"cursor,omitempty"`
	IsDone *bool  `json:"is_done,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Details: details}})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// writeServiceError maps service errors onto HTTP statuses. Client errors
// carry the error text; anything unexpected is logged and reported generically.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrNotFound), errors.Is(err, scheduler.ErrTaskNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrInvalidState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, service.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrContentShape):
		status, code = http.StatusUnprocessableEntity, "content_shape"
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, scheduler.ErrInvalidSchedule):
		status, code = http.StatusBadRequest, "bad_request"
	case errors.Is(err, directory.ErrNotConfigured):
		status, code = http.StatusServiceUnavailable, "not_configured"
	case errors.Is(err, jobs.ErrQueueFull), errors.Is(err, jobs.ErrNotRunning):
		status, code = http.StatusServiceUnavailable, "busy"
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		WriteInternalError(w, "Internal server error")
		return
	}
	WriteError(w, status, code, err.Error(), nil)
}

// decodeJSON reads a JSON body into dst. On failure a 400 has been written
// and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Request body too large", nil)
		case errors.Is(err, io.EOF):
			WriteBadRequest(w, "Request body is required", nil)
		default:
			WriteBadRequest(w, "Invalid JSON body: "+err.Error(), nil)
		}
		return false
	}
	return true
}

// parseIDParam parses a positive integer URL parameter. On failure a 400
// has been written and false is returned.
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		WriteBadRequest(w, fmt.Sprintf("Invalid %s", name), nil)
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}
