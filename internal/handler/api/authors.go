// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/jknm/novice/internal/service"
)

// GuestRequest is the body of the guest author endpoints.
type GuestRequest struct {
	Name string `json:"name"`
}

// ListAuthors handles GET /api/v1/authors.
func (h *Handler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.authors.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, authors, &Meta{Total: int64(len(authors))})
}

// GetAuthor handles GET /api/v1/authors/{id}.
func (h *Handler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	a, err := h.authors.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, a, nil)
}

// ListAuthorArticles handles GET /api/v1/authors/{id}/articles.
func (h *Handler) ListAuthorArticles(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	articles, err := h.articles.ListForAuthor(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, articles, &Meta{Total: int64(len(articles))})
}

// CreateAuthor handles POST /api/v1/authors.
func (h *Handler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	var req service.AuthorInput
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.authors.Create(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, a)
}

// UpdateAuthor handles PUT /api/v1/authors/{id}.
func (h *Handler) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req service.AuthorInput
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.authors.Update(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, a, nil)
}

// DeleteAuthor handles DELETE /api/v1/authors/{id}.
func (h *Handler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.authors.Remove(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateGuest handles POST /api/v1/authors/guests.
func (h *Handler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var req GuestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.authors.CreateGuest(r.Context(), req.Name)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, a)
}

// RenameGuest handles PUT /api/v1/authors/{id}/guest-name.
func (h *Handler) RenameGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req GuestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.authors.RenameGuest(r.Context(), id, req.Name)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, a, nil)
}
