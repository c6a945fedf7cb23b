// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jknm/novice/internal/model"
	"github.com/jknm/novice/internal/service"
)

// UpdateDraftRequest is the body of PUT /articles/{id}/draft.
type UpdateDraftRequest struct {
	Content json.RawMessage `json:"content"`
}

// PublishRequest is the body of POST /articles/{id}/publish.
type PublishRequest struct {
	Content     json.RawMessage  `json:"content"`
	AuthorIDs   []int64          `json:"author_ids"`
	Thumbnail   *model.Thumbnail `json:"thumbnail,omitempty"`
	PublishedAt *time.Time       `json:"published_at,omitempty"`
}

// AddAuthorRequest is the body of POST /articles/{id}/authors.
type AddAuthorRequest struct {
	AuthorID int64  `json:"author_id"`
	Order    *int64 `json:"order,omitempty"`
}

// AuthorOrderRequest is the body of PUT /articles/{id}/authors/{authorID}/order.
type AuthorOrderRequest struct {
	Order int64 `json:"order"`
}

// CreateDraft handles POST /api/v1/articles/drafts.
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	a, err := h.articles.CreateDraft(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, a)
}

// UpdateDraft handles PUT /api/v1/articles/{id}/draft.
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req UpdateDraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.articles.UpdateDraft(r.Context(), id, req.Content); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PublishDraft handles POST /api/v1/articles/{id}/publish.
func (h *Handler) PublishDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req PublishRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := h.articles.PublishDraft(r.Context(), id, service.PublishParams{
		Content:     req.Content,
		AuthorIDs:   req.AuthorIDs,
		Thumbnail:   req.Thumbnail,
		PublishedAt: req.PublishedAt,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, a, nil)
}

// CopyIntoDraft handles POST /api/v1/articles/{id}/copy.
func (h *Handler) CopyIntoDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	a, err := h.articles.CopyPublishedIntoDraft(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, a)
}

// ArchiveArticle handles POST /api/v1/articles/{id}/archive.
func (h *Handler) ArchiveArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	a, err := h.articles.Archive(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, a, nil)
}

// DeleteArticle handles DELETE /api/v1/articles/{id}.
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	a, err := h.articles.Delete(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, a, nil)
}

// GetArticleBySlug handles GET /api/v1/articles/by-slug/{slug}.
// Anonymous callers only see published articles.
func (h *Handler) GetArticleBySlug(w http.ResponseWriter, r *http.Request) {
	a, err := h.articles.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, a, nil)
}

// RecordView handles POST /api/v1/articles/by-slug/{slug}/views.
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	count, err := h.articles.RecordView(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]int64{"view_count": count}, nil)
}

// SearchArticles handles GET /api/v1/articles?q=&author=&year=&cursor=&limit=.
// author may be repeated or comma separated.
func (h *Handler) SearchArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := service.SearchParams{
		Term:   q.Get("q"),
		Cursor: q.Get("cursor"),
	}

	var err error
	if params.Limit, err = queryInt(r, "limit"); err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return
	}
	if raw := q.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			WriteBadRequest(w, "year must be an integer", nil)
			return
		}
		params.Year = &year
	}
	for _, value := range q["author"] {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				WriteBadRequest(w, "author must be a list of ids", nil)
				return
			}
			params.AuthorIDs = append(params.AuthorIDs, id)
		}
	}

	page, err := h.search.Search(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	done := page.IsDone
	WriteSuccess(w, page.Articles, &Meta{Cursor: page.Cursor, IsDone: &done})
}

// ListArticlesByStatus handles GET /api/v1/articles/status/{status}.
func (h *Handler) ListArticlesByStatus(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return
	}

	status, err := model.ParseArticleStatus(chi.URLParam(r, "status"))
	if err != nil {
		WriteBadRequest(w, err.Error(), map[string]string{"status": "must be draft, published, archived or deleted"})
		return
	}
	articles, total, err := h.articles.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, articles, &Meta{Total: total, Limit: limit, Offset: offset})
}

// ListArticleAuthors handles GET /api/v1/articles/{id}/authors.
func (h *Handler) ListArticleAuthors(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	authors, err := h.articles.Authors(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, authors, nil)
}

// AddArticleAuthor handles POST /api/v1/articles/{id}/authors.
func (h *Handler) AddArticleAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req AddAuthorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AuthorID <= 0 {
		WriteBadRequest(w, "author_id is required", map[string]string{"author_id": "required"})
		return
	}

	if err := h.articles.AddAuthor(r.Context(), id, req.AuthorID, req.Order); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeArticleAuthors(w, r, id, http.StatusCreated)
}

// RemoveArticleAuthor handles DELETE /api/v1/articles/{id}/authors/{authorID}.
func (h *Handler) RemoveArticleAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	authorID, ok := parseIDParam(w, r, "authorID")
	if !ok {
		return
	}

	if err := h.articles.RemoveAuthor(r.Context(), id, authorID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetArticleAuthorOrder handles PUT /api/v1/articles/{id}/authors/{authorID}/order.
func (h *Handler) SetArticleAuthorOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	authorID, ok := parseIDParam(w, r, "authorID")
	if !ok {
		return
	}
	var req AuthorOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.articles.SetAuthorOrder(r.Context(), id, authorID, req.Order); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeArticleAuthors(w, r, id, http.StatusOK)
}

func (h *Handler) writeArticleAuthors(w http.ResponseWriter, r *http.Request, articleID int64, status int) {
	authors, err := h.articles.Authors(r.Context(), articleID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, status, Response{Data: authors})
}
