// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"
)

// UploadURLRequest is the body of POST /media/upload-url.
type UploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ConfirmUploadRequest is the body of POST /media/{id}/confirm.
type ConfirmUploadRequest struct {
	ArticleID int64  `json:"article_id"`
	Order     *int64 `json:"order,omitempty"`
}

// CreateUploadURL handles POST /api/v1/media/upload-url.
func (h *Handler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	var req UploadURLRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	fieldErrors := make(map[string]string)
	if strings.TrimSpace(req.Filename) == "" {
		fieldErrors["filename"] = "required"
	}
	if req.Size <= 0 {
		fieldErrors["size"] = "must be positive"
	}
	if len(fieldErrors) > 0 {
		WriteBadRequest(w, "Invalid upload request", fieldErrors)
		return
	}

	u, err := h.media.GenerateUploadURL(r.Context(), req.Filename, req.ContentType, req.Size)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, u)
}

// ConfirmUpload handles POST /api/v1/media/{id}/confirm.
func (h *Handler) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req ConfirmUploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ArticleID <= 0 {
		WriteBadRequest(w, "article_id is required", map[string]string{"article_id": "required"})
		return
	}

	res, err := h.media.ConfirmUpload(r.Context(), id, req.ArticleID, req.Order)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, Response{Data: res})
}

// ReprocessMedia handles POST /api/v1/media/{id}/reprocess.
func (h *Handler) ReprocessMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	res, err := h.media.Reprocess(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, Response{Data: res})
}

// GetMedia handles GET /api/v1/media/{id}.
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	m, err := h.media.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, m, nil)
}

// ListArticleMedia handles GET /api/v1/articles/{id}/media.
func (h *Handler) ListArticleMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	items, err := h.media.ListForArticle(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, items, nil)
}
