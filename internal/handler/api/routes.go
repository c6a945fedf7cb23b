// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jknm/novice/internal/middleware"
)

// publicMaxAge is the shared-cache lifetime of anonymous GET responses, in seconds.
const publicMaxAge = 60

// Routes returns the /api/v1 router. Identity is resolved for every request;
// the services reject anonymous callers on gated operations. limiter may be
// nil to disable rate limiting.
func (h *Handler) Routes(tokens middleware.TokenParser, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.BearerAuth(tokens, h.logger))

	limit := func(next http.Handler) http.Handler { return next }
	if limiter != nil {
		limit = limiter.Middleware()
	}

	// Public reads.
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicCache(publicMaxAge))
		r.Get("/articles", h.SearchArticles)
		r.Get("/articles/by-slug/{slug}", h.GetArticleBySlug)
		r.Get("/articles/{id}/authors", h.ListArticleAuthors)
		r.Get("/articles/{id}/media", h.ListArticleMedia)
		r.Get("/authors", h.ListAuthors)
		r.Get("/authors/{id}", h.GetAuthor)
		r.Get("/authors/{id}/articles", h.ListAuthorArticles)
	})

	r.With(limit).Post("/articles/by-slug/{slug}/views", h.RecordView)

	// Editor operations.
	r.Group(func(r chi.Router) {
		r.Use(limit)

		r.Get("/articles/status/{status}", h.ListArticlesByStatus)
		r.Post("/articles/drafts", h.CreateDraft)
		r.Put("/articles/{id}/draft", h.UpdateDraft)
		r.Post("/articles/{id}/publish", h.PublishDraft)
		r.Post("/articles/{id}/copy", h.CopyIntoDraft)
		r.Post("/articles/{id}/archive", h.ArchiveArticle)
		r.Delete("/articles/{id}", h.DeleteArticle)
		r.Post("/articles/{id}/authors", h.AddArticleAuthor)
		r.Delete("/articles/{id}/authors/{authorID}", h.RemoveArticleAuthor)
		r.Put("/articles/{id}/authors/{authorID}/order", h.SetArticleAuthorOrder)

		r.Post("/media/upload-url", h.CreateUploadURL)
		r.Get("/media/{id}", h.GetMedia)
		r.Post("/media/{id}/confirm", h.ConfirmUpload)
		r.Post("/media/{id}/reprocess", h.ReprocessMedia)

		r.Post("/authors", h.CreateAuthor)
		r.Post("/authors/guests", h.CreateGuest)
		r.Put("/authors/{id}", h.UpdateAuthor)
		r.Delete("/authors/{id}", h.DeleteAuthor)
		r.Put("/authors/{id}/guest-name", h.RenameGuest)
	})

	// Administration. The scheduler has no identity of its own, so the
	// whole group is gated here.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth, limit)
		r.Post("/admin/authors/sync", h.SyncAuthors)
		r.Post("/admin/reset", h.ResetContent)
		r.Get("/admin/events", h.ListEvents)

		if h.scheduler != nil {
			r.Get("/admin/tasks", h.ListTasks)
			r.Post("/admin/tasks/{name}/run", h.RunTask)
			r.Put("/admin/tasks/{name}/schedule", h.UpdateTaskSchedule)
			r.Delete("/admin/tasks/{name}/schedule", h.ResetTaskSchedule)
		}
	})

	return r
}
