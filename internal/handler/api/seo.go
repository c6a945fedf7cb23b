// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"

	"github.com/jknm/novice/internal/seo"
	"github.com/jknm/novice/internal/service"
)

// SEOHandler serves the sitemap and robots.txt for the public site.
type SEOHandler struct {
	articles    *service.ArticleService
	siteURL     string
	disallowAll bool
	logger      *slog.Logger
}

// NewSEOHandler creates a new SEO handler. disallowAll blocks every crawler,
// for staging deployments.
func NewSEOHandler(articles *service.ArticleService, siteURL string, disallowAll bool, logger *slog.Logger) *SEOHandler {
	return &SEOHandler{
		articles:    articles,
		siteURL:     siteURL,
		disallowAll: disallowAll,
		logger:      logger,
	}
}

// Sitemap handles GET /sitemap.xml.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	entries, err := h.articles.SitemapEntries(r.Context())
	if err != nil {
		h.logger.Error("building sitemap", "error", err)
		WriteInternalError(w, "Internal server error")
		return
	}
	data, err := seo.GenerateSitemap(h.siteURL, entries)
	if err != nil {
		h.logger.Error("encoding sitemap", "error", err)
		WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

// Robots handles GET /robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write([]byte(seo.GenerateRobots(h.siteURL, h.disallowAll)))
}
