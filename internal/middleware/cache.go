// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strconv"

	"github.com/jknm/novice/internal/auth"
)

// PublicCache lets shared caches keep anonymous responses for maxAge
// seconds. Authenticated responses may include drafts and are never stored.
func PublicCache(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.FromContext(r.Context()); ok {
				w.Header().Set("Cache-Control", "private, no-store")
			} else {
				w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(maxAge))
			}
			w.Header().Add("Vary", "Authorization")
			next.ServeHTTP(w, r)
		})
	}
}
