// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// rate limiting and response headers.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jknm/novice/internal/auth"
)

// TokenParser validates bearer tokens. *auth.TokenManager implements it.
type TokenParser interface {
	Parse(token string) (auth.Identity, error)
}

// BearerAuth resolves an "Authorization: Bearer" token into an identity on
// the request context. Requests without the header pass through anonymously;
// a header carrying an invalid token is rejected with 401.
func BearerAuth(tokens TokenParser, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format. Use: Bearer <token>", nil)
				return
			}

			id, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				logger.Warn("rejected bearer token", "category", "auth",
					"ip", clientIP(r), "path", r.URL.Path, "error", err)
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAuth rejects anonymous requests with 401. Use after BearerAuth.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.FromContext(r.Context()); !ok {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
