// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jknm/novice/internal/store"
)

// SearchService answers the public article listing: ranked full-text search
// when a term is given, otherwise a chronological scan.
type SearchService struct {
	queries *store.Queries
}

// NewSearchService creates a new search service.
func NewSearchService(db *sql.DB) *SearchService {
	return &SearchService{queries: store.New(db)}
}

// SearchParams holds search parameters.
type SearchParams struct {
	Term      string
	AuthorIDs []int64
	Year      *int
	Cursor    string
	Limit     int
}

// Page is one page of search results.
//
// The author filter is applied after the page is fetched, so a page may hold
// fewer than Limit articles while IsDone is false. Callers continue with
// Cursor until IsDone.
type Page struct {
	Articles []Article `json:"articles"`
	Cursor   string    `json:"cursor,omitempty"`
	IsDone   bool      `json:"is_done"`
}

const (
	cursorModeSearch = "fts"
	cursorModeScan   = "scan"
)

// cursor is the decoded continuation token. Search pages by offset because
// bm25 ranks are not stable keys; the chronological scan uses a keyset.
type cursor struct {
	Mode        string `json:"m"`
	Offset      int64  `json:"o,omitempty"`
	PublishedAt int64  `json:"p,omitempty"`
	ID          int64  `json:"i,omitempty"`
}

func (c cursor) encode() string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeCursor(s, mode string) (*cursor, error) {
	if s == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor: %w", ErrInvalidInput)
	}
	var c cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("malformed cursor: %w", ErrInvalidInput)
	}
	if c.Mode != mode {
		return nil, fmt.Errorf("cursor belongs to a different query: %w", ErrInvalidInput)
	}
	if c.Offset < 0 {
		return nil, fmt.Errorf("malformed cursor: %w", ErrInvalidInput)
	}
	return &c, nil
}

// Search returns one page of published articles. At most Limit candidates are
// fetched per call.
func (s *SearchService) Search(ctx context.Context, p SearchParams) (Page, error) {
	limit := clampLimit(p.Limit)

	var year sql.NullInt64
	if p.Year != nil {
		year = sql.NullInt64{Int64: int64(*p.Year), Valid: true}
	}

	var (
		rows []store.Article
		next cursor
		err  error
	)

	if term := strings.TrimSpace(p.Term); term != "" {
		match := escapeQuery(term)
		if match == "" {
			return Page{Articles: []Article{}, IsDone: true}, nil
		}

		c, err := decodeCursor(p.Cursor, cursorModeSearch)
		if err != nil {
			return Page{}, err
		}
		offset := int64(0)
		if c != nil {
			offset = c.Offset
		}

		rows, err = s.queries.SearchPublishedArticles(ctx, store.SearchPublishedArticlesParams{
			Match:  match,
			Year:   year,
			Limit:  int64(limit),
			Offset: offset,
		})
		if err != nil {
			return Page{}, fmt.Errorf("searching articles: %w", err)
		}
		next = cursor{Mode: cursorModeSearch, Offset: offset + int64(len(rows))}
	} else {
		c, err := decodeCursor(p.Cursor, cursorModeScan)
		if err != nil {
			return Page{}, err
		}
		params := store.ListPublishedArticlesParams{Year: year, Limit: int64(limit)}
		if c != nil {
			params.AfterPublishedAt = sql.NullInt64{Int64: c.PublishedAt, Valid: true}
			params.AfterID = c.ID
		}

		rows, err = s.queries.ListPublishedArticles(ctx, params)
		if err != nil {
			return Page{}, fmt.Errorf("listing articles: %w", err)
		}
		if len(rows) > 0 {
			last := rows[len(rows)-1]
			next = cursor{Mode: cursorModeScan, PublishedAt: last.PublishedAt.Int64, ID: last.ID}
		}
	}

	articles, err := withAuthors(ctx, s.queries, rows)
	if err != nil {
		return Page{}, err
	}

	page := Page{
		Articles: filterByAuthors(articles, p.AuthorIDs),
		IsDone:   len(rows) < limit,
	}
	if !page.IsDone {
		page.Cursor = next.encode()
	}
	return page, nil
}

// filterByAuthors keeps articles sharing at least one author with ids.
func filterByAuthors(articles []Article, ids []int64) []Article {
	if len(ids) == 0 {
		return articles
	}
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		for _, au := range a.Authors {
			if _, ok := wanted[au.ID]; ok {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

var ftsUnsafe = regexp.MustCompile(`[^\p{L}\p{N}\s_-]`)

// escapeQuery turns free text into an FTS5 expression of quoted prefix
// terms joined with OR. Letters and digits of any script are kept.
func escapeQuery(query string) string {
	query = ftsUnsafe.ReplaceAllString(query, " ")

	words := strings.Fields(query)
	if len(words) == 0 {
		return ""
	}

	terms := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.Trim(word, "-_")
		if word == "" {
			continue
		}
		terms = append(terms, `"`+word+`"*`)
	}
	return strings.Join(terms, " OR ")
}
