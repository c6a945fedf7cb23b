// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
)

const articleColumns = `id, title, slug, status, content_json, content_markdown, excerpt, view_count,
	thumbnail_media_id, thumbnail_crop, legacy_id, created_at, updated_at,
	published_at, published_year, archived_at, deleted_at`

const articleColumnsQualified = `a.id, a.title, a.slug, a.status, a.content_json, a.content_markdown, a.excerpt, a.view_count,
	a.thumbnail_media_id, a.thumbnail_crop, a.legacy_id, a.created_at, a.updated_at,
	a.published_at, a.published_year, a.archived_at, a.deleted_at`

func scanArticle(row rowScanner) (Article, error) {
	var i Article
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Slug,
		&i.Status,
		&i.ContentJson,
		&i.ContentMarkdown,
		&i.Excerpt,
		&i.ViewCount,
		&i.ThumbnailMediaID,
		&i.ThumbnailCrop,
		&i.LegacyID,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.PublishedAt,
		&i.PublishedYear,
		&i.ArchivedAt,
		&i.DeletedAt,
	)
	return i, err
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	defer func() { _ = rows.Close() }()
	var items []Article
	for rows.Next() {
		i, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createArticle = `INSERT INTO articles (
    title, slug, status, content_json, content_markdown, excerpt, legacy_id, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + articleColumns

type CreateArticleParams struct {
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Status          string        `json:"status"`
	ContentJson     string        `json:"content_json"`
	ContentMarkdown string        `json:"content_markdown"`
	Excerpt         string        `json:"excerpt"`
	LegacyID        sql.NullInt64 `json:"legacy_id"`
	CreatedAt       int64         `json:"created_at"`
	UpdatedAt       int64         `json:"updated_at"`
}

func (q *Queries) CreateArticle(ctx context.Context, arg CreateArticleParams) (Article, error) {
	row := q.db.QueryRowContext(ctx, createArticle,
		arg.Title,
		arg.Slug,
		arg.Status,
		arg.ContentJson,
		arg.ContentMarkdown,
		arg.Excerpt,
		arg.LegacyID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanArticle(row)
}

const updateArticleSlug = `UPDATE articles SET slug = ? WHERE id = ? RETURNING ` + articleColumns

func (q *Queries) UpdateArticleSlug(ctx context.Context, id int64, slug string) (Article, error) {
	row := q.db.QueryRowContext(ctx, updateArticleSlug, slug, id)
	return scanArticle(row)
}

const getArticleByID = `SELECT ` + articleColumns + ` FROM articles WHERE id = ?`

func (q *Queries) GetArticleByID(ctx context.Context, id int64) (Article, error) {
	row := q.db.QueryRowContext(ctx, getArticleByID, id)
	return scanArticle(row)
}

const getArticleBySlug = `SELECT ` + articleColumns + ` FROM articles WHERE slug = ?`

func (q *Queries) GetArticleBySlug(ctx context.Context, slug string) (Article, error) {
	row := q.db.QueryRowContext(ctx, getArticleBySlug, slug)
	return scanArticle(row)
}

const updateDraftContent = `UPDATE articles
SET title = ?, content_json = ?, content_markdown = ?, excerpt = ?, updated_at = ?
WHERE id = ? AND status = 'draft'`

type UpdateDraftContentParams struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	ContentJson     string `json:"content_json"`
	ContentMarkdown string `json:"content_markdown"`
	Excerpt         string `json:"excerpt"`
	UpdatedAt       int64  `json:"updated_at"`
}

// UpdateDraftContent returns the number of rows changed; zero means the
// article is missing or no longer a draft.
func (q *Queries) UpdateDraftContent(ctx context.Context, arg UpdateDraftContentParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateDraftContent,
		arg.Title,
		arg.ContentJson,
		arg.ContentMarkdown,
		arg.Excerpt,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const publishArticle = `UPDATE articles
SET title = ?, slug = ?, status = 'published', content_json = ?, content_markdown = ?, excerpt = ?,
    thumbnail_media_id = ?, thumbnail_crop = ?, published_at = ?, published_year = ?, updated_at = ?
WHERE id = ? AND status = 'draft'`

type PublishArticleParams struct {
	ID               int64          `json:"id"`
	Title            string         `json:"title"`
	Slug             string         `json:"slug"`
	ContentJson      string         `json:"content_json"`
	ContentMarkdown  string         `json:"content_markdown"`
	Excerpt          string         `json:"excerpt"`
	ThumbnailMediaID sql.NullInt64  `json:"thumbnail_media_id"`
	ThumbnailCrop    sql.NullString `json:"thumbnail_crop"`
	PublishedAt      int64          `json:"published_at"`
	PublishedYear    int64          `json:"published_year"`
	UpdatedAt        int64          `json:"updated_at"`
}

func (q *Queries) PublishArticle(ctx context.Context, arg PublishArticleParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, publishArticle,
		arg.Title,
		arg.Slug,
		arg.ContentJson,
		arg.ContentMarkdown,
		arg.Excerpt,
		arg.ThumbnailMediaID,
		arg.ThumbnailCrop,
		arg.PublishedAt,
		arg.PublishedYear,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const transitionArticleStatus = `UPDATE articles
SET status = ?, updated_at = ?,
    archived_at = COALESCE(?, archived_at),
    deleted_at = COALESCE(?, deleted_at)
WHERE id = ? AND status = ?`

type TransitionArticleStatusParams struct {
	ID         int64         `json:"id"`
	From       string        `json:"from"`
	To         string        `json:"to"`
	UpdatedAt  int64         `json:"updated_at"`
	ArchivedAt sql.NullInt64 `json:"archived_at"`
	DeletedAt  sql.NullInt64 `json:"deleted_at"`
}

// TransitionArticleStatus moves an article from one status to another only
// if it is still in the expected status.
func (q *Queries) TransitionArticleStatus(ctx context.Context, arg TransitionArticleStatusParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, transitionArticleStatus,
		arg.To,
		arg.UpdatedAt,
		arg.ArchivedAt,
		arg.DeletedAt,
		arg.ID,
		arg.From,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const incrementArticleViews = `UPDATE articles SET view_count = view_count + 1
WHERE slug = ? AND status = 'published'
RETURNING view_count`

// IncrementArticleViews bumps the counter in a single statement and returns the new value.
func (q *Queries) IncrementArticleViews(ctx context.Context, slug string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, incrementArticleViews, slug).Scan(&count)
	return count, err
}

const listArticlesByStatus = `SELECT ` + articleColumns + ` FROM articles
WHERE status = ?
ORDER BY updated_at DESC, id DESC
LIMIT ? OFFSET ?`

type ListArticlesByStatusParams struct {
	Status string `json:"status"`
	Limit  int64  `json:"limit"`
	Offset int64  `json:"offset"`
}

func (q *Queries) ListArticlesByStatus(ctx context.Context, arg ListArticlesByStatusParams) ([]Article, error) {
	rows, err := q.db.QueryContext(ctx, listArticlesByStatus, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanArticles(rows)
}

const countArticlesByStatus = `SELECT COUNT(*) FROM articles WHERE status = ?`

func (q *Queries) CountArticlesByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countArticlesByStatus, status).Scan(&count)
	return count, err
}

type ListPublishedArticlesParams struct {
	Year sql.NullInt64 `json:"year"`
	// AfterPublishedAt and AfterID form the keyset cursor: rows strictly
	// older than (published_at, id) are returned.
	AfterPublishedAt sql.NullInt64 `json:"after_published_at"`
	AfterID          int64         `json:"after_id"`
	Limit            int64         `json:"limit"`
}

// ListPublishedArticles scans published articles newest first. The WHERE
// clause is assembled so SQLite can use the (status, published_year,
// published_at) or (status, published_at) index depending on the filter.
func (q *Queries) ListPublishedArticles(ctx context.Context, arg ListPublishedArticlesParams) ([]Article, error) {
	var b strings.Builder
	args := make([]any, 0, 5)

	b.WriteString(`SELECT ` + articleColumns + ` FROM articles WHERE status = 'published'`)
	if arg.Year.Valid {
		b.WriteString(` AND published_year = ?`)
		args = append(args, arg.Year.Int64)
	}
	if arg.AfterPublishedAt.Valid {
		b.WriteString(` AND (published_at < ? OR (published_at = ? AND id < ?))`)
		args = append(args, arg.AfterPublishedAt.Int64, arg.AfterPublishedAt.Int64, arg.AfterID)
	}
	b.WriteString(` ORDER BY published_at DESC, id DESC LIMIT ?`)
	args = append(args, arg.Limit)

	rows, err := q.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	return scanArticles(rows)
}

type SearchPublishedArticlesParams struct {
	Match  string        `json:"match"`
	Year   sql.NullInt64 `json:"year"`
	Limit  int64         `json:"limit"`
	Offset int64         `json:"offset"`
}

// SearchPublishedArticles runs an FTS5 query over content_markdown ordered by bm25 relevance.
func (q *Queries) SearchPublishedArticles(ctx context.Context, arg SearchPublishedArticlesParams) ([]Article, error) {
	var b strings.Builder
	args := make([]any, 0, 4)

	b.WriteString(`SELECT ` + articleColumnsQualified + `
FROM articles_fts
JOIN articles a ON a.id = articles_fts.rowid
WHERE articles_fts MATCH ? AND a.status = 'published'`)
	args = append(args, arg.Match)
	if arg.Year.Valid {
		b.WriteString(` AND a.published_year = ?`)
		args = append(args, arg.Year.Int64)
	}
	b.WriteString(` ORDER BY bm25(articles_fts), a.id DESC LIMIT ? OFFSET ?`)
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	return scanArticles(rows)
}

const listArticlesForAuthor = `SELECT ` + articleColumnsQualified + `
FROM article_authors aa
JOIN articles a ON a.id = aa.article_id
WHERE aa.author_id = ? AND (? = 0 OR a.status = 'published')
ORDER BY COALESCE(a.published_at, a.updated_at) DESC, a.id DESC`

type ListArticlesForAuthorParams struct {
	AuthorID      int64 `json:"author_id"`
	PublishedOnly bool  `json:"published_only"`
}

// ListArticlesForAuthor returns every article credited to an author, newest
// first. Unpublished articles are ordered by their last update.
func (q *Queries) ListArticlesForAuthor(ctx context.Context, arg ListArticlesForAuthorParams) ([]Article, error) {
	var publishedOnly int64
	if arg.PublishedOnly {
		publishedOnly = 1
	}
	rows, err := q.db.QueryContext(ctx, listArticlesForAuthor, arg.AuthorID, publishedOnly)
	if err != nil {
		return nil, err
	}
	return scanArticles(rows)
}

const listPublishedSlugs = `SELECT slug, updated_at, published_year FROM articles
WHERE status = 'published'
ORDER BY published_at DESC, id DESC
LIMIT ?`

type PublishedSlug struct {
	Slug          string        `json:"slug"`
	UpdatedAt     int64         `json:"updated_at"`
	PublishedYear sql.NullInt64 `json:"published_year"`
}

func (q *Queries) ListPublishedSlugs(ctx context.Context, limit int64) ([]PublishedSlug, error) {
	rows, err := q.db.QueryContext(ctx, listPublishedSlugs, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []PublishedSlug
	for rows.Next() {
		var i PublishedSlug
		if err := rows.Scan(&i.Slug, &i.UpdatedAt, &i.PublishedYear); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteAllArticles = `DELETE FROM articles`

func (q *Queries) DeleteAllArticles(ctx context.Context) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAllArticles)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
