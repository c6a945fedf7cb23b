// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
)

const authorColumns = `id, author_type, name, google_id, email, image, user_id, created_at, updated_at`

func scanAuthor(row rowScanner) (Author, error) {
	var i Author
	err := row.Scan(
		&i.ID,
		&i.AuthorType,
		&i.Name,
		&i.GoogleID,
		&i.Email,
		&i.Image,
		&i.UserID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createAuthor = `INSERT INTO authors (
    author_type, name, google_id, email, image, user_id, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + authorColumns

type CreateAuthorParams struct {
	AuthorType string         `json:"author_type"`
	Name       string         `json:"name"`
	GoogleID   sql.NullString `json:"google_id"`
	Email      sql.NullString `json:"email"`
	Image      sql.NullString `json:"image"`
	UserID     sql.NullString `json:"user_id"`
	CreatedAt  int64          `json:"created_at"`
	UpdatedAt  int64          `json:"updated_at"`
}

func (q *Queries) CreateAuthor(ctx context.Context, arg CreateAuthorParams) (Author, error) {
	row := q.db.QueryRowContext(ctx, createAuthor,
		arg.AuthorType,
		arg.Name,
		arg.GoogleID,
		arg.Email,
		arg.Image,
		arg.UserID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanAuthor(row)
}

const getAuthorByID = `SELECT ` + authorColumns + ` FROM authors WHERE id = ?`

func (q *Queries) GetAuthorByID(ctx context.Context, id int64) (Author, error) {
	return scanAuthor(q.db.QueryRowContext(ctx, getAuthorByID, id))
}

const getAuthorByGoogleID = `SELECT ` + authorColumns + ` FROM authors WHERE google_id = ?`

func (q *Queries) GetAuthorByGoogleID(ctx context.Context, googleID string) (Author, error) {
	return scanAuthor(q.db.QueryRowContext(ctx, getAuthorByGoogleID, googleID))
}

const listAuthors = `SELECT ` + authorColumns + ` FROM authors ORDER BY name, id`

func (q *Queries) ListAuthors(ctx context.Context) ([]Author, error) {
	rows, err := q.db.QueryContext(ctx, listAuthors)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Author
	for rows.Next() {
		i, err := scanAuthor(rows)
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

const updateAuthor = `UPDATE authors
SET name = ?, email = ?, image = ?, updated_at = ?
WHERE id = ?
RETURNING ` + authorColumns

type UpdateAuthorParams struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Email     sql.NullString `json:"email"`
	Image     sql.NullString `json:"image"`
	UpdatedAt int64          `json:"updated_at"`
}

func (q *Queries) UpdateAuthor(ctx context.Context, arg UpdateAuthorParams) (Author, error) {
	row := q.db.QueryRowContext(ctx, updateAuthor,
		arg.Name,
		arg.Email,
		arg.Image,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanAuthor(row)
}

const updateAuthorContact = `UPDATE authors SET name = ?, email = ?, updated_at = ? WHERE id = ?`

type UpdateAuthorContactParams struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Email     sql.NullString `json:"email"`
	UpdatedAt int64          `json:"updated_at"`
}

// UpdateAuthorContact only touches the fields a directory sync owns.
func (q *Queries) UpdateAuthorContact(ctx context.Context, arg UpdateAuthorContactParams) error {
	_, err := q.db.ExecContext(ctx, updateAuthorContact, arg.Name, arg.Email, arg.UpdatedAt, arg.ID)
	return err
}

const renameGuestAuthor = `UPDATE authors SET name = ?, updated_at = ?
WHERE id = ? AND author_type = 'guest'
RETURNING ` + authorColumns

func (q *Queries) RenameGuestAuthor(ctx context.Context, id int64, name string, updatedAt int64) (Author, error) {
	return scanAuthor(q.db.QueryRowContext(ctx, renameGuestAuthor, name, updatedAt, id))
}

const deleteAuthor = `DELETE FROM authors WHERE id = ?`

func (q *Queries) DeleteAuthor(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteAuthor, id)
	return err
}

const countArticlesForAuthor = `SELECT COUNT(*) FROM article_authors WHERE author_id = ?`

func (q *Queries) CountArticlesForAuthor(ctx context.Context, authorID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countArticlesForAuthor, authorID).Scan(&count)
	return count, err
}

// ArticleAuthorRow is an author joined through article_authors.
type ArticleAuthorRow struct {
	ArticleID int64  `json:"article_id"`
	Order     int64  `json:"order"`
	Author    Author `json:"author"`
}

const listAuthorsForArticlesPrefix = `SELECT aa.article_id, aa."order",
    au.id, au.author_type, au.name, au.google_id, au.email, au.image, au.user_id, au.created_at, au.updated_at
FROM article_authors aa
JOIN authors au ON au.id = aa.author_id
WHERE aa.article_id IN (`

// ListAuthorsForArticles returns the author links of all given articles,
// ordered by article and then by link order.
func (q *Queries) ListAuthorsForArticles(ctx context.Context, articleIDs []int64) ([]ArticleAuthorRow, error) {
	if len(articleIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(articleIDs))
	for i, id := range articleIDs {
		args[i] = id
	}
	query := listAuthorsForArticlesPrefix +
		strings.TrimSuffix(strings.Repeat("?,", len(articleIDs)), ",") +
		`) ORDER BY aa.article_id, aa."order"`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ArticleAuthorRow
	for rows.Next() {
		var i ArticleAuthorRow
		if err := rows.Scan(
			&i.ArticleID,
			&i.Order,
			&i.Author.ID,
			&i.Author.AuthorType,
			&i.Author.Name,
			&i.Author.GoogleID,
			&i.Author.Email,
			&i.Author.Image,
			&i.Author.UserID,
			&i.Author.CreatedAt,
			&i.Author.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) ListAuthorsForArticle(ctx context.Context, articleID int64) ([]ArticleAuthorRow, error) {
	return q.ListAuthorsForArticles(ctx, []int64{articleID})
}

const insertArticleAuthor = `INSERT INTO article_authors (article_id, author_id, "order") VALUES (?, ?, ?)`

func (q *Queries) InsertArticleAuthor(ctx context.Context, arg ArticleAuthor) error {
	_, err := q.db.ExecContext(ctx, insertArticleAuthor, arg.ArticleID, arg.AuthorID, arg.Order)
	return err
}

const deleteArticleAuthor = `DELETE FROM article_authors WHERE article_id = ? AND author_id = ?`

func (q *Queries) DeleteArticleAuthor(ctx context.Context, articleID, authorID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteArticleAuthor, articleID, authorID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteArticleAuthors = `DELETE FROM article_authors WHERE article_id = ?`

func (q *Queries) DeleteArticleAuthors(ctx context.Context, articleID int64) error {
	_, err := q.db.ExecContext(ctx, deleteArticleAuthors, articleID)
	return err
}

const nextArticleAuthorOrder = `SELECT COALESCE(MAX("order") + 1, 0) FROM article_authors WHERE article_id = ?`

func (q *Queries) NextArticleAuthorOrder(ctx context.Context, articleID int64) (int64, error) {
	var next int64
	err := q.db.QueryRowContext(ctx, nextArticleAuthorOrder, articleID).Scan(&next)
	return next, err
}

const copyArticleAuthors = `INSERT INTO article_authors (article_id, author_id, "order")
SELECT ?, author_id, "order" FROM article_authors WHERE article_id = ?`

func (q *Queries) CopyArticleAuthors(ctx context.Context, toArticleID, fromArticleID int64) error {
	_, err := q.db.ExecContext(ctx, copyArticleAuthors, toArticleID, fromArticleID)
	return err
}

const deleteAllArticleAuthors = `DELETE FROM article_authors`

func (q *Queries) DeleteAllArticleAuthors(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllArticleAuthors)
	return err
}

const getArticleAuthor = `SELECT article_id, author_id, "order" FROM article_authors
WHERE article_id = ? AND author_id = ?`

func (q *Queries) GetArticleAuthor(ctx context.Context, articleID, authorID int64) (ArticleAuthor, error) {
	var i ArticleAuthor
	err := q.db.QueryRowContext(ctx, getArticleAuthor, articleID, authorID).Scan(&i.ArticleID, &i.AuthorID, &i.Order)
	return i, err
}

const getArticleAuthorByOrder = `SELECT article_id, author_id, "order" FROM article_authors
WHERE article_id = ? AND "order" = ?`

func (q *Queries) GetArticleAuthorByOrder(ctx context.Context, articleID, order int64) (ArticleAuthor, error) {
	var i ArticleAuthor
	err := q.db.QueryRowContext(ctx, getArticleAuthorByOrder, articleID, order).Scan(&i.ArticleID, &i.AuthorID, &i.Order)
	return i, err
}

const updateArticleAuthorOrder = `UPDATE article_authors SET "order" = ? WHERE article_id = ? AND author_id = ?`

func (q *Queries) UpdateArticleAuthorOrder(ctx context.Context, arg ArticleAuthor) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateArticleAuthorOrder, arg.Order, arg.ArticleID, arg.AuthorID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
