// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
)

const mediaColumns = `id, uuid, filename, content_type, size_bytes, storage_key, url, width, height,
	srcset_avif, srcset_jpeg, sizes, blur_placeholder, upload_status, created_at, updated_at`

const mediaColumnsQualified = `m.id, m.uuid, m.filename, m.content_type, m.size_bytes, m.storage_key, m.url, m.width, m.height,
	m.srcset_avif, m.srcset_jpeg, m.sizes, m.blur_placeholder, m.upload_status, m.created_at, m.updated_at`

func mediumScanDest(i *Medium) []any {
	return []any{
		&i.ID,
		&i.Uuid,
		&i.Filename,
		&i.ContentType,
		&i.SizeBytes,
		&i.StorageKey,
		&i.Url,
		&i.Width,
		&i.Height,
		&i.SrcsetAvif,
		&i.SrcsetJpeg,
		&i.Sizes,
		&i.BlurPlaceholder,
		&i.UploadStatus,
		&i.CreatedAt,
		&i.UpdatedAt,
	}
}

func scanMedium(row rowScanner) (Medium, error) {
	var i Medium
	err := row.Scan(mediumScanDest(&i)...)
	return i, err
}

const createMedia = `INSERT INTO media (
    uuid, filename, content_type, size_bytes, storage_key, url, upload_status, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, 'pending', ?, ?)
RETURNING ` + mediaColumns

type CreateMediaParams struct {
	Uuid        string `json:"uuid"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	StorageKey  string `json:"storage_key"`
	Url         string `json:"url"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// CreateMedia inserts a pending media row.
func (q *Queries) CreateMedia(ctx context.Context, arg CreateMediaParams) (Medium, error) {
	row := q.db.QueryRowContext(ctx, createMedia,
		arg.Uuid,
		arg.Filename,
		arg.ContentType,
		arg.SizeBytes,
		arg.StorageKey,
		arg.Url,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanMedium(row)
}

const setMediaLocator = `UPDATE media SET storage_key = ?, url = ?, updated_at = ?
WHERE id = ?
RETURNING ` + mediaColumns

type SetMediaLocatorParams struct {
	ID         int64  `json:"id"`
	StorageKey string `json:"storage_key"`
	Url        string `json:"url"`
	UpdatedAt  int64  `json:"updated_at"`
}

func (q *Queries) SetMediaLocator(ctx context.Context, arg SetMediaLocatorParams) (Medium, error) {
	row := q.db.QueryRowContext(ctx, setMediaLocator, arg.StorageKey, arg.Url, arg.UpdatedAt, arg.ID)
	return scanMedium(row)
}

const getMediaByID = `SELECT ` + mediaColumns + ` FROM media WHERE id = ?`

func (q *Queries) GetMediaByID(ctx context.Context, id int64) (Medium, error) {
	return scanMedium(q.db.QueryRowContext(ctx, getMediaByID, id))
}

const transitionMediaStatus = `UPDATE media SET upload_status = ?, updated_at = ?
WHERE id = ? AND upload_status = ?`

type TransitionMediaStatusParams struct {
	ID        int64  `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	UpdatedAt int64  `json:"updated_at"`
}

// TransitionMediaStatus is guarded on the current status so concurrent
// writers can never move a record backwards.
func (q *Queries) TransitionMediaStatus(ctx context.Context, arg TransitionMediaStatusParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, transitionMediaStatus, arg.To, arg.UpdatedAt, arg.ID, arg.From)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const completeMedia = `UPDATE media
SET width = ?, height = ?, srcset_avif = ?, srcset_jpeg = ?, sizes = ?, blur_placeholder = ?,
    upload_status = 'completed', updated_at = ?
WHERE id = ? AND upload_status = 'processing'`

type CompleteMediaParams struct {
	ID              int64         `json:"id"`
	Width           sql.NullInt64 `json:"width"`
	Height          sql.NullInt64 `json:"height"`
	SrcsetAvif      string        `json:"srcset_avif"`
	SrcsetJpeg      string        `json:"srcset_jpeg"`
	Sizes           string        `json:"sizes"`
	BlurPlaceholder string        `json:"blur_placeholder"`
	UpdatedAt       int64         `json:"updated_at"`
}

// CompleteMedia records the pipeline's results on a processing row.
func (q *Queries) CompleteMedia(ctx context.Context, arg CompleteMediaParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, completeMedia,
		arg.Width,
		arg.Height,
		arg.SrcsetAvif,
		arg.SrcsetJpeg,
		arg.Sizes,
		arg.BlurPlaceholder,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createMediaVariant = `INSERT INTO media_variants (
    media_id, width, height, format, url, storage_key, size_bytes
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (media_id, width, format) DO UPDATE SET
    height = excluded.height, url = excluded.url,
    storage_key = excluded.storage_key, size_bytes = excluded.size_bytes`

type CreateMediaVariantParams struct {
	MediaID    int64  `json:"media_id"`
	Width      int64  `json:"width"`
	Height     int64  `json:"height"`
	Format     string `json:"format"`
	Url        string `json:"url"`
	StorageKey string `json:"storage_key"`
	SizeBytes  int64  `json:"size_bytes"`
}

func (q *Queries) CreateMediaVariant(ctx context.Context, arg CreateMediaVariantParams) error {
	_, err := q.db.ExecContext(ctx, createMediaVariant,
		arg.MediaID,
		arg.Width,
		arg.Height,
		arg.Format,
		arg.Url,
		arg.StorageKey,
		arg.SizeBytes,
	)
	return err
}

const listMediaVariants = `SELECT id, media_id, width, height, format, url, storage_key, size_bytes
FROM media_variants WHERE media_id = ?
ORDER BY width, format`

func (q *Queries) ListMediaVariants(ctx context.Context, mediaID int64) ([]MediaVariant, error) {
	rows, err := q.db.QueryContext(ctx, listMediaVariants, mediaID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []MediaVariant
	for rows.Next() {
		var i MediaVariant
		if err := rows.Scan(
			&i.ID,
			&i.MediaID,
			&i.Width,
			&i.Height,
			&i.Format,
			&i.Url,
			&i.StorageKey,
			&i.SizeBytes,
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

const deleteMediaVariants = `DELETE FROM media_variants WHERE media_id = ?`

func (q *Queries) DeleteMediaVariants(ctx context.Context, mediaID int64) error {
	_, err := q.db.ExecContext(ctx, deleteMediaVariants, mediaID)
	return err
}

const insertArticleMedia = `INSERT INTO article_media (article_id, media_id, "order") VALUES (?, ?, ?)
ON CONFLICT (article_id, media_id) DO UPDATE SET "order" = excluded."order"`

func (q *Queries) InsertArticleMedia(ctx context.Context, arg ArticleMedium) error {
	_, err := q.db.ExecContext(ctx, insertArticleMedia, arg.ArticleID, arg.MediaID, arg.Order)
	return err
}

const nextArticleMediaOrder = `SELECT COALESCE(MAX("order") + 1, 0) FROM article_media WHERE article_id = ?`

func (q *Queries) NextArticleMediaOrder(ctx context.Context, articleID int64) (int64, error) {
	var next int64
	err := q.db.QueryRowContext(ctx, nextArticleMediaOrder, articleID).Scan(&next)
	return next, err
}

// ArticleMediaRow is a media row joined through article_media.
type ArticleMediaRow struct {
	Order  int64  `json:"order"`
	Medium Medium `json:"medium"`
}

const listMediaForArticle = `SELECT am."order", ` + mediaColumnsQualified + `
FROM article_media am
JOIN media m ON m.id = am.media_id
WHERE am.article_id = ? AND m.upload_status <> 'pending'
ORDER BY am."order", m.id`

func (q *Queries) ListMediaForArticle(ctx context.Context, articleID int64) ([]ArticleMediaRow, error) {
	rows, err := q.db.QueryContext(ctx, listMediaForArticle, articleID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []ArticleMediaRow
	for rows.Next() {
		var i ArticleMediaRow
		dest := append([]any{&i.Order}, mediumScanDest(&i.Medium)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const copyArticleMedia = `INSERT INTO article_media (article_id, media_id, "order")
SELECT ?, media_id, "order" FROM article_media WHERE article_id = ?`

func (q *Queries) CopyArticleMedia(ctx context.Context, toArticleID, fromArticleID int64) error {
	_, err := q.db.ExecContext(ctx, copyArticleMedia, toArticleID, fromArticleID)
	return err
}

// DeleteAllMedia removes media links, variants and media rows.
func (q *Queries) DeleteAllMedia(ctx context.Context) (int64, error) {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM article_media`); err != nil {
		return 0, err
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM media_variants`); err != nil {
		return 0, err
	}
	result, err := q.db.ExecContext(ctx, `DELETE FROM media`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
