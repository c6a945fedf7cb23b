// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import "database/sql"

// Timestamps are stored as unix milliseconds (UTC).

type Article struct {
	ID               int64          `json:"id"`
	Title            string         `json:"title"`
	Slug             string         `json:"slug"`
	Status           string         `json:"status"`
	ContentJson      string         `json:"content_json"`
	ContentMarkdown  string         `json:"content_markdown"`
	Excerpt          string         `json:"excerpt"`
	ViewCount        int64          `json:"view_count"`
	ThumbnailMediaID sql.NullInt64  `json:"thumbnail_media_id"`
	ThumbnailCrop    sql.NullString `json:"thumbnail_crop"`
	LegacyID         sql.NullInt64  `json:"legacy_id"`
	CreatedAt        int64          `json:"created_at"`
	UpdatedAt        int64          `json:"updated_at"`
	PublishedAt      sql.NullInt64  `json:"published_at"`
	PublishedYear    sql.NullInt64  `json:"published_year"`
	ArchivedAt       sql.NullInt64  `json:"archived_at"`
	DeletedAt        sql.NullInt64  `json:"deleted_at"`
}

type Author struct {
	ID         int64          `json:"id"`
	AuthorType string         `json:"author_type"`
	Name       string         `json:"name"`
	GoogleID   sql.NullString `json:"google_id"`
	Email      sql.NullString `json:"email"`
	Image      sql.NullString `json:"image"`
	UserID     sql.NullString `json:"user_id"`
	CreatedAt  int64          `json:"created_at"`
	UpdatedAt  int64          `json:"updated_at"`
}

type ArticleAuthor struct {
	ArticleID int64 `json:"article_id"`
	AuthorID  int64 `json:"author_id"`
	Order     int64 `json:"order"`
}

type Medium struct {
	ID              int64         `json:"id"`
	Uuid            string        `json:"uuid"`
	Filename        string        `json:"filename"`
	ContentType     string        `json:"content_type"`
	SizeBytes       int64         `json:"size_bytes"`
	StorageKey      string        `json:"storage_key"`
	Url             string        `json:"url"`
	Width           sql.NullInt64 `json:"width"`
	Height          sql.NullInt64 `json:"height"`
	SrcsetAvif      string        `json:"srcset_avif"`
	SrcsetJpeg      string        `json:"srcset_jpeg"`
	Sizes           string        `json:"sizes"`
	BlurPlaceholder string        `json:"blur_placeholder"`
	UploadStatus    string        `json:"upload_status"`
	CreatedAt       int64         `json:"created_at"`
	UpdatedAt       int64         `json:"updated_at"`
}

type MediaVariant struct {
	ID         int64  `json:"id"`
	MediaID    int64  `json:"media_id"`
	Width      int64  `json:"width"`
	Height     int64  `json:"height"`
	Format     string `json:"format"`
	Url        string `json:"url"`
	StorageKey string `json:"storage_key"`
	SizeBytes  int64  `json:"size_bytes"`
}

type ArticleMedium struct {
	ArticleID int64 `json:"article_id"`
	MediaID   int64 `json:"media_id"`
	Order     int64 `json:"order"`
}

type Event struct {
	ID        int64  `json:"id"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	Metadata  string `json:"metadata"`
	CreatedAt int64  `json:"created_at"`
}

type rowScanner interface {
	Scan(dest ...any) error
}
