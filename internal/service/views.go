// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"encoding/json"
	"time"

	"github.com/jknm/novice/internal/model"
	"github.com/jknm/novice/internal/store"
	"github.com/jknm/novice/internal/util"
)

// Author is the public representation of an author.
type Author struct {
	ID         int64            `json:"id"`
	AuthorType model.AuthorType `json:"author_type"`
	Name       string           `json:"name"`
	Email      string           `json:"email,omitempty"`
	Image      string           `json:"image,omitempty"`
	GoogleID   string           `json:"google_id,omitempty"`
	UserID     string           `json:"user_id,omitempty"`
}

// ArticleAuthor is an author in the display order of one article.
type ArticleAuthor struct {
	Author
	Order int64 `json:"order"`
}

// Article is the representation returned to API callers and cached for readers.
type Article struct {
	ID              int64               `json:"id"`
	Title           string              `json:"title"`
	Slug            string              `json:"slug"`
	Status          model.ArticleStatus `json:"status"`
	Content         json.RawMessage     `json:"content"`
	ContentMarkdown string              `json:"content_markdown"`
	Excerpt         string              `json:"excerpt"`
	ViewCount       int64               `json:"view_count"`
	Thumbnail       *model.Thumbnail    `json:"thumbnail,omitempty"`
	LegacyID        *int64              `json:"legacy_id,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	PublishedAt     *time.Time          `json:"published_at,omitempty"`
	PublishedYear   *int64              `json:"published_year,omitempty"`
	ArchivedAt      *time.Time          `json:"archived_at,omitempty"`
	DeletedAt       *time.Time          `json:"deleted_at,omitempty"`
	Authors         []ArticleAuthor     `json:"authors"`
}

// Media is a media record with its variants. Pending records are never returned.
type Media struct {
	ID              int64              `json:"id"`
	UUID            string             `json:"uuid"`
	Filename        string             `json:"filename"`
	ContentType     string             `json:"content_type"`
	SizeBytes       int64              `json:"size_bytes"`
	Key             string             `json:"key"`
	URL             string             `json:"url"`
	Width           *int64             `json:"width,omitempty"`
	Height          *int64             `json:"height,omitempty"`
	Variants        []model.Variant    `json:"variants"`
	Srcsets         *model.Srcsets     `json:"srcsets,omitempty"`
	BlurPlaceholder string             `json:"blur_placeholder,omitempty"`
	UploadStatus    model.UploadStatus `json:"upload_status"`
	Order           *int64             `json:"order,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

func authorFromStore(a store.Author) Author {
	return Author{
		ID:         a.ID,
		AuthorType: model.AuthorType(a.AuthorType),
		Name:       a.Name,
		Email:      a.Email.String,
		Image:      a.Image.String,
		GoogleID:   a.GoogleID.String,
		UserID:     a.UserID.String,
	}
}

func articleFromStore(a store.Article, authors []store.ArticleAuthorRow) Article {
	out := Article{
		ID:              a.ID,
		Title:           a.Title,
		Slug:            a.Slug,
		Status:          model.ArticleStatus(a.Status),
		Content:         json.RawMessage(a.ContentJson),
		ContentMarkdown: a.ContentMarkdown,
		Excerpt:         a.Excerpt,
		ViewCount:       a.ViewCount,
		LegacyID:        util.PtrFromNullInt64(a.LegacyID),
		CreatedAt:       util.TimeFromMilli(a.CreatedAt),
		UpdatedAt:       util.TimeFromMilli(a.UpdatedAt),
		PublishedAt:     util.TimePtrFromNullMilli(a.PublishedAt),
		PublishedYear:   util.PtrFromNullInt64(a.PublishedYear),
		ArchivedAt:      util.TimePtrFromNullMilli(a.ArchivedAt),
		DeletedAt:       util.TimePtrFromNullMilli(a.DeletedAt),
		Authors:         make([]ArticleAuthor, 0, len(authors)),
	}

	if a.ThumbnailMediaID.Valid {
		thumb := &model.Thumbnail{MediaID: a.ThumbnailMediaID.Int64}
		if a.ThumbnailCrop.Valid && a.ThumbnailCrop.String != "" {
			var crop model.ThumbnailCrop
			if json.Unmarshal([]byte(a.ThumbnailCrop.String), &crop) == nil {
				thumb.Crop = &crop
			}
		}
		out.Thumbnail = thumb
	}

	for _, row := range authors {
		out.Authors = append(out.Authors, ArticleAuthor{Author: authorFromStore(row.Author), Order: row.Order})
	}
	return out
}

func mediaFromStore(m store.Medium, variants []store.MediaVariant) Media {
	out := Media{
		ID:              m.ID,
		UUID:            m.Uuid,
		Filename:        m.Filename,
		ContentType:     m.ContentType,
		SizeBytes:       m.SizeBytes,
		Key:             m.StorageKey,
		URL:             m.Url,
		Width:           util.PtrFromNullInt64(m.Width),
		Height:          util.PtrFromNullInt64(m.Height),
		Variants:        make([]model.Variant, 0, len(variants)),
		BlurPlaceholder: m.BlurPlaceholder,
		UploadStatus:    model.UploadStatus(m.UploadStatus),
		CreatedAt:       util.TimeFromMilli(m.CreatedAt),
	}
	if m.SrcsetAvif != "" || m.SrcsetJpeg != "" {
		out.Srcsets = &model.Srcsets{AVIF: m.SrcsetAvif, JPEG: m.SrcsetJpeg, Sizes: m.Sizes}
	}
	for _, v := range variants {
		out.Variants = append(out.Variants, model.Variant{
			Width:     int(v.Width),
			Height:    int(v.Height),
			Format:    model.VariantFormat(v.Format),
			URL:       v.Url,
			Key:       v.StorageKey,
			SizeBytes: v.SizeBytes,
		})
	}
	return out
}
