// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jknm/novice/internal/jobs"
	"github.com/jknm/novice/internal/model"
	"github.com/jknm/novice/internal/storage"
	"github.com/jknm/novice/internal/store"
	"github.com/jknm/novice/internal/util"
)

// Upload limits
const (
	MaxUploadSize    = 100 * 1024 * 1024 // 100MB
	DefaultUploadTTL = 10 * time.Minute
	maxFilenameLen   = 255
)

// JobKindVariants labels variant pipeline jobs.
const JobKindVariants = "variants"

// Submitter accepts background jobs. *jobs.Queue implements it.
type Submitter interface {
	Submit(job jobs.Job) error
}

// MediaService tracks uploads from presigned URL to finished variants.
type MediaService struct {
	db        *sql.DB
	queries   *store.Queries
	storage   storage.Storage
	pipeline  *VariantPipeline
	jobs      Submitter
	uploadTTL time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewMediaService creates a media service.
func NewMediaService(db *sql.DB, s storage.Storage, pipeline *VariantPipeline, submitter Submitter, uploadTTL time.Duration, logger *slog.Logger) *MediaService {
	if uploadTTL <= 0 {
		uploadTTL = DefaultUploadTTL
	}
	return &MediaService{
		db:        db,
		queries:   store.New(db),
		storage:   s,
		pipeline:  pipeline,
		jobs:      submitter,
		uploadTTL: uploadTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// UploadURL is a presigned upload target.
type UploadURL struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	MediaID   int64     `json:"media_id"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ConfirmResult reports the status a confirmed upload moved to.
type ConfirmResult struct {
	Status  model.UploadStatus `json:"status"`
	Message string             `json:"message"`
}

// GenerateUploadURL creates a pending media record and a URL authorizing one
// PUT of the original. The record and its locator are written in one
// transaction; the key embeds the record's uuid.
func (s *MediaService) GenerateUploadURL(ctx context.Context, filename, contentType string, size int64) (UploadURL, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return UploadURL{}, err
	}

	filename = sanitizeFilename(filename)
	if filename == "" {
		return UploadURL{}, fmt.Errorf("filename is required: %w", ErrInvalidInput)
	}
	if size <= 0 || size > MaxUploadSize {
		return UploadURL{}, fmt.Errorf("size must be between 1 and %d bytes: %w", MaxUploadSize, ErrInvalidInput)
	}
	contentType = normalizeContentType(contentType, filename)

	mediaUUID := uuid.New().String()
	key := storage.OriginalKey(mediaUUID, filename)
	now := s.now()

	var out UploadURL
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		m, err := q.CreateMedia(ctx, store.CreateMediaParams{
			Uuid:        mediaUUID,
			Filename:    filename,
			ContentType: contentType,
			SizeBytes:   size,
			CreatedAt:   util.UnixMilli(now),
			UpdatedAt:   util.UnixMilli(now),
		})
		if err != nil {
			return fmt.Errorf("creating media record: %w", err)
		}

		m, err = q.SetMediaLocator(ctx, store.SetMediaLocatorParams{
			ID:         m.ID,
			StorageKey: key,
			Url:        s.storage.URL(key),
			UpdatedAt:  util.UnixMilli(now),
		})
		if err != nil {
			return fmt.Errorf("setting media locator: %w", err)
		}

		signed, err := s.storage.SignPut(ctx, key, contentType, s.uploadTTL)
		if err != nil {
			return fmt.Errorf("signing upload url: %w", err)
		}

		out = UploadURL{
			URL:       signed,
			Key:       key,
			MediaID:   m.ID,
			PublicURL: m.Url,
			ExpiresAt: now.Add(s.uploadTTL).UTC(),
		}
		return nil
	})
	if err != nil {
		return UploadURL{}, err
	}

	s.logger.Info("upload url issued", "category", "media", "media_id", out.MediaID, "key", key)
	return out, nil
}

// ConfirmUpload records that the original landed in storage, links the media
// to its article and moves it on: images to processing (and the variant
// pipeline is queued), anything else straight to completed. A nil order
// appends after the article's last media.
func (s *MediaService) ConfirmUpload(ctx context.Context, mediaID, articleID int64, order *int64) (ConfirmResult, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return ConfirmResult{}, err
	}
	if order != nil && *order < 0 {
		return ConfirmResult{}, fmt.Errorf("order must not be negative: %w", ErrInvalidInput)
	}

	var next model.UploadStatus
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		m, err := q.GetMediaByID(ctx, mediaID)
		if err != nil {
			return notFound(err, "media %d", mediaID)
		}
		current := model.UploadStatus(m.UploadStatus)
		if current != model.UploadStatusPending {
			return fmt.Errorf("media %d is %s, not pending: %w", mediaID, current, ErrInvalidState)
		}
		if _, err := q.GetArticleByID(ctx, articleID); err != nil {
			return notFound(err, "article %d", articleID)
		}

		pos := int64(0)
		if order != nil {
			pos = *order
		} else if pos, err = q.NextArticleMediaOrder(ctx, articleID); err != nil {
			return err
		}
		if err := q.InsertArticleMedia(ctx, store.ArticleMedium{ArticleID: articleID, MediaID: mediaID, Order: pos}); err != nil {
			return fmt.Errorf("linking media to article: %w", err)
		}

		next = model.UploadStatusCompleted
		if model.IsImageMimeType(m.ContentType) {
			next = model.UploadStatusProcessing
		}
		return s.advance(ctx, q, mediaID, current, next)
	})
	if err != nil {
		return ConfirmResult{}, err
	}

	if next != model.UploadStatusProcessing {
		s.logger.Info("upload confirmed", "category", "media", "media_id", mediaID, "article_id", articleID)
		return ConfirmResult{Status: next, Message: "Upload confirmed"}, nil
	}
	return s.schedule(ctx, mediaID), nil
}

// Reprocess sends a failed image back through the pipeline.
func (s *MediaService) Reprocess(ctx context.Context, mediaID int64) (ConfirmResult, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return ConfirmResult{}, err
	}

	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		m, err := q.GetMediaByID(ctx, mediaID)
		if err != nil {
			return notFound(err, "media %d", mediaID)
		}
		current := model.UploadStatus(m.UploadStatus)
		if !current.CanRetry() {
			return fmt.Errorf("media %d is %s, only failed media can be reprocessed: %w", mediaID, current, ErrInvalidState)
		}
		if !model.IsImageMimeType(m.ContentType) {
			return fmt.Errorf("media %d is not an image: %w", mediaID, ErrInvalidState)
		}
		return s.advance(ctx, q, mediaID, current, model.UploadStatusProcessing)
	})
	if err != nil {
		return ConfirmResult{}, err
	}

	s.logger.Info("media reprocessing requested", "category", "media", "media_id", mediaID)
	return s.schedule(ctx, mediaID), nil
}

// advance performs a status change guarded on the current status.
func (s *MediaService) advance(ctx context.Context, q *store.Queries, id int64, from, to model.UploadStatus) error {
	if !from.CanTransitionTo(to) && !(from.CanRetry() && to == model.UploadStatusProcessing) {
		return fmt.Errorf("media %d cannot move from %s to %s: %w", id, from, to, ErrInvalidState)
	}
	n, err := q.TransitionMediaStatus(ctx, store.TransitionMediaStatusParams{
		ID:        id,
		From:      string(from),
		To:        string(to),
		UpdatedAt: util.UnixMilli(s.now()),
	})
	if err != nil {
		return fmt.Errorf("updating media %d status: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("media %d changed concurrently: %w", id, ErrInvalidState)
	}
	return nil
}

// schedule queues the pipeline for a processing record. If the job cannot be
// queued the record is failed so it does not sit in processing forever.
func (s *MediaService) schedule(ctx context.Context, mediaID int64) ConfirmResult {
	err := s.jobs.Submit(jobs.Job{
		Kind: JobKindVariants,
		Key:  "media-" + strconv.FormatInt(mediaID, 10),
		Run: func(jobCtx context.Context) error {
			return s.pipeline.Run(jobCtx, mediaID)
		},
	})
	if err == nil {
		return ConfirmResult{Status: model.UploadStatusProcessing, Message: "Upload confirmed, generating variants"}
	}

	s.logger.Error("queueing variant pipeline failed", "category", "media", "media_id", mediaID, "error", err)
	failCtx := context.WithoutCancel(ctx)
	if _, ferr := s.queries.TransitionMediaStatus(failCtx, store.TransitionMediaStatusParams{
		ID:        mediaID,
		From:      string(model.UploadStatusProcessing),
		To:        string(model.UploadStatusFailed),
		UpdatedAt: util.UnixMilli(s.now()),
	}); ferr != nil {
		s.logger.Error("marking media failed", "category", "media", "media_id", mediaID, "error", ferr)
	}
	return ConfirmResult{Status: model.UploadStatusFailed, Message: "Upload confirmed, but variant generation could not be scheduled"}
}

// GetByID returns a media record. Pending records are never handed out.
func (s *MediaService) GetByID(ctx context.Context, mediaID int64) (Media, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return Media{}, err
	}

	m, err := s.queries.GetMediaByID(ctx, mediaID)
	if err != nil {
		return Media{}, notFound(err, "media %d", mediaID)
	}
	if !model.UploadStatus(m.UploadStatus).IsReadable() {
		return Media{}, fmt.Errorf("media %d upload is not confirmed: %w", mediaID, ErrInvalidState)
	}

	variants, err := s.queries.ListMediaVariants(ctx, mediaID)
	if err != nil {
		return Media{}, fmt.Errorf("loading variants: %w", err)
	}
	return mediaFromStore(m, variants), nil
}

// ListForArticle returns the confirmed media of an article in gallery order.
func (s *MediaService) ListForArticle(ctx context.Context, articleID int64) ([]Media, error) {
	if _, err := s.queries.GetArticleByID(ctx, articleID); err != nil {
		return nil, notFound(err, "article %d", articleID)
	}

	rows, err := s.queries.ListMediaForArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("listing media for article %d: %w", articleID, err)
	}

	out := make([]Media, 0, len(rows))
	for _, row := range rows {
		variants, err := s.queries.ListMediaVariants(ctx, row.Medium.ID)
		if err != nil {
			return nil, fmt.Errorf("loading variants: %w", err)
		}
		m := mediaFromStore(row.Medium, variants)
		order := row.Order
		m.Order = &order
		out = append(out, m)
	}
	return out, nil
}

// sanitizeFilename keeps only the base name and strips control characters.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if len(name) > maxFilenameLen {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:maxFilenameLen-len(ext)] + ext
	}
	return name
}

// normalizeContentType falls back to the extension when the client sent none.
func normalizeContentType(contentType, filename string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			return mt
		}
	}
	if mt := mime.TypeByExtension(filepath.Ext(filename)); mt != "" {
		if parsed, _, err := mime.ParseMediaType(mt); err == nil {
			return parsed
		}
	}
	return "application/octet-stream"
}
