// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jknm/novice/internal/jobs"
	"github.com/jknm/novice/internal/model"
	"github.com/jknm/novice/internal/storage"
	"github.com/jknm/novice/internal/store"
	"github.com/jknm/novice/internal/util"
)

// JobKindBucketPurge labels the background job that empties the bucket after
// a content reset.
const JobKindBucketPurge = "bucket-purge"

// AdminService holds irreversible maintenance operations.
type AdminService struct {
	db       *sql.DB
	queries  *store.Queries
	storage  storage.Storage
	articles *ArticleService
	jobs     Submitter
	logger   *slog.Logger
}

// NewAdminService creates an admin service. Bucket purges run on submitter.
func NewAdminService(db *sql.DB, s storage.Storage, articles *ArticleService, submitter Submitter, logger *slog.Logger) *AdminService {
	return &AdminService{
		db:       db,
		queries:  store.New(db),
		storage:  s,
		articles: articles,
		jobs:     submitter,
		logger:   logger,
	}
}

// ResetResult counts what DeleteEverything removed. BucketPurgeQueued
// reports whether emptying the bucket was handed to the job queue.
type ResetResult struct {
	Articles          int64 `json:"articles"`
	Media             int64 `json:"media"`
	BucketPurgeQueued bool  `json:"bucket_purge_queued"`
}

// DeleteEverything removes all articles, media and their links in one
// transaction and queues a job that empties the bucket. Authors are kept.
// Objects written concurrently with the purge may survive it.
func (s *AdminService) DeleteEverything(ctx context.Context) (ResetResult, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return ResetResult{}, err
	}

	var res ResetResult
	err = store.InTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		if res.Media, err = q.DeleteAllMedia(ctx); err != nil {
			return fmt.Errorf("deleting media: %w", err)
		}
		if err := q.DeleteAllArticleAuthors(ctx); err != nil {
			return fmt.Errorf("deleting author links: %w", err)
		}
		if res.Articles, err = q.DeleteAllArticles(ctx); err != nil {
			return fmt.Errorf("deleting articles: %w", err)
		}
		return nil
	})
	if err != nil {
		return ResetResult{}, err
	}

	if err := s.articles.PurgeCache(ctx); err != nil {
		s.logger.Warn("clearing article cache after reset failed", "category", "system", "error", err)
	}

	err = s.jobs.Submit(jobs.Job{Kind: JobKindBucketPurge, Key: JobKindBucketPurge, Run: s.purgeBucket})
	if err != nil {
		s.logger.Error("queueing bucket purge failed", "category", "storage", "error", err)
	}
	res.BucketPurgeQueued = err == nil

	s.logger.Warn("all content deleted", "category", "system", "subject", id.Subject,
		"articles", res.Articles, "media", res.Media, "bucket_purge_queued", res.BucketPurgeQueued)
	return res, nil
}

// purgeBucket removes every stored object. Failures are logged with the
// storage category so they are persisted as events.
func (s *AdminService) purgeBucket(ctx context.Context) error {
	n, err := storage.DeleteAll(ctx, s.storage)
	if err != nil {
		s.logger.Error("emptying bucket failed", "category", "storage", "error", err)
		return fmt.Errorf("emptying bucket: %w", err)
	}
	s.logger.Info("bucket emptied", "category", "storage", "objects", n)
	return nil
}

// ListEvents returns recent events, newest first. An empty level lists all.
func (s *AdminService) ListEvents(ctx context.Context, level string, limit, offset int) ([]model.Event, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return nil, err
	}
	switch level {
	case "", model.EventLevelInfo, model.EventLevelWarning, model.EventLevelError:
	default:
		return nil, fmt.Errorf("unknown event level %q: %w", level, ErrInvalidInput)
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.queries.ListEvents(ctx, store.ListEventsParams{
		Level:  level,
		Limit:  int64(clampLimit(limit)),
		Offset: int64(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	out := make([]model.Event, len(rows))
	for i, e := range rows {
		out[i] = model.Event{
			ID:        e.ID,
			Level:     e.Level,
			Category:  e.Category,
			Message:   e.Message,
			Metadata:  e.Metadata,
			CreatedAt: util.TimeFromMilli(e.CreatedAt),
		}
	}
	return out, nil
}

// PruneEvents deletes events older than retention.
func (s *AdminService) PruneEvents(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.queries.DeleteEventsBefore(ctx, util.UnixMilli(time.Now().Add(-retention)))
	if err != nil {
		return 0, fmt.Errorf("pruning events: %w", err)
	}
	return n, nil
}
