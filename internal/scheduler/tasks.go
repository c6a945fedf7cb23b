// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jknm/novice/internal/jobs"
)

// Names of the built-in tasks.
const (
	TaskAuthorSync     = "author-sync"
	TaskEventRetention = "event-retention"
)

// Submitter accepts background jobs. *jobs.Queue implements it.
type Submitter interface {
	Submit(job jobs.Job) error
}

// AuthorSyncTask hands the directory sync to the job queue so it shares the
// worker pool and timeout with the variant pipeline.
func AuthorSyncTask(schedule string, queue Submitter, sync func(ctx context.Context) error) Task {
	return Task{
		Name:        TaskAuthorSync,
		Description: "Mirror workspace directory users into authors",
		Schedule:    schedule,
		Run: func(context.Context) error {
			return queue.Submit(jobs.Job{Kind: TaskAuthorSync, Key: TaskAuthorSync, Run: sync})
		},
	}
}

// EventRetentionTask deletes persisted log events older than retention.
func EventRetentionTask(schedule string, retention time.Duration, prune func(ctx context.Context, retention time.Duration) (int64, error), logger *slog.Logger) Task {
	return Task{
		Name:        TaskEventRetention,
		Description: "Delete logged events older than the retention period",
		Schedule:    schedule,
		Timeout:     time.Minute,
		Run: func(ctx context.Context) error {
			n, err := prune(ctx, retention)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("old events pruned", "category", "system", "deleted", n, "retention", retention)
			}
			return nil
		},
	}
}
