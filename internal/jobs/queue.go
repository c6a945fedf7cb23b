// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package jobs runs fire-and-forget background work (variant generation,
// directory sync, bucket purge) on a fixed pool of workers so requests never
// wait on slow transcoding.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jknm/novice/internal/metrics"
)

var (
	// ErrQueueFull is returned by Submit when the buffer is full.
	ErrQueueFull = errors.New("job queue is full")
	// ErrNotRunning is returned by Submit before Start or after Stop.
	ErrNotRunning = errors.New("job queue is not running")
)

// Job is one unit of background work.
type Job struct {
	// Kind labels the job in logs and metrics, e.g. "variants".
	Kind string
	// Key identifies the subject of the job, e.g. a media id.
	Key string
	Run func(ctx context.Context) error
}

// Config holds queue configuration.
type Config struct {
	Name      string        // Label for logs and metrics
	Workers   int           // Number of concurrent workers
	QueueSize int           // Buffered jobs before Submit fails
	Timeout   time.Duration // Per-job timeout; zero means none
}

// DefaultConfig returns default queue configuration.
func DefaultConfig() Config {
	return Config{
		Name:      "default",
		Workers:   3,
		QueueSize: 100,
	}
}

// Queue dispatches jobs to workers.
type Queue struct {
	name    string
	logger  *slog.Logger
	metrics *metrics.Metrics
	queue   chan Job
	workers int
	timeout time.Duration
	wg      sync.WaitGroup

	mu      sync.RWMutex
	running bool
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a stopped queue.
func New(logger *slog.Logger, m *metrics.Metrics, cfg Config) *Queue {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Queue{
		name:    cfg.Name,
		logger:  logger.With("queue", cfg.Name),
		metrics: m,
		queue:   make(chan Job, cfg.QueueSize),
		workers: cfg.Workers,
		timeout: cfg.Timeout,
	}
}

// Start launches the workers. Jobs run with contexts derived from ctx.
// A queue cannot be restarted after Stop.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running || q.stopped {
		return
	}
	q.running = true
	q.ctx, q.cancel = context.WithCancel(ctx)

	q.logger.Info("starting job queue", "workers", q.workers)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop rejects new jobs, lets the workers drain what is already queued and
// waits for them. If ctx expires first, running jobs are cancelled.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	q.stopped = true
	close(q.queue)
	q.mu.Unlock()

	q.logger.Info("stopping job queue", "pending", len(q.queue))

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		q.logger.Info("job queue stopped")
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return fmt.Errorf("stopping job queue: %w", ctx.Err())
	}
}

// Submit enqueues job without blocking.
func (q *Queue) Submit(job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return ErrNotRunning
	}

	select {
	case q.queue <- job:
		q.metrics.SetQueueDepth(q.name, len(q.queue))
		q.logger.Debug("job queued", "kind", job.Kind, "key", job.Key)
		return nil
	default:
		q.logger.Warn("job queue full, dropping job", "kind", job.Kind, "key", job.Key)
		return ErrQueueFull
	}
}

// Len returns the number of queued jobs.
func (q *Queue) Len() int {
	return len(q.queue)
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	q.logger.Debug("job worker started", "worker_id", id)

	for job := range q.queue {
		q.metrics.SetQueueDepth(q.name, len(q.queue))
		q.run(id, job)
	}

	q.logger.Debug("job worker stopping", "worker_id", id)
}

func (q *Queue) run(workerID int, job Job) {
	ctx := q.ctx
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	start := time.Now()
	err := safeRun(ctx, job)
	if err != nil {
		q.metrics.JobProcessed(job.Kind, "error")
		q.logger.Error("background job failed",
			"kind", job.Kind,
			"key", job.Key,
			"worker_id", workerID,
			"duration", time.Since(start),
			"error", err)
		return
	}

	q.metrics.JobProcessed(job.Kind, "ok")
	q.logger.Debug("background job finished",
		"kind", job.Kind,
		"key", job.Key,
		"worker_id", workerID,
		"duration", time.Since(start))
}

func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return job.Run(ctx)
}
