// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jknm/novice/internal/jobs"
)

// JobKind labels webhook delivery jobs.
const JobKind = "webhook"

// Submitter accepts background jobs. *jobs.Queue implements it.
type Submitter interface {
	Submit(job jobs.Job) error
}

// Config holds dispatcher configuration.
type Config struct {
	Endpoints      []string      // Target URLs; empty disables delivery
	Secret         string        // HMAC key; empty sends unsigned requests
	MaxAttempts    int           // Attempts per endpoint
	InitialBackoff time.Duration // Delay before the first retry
	Client         *http.Client  // nil uses a shared client
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    MaxAttempts,
		InitialBackoff: InitialBackoff,
	}
}

// Dispatcher fans events out to every endpoint, one background job each.
type Dispatcher struct {
	client         *http.Client
	endpoints      []string
	secret         string
	maxAttempts    int
	initialBackoff time.Duration
	queue          Submitter
	logger         *slog.Logger
}

// NewDispatcher creates a dispatcher that submits deliveries to queue.
// Blank endpoints are dropped.
func NewDispatcher(queue Submitter, logger *slog.Logger, cfg Config) *Dispatcher {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.Client == nil {
		cfg.Client = defaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}

	endpoints := make([]string, 0, len(cfg.Endpoints))
	for _, e := range cfg.Endpoints {
		if e = strings.TrimSpace(e); e != "" {
			endpoints = append(endpoints, e)
		}
	}

	return &Dispatcher{
		client:         cfg.Client,
		endpoints:      endpoints,
		secret:         cfg.Secret,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		queue:          queue,
		logger:         logger,
	}
}

// Enabled reports whether any endpoint is configured.
func (d *Dispatcher) Enabled() bool {
	return d != nil && len(d.endpoints) > 0
}

// Notify wraps data in an Event and queues one delivery per endpoint.
// Submission failures are joined; deliveries that were queued still run.
func (d *Dispatcher) Notify(ctx context.Context, eventType string, data any) error {
	if !d.Enabled() {
		return nil
	}
	return d.Dispatch(ctx, NewEvent(eventType, data))
}

// Dispatch queues an already built event.
func (d *Dispatcher) Dispatch(_ context.Context, event *Event) error {
	if !d.Enabled() {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", event.Type, err)
	}

	var errs []error
	for _, endpoint := range d.endpoints {
		dl := delivery{
			ID:      uuid.NewString(),
			URL:     endpoint,
			Event:   event.Type,
			Payload: payload,
		}
		job := jobs.Job{
			Kind: JobKind,
			Key:  dl.ID,
			Run: func(ctx context.Context) error {
				return d.deliver(ctx, dl)
			},
		}
		if err := d.queue.Submit(job); err != nil {
			d.logger.Warn("webhook delivery not queued",
				"category", "webhook",
				"event", event.Type,
				"url", endpoint,
				"error", err)
			errs = append(errs, fmt.Errorf("queueing %s for %s: %w", event.Type, endpoint, err))
		}
	}
	return errors.Join(errs...)
}

// GenerateSignature generates an HMAC-SHA256 signature for the payload.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies an HMAC-SHA256 signature. A "sha256=" prefix is
// accepted.
func VerifySignature(payload []byte, signature, secret string) bool {
	signature = strings.TrimPrefix(signature, "sha256=")
	expectedSig := GenerateSignature(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expectedSig))
}
