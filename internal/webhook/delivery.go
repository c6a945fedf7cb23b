// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Delivery configuration constants
const (
	MaxAttempts    = 4                      // Delivery attempts per endpoint
	InitialBackoff = 500 * time.Millisecond // Delay before the first retry
	MaxBackoff     = 30 * time.Second       // Upper bound for a single delay
	RequestTimeout = 15 * time.Second       // HTTP request timeout
	MaxResponseLen = 4 * 1024               // Response body kept for error messages
	UserAgent      = "novice-webhook/1.0"   // User-Agent header value
)

// Header names set on every delivery.
const (
	HeaderEvent     = "X-Novice-Event"
	HeaderSignature = "X-Novice-Signature"
	HeaderDelivery  = "X-Novice-Delivery"
)

// DeliveryResult represents the result of a delivery attempt.
type DeliveryResult struct {
	Success      bool
	StatusCode   int
	ResponseBody string
	Error        error
	ShouldRetry  bool
}

// defaultClient is the shared HTTP client with appropriate timeouts.
var defaultClient = &http.Client{
	Timeout: RequestTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	},
}

// delivery is one payload bound for one endpoint.
type delivery struct {
	ID      string
	URL     string
	Event   string
	Payload []byte
}

// deliver POSTs the payload, retrying transient failures with exponential
// backoff. It returns the last error once attempts run out.
func (d *Dispatcher) deliver(ctx context.Context, dl delivery) error {
	var last DeliveryResult
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		last = d.attemptDelivery(ctx, dl)
		if last.Success {
			d.logger.Info("webhook delivered",
				"category", "webhook",
				"delivery_id", dl.ID,
				"event", dl.Event,
				"url", dl.URL,
				"status_code", last.StatusCode,
				"attempt", attempt)
			return nil
		}
		if !last.ShouldRetry || attempt == d.maxAttempts {
			break
		}

		backoff := calculateBackoff(int64(attempt), d.initialBackoff)
		d.logger.Debug("webhook delivery retry scheduled",
			"delivery_id", dl.ID,
			"attempt", attempt,
			"backoff", backoff.String(),
			"error", last.Error)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	d.logger.Warn("webhook delivery failed",
		"category", "webhook",
		"delivery_id", dl.ID,
		"event", dl.Event,
		"url", dl.URL,
		"status_code", last.StatusCode,
		"error", last.Error)
	return fmt.Errorf("delivering %s to %s: %w", dl.Event, dl.URL, last.Error)
}

// attemptDelivery performs a single HTTP POST.
func (d *Dispatcher) attemptDelivery(ctx context.Context, dl delivery) DeliveryResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dl.URL, bytes.NewReader(dl.Payload))
	if err != nil {
		return DeliveryResult{
			Error:       fmt.Errorf("failed to create request: %w", err),
			ShouldRetry: false,
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set(HeaderEvent, dl.Event)
	req.Header.Set(HeaderDelivery, dl.ID)
	if d.secret != "" {
		req.Header.Set(HeaderSignature, "sha256="+GenerateSignature(dl.Payload, d.secret))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return DeliveryResult{
			Error:       fmt.Errorf("request failed: %w", err),
			ShouldRetry: ctx.Err() == nil,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	result := DeliveryResult{
		StatusCode:   resp.StatusCode,
		ResponseBody: string(body),
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		result.Success = true
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// Client errors are permanent except for timeouts and throttling.
		result.ShouldRetry = resp.StatusCode == http.StatusRequestTimeout ||
			resp.StatusCode == http.StatusTooManyRequests
		result.Error = fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	default:
		result.ShouldRetry = true
		result.Error = fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return result
}

// calculateBackoff returns initial * 2^(attempt-1), capped at MaxBackoff.
func calculateBackoff(attempt int64, initial time.Duration) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	backoff := time.Duration(float64(initial) * math.Pow(2, float64(attempt-1)))
	if backoff > MaxBackoff {
		backoff = MaxBackoff
	}
	return backoff
}
