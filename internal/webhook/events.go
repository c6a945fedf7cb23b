// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package webhook delivers signed article-change notifications to
// configured HTTP endpoints.
package webhook

import (
	"time"
)

// Article event types.
const (
	EventArticlePublished = "article.published"
	EventArticleArchived  = "article.archived"
	EventArticleDeleted   = "article.deleted"
)

// Event is the JSON body POSTed to every endpoint.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent creates a new webhook event.
func NewEvent(eventType string, data any) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ArticleEventData describes the article an event refers to.
type ArticleEventData struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}
