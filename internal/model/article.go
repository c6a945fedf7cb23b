// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "fmt"

// ArticleStatus is the lifecycle state of an article.
type ArticleStatus string

// Article statuses
const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
	ArticleStatusArchived  ArticleStatus = "archived"
	ArticleStatusDeleted   ArticleStatus = "deleted"
)

// DefaultArticleTitle is the title given to freshly created drafts.
const DefaultArticleTitle = "Neimenovana novica"

// articleTransitions lists the allowed status changes. Drafts may be saved in place.
var articleTransitions = map[ArticleStatus][]ArticleStatus{
	ArticleStatusDraft:     {ArticleStatusDraft, ArticleStatusPublished},
	ArticleStatusPublished: {ArticleStatusArchived, ArticleStatusDeleted},
	ArticleStatusArchived:  {ArticleStatusDeleted},
	ArticleStatusDeleted:   nil,
}

// ParseArticleStatus converts a string into an ArticleStatus.
func ParseArticleStatus(s string) (ArticleStatus, error) {
	status := ArticleStatus(s)
	if _, ok := articleTransitions[status]; !ok {
		return "", fmt.Errorf("unknown article status %q", s)
	}
	return status, nil
}

// Valid reports whether the status is one of the known values.
func (s ArticleStatus) Valid() bool {
	_, ok := articleTransitions[s]
	return ok
}

// CanTransitionTo reports whether an article may move from s to next.
func (s ArticleStatus) CanTransitionTo(next ArticleStatus) bool {
	for _, allowed := range articleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsPublic returns true if anonymous readers may see an article in this status.
func (s ArticleStatus) IsPublic() bool {
	return s == ArticleStatusPublished
}

// ThumbnailCrop is the crop rectangle applied to an article's thumbnail image.
type ThumbnailCrop struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Thumbnail references a media item together with its crop.
type Thumbnail struct {
	MediaID int64          `json:"media_id"`
	Crop    *ThumbnailCrop `json:"crop,omitempty"`
}
