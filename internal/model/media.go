// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strings"
)

// Supported MIME types
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
	MimeTypeAVIF = "image/avif"
	MimeTypePDF  = "application/pdf"
	MimeTypeMP3  = "audio/mpeg"
	MimeTypeMP4  = "video/mp4"
)

// UploadStatus tracks a media record from presigned URL issue to finished variants.
type UploadStatus string

// Upload statuses
const (
	UploadStatusPending    UploadStatus = "pending"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)

// uploadTransitions only ever move forward. Non-images skip processing.
var uploadTransitions = map[UploadStatus][]UploadStatus{
	UploadStatusPending:    {UploadStatusProcessing, UploadStatusCompleted},
	UploadStatusProcessing: {UploadStatusCompleted, UploadStatusFailed},
	UploadStatusCompleted:  nil,
	UploadStatusFailed:     nil,
}

// CanTransitionTo reports whether a media record may move from s to next.
func (s UploadStatus) CanTransitionTo(next UploadStatus) bool {
	for _, allowed := range uploadTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanRetry reports whether an operator may send the record back to processing.
// failed -> processing is the only backwards edge and is never taken automatically.
func (s UploadStatus) CanRetry() bool {
	return s == UploadStatusFailed
}

// IsReadable returns true if the record may be handed out to readers.
func (s UploadStatus) IsReadable() bool {
	return s != UploadStatusPending
}

// VariantFormat is the encoding of a generated image variant.
type VariantFormat string

// Variant formats, in the order srcsets are emitted.
const (
	VariantFormatAVIF VariantFormat = "avif"
	VariantFormatJPEG VariantFormat = "jpeg"
)

// MimeType returns the content type stored alongside the encoded variant.
func (f VariantFormat) MimeType() string {
	if f == VariantFormatAVIF {
		return MimeTypeAVIF
	}
	return MimeTypeJPEG
}

// Variant describes one resized and re-encoded derivative of an original image.
type Variant struct {
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Format    VariantFormat `json:"format"`
	URL       string        `json:"url"`
	Key       string        `json:"-"`
	SizeBytes int64         `json:"size_bytes"`
}

// Srcsets holds the responsive image attributes for both formats.
type Srcsets struct {
	AVIF  string `json:"avif"`
	JPEG  string `json:"jpeg"`
	Sizes string `json:"sizes"`
}

// IsImageMimeType reports whether a content type should go through the variant pipeline.
func IsImageMimeType(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}
