// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "testing"

func TestUploadStatusNeverRegresses(t *testing.T) {
	all := []UploadStatus{UploadStatusPending, UploadStatusProcessing, UploadStatusCompleted, UploadStatusFailed}
	rank := map[UploadStatus]int{
		UploadStatusPending:    0,
		UploadStatusProcessing: 1,
		UploadStatusCompleted:  2,
		UploadStatusFailed:     2,
	}

	for _, from := range all {
		for _, to := range all {
			if from.CanTransitionTo(to) && rank[to] <= rank[from] {
				t.Errorf("%s -> %s is allowed but does not advance", from, to)
			}
		}
	}
}

func TestUploadStatusTransitions(t *testing.T) {
	tests := []struct {
		from UploadStatus
		to   UploadStatus
		want bool
	}{
		{UploadStatusPending, UploadStatusProcessing, true},
		{UploadStatusPending, UploadStatusCompleted, true},
		{UploadStatusPending, UploadStatusFailed, false},
		{UploadStatusProcessing, UploadStatusCompleted, true},
		{UploadStatusProcessing, UploadStatusFailed, true},
		{UploadStatusProcessing, UploadStatusPending, false},
		{UploadStatusCompleted, UploadStatusProcessing, false},
		{UploadStatusFailed, UploadStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUploadStatusIsReadable(t *testing.T) {
	tests := []struct {
		status UploadStatus
		want   bool
	}{
		{UploadStatusPending, false},
		{UploadStatusProcessing, true},
		{UploadStatusCompleted, true},
		{UploadStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsReadable(); got != tt.want {
				t.Errorf("IsReadable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsImageMimeType(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{MimeTypeJPEG, true},
		{MimeTypePNG, true},
		{MimeTypeWebP, true},
		{"IMAGE/JPEG", true},
		{MimeTypePDF, false},
		{MimeTypeMP3, false},
		{MimeTypeMP4, false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			if got := IsImageMimeType(tt.mimeType); got != tt.want {
				t.Errorf("IsImageMimeType(%q) = %v, want %v", tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestVariantFormatMimeType(t *testing.T) {
	if got := VariantFormatAVIF.MimeType(); got != MimeTypeAVIF {
		t.Errorf("avif mime = %q", got)
	}
	if got := VariantFormatJPEG.MimeType(); got != MimeTypeJPEG {
		t.Errorf("jpeg mime = %q", got)
	}
}

func TestUploadStatusCanRetry(t *testing.T) {
	for _, s := range []UploadStatus{UploadStatusPending, UploadStatusProcessing, UploadStatusCompleted} {
		if s.CanRetry() {
			t.Errorf("%s should not be retryable", s)
		}
	}
	if !UploadStatusFailed.CanRetry() {
		t.Error("failed should be retryable")
	}
}
