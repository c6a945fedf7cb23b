// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "testing"

func TestArticleStatusTransitions(t *testing.T) {
	tests := []struct {
		from ArticleStatus
		to   ArticleStatus
		want bool
	}{
		{ArticleStatusDraft, ArticleStatusDraft, true},
		{ArticleStatusDraft, ArticleStatusPublished, true},
		{ArticleStatusDraft, ArticleStatusArchived, false},
		{ArticleStatusDraft, ArticleStatusDeleted, false},
		{ArticleStatusPublished, ArticleStatusArchived, true},
		{ArticleStatusPublished, ArticleStatusDeleted, true},
		{ArticleStatusPublished, ArticleStatusDraft, false},
		{ArticleStatusPublished, ArticleStatusPublished, false},
		{ArticleStatusArchived, ArticleStatusDeleted, true},
		{ArticleStatusArchived, ArticleStatusPublished, false},
		{ArticleStatusDeleted, ArticleStatusDraft, false},
		{ArticleStatusDeleted, ArticleStatusPublished, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseArticleStatus(t *testing.T) {
	for _, s := range []string{"draft", "published", "archived", "deleted"} {
		got, err := ParseArticleStatus(s)
		if err != nil {
			t.Fatalf("ParseArticleStatus(%q) error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseArticleStatus(%q) = %q", s, got)
		}
	}

	if _, err := ParseArticleStatus("scheduled"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestArticleStatusIsPublic(t *testing.T) {
	if !ArticleStatusPublished.IsPublic() {
		t.Error("published should be public")
	}
	for _, s := range []ArticleStatus{ArticleStatusDraft, ArticleStatusArchived, ArticleStatusDeleted} {
		if s.IsPublic() {
			t.Errorf("%s should not be public", s)
		}
	}
}
