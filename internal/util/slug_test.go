// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple title", input: "Hello World", expected: "hello-world"},
		{name: "with special characters", input: "Hello, World!", expected: "hello-world"},
		{name: "with numbers", input: "Page 123", expected: "page-123"},
		{name: "slovenian letters", input: "Čiščenje žlebov v Šentjerneju", expected: "ciscenje-zlebov-v-sentjerneju"},
		{name: "with multiple spaces", input: "Hello   World", expected: "hello-world"},
		{name: "with hyphens", input: "Hello - World", expected: "hello-world"},
		{name: "with leading/trailing spaces", input: "  Hello World  ", expected: "hello-world"},
		{name: "quotes and parentheses", input: `"Jama" (pod) Krko: 2.0`, expected: "jama-pod-krko-20"},
		{name: "all special characters", input: "!@#$%^&*()", expected: ""},
		{name: "german umlauts", input: "Über München", expected: "uber-munchen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSlugifyTitle(t *testing.T) {
	t.Run("embeds id", func(t *testing.T) {
		if got := SlugifyTitle("Jamarski izlet", 42); got != "jamarski-izlet-42" {
			t.Errorf("SlugifyTitle() = %q", got)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a := SlugifyTitle("Reševanje iz jame", 7)
		b := SlugifyTitle("Reševanje iz jame", 7)
		if a != b {
			t.Errorf("same input produced %q and %q", a, b)
		}
	})

	t.Run("different ids differ", func(t *testing.T) {
		a := SlugifyTitle("Občni zbor", 1)
		b := SlugifyTitle("Občni zbor", 2)
		if a == b {
			t.Errorf("expected different slugs, both %q", a)
		}
	})

	t.Run("empty title falls back to default", func(t *testing.T) {
		if got := SlugifyTitle("   ", 3); got != "neimenovana-novica-3" {
			t.Errorf("SlugifyTitle() = %q", got)
		}
	})

	t.Run("result is always valid", func(t *testing.T) {
		for _, title := range []string{"!!!", "Jama", "Ž", "a--b"} {
			if got := SlugifyTitle(title, 9); !IsValidSlug(got) {
				t.Errorf("SlugifyTitle(%q) = %q is not a valid slug", title, got)
			}
		}
	})
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"hello-world", true},
		{"42", true},
		{"", false},
		{"-leading", false},
		{"trailing-", false},
		{"double--hyphen", false},
		{"Upper", false},
		{"space here", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			if got := IsValidSlug(tt.slug); got != tt.want {
				t.Errorf("IsValidSlug(%q) = %v, want %v", tt.slug, got, tt.want)
			}
		})
	}
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"photo.JPG", "jpg"},
		{"archive.tar.gz", "gz"},
		{"noext", "bin"},
		{".hidden", "bin"},
		{"trailing.", "bin"},
		{"dir/../evil.png", "png"},
		{"weird.p?g", "bin"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := FileExtension(tt.filename, "bin"); got != tt.want {
				t.Errorf("FileExtension(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestSafeJoinPath(t *testing.T) {
	base := t.TempDir()

	if _, err := SafeJoinPath(base, "abc/original.jpg"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := SafeJoinPath(base, "../outside.jpg"); err == nil {
		t.Error("expected traversal error")
	}
}
