// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jknm/novice/internal/model"
)

// Breakpoints are the variant widths, ascending.
var Breakpoints = []int{400, 800, 1200, 1600}

// Formats are the variant encodings produced for every breakpoint.
var Formats = []model.VariantFormat{model.VariantFormatAVIF, model.VariantFormatJPEG}

// VariantSpec is one planned resize+encode task.
type VariantSpec struct {
	Width  int
	Format model.VariantFormat
}

// PlanVariants returns every (breakpoint, format) pair whose width does not
// exceed originalWidth, ordered by width and then format.
func PlanVariants(originalWidth int) []VariantSpec {
	var specs []VariantSpec
	for _, w := range Breakpoints {
		if w > originalWidth {
			break
		}
		for _, f := range Formats {
			specs = append(specs, VariantSpec{Width: w, Format: f})
		}
	}
	return specs
}

// BuildSrcsets renders the srcset attribute for each format and the shared
// sizes attribute. Entries are ascending by width.
func BuildSrcsets(variants []model.Variant) model.Srcsets {
	sorted := make([]model.Variant, len(variants))
	copy(sorted, variants)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Width < sorted[j].Width })

	var avifEntries, jpegEntries []string
	seen := make(map[int]bool)
	var widths []int
	for _, v := range sorted {
		entry := fmt.Sprintf("%s %dw", v.URL, v.Width)
		switch v.Format {
		case model.VariantFormatAVIF:
			avifEntries = append(avifEntries, entry)
		case model.VariantFormatJPEG:
			jpegEntries = append(jpegEntries, entry)
		}
		if !seen[v.Width] {
			seen[v.Width] = true
			widths = append(widths, v.Width)
		}
	}

	return model.Srcsets{
		AVIF:  strings.Join(avifEntries, ", "),
		JPEG:  strings.Join(jpegEntries, ", "),
		Sizes: buildSizes(widths),
	}
}

// buildSizes expects ascending widths.
func buildSizes(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		if i == len(widths)-1 {
			parts[i] = fmt.Sprintf("%dpx", w)
		} else {
			parts[i] = fmt.Sprintf("(max-width: %dpx) %dpx", w, w)
		}
	}
	return strings.Join(parts, ", ")
}
