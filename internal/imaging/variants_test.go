// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jknm/novice/internal/model"
)

func TestPlanVariants(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		wantWidths []int
	}{
		{"smaller than smallest breakpoint", 300, nil},
		{"exactly smallest breakpoint", 400, []int{400}},
		{"between breakpoints", 1000, []int{400, 800}},
		{"exactly largest breakpoint", 1600, []int{400, 800, 1200, 1600}},
		{"larger than all", 2000, []int{400, 800, 1200, 1600}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs := PlanVariants(tt.width)
			assert.Len(t, specs, len(tt.wantWidths)*len(Formats))

			var widths []int
			for i, s := range specs {
				assert.LessOrEqual(t, s.Width, tt.width)
				assert.Equal(t, Formats[i%len(Formats)], s.Format)
				if i%len(Formats) == 0 {
					widths = append(widths, s.Width)
				}
			}
			assert.Equal(t, tt.wantWidths, widths)
		})
	}
}

func TestPlanVariantsUpperBound(t *testing.T) {
	for w := 1; w <= 2400; w += 7 {
		for _, s := range PlanVariants(w) {
			if s.Width > w {
				t.Fatalf("PlanVariants(%d) produced width %d", w, s.Width)
			}
		}
	}
}

func TestBuildSrcsets(t *testing.T) {
	variants := []model.Variant{
		{Width: 800, Format: model.VariantFormatJPEG, URL: "https://cdn/x/800w.jpeg"},
		{Width: 400, Format: model.VariantFormatAVIF, URL: "https://cdn/x/400w.avif"},
		{Width: 800, Format: model.VariantFormatAVIF, URL: "https://cdn/x/800w.avif"},
		{Width: 400, Format: model.VariantFormatJPEG, URL: "https://cdn/x/400w.jpeg"},
	}

	got := BuildSrcsets(variants)

	assert.Equal(t, "https://cdn/x/400w.avif 400w, https://cdn/x/800w.avif 800w", got.AVIF)
	assert.Equal(t, "https://cdn/x/400w.jpeg 400w, https://cdn/x/800w.jpeg 800w", got.JPEG)
	assert.Equal(t, "(max-width: 400px) 400px, 800px", got.Sizes)
}

func TestBuildSrcsetsEmpty(t *testing.T) {
	assert.Equal(t, model.Srcsets{}, BuildSrcsets(nil))
}

func TestBuildSizesSingle(t *testing.T) {
	assert.Equal(t, "400px", buildSizes([]int{400}))
	assert.Equal(t,
		"(max-width: 400px) 400px, (max-width: 800px) 800px, (max-width: 1200px) 1200px, 1600px",
		buildSizes([]int{400, 800, 1200, 1600}))
}
