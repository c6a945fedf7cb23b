// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import "testing"

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"empty", Info{}, "dev"},
		{"version only", Info{Version: "v1.2.3"}, "v1.2.3"},
		{"with commit", Info{Version: "v1.2.3", GitCommit: "abc1234"}, "v1.2.3 (abc1234)"},
		{"full", Info{Version: "v1.2.3", GitCommit: "abc1234", BuildTime: "2026-01-02T03:04:05Z"}, "v1.2.3 (abc1234, built 2026-01-02T03:04:05Z)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
