// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestGetLayoutMode(t *testing.T) {
	theme := NewTheme()

	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{80, LayoutMedium},
		{140, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 30)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: got %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestRenderStatusIncludesIndicator(t *testing.T) {
	if got := RenderStatus(true, "uploaded"); !strings.Contains(got, "[OK]") || !strings.Contains(got, "uploaded") {
		t.Errorf("RenderStatus(true) = %q", got)
	}
	if got := RenderStatus(false, "failed"); !strings.Contains(got, "[X]") {
		t.Errorf("RenderStatus(false) = %q", got)
	}
	if got := RenderWarning("careful"); !strings.Contains(got, "[!]") {
		t.Errorf("RenderWarning = %q", got)
	}
	if got := RenderInfo("note"); !strings.Contains(got, "[i]") {
		t.Errorf("RenderInfo = %q", got)
	}
}
