// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewTheme_ForcedModes(t *testing.T) {
	if !NewTheme("dark").IsDark {
		t.Error("dark theme should report IsDark")
	}
	if NewTheme("light").IsDark {
		t.Error("light theme should not report IsDark")
	}
}

func TestLayoutMode(t *testing.T) {
	theme := NewTheme("dark")
	cases := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{80, LayoutMedium},
		{140, LayoutWide},
	}
	for _, c := range cases {
		theme.SetSize(c.width, 40)
		if got := theme.GetLayoutMode(); got != c.want {
			t.Errorf("width %d: got %v, want %v", c.width, got, c.want)
		}
	}
}

func TestRenderHelpers_IncludeMarkers(t *testing.T) {
	if !strings.Contains(RenderError("boom"), MarkerError) {
		t.Error("RenderError should include the error marker")
	}
	if !strings.Contains(RenderNotice("hey"), MarkerNotice) {
		t.Error("RenderNotice should include the notice marker")
	}
}
