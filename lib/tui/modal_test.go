// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestModalRender(t *testing.T) {
	modal := Modal{
		Title:  "Delete flag",
		Body:   []string{"Delete new-ui in PRODUCTION?"},
		Footer: "y confirm  n cancel",
	}
	lines, anchorX, anchorY := modal.Render(DefaultTheme, 80, 24)

	// Border, title, body, footer, border.
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	width := ansi.StringWidth(lines[0])
	for index, line := range lines {
		if got := ansi.StringWidth(line); got != width {
			t.Errorf("line %d width = %d, want %d", index, got, width)
		}
	}
	if !strings.HasPrefix(ansi.Strip(lines[0]), "╭") {
		t.Errorf("expected rounded border, got %q", ansi.Strip(lines[0]))
	}
	if !strings.Contains(ansi.Strip(lines[1]), "Delete flag") {
		t.Errorf("title missing: %q", ansi.Strip(lines[1]))
	}
	if anchorX != (80-width)/2 || anchorY != (24-5)/2 {
		t.Errorf("anchor = (%d,%d), not centered", anchorX, anchorY)
	}
}

func TestModalInnerWidth(t *testing.T) {
	narrow := Modal{Title: "x"}
	if got := narrow.InnerWidth(80); got != modalMinInnerWidth {
		t.Errorf("InnerWidth = %d, want minimum %d", got, modalMinInnerWidth)
	}

	wide := Modal{Width: 200}
	if got := wide.InnerWidth(80); got != 80-modalChromeWidth-modalMargin*2 {
		t.Errorf("InnerWidth = %d, want clamp to screen", got)
	}
}

func TestModalCutsTallBody(t *testing.T) {
	body := make([]string, 50)
	for index := range body {
		body[index] = "row"
	}
	lines, _, anchorY := Modal{Title: "t", Body: body, Footer: "f"}.Render(DefaultTheme, 60, 12)
	if len(lines) > 12 {
		t.Errorf("modal taller than screen: %d lines", len(lines))
	}
	if !strings.Contains(ansi.Strip(lines[len(lines)-2]), "f") {
		t.Error("footer should survive the cut")
	}
	if anchorY != 0 {
		t.Errorf("anchorY = %d, want 0", anchorY)
	}
}
