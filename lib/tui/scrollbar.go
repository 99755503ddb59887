// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderScrollbar produces a one-column scrollbar of the given height
// for a list of totalItems rows showing visibleItems starting at
// scrollOffset. When everything fits, the thumb spans the full height.
func RenderScrollbar(theme Theme, height, totalItems, visibleItems, scrollOffset int) string {
	if height <= 0 {
		return ""
	}

	trackStyle := lipgloss.NewStyle().Foreground(theme.BorderColor)
	thumbStyle := lipgloss.NewStyle().Foreground(theme.Accent)

	thumbSize, thumbOffset := height, 0
	if totalItems > visibleItems && totalItems > 0 {
		thumbSize = max(height*visibleItems/totalItems, 1)
		scrollableRange := totalItems - visibleItems
		trackRange := height - thumbSize
		if trackRange > 0 {
			thumbOffset = min(scrollOffset*trackRange/scrollableRange, trackRange)
		}
	}

	lines := make([]string, height)
	for index := range lines {
		if index >= thumbOffset && index < thumbOffset+thumbSize {
			lines[index] = thumbStyle.Render("┃")
		} else {
			lines[index] = trackStyle.Render("│")
		}
	}
	return strings.Join(lines, "\n")
}
