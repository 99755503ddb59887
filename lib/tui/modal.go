// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Modal chrome: 2 columns of border and 2 of padding horizontally,
// 2 lines of border vertically plus the title and footer.
const (
	modalChromeWidth   = 4
	modalChromeHeight  = 4
	modalMinInnerWidth = 20
	modalMargin        = 2
)

// Modal is a bordered box centered over the main view. Body lines are
// pre-styled by the caller; the modal pads them to a common width and
// supplies the background.
type Modal struct {
	Title  string
	Body   []string
	Footer string

	// Width is the desired inner width. Zero sizes the modal to its
	// widest line. The result never exceeds the screen minus a margin.
	Width int
}

// InnerWidth returns the body width Render will use on a screen of
// the given width. Callers wrap body text to it before rendering.
func (modal Modal) InnerWidth(screenWidth int) int {
	width := modal.Width
	if width <= 0 {
		width = max(ansi.StringWidth(modal.Title), ansi.StringWidth(modal.Footer))
		for _, line := range modal.Body {
			width = max(width, ansi.StringWidth(line))
		}
	}
	width = max(width, modalMinInnerWidth)
	limit := screenWidth - modalChromeWidth - modalMargin*2
	if limit < modalMinInnerWidth {
		limit = max(screenWidth-modalChromeWidth, 1)
	}
	return min(width, limit)
}

// Render returns the overlay lines and the anchor that centers them.
// Body lines beyond the screen height are cut, keeping the footer.
func (modal Modal) Render(theme Theme, screenWidth, screenHeight int) ([]string, int, int) {
	innerWidth := modal.InnerWidth(screenWidth)

	backgroundStyle := lipgloss.NewStyle().
		Foreground(theme.OverlayForeground).
		Background(theme.OverlayBackground)
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.HeaderForeground).
		Background(theme.OverlayBackground)
	footerStyle := lipgloss.NewStyle().
		Foreground(theme.FaintText).
		Background(theme.OverlayBackground)

	body := modal.Body
	if maxBody := screenHeight - modalChromeHeight; maxBody >= 0 && len(body) > maxBody {
		body = body[:maxBody]
	}

	padded := make([]string, 0, len(body)+2)
	padded = append(padded, PadOverlayLine(titleStyle.Render(modal.Title), innerWidth, backgroundStyle))
	for _, line := range body {
		padded = append(padded, PadOverlayLine(line, innerWidth, backgroundStyle))
	}
	if modal.Footer != "" {
		padded = append(padded, PadOverlayLine(footerStyle.Render(modal.Footer), innerWidth, backgroundStyle))
	}

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderColor).
		BorderBackground(theme.OverlayBackground)
	lines := strings.Split(borderStyle.Render(strings.Join(padded, "\n")), "\n")

	width := 0
	if len(lines) > 0 {
		width = ansi.StringWidth(lines[0])
	}
	anchorX, anchorY := CenterAnchor(width, len(lines), screenWidth, screenHeight)
	return lines, anchorX, anchorY
}
