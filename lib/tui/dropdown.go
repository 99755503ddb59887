// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// DropdownOption is a single selectable item in a dropdown overlay.
type DropdownOption struct {
	Label string // Display text.
	Value string // Value reported on selection.
}

// DropdownOverlay renders a floating menu anchored at a screen
// position. The owning model routes keys to it while it is open:
// up/down to navigate, enter to select, escape to dismiss.
type DropdownOverlay struct {
	Options []DropdownOption
	Cursor  int
	AnchorX int // Screen X of the top-left corner.
	AnchorY int // Screen Y of the top-left corner.
}

// NewDropdown creates a dropdown with the cursor on the option whose
// Value equals current, or on the first option.
func NewDropdown(options []DropdownOption, current string, anchorX, anchorY int) *DropdownOverlay {
	dropdown := &DropdownOverlay{
		Options: options,
		AnchorX: anchorX,
		AnchorY: anchorY,
	}
	for index, option := range options {
		if option.Value == current {
			dropdown.Cursor = index
			break
		}
	}
	return dropdown
}

// MoveUp moves the cursor up by one, wrapping to the bottom.
func (dropdown *DropdownOverlay) MoveUp() {
	if len(dropdown.Options) == 0 {
		return
	}
	dropdown.Cursor--
	if dropdown.Cursor < 0 {
		dropdown.Cursor = len(dropdown.Options) - 1
	}
}

// MoveDown moves the cursor down by one, wrapping to the top.
func (dropdown *DropdownOverlay) MoveDown() {
	if len(dropdown.Options) == 0 {
		return
	}
	dropdown.Cursor++
	if dropdown.Cursor >= len(dropdown.Options) {
		dropdown.Cursor = 0
	}
}

// Selected returns the highlighted option and false if there are no
// options.
func (dropdown *DropdownOverlay) Selected() (DropdownOption, bool) {
	if dropdown.Cursor < 0 || dropdown.Cursor >= len(dropdown.Options) {
		return DropdownOption{}, false
	}
	return dropdown.Options[dropdown.Cursor], true
}

// Width returns the visible width of the rendered dropdown: a marker
// column, a space, the widest label, and one column of padding on
// each side.
func (dropdown *DropdownOverlay) Width() int {
	maxLabelWidth := 0
	for _, option := range dropdown.Options {
		maxLabelWidth = max(maxLabelWidth, ansi.StringWidth(option.Label))
	}
	return 3 + maxLabelWidth + 2
}

// Contains reports whether the screen coordinate falls inside the
// dropdown.
func (dropdown *DropdownOverlay) Contains(x, y int) bool {
	if y < dropdown.AnchorY || y >= dropdown.AnchorY+len(dropdown.Options) {
		return false
	}
	return x >= dropdown.AnchorX && x < dropdown.AnchorX+dropdown.Width()
}

// OptionAtY returns the option index on screen row y, or -1.
func (dropdown *DropdownOverlay) OptionAtY(y int) int {
	index := y - dropdown.AnchorY
	if index < 0 || index >= len(dropdown.Options) {
		return -1
	}
	return index
}

// Render produces the dropdown lines for [SpliceOverlay]. Every line
// has the same visible width; the highlighted option uses the
// selection colors.
func (dropdown *DropdownOverlay) Render(theme Theme) []string {
	innerWidth := dropdown.Width() - 2

	backgroundStyle := lipgloss.NewStyle().
		Foreground(theme.OverlayForeground).
		Background(theme.OverlayBackground)
	selectedStyle := lipgloss.NewStyle().
		Background(theme.SelectedBackground).
		Foreground(theme.SelectedForeground).
		Bold(true)

	lines := make([]string, 0, len(dropdown.Options))
	for index, option := range dropdown.Options {
		style := backgroundStyle
		marker := " "
		if index == dropdown.Cursor {
			style = selectedStyle
			marker = ">"
		}
		content := marker + " " + option.Label
		rightPad := max(innerWidth-ansi.StringWidth(content), 0)
		lines = append(lines, style.Render(" "+content+strings.Repeat(" ", rightPad)+" "))
	}
	return lines
}
