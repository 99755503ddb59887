// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TextEditor is a small multi-line editor with cursor tracking. The
// flag form uses it for descriptions, which are markdown and often
// span several lines.
type TextEditor struct {
	lines   [][]rune
	cursorY int
	cursorX int
}

// NewTextEditor creates an editor holding value with the cursor at
// the end.
func NewTextEditor(value string) TextEditor {
	editor := TextEditor{}
	editor.SetValue(value)
	return editor
}

// SetValue replaces the content and moves the cursor to the end.
func (editor *TextEditor) SetValue(value string) {
	parts := strings.Split(value, "\n")
	editor.lines = make([][]rune, len(parts))
	for index, part := range parts {
		editor.lines[index] = []rune(part)
	}
	editor.cursorY = len(editor.lines) - 1
	editor.cursorX = len(editor.lines[editor.cursorY])
}

// Value returns the text content.
func (editor TextEditor) Value() string {
	parts := make([]string, len(editor.lines))
	for index, line := range editor.lines {
		parts[index] = string(line)
	}
	return strings.Join(parts, "\n")
}

// Cursor returns the cursor's line and column.
func (editor TextEditor) Cursor() (int, int) {
	return editor.cursorY, editor.cursorX
}

// Update applies a key to the editor. Keys it does not handle are
// ignored; the owner decides what tab, escape and submit mean.
func (editor *TextEditor) Update(message tea.KeyMsg) {
	if editor.lines == nil {
		editor.SetValue("")
	}
	switch message.Type {
	case tea.KeyRunes, tea.KeySpace:
		for _, character := range message.Runes {
			editor.insertRune(character)
		}

	case tea.KeyEnter:
		line := editor.lines[editor.cursorY]
		before := append([]rune(nil), line[:editor.cursorX]...)
		after := append([]rune(nil), line[editor.cursorX:]...)

		editor.lines[editor.cursorY] = before
		lines := make([][]rune, 0, len(editor.lines)+1)
		lines = append(lines, editor.lines[:editor.cursorY+1]...)
		lines = append(lines, after)
		lines = append(lines, editor.lines[editor.cursorY+1:]...)
		editor.lines = lines
		editor.cursorY++
		editor.cursorX = 0

	case tea.KeyBackspace:
		if editor.cursorX > 0 {
			line := editor.lines[editor.cursorY]
			editor.lines[editor.cursorY] = append(line[:editor.cursorX-1], line[editor.cursorX:]...)
			editor.cursorX--
		} else if editor.cursorY > 0 {
			previous := editor.lines[editor.cursorY-1]
			editor.cursorX = len(previous)
			editor.lines[editor.cursorY-1] = append(previous, editor.lines[editor.cursorY]...)
			editor.lines = append(editor.lines[:editor.cursorY], editor.lines[editor.cursorY+1:]...)
			editor.cursorY--
		}

	case tea.KeyDelete:
		line := editor.lines[editor.cursorY]
		if editor.cursorX < len(line) {
			editor.lines[editor.cursorY] = append(line[:editor.cursorX], line[editor.cursorX+1:]...)
		} else if editor.cursorY < len(editor.lines)-1 {
			editor.lines[editor.cursorY] = append(line, editor.lines[editor.cursorY+1]...)
			editor.lines = append(editor.lines[:editor.cursorY+1], editor.lines[editor.cursorY+2:]...)
		}

	case tea.KeyLeft:
		if editor.cursorX > 0 {
			editor.cursorX--
		} else if editor.cursorY > 0 {
			editor.cursorY--
			editor.cursorX = len(editor.lines[editor.cursorY])
		}

	case tea.KeyRight:
		if editor.cursorX < len(editor.lines[editor.cursorY]) {
			editor.cursorX++
		} else if editor.cursorY < len(editor.lines)-1 {
			editor.cursorY++
			editor.cursorX = 0
		}

	case tea.KeyUp:
		if editor.cursorY > 0 {
			editor.cursorY--
			editor.cursorX = min(editor.cursorX, len(editor.lines[editor.cursorY]))
		}

	case tea.KeyDown:
		if editor.cursorY < len(editor.lines)-1 {
			editor.cursorY++
			editor.cursorX = min(editor.cursorX, len(editor.lines[editor.cursorY]))
		}

	case tea.KeyHome, tea.KeyCtrlA:
		editor.cursorX = 0

	case tea.KeyEnd, tea.KeyCtrlE:
		editor.cursorX = len(editor.lines[editor.cursorY])
	}
}

func (editor *TextEditor) insertRune(character rune) {
	line := editor.lines[editor.cursorY]
	updated := make([]rune, len(line)+1)
	copy(updated, line[:editor.cursorX])
	updated[editor.cursorX] = character
	copy(updated[editor.cursorX+1:], line[editor.cursorX:])
	editor.lines[editor.cursorY] = updated
	editor.cursorX++
}

// Render returns exactly height lines, each at most width columns,
// scrolled so the cursor line is visible. The cursor is drawn only
// when focused.
func (editor TextEditor) Render(textStyle lipgloss.Style, width, height int, focused bool) []string {
	if height <= 0 {
		return nil
	}
	if editor.lines == nil {
		editor.SetValue("")
	}
	cursorStyle := lipgloss.NewStyle().Reverse(true)

	scrollOffset := 0
	if editor.cursorY >= height {
		scrollOffset = editor.cursorY - height + 1
	}

	rendered := make([]string, 0, height)
	for lineIndex := scrollOffset; lineIndex < scrollOffset+height; lineIndex++ {
		if lineIndex >= len(editor.lines) {
			rendered = append(rendered, "")
			continue
		}
		line := editor.lines[lineIndex]
		var out string
		switch {
		case !focused || lineIndex != editor.cursorY:
			out = textStyle.Render(string(line))
		case editor.cursorX >= len(line):
			out = textStyle.Render(string(line)) + cursorStyle.Render(" ")
		default:
			out = textStyle.Render(string(line[:editor.cursorX])) +
				cursorStyle.Render(string(line[editor.cursorX])) +
				textStyle.Render(string(line[editor.cursorX+1:]))
		}
		if ansi.StringWidth(out) > width {
			out = ansi.Truncate(out, width, "…")
		}
		rendered = append(rendered, out)
	}
	return rendered
}
