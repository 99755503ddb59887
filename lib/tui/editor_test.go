// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func typeText(editor *TextEditor, text string) {
	for _, character := range text {
		editor.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{character}})
	}
}

func TestTextEditorTyping(t *testing.T) {
	editor := NewTextEditor("")
	typeText(&editor, "New checkout")
	editor.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(&editor, "flow")

	if got := editor.Value(); got != "New checkout\nflow" {
		t.Errorf("Value() = %q", got)
	}
	if line, column := editor.Cursor(); line != 1 || column != 4 {
		t.Errorf("Cursor() = (%d,%d), want (1,4)", line, column)
	}
}

func TestTextEditorBackspaceJoinsLines(t *testing.T) {
	editor := NewTextEditor("ab\ncd")
	editor.Update(tea.KeyMsg{Type: tea.KeyHome})
	editor.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	if got := editor.Value(); got != "abcd" {
		t.Errorf("Value() = %q, want %q", got, "abcd")
	}
	if line, column := editor.Cursor(); line != 0 || column != 2 {
		t.Errorf("Cursor() = (%d,%d), want (0,2)", line, column)
	}
}

func TestTextEditorDeleteAndMovement(t *testing.T) {
	editor := NewTextEditor("abc")
	editor.Update(tea.KeyMsg{Type: tea.KeyLeft})
	editor.Update(tea.KeyMsg{Type: tea.KeyLeft})
	editor.Update(tea.KeyMsg{Type: tea.KeyDelete})
	if got := editor.Value(); got != "ac" {
		t.Errorf("after delete: %q", got)
	}

	editor.Update(tea.KeyMsg{Type: tea.KeyEnd})
	editor.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(&editor, "xy")
	editor.Update(tea.KeyMsg{Type: tea.KeyUp})
	if line, column := editor.Cursor(); line != 0 || column != 2 {
		t.Errorf("Up should clamp column: (%d,%d)", line, column)
	}
	editor.Update(tea.KeyMsg{Type: tea.KeyRight})
	if line, column := editor.Cursor(); line != 1 || column != 0 {
		t.Errorf("Right at line end should wrap: (%d,%d)", line, column)
	}
}

func TestTextEditorSpaceKey(t *testing.T) {
	editor := NewTextEditor("a")
	editor.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	typeText(&editor, "b")
	if got := editor.Value(); got != "a b" {
		t.Errorf("Value() = %q", got)
	}
}

func TestTextEditorRender(t *testing.T) {
	editor := NewTextEditor("one\ntwo\nthree\nfour")
	lines := editor.Render(lipgloss.NewStyle(), 10, 2, true)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	// Cursor on the last line scrolls it into view.
	if got := ansi.Strip(lines[1]); got != "four " {
		t.Errorf("last visible line = %q, want %q", got, "four ")
	}

	padded := NewTextEditor("x").Render(lipgloss.NewStyle(), 10, 3, false)
	if len(padded) != 3 || padded[1] != "" {
		t.Errorf("short content should pad with empty lines: %q", padded)
	}
}

func TestTextEditorZeroValue(t *testing.T) {
	var editor TextEditor
	typeText(&editor, "ok")
	if editor.Value() != "ok" {
		t.Errorf("zero-value editor Value() = %q", editor.Value())
	}
}
