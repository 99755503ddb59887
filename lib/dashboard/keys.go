// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the table and detail view key bindings. Forms, the
// login view and overlays handle their own keys.
type KeyMap struct {
	// Navigation.
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	// Row actions.
	Toggle key.Binding
	Edit   key.Binding
	Delete key.Binding
	Detail key.Binding
	Copy   key.Binding // Copy the selected flag key to the clipboard.

	Create  key.Binding
	Refresh key.Binding

	// Environment selection.
	EnvironmentMenu key.Binding
	Environment1    key.Binding
	Environment2    key.Binding
	Environment3    key.Binding

	// Filter.
	FilterActivate key.Binding
	FilterClear    key.Binding

	Back   key.Binding // Leave the detail view.
	Help   key.Binding
	Logout key.Binding
	Quit   key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("t", " "),
		key.WithHelp("t/space", "toggle"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Detail: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "details"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy key"),
	),
	Create: key.NewBinding(
		key.WithKeys("n", "c"),
		key.WithHelp("n", "new flag"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r", "ctrl+r"),
		key.WithHelp("r", "refresh"),
	),
	EnvironmentMenu: key.NewBinding(
		key.WithKeys("E"),
		key.WithHelp("E", "environment"),
	),
	Environment1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "development"),
	),
	Environment2: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "staging"),
	),
	Environment3: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "production"),
	),
	FilterActivate: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	FilterClear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "clear filter"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace"),
		key.WithHelp("Esc", "back"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Logout: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "log out"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap for the status line.
func (keys KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		keys.Toggle, keys.Edit, keys.Delete, keys.Create,
		keys.EnvironmentMenu, keys.FilterActivate, keys.Help, keys.Quit,
	}
}

// FullHelp implements help.KeyMap for the expanded help view.
func (keys KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.Up, keys.Down, keys.PageUp, keys.PageDown, keys.Home, keys.End},
		{keys.Toggle, keys.Edit, keys.Delete, keys.Detail, keys.Copy, keys.Create},
		{keys.EnvironmentMenu, keys.Environment1, keys.Environment2, keys.Environment3, keys.Refresh},
		{keys.FilterActivate, keys.FilterClear, keys.Logout, keys.Help, keys.Quit},
	}
}
