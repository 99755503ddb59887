// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/flagdash/lib/featureflag"
)

// Theme defines the color palette for flagdash's terminal UI. All
// colors are ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Flag status.
	StatusEnabled  lipgloss.Color
	StatusDisabled lipgloss.Color

	// Environment badges.
	EnvironmentDevelopment lipgloss.Color
	EnvironmentStaging     lipgloss.Color
	EnvironmentProduction  lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
	Accent           lipgloss.Color // Focused inputs, scrollbar thumb, spinner.
	ErrorForeground  lipgloss.Color

	// Background tint for rows that changed on the last refresh.
	// HotAccentPut marks updated rows, HotAccentNew rows that appeared.
	HotAccentPut lipgloss.Color
	HotAccentNew lipgloss.Color

	// Fuzzy filter match highlighting.
	FilterHighlightForeground lipgloss.Color

	LinkForeground lipgloss.Color

	// Floating overlays: dropdowns and modals.
	OverlayForeground lipgloss.Color
	OverlayBackground lipgloss.Color
}

// StatusColor returns the color for a flag's enabled state.
func (theme Theme) StatusColor(enabled bool) lipgloss.Color {
	if enabled {
		return theme.StatusEnabled
	}
	return theme.StatusDisabled
}

// EnvironmentColor returns the badge color for an environment.
// Unrecognized environments use FaintText.
func (theme Theme) EnvironmentColor(environment featureflag.Environment) lipgloss.Color {
	switch environment {
	case featureflag.Development:
		return theme.EnvironmentDevelopment
	case featureflag.Staging:
		return theme.EnvironmentStaging
	case featureflag.Production:
		return theme.EnvironmentProduction
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	StatusEnabled:  lipgloss.Color("114"), // green
	StatusDisabled: lipgloss.Color("203"), // soft red

	EnvironmentDevelopment: lipgloss.Color("75"),  // blue
	EnvironmentStaging:     lipgloss.Color("220"), // amber
	EnvironmentProduction:  lipgloss.Color("196"), // red

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
	Accent:           lipgloss.Color("141"), // light purple
	ErrorForeground:  lipgloss.Color("196"),

	HotAccentPut: lipgloss.Color("58"), // dark amber
	HotAccentNew: lipgloss.Color("22"), // dark green

	FilterHighlightForeground: lipgloss.Color("214"),

	LinkForeground: lipgloss.Color("75"),

	OverlayForeground: lipgloss.Color("252"),
	OverlayBackground: lipgloss.Color("237"),
}
