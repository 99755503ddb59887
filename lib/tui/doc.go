// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides the terminal building blocks for flagdash's
// dashboard. Built on bubbletea (Elm architecture), these components
// cover the recurring pieces of an interactive list view: the color
// theme, floating overlays spliced onto a rendered frame, a dropdown
// selector, a centered modal box, a multi-line text editor, change
// highlighting, fzf-style fuzzy matching and terminal markdown.
//
// Nothing here talks to the flag service. The dashboard package owns
// the data, the layout and the key bindings, and composes these
// pieces into its View.
package tui
