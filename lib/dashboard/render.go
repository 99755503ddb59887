// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/flagdash/lib/featureflag"
	"github.com/bureau-foundation/flagdash/lib/tui"
)

// Row is the table's view of one flag.
type Row struct {
	// ID is the service-assigned id, or "" when the flag has none.
	ID          string
	Key         string
	Name        string
	Environment featureflag.Environment
	Rollout     string // e.g. "50%"
	Status      string // "Enabled" or "Disabled"
	Enabled     bool
}

// Identity keys the row across refreshes: its id, or its key when it
// has no id.
func (row Row) Identity() string {
	if row.ID != "" {
		return row.ID
	}
	return row.Key
}

// BuildRows converts flags into rows, one per flag, in order.
func BuildRows(flags []featureflag.Flag) []Row {
	rows := make([]Row, len(flags))
	for index, flag := range flags {
		rows[index] = Row{
			ID:          flag.IDString(),
			Key:         flag.FlagKey,
			Name:        flag.Name,
			Environment: flag.Environment,
			Rollout:     flag.RolloutLabel(),
			Status:      flag.StatusLabel(),
			Enabled:     flag.Enabled,
		}
	}
	return rows
}

// RowMatch holds fuzzy filter match positions for a row's key and
// name, as rune indexes.
type RowMatch struct {
	Key  []int
	Name []int
}

// TableOptions controls RenderTable.
type TableOptions struct {
	Theme tui.Theme

	// Width is the total width in columns.
	Width int

	// Height is the number of lines to produce, including the column
	// header. Zero renders every row with no padding.
	Height int

	// Selected is the index of the highlighted row, or -1.
	Selected int

	// Offset is the index of the first visible row.
	Offset int

	// Matches highlights filter matches, keyed by row identity.
	Matches map[string]RowMatch

	// Heat tints recently changed rows when set.
	Heat *tui.HeatTracker
	Now  time.Time

	// Empty is shown when there are no rows.
	Empty string
}

// Fixed column widths. The key and name columns share the rest.
const (
	environmentColumnWidth = 12
	rolloutColumnWidth     = 7
	statusColumnWidth      = 10
	columnGap              = 2
	minFlexibleWidth       = 8
)

type tableLayout struct {
	key, name int
}

func layoutTable(width int, scrollbar bool) tableLayout {
	fixed := 1 + environmentColumnWidth + rolloutColumnWidth + statusColumnWidth + columnGap*4
	if scrollbar {
		fixed++
	}
	flexible := max(width-fixed, minFlexibleWidth*2)
	key := flexible * 45 / 100
	return tableLayout{key: key, name: flexible - key}
}

// RenderTable renders rows as a table. The result fully describes the
// table: nothing from a previous render survives.
func RenderTable(rows []Row, options TableOptions) string {
	theme := options.Theme
	width := max(options.Width, 40)

	visible := len(rows)
	if options.Height > 0 {
		visible = max(options.Height-1, 0)
	}
	offset := min(max(options.Offset, 0), max(len(rows)-visible, 0))
	end := min(offset+visible, len(rows))
	scrollbar := options.Height > 0 && len(rows) > visible
	layout := layoutTable(width, scrollbar)
	rowWidth := width
	if scrollbar {
		rowWidth--
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
	lines := []string{headerStyle.Render(layout.join(
		"KEY", "NAME", "ENVIRONMENT", "ROLLOUT", "STATUS",
	))}

	if len(rows) == 0 {
		empty := options.Empty
		if empty == "" {
			empty = "No feature flags"
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.FaintText).Render(" "+empty))
	}

	for index := offset; index < end; index++ {
		row := rows[index]
		selected := index == options.Selected
		var line string
		if selected {
			line = lipgloss.NewStyle().
				Background(theme.SelectedBackground).
				Foreground(theme.SelectedForeground).
				Bold(true).
				Width(rowWidth).
				MaxWidth(rowWidth).
				Render(layout.join(row.Key, row.Name, string(row.Environment), row.Rollout, row.Status))
		} else {
			line = layout.styledRow(theme, row, options.Matches[row.Identity()])
			if options.Heat != nil {
				line = options.Heat.TintRow(theme, row.Identity(), line, rowWidth, options.Now)
			}
		}
		lines = append(lines, line)
	}

	if options.Height > 0 {
		for len(lines) < options.Height {
			lines = append(lines, "")
		}
		lines = lines[:options.Height]
	}

	if scrollbar {
		bar := strings.Split(tui.RenderScrollbar(theme, visible, len(rows), visible, offset), "\n")
		for index := 1; index < len(lines) && index-1 < len(bar); index++ {
			lines[index] = padCell(lines[index], rowWidth) + bar[index-1]
		}
	}
	return strings.Join(lines, "\n")
}

// join lays out plain cell text.
func (layout tableLayout) join(key, name, environment, rollout, status string) string {
	gap := strings.Repeat(" ", columnGap)
	return " " +
		padCell(key, layout.key) + gap +
		padCell(name, layout.name) + gap +
		padCell(environment, environmentColumnWidth) + gap +
		padCellLeft(rollout, rolloutColumnWidth) + gap +
		padCell(status, statusColumnWidth)
}

func (layout tableLayout) styledRow(theme tui.Theme, row Row, match RowMatch) string {
	normal := lipgloss.NewStyle().Foreground(theme.NormalText)
	highlight := lipgloss.NewStyle().Foreground(theme.FilterHighlightForeground).Bold(true)
	render := func(style lipgloss.Style) func(string) string {
		return func(text string) string { return style.Render(text) }
	}

	key := tui.HighlightPositions(row.Key, match.Key, render(normal), render(highlight))
	name := tui.HighlightPositions(row.Name, match.Name, render(normal), render(highlight))
	environment := lipgloss.NewStyle().Foreground(theme.EnvironmentColor(row.Environment)).Render(string(row.Environment))
	rollout := normal.Render(row.Rollout)
	status := lipgloss.NewStyle().Foreground(theme.StatusColor(row.Enabled)).Render(row.Status)

	gap := strings.Repeat(" ", columnGap)
	return " " +
		padCell(key, layout.key) + gap +
		padCell(name, layout.name) + gap +
		padCell(environment, environmentColumnWidth) + gap +
		padCellLeft(rollout, rolloutColumnWidth) + gap +
		padCell(status, statusColumnWidth)
}

// padCell truncates or right-pads styled text to exactly width columns.
func padCell(text string, width int) string {
	if ansi.StringWidth(text) > width {
		text = ansi.Truncate(text, width, "…")
	}
	return text + strings.Repeat(" ", max(width-ansi.StringWidth(text), 0))
}

// padCellLeft right-aligns styled text in width columns.
func padCellLeft(text string, width int) string {
	if ansi.StringWidth(text) > width {
		text = ansi.Truncate(text, width, "…")
	}
	return strings.Repeat(" ", max(width-ansi.StringWidth(text), 0)) + text
}
