// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/flagdash/lib/tui"
)

// FilterModel narrows the table client-side with fzf-style fuzzy
// matching over each row's key and name. The filter composes with the
// environment: the environment chooses the rows the service returns,
// the filter hides rows without refetching.
type FilterModel struct {
	input textinput.Model

	// Active is true while the filter input has keyboard focus.
	Active bool

	slab *util.Slab
}

// NewFilterModel creates an empty, inactive filter.
func NewFilterModel(theme tui.Theme) FilterModel {
	input := textinput.New()
	input.Prompt = "/ "
	input.Placeholder = "filter by key or name"
	input.PromptStyle = input.PromptStyle.Foreground(theme.Accent)
	input.CharLimit = 128
	return FilterModel{
		input: input,
		slab:  util.MakeSlab(100*1024, 2048),
	}
}

// Query returns the current filter text.
func (filter FilterModel) Query() string {
	return filter.input.Value()
}

// Activate focuses the filter input.
func (filter *FilterModel) Activate() {
	filter.Active = true
	filter.input.Focus()
}

// Deactivate leaves filter mode, keeping the query.
func (filter *FilterModel) Deactivate() {
	filter.Active = false
	filter.input.Blur()
}

// Clear empties the query and leaves filter mode.
func (filter *FilterModel) Clear() {
	filter.input.SetValue("")
	filter.Deactivate()
}

// Apply returns the indexes of rows matching the query, in table
// order, and the match positions per row identity. An empty query
// matches every row.
func (filter FilterModel) Apply(rows []Row) ([]int, map[string]RowMatch) {
	pattern := tui.FuzzyPattern(filter.Query())
	indexes := make([]int, 0, len(rows))
	if len(pattern) == 0 {
		for index := range rows {
			indexes = append(indexes, index)
		}
		return indexes, nil
	}

	matches := make(map[string]RowMatch)
	for index, row := range rows {
		keyResult := tui.FuzzyMatch(row.Key, pattern, filter.slab)
		nameResult := tui.FuzzyMatch(row.Name, pattern, filter.slab)
		if !keyResult.Matched() && !nameResult.Matched() {
			continue
		}
		indexes = append(indexes, index)
		if keyResult.Score >= nameResult.Score {
			matches[row.Identity()] = RowMatch{Key: keyResult.Positions}
		} else {
			matches[row.Identity()] = RowMatch{Name: nameResult.Positions}
		}
	}
	return indexes, matches
}

// Update routes a key to the filter input.
func (filter *FilterModel) Update(message tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	filter.input, cmd = filter.input.Update(message)
	return cmd
}

// View renders the filter bar.
func (filter FilterModel) View() string {
	return filter.input.View()
}
