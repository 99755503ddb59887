// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/flagdash/lib/tui"
)

// headerTitle is the left end of the header line. The environment
// badge follows it after one space.
const headerTitle = " flagdash "

// View implements tea.Model.
func (model Model) View() string {
	if model.width == 0 || model.height == 0 {
		return "Loading..."
	}
	if model.view == viewLogin {
		return model.login.view(model.spinner.View(), model.server, model.width, model.height)
	}

	lines := []string{model.renderHeader()}
	if model.filterShown() {
		lines = append(lines, " "+model.filter.View())
	}

	bodyHeight := model.bodyHeight()
	if model.view == viewDetail && model.detail != nil {
		lines = append(lines, model.renderDetailBody(bodyHeight)...)
	} else {
		table := RenderTable(model.visibleRows(), TableOptions{
			Theme:    model.theme,
			Width:    model.width,
			Height:   bodyHeight,
			Selected: model.cursor,
			Offset:   model.offset,
			Matches:  model.matches,
			Heat:     model.heat,
			Now:      model.now(),
			Empty:    model.emptyMessage(),
		})
		lines = append(lines, strings.Split(table, "\n")...)
	}

	lines = append(lines, model.renderStatus())
	lines = append(lines, strings.Split(model.help.View(model.keys), "\n")...)
	view := strings.Join(lines, "\n")

	switch {
	case model.form != nil:
		view = model.overlayModal(view, model.formModal())
	case model.confirm != nil:
		view = model.overlayModal(view, model.confirmModal())
	case model.dropdown != nil:
		view = tui.SpliceOverlay(view, model.dropdown.Render(model.theme), model.dropdown.AnchorX, model.dropdown.AnchorY)
	}
	return view
}

func (model Model) renderHeader() string {
	theme := model.theme
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.OverlayForeground).Background(theme.Accent).Render(headerTitle)
	environment := model.state.Environment()
	badge := lipgloss.NewStyle().Bold(true).Foreground(theme.EnvironmentColor(environment)).
		Render("[" + string(environment) + " ▾]")

	count := fmt.Sprintf("%d flags", len(model.rows))
	if model.filter.Query() != "" {
		count = fmt.Sprintf("%d/%d flags", len(model.visible), len(model.rows))
	}
	left := title + " " + badge + "  " + lipgloss.NewStyle().Foreground(theme.FaintText).Render(count)
	if model.loading {
		left += " " + model.spinner.View()
	}

	var right string
	if model.session != nil && model.session.Username != "" {
		right = model.session.Username + " @ " + model.server
	} else {
		right = model.server
	}
	right = lipgloss.NewStyle().Foreground(theme.FaintText).Render(right + " ")

	gap := model.width - ansi.StringWidth(left) - ansi.StringWidth(right)
	if gap < 1 {
		return ansi.Truncate(left, model.width, "")
	}
	return left + strings.Repeat(" ", gap) + right
}

// environmentBadgeX is the screen column where the environment badge
// starts.
func (model Model) environmentBadgeX() int {
	return ansi.StringWidth(headerTitle) + 1
}

func (model Model) renderStatus() string {
	if model.status == "" {
		return ""
	}
	color := model.theme.NormalText
	switch model.statusLevel {
	case statusWarn:
		color = model.theme.StatusDisabled
	case statusError:
		color = model.theme.ErrorForeground
	}
	return ansi.Truncate(lipgloss.NewStyle().Foreground(color).Render(" "+model.status), model.width, "…")
}

func (model Model) renderDetailBody(height int) []string {
	lines := renderDetail(model.theme, model.detail, max(model.width-2, 20))
	offset := min(model.detail.offset, max(len(lines)-height, 0))
	end := min(offset+height, len(lines))
	body := make([]string, 0, height)
	for _, line := range lines[offset:end] {
		body = append(body, " "+line)
	}
	for len(body) < height {
		body = append(body, "")
	}
	return body
}

func (model Model) visibleRows() []Row {
	rows := make([]Row, len(model.visible))
	for position, index := range model.visible {
		rows[position] = model.rows[index]
	}
	return rows
}

func (model Model) emptyMessage() string {
	switch {
	case model.loading && model.rows == nil:
		return "Loading…"
	case model.filter.Query() != "" && len(model.rows) > 0:
		return "No flags match the filter"
	default:
		return fmt.Sprintf("No feature flags in %s", model.state.Environment())
	}
}

func (model Model) formModal() tui.Modal {
	modal := tui.Modal{
		Title:  model.form.Title(),
		Footer: "Ctrl+S save · Tab next field · Esc cancel",
		Width:  64,
	}
	modal.Body = model.form.Body(modal.InnerWidth(model.width))
	return modal
}

func (model Model) confirmModal() tui.Modal {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	return tui.Modal{
		Title: "Delete Feature Flag",
		Body: []string{
			fmt.Sprintf("Delete %s from %s?", model.confirm.flagKey, model.confirm.environment),
			faint.Render("This cannot be undone."),
		},
		Footer: "y delete · n cancel",
		Width:  48,
	}
}

func (model Model) overlayModal(view string, modal tui.Modal) string {
	lines, anchorX, anchorY := modal.Render(model.theme, model.width, model.height)
	return tui.SpliceOverlay(view, lines, anchorX, anchorY)
}

func (model Model) filterShown() bool {
	return model.filter.Active || model.filter.Query() != ""
}

// tableTop is the screen row of the table's column header.
func (model Model) tableTop() int {
	if model.filterShown() {
		return 2
	}
	return 1
}

// bodyHeight is the number of lines between the header block and the
// footer. Zero before the first window size arrives.
func (model Model) bodyHeight() int {
	if model.height == 0 {
		return 0
	}
	footer := 1 + strings.Count(model.help.View(model.keys), "\n") + 1
	return max(model.height-model.tableTop()-footer, 2)
}

// tableRows is the number of flag rows that fit on screen.
func (model Model) tableRows() int {
	return model.bodyHeight() - 1
}

// wrapPlain wraps unstyled text at width columns.
func wrapPlain(text string, width int) string {
	return ansi.Wrap(text, max(width, 1), "")
}
