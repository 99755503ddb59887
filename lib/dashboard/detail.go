// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/flagdash/lib/featureflag"
	"github.com/bureau-foundation/flagdash/lib/tui"
)

// auditPageSize is how many history entries the detail view shows.
const auditPageSize = 20

// detailState is the open detail view for one flag.
type detailState struct {
	flag         featureflag.Flag
	audit        []featureflag.AuditEntry
	auditErr     string
	auditLoading bool
	offset       int
}

// openDetail shows flag and loads its change history.
func (model *Model) openDetail(flag featureflag.Flag) tea.Cmd {
	model.detail = &detailState{flag: flag}
	if !flag.HasID() {
		return nil
	}
	model.detail.auditLoading = true
	ctx := model.ctx
	client := model.client
	flagID := flag.IDString()
	return func() tea.Msg {
		entries, err := client.AuditLog(ctx, featureflag.AuditEntityType, flagID, auditPageSize)
		return auditLoadedMsg{flagID: flagID, entries: entries, err: err}
	}
}

func (model Model) handleAuditLoaded(message auditLoadedMsg) (tea.Model, tea.Cmd) {
	if model.detail == nil || model.detail.flag.IDString() != message.flagID {
		return model, nil
	}
	detail := *model.detail
	detail.auditLoading = false
	if message.err != nil {
		if isUnauthorized(message.err) {
			return model.handleError("loading history", message.err)
		}
		// History is optional: not every deployment exposes it.
		detail.auditErr = message.err.Error()
	} else {
		detail.audit = message.entries
	}
	model.detail = &detail
	return model, nil
}

// refreshDetail points an open detail view at the refreshed copy of
// its flag, or closes it when the flag is gone.
func (model *Model) refreshDetail() {
	if model.detail == nil {
		return
	}
	identity := rowIdentity(model.detail.flag)
	for _, flag := range model.flags {
		if rowIdentity(flag) == identity {
			detail := *model.detail
			detail.flag = flag
			model.detail = &detail
			return
		}
	}
	model.detail = nil
	if model.view == viewDetail {
		model.view = viewTable
	}
}

// renderDetail renders the detail view's full content as lines.
func renderDetail(theme tui.Theme, detail *detailState, width int) []string {
	flag := detail.flag
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
	labelStyle := lipgloss.NewStyle().Foreground(theme.FaintText).Width(14)
	valueStyle := lipgloss.NewStyle().Foreground(theme.NormalText)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.Accent)

	lines := []string{
		titleStyle.Render(flag.FlagKey) + "  " + lipgloss.NewStyle().Foreground(theme.FaintText).Render(flag.Name),
		"",
	}
	field := func(label, value string) {
		if value == "" {
			return
		}
		lines = append(lines, labelStyle.Render(label)+valueStyle.Render(value))
	}

	lines = append(lines, labelStyle.Render("Status")+
		lipgloss.NewStyle().Foreground(theme.StatusColor(flag.Enabled)).Render(flag.StatusLabel()))
	lines = append(lines, labelStyle.Render("Environment")+
		lipgloss.NewStyle().Foreground(theme.EnvironmentColor(flag.Environment)).Render(string(flag.Environment)))
	field("Rollout", flag.RolloutLabel())
	field("Default value", fmt.Sprintf("%t", flag.DefaultValue))
	field("ID", flag.IDString())
	if flag.Version != nil {
		field("Version", fmt.Sprintf("%d", *flag.Version))
	}
	field("Created", byLine(flag.CreatedAt, flag.CreatedBy))
	field("Updated", byLine(flag.UpdatedAt, flag.UpdatedBy))

	lines = append(lines, "", sectionStyle.Render("Description"))
	if description := tui.RenderMarkdown(flag.Description, theme, width); description != "" {
		lines = append(lines, strings.Split(description, "\n")...)
	} else {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.FaintText).Render("No description."))
	}

	lines = append(lines, "", sectionStyle.Render("Recent changes"))
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	switch {
	case !flag.HasID():
		lines = append(lines, faint.Render("Not saved yet."))
	case detail.auditLoading:
		lines = append(lines, faint.Render("Loading…"))
	case detail.auditErr != "":
		lines = append(lines, faint.Render("History unavailable: "+detail.auditErr))
	case len(detail.audit) == 0:
		lines = append(lines, faint.Render("No recorded changes."))
	default:
		for _, entry := range detail.audit {
			lines = append(lines, renderAuditEntry(theme, entry, width)...)
		}
	}

	for index, line := range lines {
		if ansi.StringWidth(line) > width {
			lines[index] = ansi.Truncate(line, width, "…")
		}
	}
	return lines
}

func renderAuditEntry(theme tui.Theme, entry featureflag.AuditEntry, width int) []string {
	actor := entry.UserEmail
	if actor == "" {
		actor = entry.UserID
	}
	heading := lipgloss.NewStyle().Foreground(theme.FaintText).Render(formatTime(entry.Timestamp.Time)) + "  " +
		lipgloss.NewStyle().Bold(true).Foreground(theme.NormalText).Render(entry.Action)
	if actor != "" {
		heading += lipgloss.NewStyle().Foreground(theme.FaintText).Render(" by " + actor)
	}
	lines := []string{heading}
	if changes := strings.TrimSpace(entry.Changes); changes != "" {
		for _, line := range strings.Split(wrapPlain(changes, max(width-4, 10)), "\n") {
			lines = append(lines, "    "+lipgloss.NewStyle().Foreground(theme.NormalText).Render(line))
		}
	}
	return lines
}

func byLine(timestamp *featureflag.Timestamp, actor string) string {
	var parts []string
	if timestamp != nil && !timestamp.IsZero() {
		parts = append(parts, formatTime(timestamp.Time))
	}
	if actor != "" {
		parts = append(parts, "by "+actor)
	}
	return strings.Join(parts, " ")
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04:05")
}
