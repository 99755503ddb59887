// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/flagdash/lib/featureflag"
	"github.com/bureau-foundation/flagdash/lib/tui"
)

type formField int

const (
	fieldKey formField = iota
	fieldName
	fieldDescription
	fieldEnvironment
	fieldEnabled
	fieldDefaultValue
	fieldRollout
	fieldCount
)

const (
	formLabelWidth        = 15
	descriptionEditorRows = 4
	defaultRollout        = 100
)

// formAction is what a key did to the form.
type formAction int

const (
	formContinue formAction = iota
	formSubmit
	formCancel
)

// FormModel is the create/edit flag form. Without a bound id it
// creates a flag; with one it updates that flag. In edit mode the key
// is read-only and the stored key is sent back unchanged.
type FormModel struct {
	boundID   *int64
	version   *int64
	storedKey string

	key         textinput.Model
	name        textinput.Model
	description tui.TextEditor
	rollout     textinput.Model

	environments     []featureflag.Environment
	environmentIndex int
	enabled          bool
	defaultValue     bool

	focus formField

	// Err is shown inside the modal after a failed submit.
	Err string

	theme tui.Theme
}

func newFormInputs(theme tui.Theme) (textinput.Model, textinput.Model, textinput.Model) {
	newInput := func(placeholder string, limit int) textinput.Model {
		input := textinput.New()
		input.Prompt = ""
		input.Placeholder = placeholder
		input.CharLimit = limit
		input.TextStyle = lipgloss.NewStyle().Foreground(theme.OverlayForeground)
		input.PlaceholderStyle = lipgloss.NewStyle().Foreground(theme.FaintText)
		return input
	}
	return newInput("new-checkout-flow", 128), newInput("New checkout flow", 256), newInput("0-100", 3)
}

// NewCreateForm returns an empty form for a new flag in environment,
// with the rollout at 100%.
func NewCreateForm(theme tui.Theme, environments []featureflag.Environment, environment featureflag.Environment) FormModel {
	key, name, rollout := newFormInputs(theme)
	rollout.SetValue(strconv.Itoa(defaultRollout))
	form := FormModel{
		key:         key,
		name:        name,
		rollout:     rollout,
		description: tui.NewTextEditor(""),
		theme:       theme,
		focus:       fieldKey,
	}
	form.setEnvironments(environments, environment)
	form.focusCurrent()
	return form
}

// NewEditForm returns a form bound to flag's id and populated with
// its fields.
func NewEditForm(theme tui.Theme, environments []featureflag.Environment, flag featureflag.Flag) FormModel {
	key, name, rollout := newFormInputs(theme)
	key.SetValue(flag.FlagKey)
	name.SetValue(flag.Name)
	rollout.SetValue(strconv.Itoa(clampRollout(flag.RolloutPercentage)))
	form := FormModel{
		boundID:      flag.ID,
		version:      flag.Version,
		storedKey:    flag.FlagKey,
		key:          key,
		name:         name,
		rollout:      rollout,
		description:  tui.NewTextEditor(flag.Description),
		enabled:      flag.Enabled,
		defaultValue: flag.DefaultValue,
		theme:        theme,
		focus:        fieldName,
	}
	form.setEnvironments(environments, flag.Environment)
	form.focusCurrent()
	return form
}

// setEnvironments installs the selectable environments. The current
// one is appended when it is not among them.
func (form *FormModel) setEnvironments(environments []featureflag.Environment, current featureflag.Environment) {
	form.environments = slices.Clone(environments)
	index := slices.Index(form.environments, current)
	if index < 0 {
		form.environments = append(form.environments, current)
		index = len(form.environments) - 1
	}
	form.environmentIndex = index
}

// Title is the modal title for the form's mode.
func (form FormModel) Title() string {
	if form.Editing() {
		return "Edit Feature Flag"
	}
	return "Create Feature Flag"
}

// Editing reports whether the form is bound to an existing flag.
func (form FormModel) Editing() bool {
	return form.boundID != nil
}

// BoundID returns the id of the flag being edited.
func (form FormModel) BoundID() (int64, bool) {
	if form.boundID == nil {
		return 0, false
	}
	return *form.boundID, true
}

// Environment returns the selected environment.
func (form FormModel) Environment() featureflag.Environment {
	return form.environments[form.environmentIndex]
}

// Payload reads the fields back into a flag: strings trimmed, rollout
// parsed as an integer (empty is 0).
func (form FormModel) Payload() featureflag.Flag {
	flagKey := strings.TrimSpace(form.key.Value())
	if form.Editing() {
		flagKey = form.storedKey
	}
	rollout, err := strconv.Atoi(strings.TrimSpace(form.rollout.Value()))
	if err != nil {
		rollout = 0
	}
	return featureflag.Flag{
		FlagKey:           flagKey,
		Name:              strings.TrimSpace(form.name.Value()),
		Description:       strings.TrimSpace(form.description.Value()),
		Environment:       form.Environment(),
		Enabled:           form.enabled,
		DefaultValue:      form.defaultValue,
		RolloutPercentage: clampRollout(rollout),
		Version:           form.version,
	}
}

// Update applies a key and reports whether it submits or cancels.
func (form *FormModel) Update(message tea.KeyMsg) (formAction, tea.Cmd) {
	switch message.String() {
	case "esc":
		return formCancel, nil
	case "ctrl+s":
		return formSubmit, nil
	case "tab":
		form.moveFocus(1)
		return formContinue, nil
	case "shift+tab":
		form.moveFocus(-1)
		return formContinue, nil
	case "enter":
		if form.focus != fieldDescription {
			return formSubmit, nil
		}
	case "up":
		if form.focus != fieldDescription {
			form.moveFocus(-1)
			return formContinue, nil
		}
	case "down":
		if form.focus != fieldDescription {
			form.moveFocus(1)
			return formContinue, nil
		}
	}

	var cmd tea.Cmd
	switch form.focus {
	case fieldKey:
		form.key, cmd = form.key.Update(message)
	case fieldName:
		form.name, cmd = form.name.Update(message)
	case fieldDescription:
		form.description.Update(message)
	case fieldEnvironment:
		switch message.String() {
		case "left", "h":
			form.cycleEnvironment(-1)
		case "right", "l", " ":
			form.cycleEnvironment(1)
		}
	case fieldEnabled:
		if message.String() == " " || message.String() == "x" {
			form.enabled = !form.enabled
		}
	case fieldDefaultValue:
		if message.String() == " " || message.String() == "x" {
			form.defaultValue = !form.defaultValue
		}
	case fieldRollout:
		form.rollout, cmd = form.rollout.Update(message)
		form.rollout.SetValue(sanitizeRollout(form.rollout.Value()))
	}
	return formContinue, cmd
}

func (form *FormModel) moveFocus(delta int) {
	next := form.focus
	for {
		next = (next + formField(delta) + fieldCount) % fieldCount
		if next != fieldKey || !form.Editing() {
			break
		}
	}
	form.focus = next
	form.focusCurrent()
}

func (form *FormModel) focusCurrent() {
	form.key.Blur()
	form.name.Blur()
	form.rollout.Blur()
	switch form.focus {
	case fieldKey:
		form.key.Focus()
	case fieldName:
		form.name.Focus()
	case fieldRollout:
		form.rollout.Focus()
		form.rollout.CursorEnd()
	}
}

func (form *FormModel) cycleEnvironment(delta int) {
	count := len(form.environments)
	form.environmentIndex = (form.environmentIndex + delta + count) % count
}

// Body renders the form fields for a modal of the given inner width.
func (form FormModel) Body(width int) []string {
	labelStyle := lipgloss.NewStyle().Foreground(form.theme.FaintText).Width(formLabelWidth)
	focusedLabel := lipgloss.NewStyle().Foreground(form.theme.Accent).Bold(true).Width(formLabelWidth)
	valueStyle := lipgloss.NewStyle().Foreground(form.theme.OverlayForeground)
	inputWidth := max(width-formLabelWidth-1, 8)

	label := func(field formField, text string) string {
		if field == form.focus {
			return focusedLabel.Render(text)
		}
		return labelStyle.Render(text)
	}
	checkbox := func(checked bool) string {
		if checked {
			return "[x]"
		}
		return "[ ]"
	}

	key := form.key
	key.Width = inputWidth
	name := form.name
	name.Width = inputWidth
	rollout := form.rollout
	rollout.Width = 4

	var lines []string
	if form.Editing() {
		lines = append(lines, label(fieldKey, "Key")+valueStyle.Faint(true).Render(form.storedKey))
	} else {
		lines = append(lines, label(fieldKey, "Key")+key.View())
	}
	lines = append(lines, label(fieldName, "Name")+name.View())
	lines = append(lines, label(fieldDescription, "Description"))
	for _, line := range form.description.Render(valueStyle, width-2, descriptionEditorRows, form.focus == fieldDescription) {
		lines = append(lines, "  "+line)
	}

	environment := form.Environment()
	environmentValue := lipgloss.NewStyle().Foreground(form.theme.EnvironmentColor(environment)).Render(string(environment))
	lines = append(lines, label(fieldEnvironment, "Environment")+"‹ "+environmentValue+" ›")
	lines = append(lines, label(fieldEnabled, "Enabled")+valueStyle.Render(checkbox(form.enabled)))
	lines = append(lines, label(fieldDefaultValue, "Default value")+valueStyle.Render(checkbox(form.defaultValue)))
	lines = append(lines, label(fieldRollout, "Rollout")+rollout.View()+valueStyle.Render(" %"))

	if form.Err != "" {
		lines = append(lines, "")
		errorStyle := lipgloss.NewStyle().Foreground(form.theme.ErrorForeground)
		for _, line := range strings.Split(wrapPlain(form.Err, width), "\n") {
			lines = append(lines, errorStyle.Render(line))
		}
	}
	return lines
}

// sanitizeRollout keeps the digits of value and clamps the number to
// 0..100. An empty value stays empty.
func sanitizeRollout(value string) string {
	var digits strings.Builder
	for _, character := range value {
		if character >= '0' && character <= '9' {
			digits.WriteRune(character)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	number, err := strconv.Atoi(digits.String())
	if err != nil {
		return strconv.Itoa(defaultRollout)
	}
	return strconv.Itoa(clampRollout(number))
}

func clampRollout(value int) int {
	return min(max(value, 0), 100)
}
