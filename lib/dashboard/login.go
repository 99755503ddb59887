// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/flagdash/lib/flagclient"
	"github.com/bureau-foundation/flagdash/lib/secret"
	"github.com/bureau-foundation/flagdash/lib/session"
	"github.com/bureau-foundation/flagdash/lib/tui"
)

// LoginModel is the sign-in form shown whenever there is no session.
type LoginModel struct {
	username textinput.Model
	password textinput.Model
	focus    int // 0 username, 1 password

	// Notice explains why the login view is showing, e.g. an expired
	// session. Err is the last failed attempt.
	Notice string
	Err    string

	submitting bool
	theme      tui.Theme
}

// NewLoginModel creates an empty login form. username pre-fills the
// username field, e.g. from the expired session.
func NewLoginModel(theme tui.Theme, username string) LoginModel {
	usernameInput := textinput.New()
	usernameInput.Prompt = ""
	usernameInput.Placeholder = "username"
	usernameInput.CharLimit = 128
	usernameInput.SetValue(username)

	passwordInput := textinput.New()
	passwordInput.Prompt = ""
	passwordInput.Placeholder = "password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.EchoCharacter = '•'
	passwordInput.CharLimit = 256

	login := LoginModel{
		username: usernameInput,
		password: passwordInput,
		theme:    theme,
	}
	if username != "" {
		login.focus = 1
	}
	login.focusCurrent()
	return login
}

func (login *LoginModel) focusCurrent() {
	if login.focus == 0 {
		login.username.Focus()
		login.password.Blur()
	} else {
		login.username.Blur()
		login.password.Focus()
	}
}

// update routes a key to the focused input and reports whether it
// submits the form.
func (login *LoginModel) update(message tea.KeyMsg) (bool, tea.Cmd) {
	switch message.String() {
	case "tab", "shift+tab", "up", "down":
		login.focus = 1 - login.focus
		login.focusCurrent()
		return false, nil
	case "enter":
		if login.focus == 0 {
			login.focus = 1
			login.focusCurrent()
			return false, nil
		}
		return true, nil
	}

	var cmd tea.Cmd
	if login.focus == 0 {
		login.username, cmd = login.username.Update(message)
	} else {
		login.password, cmd = login.password.Update(message)
	}
	return false, cmd
}

// submitLogin exchanges the entered credentials for a token and
// persists the new session.
func (model *Model) submitLogin() tea.Cmd {
	username := strings.TrimSpace(model.login.username.Value())
	password := model.login.password.Value()
	if username == "" || password == "" {
		model.login.Err = "Username and password are required."
		return nil
	}
	model.login.Err = ""
	model.login.submitting = true
	model.login.password.SetValue("")

	ctx := model.ctx
	client := model.client
	guard := model.guard
	return tea.Batch(func() tea.Msg {
		buffer, err := secret.NewFromString(password)
		if err != nil {
			return loginResultMsg{err: fmt.Errorf("protecting password: %w", err)}
		}
		defer buffer.Close()

		response, err := client.Login(ctx, username, buffer)
		if err != nil {
			return loginResultMsg{err: err}
		}
		established := &session.Session{Token: response.Token, Username: username}
		if err := guard.Establish(established); err != nil {
			return loginResultMsg{err: err}
		}
		return loginResultMsg{session: established}
	}, model.startSpinner())
}

// handleLoginResult enters the dashboard after a successful login.
func (model Model) handleLoginResult(message loginResultMsg) (tea.Model, tea.Cmd) {
	model.login.submitting = false
	if message.err != nil {
		model.login.Err = loginErrorText(message.err)
		model.logger.Debug("login failed", "error", message.err)
		return model, nil
	}
	model.session = message.session
	model.view = viewTable
	model.login.Notice = ""
	return model, model.loadFlags()
}

func loginErrorText(err error) string {
	var apiErr *flagclient.APIError
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		return "Invalid username or password."
	}
	return err.Error()
}

// view renders the login box centered on the screen.
func (login LoginModel) view(spinnerView, server string, width, height int) string {
	theme := login.theme
	labelStyle := lipgloss.NewStyle().Foreground(theme.FaintText).Width(10)
	focusedLabel := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Width(10)
	label := func(index int, text string) string {
		if index == login.focus {
			return focusedLabel.Render(text)
		}
		return labelStyle.Render(text)
	}

	username := login.username
	username.Width = 28
	password := login.password
	password.Width = 28

	const innerWidth = 44
	wrapped := func(style lipgloss.Style, text string) []string {
		var lines []string
		for _, line := range strings.Split(wrapPlain(text, innerWidth), "\n") {
			lines = append(lines, style.Render(line))
		}
		return lines
	}

	var body []string
	if login.Notice != "" {
		body = append(body, wrapped(lipgloss.NewStyle().Foreground(theme.StatusDisabled), login.Notice)...)
		body = append(body, "")
	}
	body = append(body,
		lipgloss.NewStyle().Foreground(theme.FaintText).Render(server),
		"",
		label(0, "Username")+username.View(),
		label(1, "Password")+password.View(),
	)
	if login.submitting {
		body = append(body, "", spinnerView+" Signing in…")
	} else if login.Err != "" {
		body = append(body, "")
		body = append(body, wrapped(lipgloss.NewStyle().Foreground(theme.ErrorForeground), login.Err)...)
	}

	modal := tui.Modal{
		Title:  "Sign in to flagdash",
		Body:   body,
		Footer: "Enter sign in · Tab next field · Ctrl+C quit",
		Width:  innerWidth,
	}
	lines, anchorX, anchorY := modal.Render(theme, width, height)
	background := strings.TrimRight(strings.Repeat(strings.Repeat(" ", max(width, 1))+"\n", max(height, 1)), "\n")
	return tui.SpliceOverlay(background, lines, anchorX, anchorY)
}
