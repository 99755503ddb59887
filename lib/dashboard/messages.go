// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/flagdash/lib/featureflag"
	"github.com/bureau-foundation/flagdash/lib/session"
)

// flagsLoadedMsg carries the result of one list refresh. Only the
// message whose sequence matches the latest issued refresh is applied.
type flagsLoadedMsg struct {
	sequence    uint64
	environment featureflag.Environment
	flags       []featureflag.Flag
	err         error
}

// flagFetchedMsg carries a single flag fetched for the edit form.
type flagFetchedMsg struct {
	id   int64
	flag featureflag.Flag
	err  error
}

// mutationOp names the request a mutationResultMsg answers.
type mutationOp int

const (
	opCreate mutationOp = iota
	opUpdate
	opToggle
	opDelete
)

func (op mutationOp) String() string {
	switch op {
	case opCreate:
		return "create"
	case opUpdate:
		return "update"
	case opToggle:
		return "toggle"
	case opDelete:
		return "delete"
	default:
		return "mutation"
	}
}

// mutationResultMsg is sent when a create, update, toggle or delete
// request completes. Success triggers exactly one refresh.
type mutationResultMsg struct {
	op      mutationOp
	flagKey string
	err     error
}

// auditLoadedMsg carries the change history for the detail view.
type auditLoadedMsg struct {
	flagID  string
	entries []featureflag.AuditEntry
	err     error
}

// loginResultMsg is sent when a login attempt completes.
type loginResultMsg struct {
	session *session.Session
	err     error
}

// logoutResultMsg is sent when the session has been cleared.
type logoutResultMsg struct {
	err error
}

// sessionChangedMsg reports that another process changed the
// persisted session.
type sessionChangedMsg struct {
	change session.Change
}

// SessionChanged wraps a session watcher event for delivery to the
// program with Send.
func SessionChanged(change session.Change) tea.Msg {
	return sessionChangedMsg{change: change}
}

// heatTickMsg drives the change-highlight decay.
type heatTickMsg struct{}

// statusFadeMsg clears the status message it was scheduled for,
// unless a newer message has replaced it.
type statusFadeMsg struct {
	id int
}

// logRecordMsg delivers a slog record to the status bar.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}
