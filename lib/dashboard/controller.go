// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/flagdash/lib/featureflag"
)

// confirmState is the pending delete awaiting confirmation.
type confirmState struct {
	id          int64
	flagKey     string
	environment featureflag.Environment
}

// ShowCreate opens an empty create form preset to the current
// environment and a 100% rollout.
func (model *Model) ShowCreate() {
	form := NewCreateForm(model.theme, model.state.Environments(), model.state.Environment())
	model.form = &form
}

// EditFlag fetches flag id and opens the edit form when it arrives.
func (model *Model) EditFlag(id int64) tea.Cmd {
	ctx := model.ctx
	client := model.client
	return func() tea.Msg {
		flag, err := client.GetFlag(ctx, id)
		return flagFetchedMsg{id: id, flag: flag, err: err}
	}
}

// Submit sends the open form: POST without a bound id, PUT to the
// bound id otherwise. The form stays open until the result arrives.
func (model *Model) Submit() tea.Cmd {
	if model.form == nil {
		return nil
	}
	model.form.Err = ""
	payload := model.form.Payload()
	ctx := model.ctx
	client := model.client

	if id, bound := model.form.BoundID(); bound {
		return func() tea.Msg {
			_, err := client.UpdateFlag(ctx, id, payload)
			return mutationResultMsg{op: opUpdate, flagKey: payload.FlagKey, err: err}
		}
	}
	return func() tea.Msg {
		_, err := client.CreateFlag(ctx, payload)
		return mutationResultMsg{op: opCreate, flagKey: payload.FlagKey, err: err}
	}
}

// Toggle flips flagKey in the current environment.
func (model *Model) Toggle(flagKey string) tea.Cmd {
	environment := model.state.Environment()
	ctx := model.ctx
	client := model.client
	return func() tea.Msg {
		_, err := client.ToggleFlag(ctx, flagKey, environment)
		return mutationResultMsg{op: opToggle, flagKey: flagKey, err: err}
	}
}

// Delete asks for confirmation before deleting flag id. Nothing is
// sent until the operator confirms.
func (model *Model) Delete(flag featureflag.Flag) {
	if !flag.HasID() {
		return
	}
	model.confirm = &confirmState{
		id:          *flag.ID,
		flagKey:     flag.FlagKey,
		environment: flag.Environment,
	}
}

// ConfirmDelete sends the pending delete.
func (model *Model) ConfirmDelete() tea.Cmd {
	pending := model.confirm
	model.confirm = nil
	if pending == nil {
		return nil
	}
	ctx := model.ctx
	client := model.client
	return func() tea.Msg {
		err := client.DeleteFlag(ctx, pending.id)
		return mutationResultMsg{op: opDelete, flagKey: pending.flagKey, err: err}
	}
}

// DeclineDelete drops the pending delete without a request.
func (model *Model) DeclineDelete() {
	model.confirm = nil
}

// ChangeEnvironment switches environments and refreshes.
func (model *Model) ChangeEnvironment(environment featureflag.Environment) tea.Cmd {
	model.state.SetEnvironment(environment)
	model.cursor = 0
	model.offset = 0
	model.detail = nil
	if model.view == viewDetail {
		model.view = viewTable
	}
	model.heat.Reset()
	return model.loadFlags()
}

// Logout clears the session and returns to the login view.
func (model *Model) Logout() tea.Cmd {
	guard := model.guard
	model.signOut("Signed out.")
	return func() tea.Msg {
		return logoutResultMsg{err: guard.Logout()}
	}
}

// handleFlagFetched opens the edit form for a fetched flag.
func (model Model) handleFlagFetched(message flagFetchedMsg) (tea.Model, tea.Cmd) {
	if model.view == viewLogin {
		return model, nil
	}
	if message.err != nil {
		return model.handleError(fmt.Sprintf("loading flag %d", message.id), message.err)
	}
	form := NewEditForm(model.theme, model.state.Environments(), message.flag)
	model.form = &form
	return model, nil
}

// handleMutationResult refreshes once after a successful mutation.
// A failed form submit keeps the form open with the error.
func (model Model) handleMutationResult(message mutationResultMsg) (tea.Model, tea.Cmd) {
	if model.view == viewLogin {
		return model, nil
	}
	if message.err != nil {
		model.logger.Debug("flag mutation failed",
			"op", message.op.String(),
			"flag_key", message.flagKey,
			"error", message.err,
		)
		formOp := message.op == opCreate || message.op == opUpdate
		if formOp && model.form != nil && !isUnauthorized(message.err) {
			model.form.Err = message.err.Error()
			return model, nil
		}
		return model.handleError(message.op.String()+" "+message.flagKey+" failed", message.err)
	}

	if message.op == opCreate || message.op == opUpdate {
		model.form = nil
	}
	fade := model.setStatus(mutationNotice(message.op, message.flagKey), statusInfo)
	return model, tea.Batch(model.loadFlags(), fade)
}

func mutationNotice(op mutationOp, flagKey string) string {
	switch op {
	case opCreate:
		return "Created " + flagKey
	case opUpdate:
		return "Saved " + flagKey
	case opToggle:
		return "Toggled " + flagKey
	case opDelete:
		return "Deleted " + flagKey
	default:
		return "Done"
	}
}
