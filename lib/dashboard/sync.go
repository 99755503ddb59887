// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"context"
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/flagdash/lib/featureflag"
	"github.com/bureau-foundation/flagdash/lib/tui"
)

// flagSync sequences list refreshes. Each refresh gets the next
// sequence number and its own context; starting a refresh cancels
// the one before it. It is shared by every copy of the Model.
type flagSync struct {
	sequence uint64
	cancel   context.CancelFunc
}

// begin starts a refresh, cancelling any refresh still in flight.
func (refresh *flagSync) begin(parent context.Context) (uint64, context.Context) {
	refresh.stop()
	refresh.sequence++
	ctx, cancel := context.WithCancel(parent)
	refresh.cancel = cancel
	return refresh.sequence, ctx
}

// current reports whether sequence is the latest issued refresh.
func (refresh *flagSync) current(sequence uint64) bool {
	return sequence == refresh.sequence
}

// stop cancels the refresh in flight, if any.
func (refresh *flagSync) stop() {
	if refresh.cancel != nil {
		refresh.cancel()
		refresh.cancel = nil
	}
}

// loadFlags starts a refresh of the current environment.
func (model *Model) loadFlags() tea.Cmd {
	environment := model.state.Environment()
	sequence, ctx := model.refresh.begin(model.ctx)
	model.loading = true
	client := model.client

	fetch := func() tea.Msg {
		flags, err := client.ListFlags(ctx, environment)
		if flags == nil {
			flags = []featureflag.Flag{}
		}
		return flagsLoadedMsg{
			sequence:    sequence,
			environment: environment,
			flags:       flags,
			err:         err,
		}
	}
	return tea.Batch(fetch, model.startSpinner())
}

// handleFlagsLoaded applies the latest refresh. Stale refreshes are
// dropped; a failed refresh keeps the previous table.
func (model Model) handleFlagsLoaded(message flagsLoadedMsg) (tea.Model, tea.Cmd) {
	if !model.refresh.current(message.sequence) {
		model.logger.Debug("discarding stale flag list",
			"sequence", message.sequence,
			"environment", message.environment,
		)
		return model, nil
	}
	model.refresh.stop()
	model.loading = false

	if model.view == viewLogin {
		return model, nil
	}
	if message.err != nil {
		return model.handleError("refresh failed", message.err)
	}

	now := model.now()
	model.applyFlags(message.environment, message.flags, now)
	if model.heat.HasHot(now) && !model.tickRunning {
		model.tickRunning = true
		return model, scheduleHeatTick()
	}
	return model, nil
}

// applyFlags replaces the table content. Rows that changed since the
// previous refresh of the same environment are ignited.
func (model *Model) applyFlags(environment featureflag.Environment, flags []featureflag.Flag, now time.Time) {
	selectedKey := ""
	if flag, ok := model.selectedFlag(); ok {
		selectedKey = rowIdentity(flag)
	}

	digests := digestFlags(flags)
	if environment == model.loadedEnvironment && model.digests != nil {
		for identity, digest := range digests {
			previous, existed := model.digests[identity]
			switch {
			case !existed:
				model.heat.Ignite(identity, tui.HeatNew, now)
			case previous != digest:
				model.heat.Ignite(identity, tui.HeatPut, now)
			}
		}
	} else {
		model.heat.Reset()
	}

	model.digests = digests
	model.loadedEnvironment = environment
	model.flags = flags
	model.rows = BuildRows(flags)
	model.refilter()
	model.restoreSelection(selectedKey)
	model.refreshDetail()
}

// handleHeatTick re-renders while rows are still glowing.
func (model Model) handleHeatTick() (tea.Model, tea.Cmd) {
	if model.heat.HasHot(model.now()) {
		return model, scheduleHeatTick()
	}
	model.tickRunning = false
	return model, nil
}

func scheduleHeatTick() tea.Cmd {
	return tea.Tick(tui.HeatTickInterval, func(time.Time) tea.Msg {
		return heatTickMsg{}
	})
}

// rowIdentity keys a flag across refreshes: its id, or its key when
// the service sent none.
func rowIdentity(flag featureflag.Flag) string {
	if flag.HasID() {
		return flag.IDString()
	}
	return flag.FlagKey
}

// digestFlags hashes the canonical JSON of each flag.
func digestFlags(flags []featureflag.Flag) map[string][32]byte {
	digests := make(map[string][32]byte, len(flags))
	for _, flag := range flags {
		data, err := json.Marshal(flag)
		if err != nil {
			continue
		}
		digests[rowIdentity(flag)] = blake3.Sum256(data)
	}
	return digests
}
