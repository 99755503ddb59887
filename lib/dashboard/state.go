// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"slices"

	"github.com/bureau-foundation/flagdash/lib/featureflag"
)

// State holds the dashboard's shared selection state: the current
// environment and the environments the selector offers. It is owned
// by the bubbletea update loop and is not safe for concurrent use.
type State struct {
	environment  featureflag.Environment
	environments []featureflag.Environment
}

// NewState creates a State. An empty environment list falls back to
// the three known environments; an empty initial environment to the
// first listed one. The initial environment need not be listed.
func NewState(initial featureflag.Environment, environments []featureflag.Environment) *State {
	if len(environments) == 0 {
		environments = slices.Clone(featureflag.KnownEnvironments)
	}
	if initial == "" {
		initial = environments[0]
	}
	return &State{
		environment:  initial,
		environments: slices.Clone(environments),
	}
}

// Environment returns the current environment.
func (state *State) Environment() featureflag.Environment {
	return state.environment
}

// SetEnvironment overwrites the current environment. Values are not
// validated: unknown environments are sent to the service verbatim.
func (state *State) SetEnvironment(environment featureflag.Environment) {
	state.environment = environment
}

// Environments returns the selectable environments in display order.
func (state *State) Environments() []featureflag.Environment {
	return slices.Clone(state.environments)
}

// EnvironmentAt returns the environment at a zero-based selector
// position.
func (state *State) EnvironmentAt(index int) (featureflag.Environment, bool) {
	if index < 0 || index >= len(state.environments) {
		return "", false
	}
	return state.environments[index], true
}
