// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package featureflag

import (
	"fmt"
	"strconv"
)

// Environment is a named deployment scope. A flag belongs to exactly
// one environment; the same key may exist independently in several.
//
// The three constants below are the values the flag service knows
// about, but Environment is an open string type: callers may carry any
// value and it is forwarded to the service verbatim.
type Environment string

const (
	Development Environment = "DEVELOPMENT"
	Staging     Environment = "STAGING"
	Production  Environment = "PRODUCTION"
)

// KnownEnvironments lists the recognized environments in display order.
var KnownEnvironments = []Environment{Development, Staging, Production}

// IsKnown reports whether the environment is one of [KnownEnvironments].
func (environment Environment) IsKnown() bool {
	for _, known := range KnownEnvironments {
		if environment == known {
			return true
		}
	}
	return false
}

// Label returns a short human label ("Development", "Staging", ...).
// Unknown environments are returned unchanged.
func (environment Environment) Label() string {
	switch environment {
	case Development:
		return "Development"
	case Staging:
		return "Staging"
	case Production:
		return "Production"
	default:
		return string(environment)
	}
}

// Flag is the client's copy of a server-owned feature flag record.
// The copy is transient: every list refresh replaces it wholesale.
type Flag struct {
	// ID is assigned by the service on create and never changes. Nil
	// for flags that have not been created yet; omitted from create
	// payloads.
	ID *int64 `json:"id,omitempty"`

	// FlagKey identifies the flag within its environment and addresses
	// the toggle endpoint. Immutable after create.
	FlagKey string `json:"flagKey"`

	Name        string      `json:"name"`
	Description string      `json:"description"`
	Environment Environment `json:"environment"`
	Enabled     bool        `json:"enabled"`

	// DefaultValue is the fallback when rollout evaluation is
	// indeterminate. Its semantics belong to the service.
	DefaultValue bool `json:"defaultValue"`

	// RolloutPercentage is the share of traffic that receives the
	// enabled treatment, 0 through 100. Bounds are enforced by the
	// service.
	RolloutPercentage int `json:"rolloutPercentage"`

	// Server-maintained metadata. Decoded for display; only Version is
	// sent back, so the service can reject edits of a stale copy.
	CreatedBy string     `json:"createdBy,omitempty"`
	CreatedAt *Timestamp `json:"createdAt,omitempty"`
	UpdatedBy string     `json:"updatedBy,omitempty"`
	UpdatedAt *Timestamp `json:"updatedAt,omitempty"`
	Version   *int64     `json:"version,omitempty"`
}

// HasID reports whether the service has assigned an id.
func (flag Flag) HasID() bool {
	return flag.ID != nil
}

// IDString formats the id for display and URL paths. Returns "" when
// no id is assigned.
func (flag Flag) IDString() string {
	if flag.ID == nil {
		return ""
	}
	return strconv.FormatInt(*flag.ID, 10)
}

// RolloutLabel formats the rollout percentage with a "%" suffix.
func (flag Flag) RolloutLabel() string {
	return fmt.Sprintf("%d%%", flag.RolloutPercentage)
}

// StatusLabel returns "Enabled" or "Disabled".
func (flag Flag) StatusLabel() string {
	if flag.Enabled {
		return "Enabled"
	}
	return "Disabled"
}

// Payload returns the writable subset of the flag as sent on create
// and update. The id and server metadata other than Version are
// stripped.
func (flag Flag) Payload() Flag {
	return Flag{
		FlagKey:           flag.FlagKey,
		Name:              flag.Name,
		Description:       flag.Description,
		Environment:       flag.Environment,
		Enabled:           flag.Enabled,
		DefaultValue:      flag.DefaultValue,
		RolloutPercentage: flag.RolloutPercentage,
		Version:           flag.Version,
	}
}

// Int64 returns a pointer to value. Convenience for building flags
// with ids in tests and fixtures.
func Int64(value int64) *int64 {
	return &value
}
