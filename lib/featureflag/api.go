// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package featureflag

import (
	"fmt"
	"strings"
	"time"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token issued by the service.
type LoginResponse struct {
	Token string `json:"token"`
	Type  string `json:"type"`
}

// EvaluationRequest asks the service whether a flag is on for a user.
// An empty Environment is sent as "default", which the service resolves
// on its side.
type EvaluationRequest struct {
	FlagKey     string      `json:"flagKey"`
	Environment Environment `json:"environment,omitempty"`
	UserID      string      `json:"userId,omitempty"`
}

// EvaluationResponse is the service's verdict for an evaluation.
type EvaluationResponse struct {
	FlagKey string `json:"flagKey"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason"`
}

// AuditEntry is one row of a flag's change history.
type AuditEntry struct {
	ID         int64     `json:"id"`
	EntityType string    `json:"entityType"`
	EntityID   int64     `json:"entityId"`
	Action     string    `json:"action"`
	UserID     string    `json:"userId"`
	UserEmail  string    `json:"userEmail,omitempty"`
	Changes    string    `json:"changes,omitempty"`
	Timestamp  Timestamp `json:"timestamp"`
	IPAddress  string    `json:"ipAddress,omitempty"`
}

// AuditEntityType is the entity type the service records flag changes
// under.
const AuditEntityType = "FeatureFlag"

// Timestamp decodes the service's timestamps, which may be RFC 3339 or
// a zone-less local date-time ("2006-01-02T15:04:05.000"). Zone-less
// values are interpreted as UTC.
type Timestamp struct {
	time.Time
}

const localDateTimeLayout = "2006-01-02T15:04:05.999999999"

// UnmarshalJSON accepts both timestamp shapes and null.
func (timestamp *Timestamp) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	if text == "null" || text == "" {
		timestamp.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, text); err == nil {
		timestamp.Time = parsed
		return nil
	}
	parsed, err := time.ParseInLocation(localDateTimeLayout, text, time.UTC)
	if err != nil {
		return fmt.Errorf("parsing timestamp %q: %w", text, err)
	}
	timestamp.Time = parsed
	return nil
}

// MarshalJSON always emits RFC 3339.
func (timestamp Timestamp) MarshalJSON() ([]byte, error) {
	if timestamp.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + timestamp.Format(time.RFC3339Nano) + `"`), nil
}
