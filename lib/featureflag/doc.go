// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package featureflag defines the wire types exchanged with the flag
// service: [Flag] records, [Environment] scopes, login, evaluation and
// audit payloads.
//
// Invariants on flags (rollout in 0..100, flagKey unique per
// environment) are owned by the service. This package carries values
// without re-validating them.
package featureflag
