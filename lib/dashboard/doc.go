// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dashboard implements flagdash's interactive terminal
// dashboard: a bubbletea program that lists the feature flags of one
// environment and lets an operator create, edit, toggle and delete
// them.
//
// Every mutation follows the same cycle: issue the request, wait for
// the answer, then re-fetch the list for the current environment and
// replace the table wholesale. There is no optimistic update and no
// local cache. List refreshes are sequenced: each one cancels the
// previous request, and a response that is not from the latest
// refresh is discarded.
//
// The [Guard] ties the persisted session to the API client. Without a
// session the only view is the login form. Any 401 or 403 from the
// service clears the session and returns to it.
//
// [Model] depends on the [FlagAPI] interface rather than the concrete
// client so tests can drive it with an in-memory service.
package dashboard
