// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package flagclient is the HTTP client for the feature-flag service.
//
// [Client.Call] is the single request path: it attaches the bearer
// token and JSON headers, serializes the body, and classifies the
// response. JSON 2xx bodies are decoded; any other 2xx is a bare
// success. A 401 or 403 on an authenticated request runs the
// configured unauthorized hook and returns an [APIError] that matches
// [ErrUnauthorized]. Every other non-2xx status is an [APIError].
//
// Typed operations wrap Call for each endpoint: [Client.ListFlags],
// [Client.GetFlag], [Client.CreateFlag], [Client.UpdateFlag],
// [Client.ToggleFlag], [Client.DeleteFlag], [Client.Evaluate],
// [Client.Login] and [Client.AuditLog].
//
// The client never retries and adds no timeout of its own.
package flagclient
