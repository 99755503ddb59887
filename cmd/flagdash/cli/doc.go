// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for flagdash.
//
// The central type is [Command], a named command with optional nested
// [Command.Subcommands], a [pflag.FlagSet] factory and a Run function.
// The command tree is assembled in cmd/flagdash/commands and
// dispatched via [Command.Execute], which parses flags, routes
// subcommands and prints structured help with examples.
//
// An unknown subcommand or flag is answered with the closest known
// name by Levenshtein distance (at most 3), see suggest.go.
//
// Commands report failures as [ToolError] values whose category
// (validation, not_found, forbidden, conflict, transient, internal)
// tells scripts whether retrying can help, and [ExitError] for handled
// non-zero exits. Parameter structs declare flags with struct tags
// (see [BindFlags]) and embed [JSONOutput] for --json support.
package cli
