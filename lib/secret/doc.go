// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret keeps credentials (the operator's password during
// login, the service bearer token afterwards) in memory the Go runtime
// never sees.
//
// [Buffer] allocates with mmap(MAP_ANONYMOUS), mlocks the region so it
// cannot be swapped, and marks it MADV_DONTDUMP. Close zeros, unlocks
// and unmaps it. Values cross into ordinary strings only at API
// boundaries that demand a string (HTTP headers, the age parser).
//
// Constructors:
//
//   - [New] allocates a zero-filled buffer
//   - [NewFromBytes] copies into protected memory and zeros the source
//   - [NewFromString] copies a string (the string itself cannot be zeroed)
//   - [ReadFromPath] reads a file or stdin, trimming whitespace
package secret
