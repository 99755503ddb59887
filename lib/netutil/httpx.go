// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds small HTTP helpers shared by flagdash's API
// client and its tests.
//
// Response reads are bounded at MaxResponseSize so a misbehaving server
// cannot exhaust memory. Requests are tagged with a random request id
// (X-Request-ID) that the service echoes into its logs and error
// bodies.
package netutil

import (
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/google/uuid"
)

// MaxResponseSize bounds API response body reads: 32 MB. Flag lists and
// audit pages are orders of magnitude smaller.
const MaxResponseSize int64 = 32 << 20

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// ReadResponse reads an API response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return data, nil
}

// IsJSON reports whether a Content-Type header value names a JSON
// media type ("application/json", "application/problem+json", ...).
// Parameters such as charset are ignored.
func IsJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// NewRequestID returns a fresh random request id.
func NewRequestID() string {
	return uuid.NewString()
}
