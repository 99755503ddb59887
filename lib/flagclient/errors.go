// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flagclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// ErrUnauthorized matches any [APIError] with status 401 or 403:
//
//	if errors.Is(err, flagclient.ErrUnauthorized) { ... }
//
// By the time a caller sees it, the client's unauthorized hook has
// already run.
var ErrUnauthorized = errors.New("flagclient: session rejected by server")

// APIError is a non-2xx response from the flag service. Callers use
// errors.As to inspect it:
//
//	var apiErr *flagclient.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict { ... }
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Method and Path identify the request, relative to the base URL.
	Method string
	Path   string

	// Message is the service's "error" field, a flattened field-error
	// map, or the raw body when the body was not JSON.
	Message string

	// ErrorID is the service's correlation id for 5xx errors, if any.
	ErrorID string

	// RequestID is the X-Request-ID this client sent.
	RequestID string
}

func (e *APIError) Error() string {
	status := fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	var message strings.Builder
	fmt.Fprintf(&message, "flagclient: %s %s: %s", e.Method, e.Path, strings.TrimSpace(status))
	if e.Message != "" {
		message.WriteString(": ")
		message.WriteString(e.Message)
	}
	if e.ErrorID != "" {
		fmt.Fprintf(&message, " (error id %s)", e.ErrorID)
	}
	return message.String()
}

// Unauthorized reports whether the service rejected the credentials.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Is makes errors.Is(err, ErrUnauthorized) true for 401 and 403.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Unauthorized()
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not
// an [APIError].
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// errorBody is the service's error envelope.
type errorBody struct {
	Error   string `json:"error"`
	ErrorID string `json:"errorId"`
	Message string `json:"message"`
}

// parseErrorBody extracts a message and error id from a response body.
// Validation failures arrive as a bare map of field to message and are
// flattened as "field: message; field: message" in field order.
func parseErrorBody(body []byte) (message, errorID string) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", ""
	}

	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != "" {
			return envelope.Error, envelope.ErrorID
		}
		if envelope.Message != "" {
			return envelope.Message, envelope.ErrorID
		}
	}

	var fields map[string]string
	if err := json.Unmarshal(body, &fields); err == nil && len(fields) > 0 {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, name+": "+fields[name])
		}
		return strings.Join(parts, "; "), ""
	}

	// Cut by display width so a multi-byte character is never split.
	const maxRawMessage = 200
	return ansi.Truncate(trimmed, maxRawMessage, "..."), ""
}
