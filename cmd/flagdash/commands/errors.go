// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/bureau-foundation/flagdash/cmd/flagdash/cli"
	"github.com/bureau-foundation/flagdash/lib/flagclient"
)

// apiFailure categorizes an error from the flag client. action is a
// lowercase gerund phrase ("toggling new-ui") used as the message
// prefix.
func apiFailure(action string, err error) error {
	var apiErr *flagclient.APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) {
			return err
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) {
			return cli.Transient("%s: %w", action, err).
				WithHint("Check that the flag service is reachable (--server or server.base_url).")
		}
		return cli.Internal("%s: %w", action, err)
	}

	switch {
	case apiErr.Unauthorized():
		return cli.Forbidden("%s: %w", action, err).
			WithHint("The session was rejected and has been cleared. " + loginHint)
	case apiErr.StatusCode == http.StatusNotFound:
		return cli.NotFound("%s: %w", action, err)
	case apiErr.StatusCode == http.StatusConflict:
		return cli.Conflict("%s: %w", action, err)
	case apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnprocessableEntity:
		return cli.Validation("%s: %w", action, err)
	case apiErr.StatusCode >= 500:
		return cli.Transient("%s: %w", action, err)
	default:
		return cli.Internal("%s: %w", action, err)
	}
}
