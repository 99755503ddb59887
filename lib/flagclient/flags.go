// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flagclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bureau-foundation/flagdash/lib/featureflag"
	"github.com/bureau-foundation/flagdash/lib/secret"
)

// ListFlags returns the flags in environment. An empty environment
// omits the filter. A null or empty response is an empty slice.
func (c *Client) ListFlags(ctx context.Context, environment featureflag.Environment) ([]featureflag.Flag, error) {
	var query url.Values
	if environment != "" {
		query = url.Values{"environment": {string(environment)}}
	}
	var flags []featureflag.Flag
	if _, err := c.Call(ctx, http.MethodGet, "/flags", query, nil, &flags); err != nil {
		return nil, err
	}
	if flags == nil {
		flags = []featureflag.Flag{}
	}
	return flags, nil
}

// GetFlag fetches one flag by id.
func (c *Client) GetFlag(ctx context.Context, id int64) (featureflag.Flag, error) {
	var flag featureflag.Flag
	response, err := c.Call(ctx, http.MethodGet, flagPath(id), nil, nil, &flag)
	if err != nil {
		return featureflag.Flag{}, err
	}
	if !response.Decoded {
		return featureflag.Flag{}, fmt.Errorf("flagclient: GET %s returned no flag", flagPath(id))
	}
	return flag, nil
}

// CreateFlag creates flag. The id and server metadata are never sent.
// Returns the created record when the service echoes one.
func (c *Client) CreateFlag(ctx context.Context, flag featureflag.Flag) (featureflag.Flag, error) {
	var created featureflag.Flag
	if _, err := c.Call(ctx, http.MethodPost, "/flags", nil, flag.Payload(), &created); err != nil {
		return featureflag.Flag{}, err
	}
	return created, nil
}

// UpdateFlag replaces the writable fields of flag id.
func (c *Client) UpdateFlag(ctx context.Context, id int64, flag featureflag.Flag) (featureflag.Flag, error) {
	var updated featureflag.Flag
	if _, err := c.Call(ctx, http.MethodPut, flagPath(id), nil, flag.Payload(), &updated); err != nil {
		return featureflag.Flag{}, err
	}
	return updated, nil
}

// ToggleFlag flips the enabled state of the flag addressed by key and
// environment. Returns the toggled record if the service sends one,
// nil otherwise.
func (c *Client) ToggleFlag(ctx context.Context, flagKey string, environment featureflag.Environment) (*featureflag.Flag, error) {
	path := "/flags/" + url.PathEscape(flagKey) + "/toggle"
	query := url.Values{"environment": {string(environment)}}
	var toggled featureflag.Flag
	response, err := c.Call(ctx, http.MethodPost, path, query, nil, &toggled)
	if err != nil {
		return nil, err
	}
	if !response.Decoded {
		return nil, nil
	}
	return &toggled, nil
}

// DeleteFlag deletes flag id.
func (c *Client) DeleteFlag(ctx context.Context, id int64) error {
	_, err := c.Call(ctx, http.MethodDelete, flagPath(id), nil, nil, nil)
	return err
}

// Evaluate asks the service whether a flag is on for a user.
func (c *Client) Evaluate(ctx context.Context, request featureflag.EvaluationRequest) (featureflag.EvaluationResponse, error) {
	if request.FlagKey == "" {
		return featureflag.EvaluationResponse{}, fmt.Errorf("flagclient: flag key is required for evaluation")
	}
	var result featureflag.EvaluationResponse
	if _, err := c.Call(ctx, http.MethodPost, "/flags/evaluate", nil, request, &result); err != nil {
		return featureflag.EvaluationResponse{}, err
	}
	return result, nil
}

// Login exchanges credentials for a bearer token. It does not set the
// token on the client and a rejected login does not run the
// unauthorized hook.
func (c *Client) Login(ctx context.Context, username string, password *secret.Buffer) (featureflag.LoginResponse, error) {
	if username == "" {
		return featureflag.LoginResponse{}, fmt.Errorf("flagclient: username is required for login")
	}
	if password == nil || password.Len() == 0 {
		return featureflag.LoginResponse{}, fmt.Errorf("flagclient: password is required for login")
	}

	request := featureflag.LoginRequest{Username: username, Password: password.String()}
	var result featureflag.LoginResponse
	if _, err := c.do(ctx, http.MethodPost, "/auth/login", nil, request, &result, false); err != nil {
		return featureflag.LoginResponse{}, err
	}
	if result.Token == "" {
		return featureflag.LoginResponse{}, fmt.Errorf("flagclient: login response carried no token")
	}
	return result, nil
}

// AuditLog returns the newest size entries recorded for an entity.
// Only the first page is fetched.
func (c *Client) AuditLog(ctx context.Context, entityType, entityID string, size int) ([]featureflag.AuditEntry, error) {
	if size <= 0 {
		size = 20
	}
	path := "/audit/entity/" + url.PathEscape(entityType) + "/" + url.PathEscape(entityID)
	query := url.Values{
		"size": {strconv.Itoa(size)},
		"sort": {"timestamp,desc"},
	}

	var raw json.RawMessage
	response, err := c.Call(ctx, http.MethodGet, path, query, nil, &raw)
	if err != nil {
		return nil, err
	}
	entries := []featureflag.AuditEntry{}
	if !response.Decoded {
		return entries, nil
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("flagclient: decoding audit entries: %w", err)
		}
		return entries, nil
	}
	var page struct {
		Content []featureflag.AuditEntry `json:"content"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("flagclient: decoding audit page: %w", err)
	}
	if page.Content != nil {
		entries = page.Content
	}
	return entries, nil
}

func flagPath(id int64) string {
	return "/flags/" + strconv.FormatInt(id, 10)
}
