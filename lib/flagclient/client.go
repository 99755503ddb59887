// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flagclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/flagdash/lib/netutil"
	"github.com/bureau-foundation/flagdash/lib/secret"
)

// DefaultBaseURL is the service's API root when nothing is configured.
const DefaultBaseURL = "http://localhost:8080/api/v1"

// Config holds the parameters for creating a Client.
type Config struct {
	// BaseURL is the API root, e.g. "https://flags.example.com/api/v1".
	// A trailing slash is ignored.
	BaseURL string

	// HTTPClient is the underlying transport. Defaults to
	// http.DefaultClient. No timeout is added: requests live as long
	// as the caller's context.
	HTTPClient *http.Client

	// Logger receives one debug record per request. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// OnUnauthorized runs whenever an authenticated request receives
	// 401 or 403, before the error is returned. The session guard uses
	// it to clear the persisted session. It may run on any goroutine
	// and must be safe for concurrent use.
	OnUnauthorized func()
}

// Client issues authenticated JSON requests against the flag service.
// It is safe for concurrent use.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	logger         *slog.Logger
	onUnauthorized func()

	tokenMu sync.RWMutex
	token   *secret.Buffer
}

// New creates a Client. The client starts without a token; call
// SetToken once a session is available.
func New(config Config) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("flagclient: invalid BaseURL %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("flagclient: BaseURL %q must be http or https", baseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     httpClient,
		logger:         logger,
		onUnauthorized: config.OnUnauthorized,
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken replaces the bearer token. An empty token clears it.
func (c *Client) SetToken(token string) error {
	var buffer *secret.Buffer
	if token != "" {
		var err error
		buffer, err = secret.NewFromString(token)
		if err != nil {
			return fmt.Errorf("flagclient: protecting token: %w", err)
		}
	}

	c.tokenMu.Lock()
	previous := c.token
	c.token = buffer
	c.tokenMu.Unlock()

	if previous != nil {
		previous.Close()
	}
	return nil
}

// HasToken reports whether a bearer token is set.
func (c *Client) HasToken() bool {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token != nil
}

// Close releases the token memory.
func (c *Client) Close() error {
	return c.SetToken("")
}

// Response describes a successful call.
type Response struct {
	StatusCode int

	// Decoded is true when the body was JSON and was decoded into the
	// caller's result. A success without a JSON body is still a
	// success: the boolean sentinel of the call.
	Decoded bool

	RequestID string
}

// Call issues method against path (relative to the base URL), with an
// optional query and JSON body. On a 2xx JSON response the body is
// decoded into result when result is non-nil.
//
// A 401 or 403 runs the unauthorized hook and returns an [APIError]
// matching [ErrUnauthorized]. Any other non-2xx returns an [APIError].
// Nothing is retried.
func (c *Client) Call(ctx context.Context, method, path string, query url.Values, body, result any) (Response, error) {
	return c.do(ctx, method, path, query, body, result, true)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any, authenticated bool) (Response, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Response{}, fmt.Errorf("flagclient: marshaling %s %s body: %w", method, path, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return Response{}, fmt.Errorf("flagclient: building %s %s: %w", method, path, err)
	}
	requestID := netutil.NewRequestID()
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	request.Header.Set(netutil.RequestIDHeader, requestID)
	if authenticated {
		c.tokenMu.RLock()
		if c.token != nil {
			request.Header.Set("Authorization", "Bearer "+c.token.String())
		}
		c.tokenMu.RUnlock()
	}

	started := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		return Response{}, fmt.Errorf("flagclient: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return Response{}, fmt.Errorf("flagclient: %s %s: %w", method, path, err)
	}

	c.logger.Debug("flag api request",
		"method", method,
		"path", path,
		"status", response.StatusCode,
		"request_id", requestID,
		"duration", time.Since(started),
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		message, errorID := parseErrorBody(responseBody)
		apiErr := &APIError{
			StatusCode: response.StatusCode,
			Method:     method,
			Path:       path,
			Message:    message,
			ErrorID:    errorID,
			RequestID:  requestID,
		}
		if authenticated && apiErr.Unauthorized() && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return Response{}, apiErr
	}

	outcome := Response{StatusCode: response.StatusCode, RequestID: requestID}
	if !netutil.IsJSON(response.Header.Get("Content-Type")) || len(bytes.TrimSpace(responseBody)) == 0 {
		return outcome, nil
	}
	if result != nil {
		if err := json.Unmarshal(responseBody, result); err != nil {
			return Response{}, fmt.Errorf("flagclient: decoding %s %s response: %w", method, path, err)
		}
	}
	outcome.Decoded = true
	return outcome, nil
}
