// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/flagdash/lib/session"
)

// TokenHolder receives the bearer token of the active session.
type TokenHolder interface {
	SetToken(token string) error
}

// Guard keeps the persisted session and the API client's token in
// step. Its [Guard.HandleUnauthorized] method is the client's
// unauthorized hook, so a rejected token is forgotten no matter which
// caller made the request. Methods are safe for concurrent use.
type Guard struct {
	store  SessionStore
	server string
	logger *slog.Logger

	mu     sync.Mutex
	tokens TokenHolder

	// expired is set when the service rejected the token, so the
	// dashboard can tell an expiry from a logout elsewhere.
	expired atomic.Bool
}

// NewGuard creates a Guard over store. server is recorded in sessions
// established through the guard. A nil logger uses slog.Default().
func NewGuard(store SessionStore, server string, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{store: store, server: server, logger: logger}
}

// Bind sets the client whose token the guard manages. The client is
// usually created after the guard because the guard's hook is part of
// the client's configuration.
func (guard *Guard) Bind(tokens TokenHolder) {
	guard.mu.Lock()
	defer guard.mu.Unlock()
	guard.tokens = tokens
}

// Restore loads the persisted session and installs its token. It
// returns (nil, nil) when there is no session. An unreadable session
// file is reported as an error and also leaves the operator signed
// out.
func (guard *Guard) Restore() (*session.Session, error) {
	current, err := guard.store.Load()
	if errors.Is(err, session.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if guard.server != "" && current.Server != "" && current.Server != guard.server {
		guard.logger.Warn("session was issued by a different server",
			"session_server", current.Server,
			"server", guard.server,
		)
	}
	if err := guard.setToken(current.Token); err != nil {
		return nil, err
	}
	return current, nil
}

// Establish persists a new session and installs its token.
func (guard *Guard) Establish(current *session.Session) error {
	if current.Server == "" {
		current.Server = guard.server
	}
	if err := guard.store.Save(current); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return guard.setToken(current.Token)
}

// Adopt installs the token of a session another process saved,
// without writing it back.
func (guard *Guard) Adopt(current *session.Session) error {
	return guard.setToken(current.Token)
}

// Forget clears the client's token without touching the store, after
// another process removed the session.
func (guard *Guard) Forget() error {
	return guard.setToken("")
}

// ConsumeExpired reports whether the session was cleared because the
// service rejected it since the last call.
func (guard *Guard) ConsumeExpired() bool {
	return guard.expired.Swap(false)
}

// Logout clears the persisted session and the client's token.
func (guard *Guard) Logout() error {
	tokenErr := guard.setToken("")
	if err := guard.store.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return tokenErr
}

// HandleUnauthorized forgets the session after the service rejected
// its token. It is installed as the client's unauthorized hook and
// may run on any goroutine.
func (guard *Guard) HandleUnauthorized() {
	guard.logger.Warn("service rejected the session token, signing out")
	guard.expired.Store(true)
	if err := guard.Logout(); err != nil {
		guard.logger.Error("clearing rejected session", "error", err)
	}
}

func (guard *Guard) setToken(token string) error {
	guard.mu.Lock()
	tokens := guard.tokens
	guard.mu.Unlock()
	if tokens == nil {
		return nil
	}
	return tokens.SetToken(token)
}
