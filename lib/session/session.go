// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session persists the operator's flag-service session: the
// bearer token and the username it was issued to.
//
// The session file is JSON with fixed keys ("token", "username",
// "server"), mode 0600, at $FLAGDASH_SESSION_FILE or
// $XDG_CONFIG_HOME/flagdash/session.json. When the store has an age
// identity, the token is written sealed ("token_sealed") and "token"
// is left empty.
//
// Writes go through a temp file and rename so that a concurrent
// reader, or another flagdash process watching the file, never sees a
// partial session.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/flagdash/lib/sealed"
)

// ErrNoSession is returned by Load when no session is persisted.
var ErrNoSession = errors.New("no flagdash session")

// Session is the persisted login state.
type Session struct {
	// Token is the bearer token. Empty on disk when sealed.
	Token string `json:"token"`

	// Username is the operator the token was issued to.
	Username string `json:"username"`

	// Server is the API base URL that issued the token. A session is
	// only valid against the server it came from.
	Server string `json:"server,omitempty"`

	// SealedToken is the age-encrypted token, base64.
	SealedToken string `json:"token_sealed,omitempty"`
}

// DefaultPath returns the session file location.
func DefaultPath() string {
	if envPath := os.Getenv("FLAGDASH_SESSION_FILE"); envPath != "" {
		return envPath
	}

	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	if configDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "flagdash-session.json")
		}
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	return filepath.Join(configDirectory, "flagdash", "session.json")
}

// Store reads and writes one session file.
type Store struct {
	path     string
	identity *sealed.Identity
}

// NewStore returns a store for path. A nil identity stores the token in
// the clear. The store borrows identity; the caller closes it.
func NewStore(path string, identity *sealed.Identity) *Store {
	return &Store{path: path, identity: identity}
}

// Path returns the session file path.
func (store *Store) Path() string {
	return store.path
}

// Load reads the session. A missing or empty file wraps [ErrNoSession].
func (store *Store) Load() (*Session, error) {
	data, err := os.ReadFile(store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w found at %s; run \"flagdash login\" first", ErrNoSession, store.path)
		}
		return nil, fmt.Errorf("reading session file %s: %w", store.path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: session file %s is empty", ErrNoSession, store.path)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parsing session file %s: %w", store.path, err)
	}

	if session.SealedToken != "" {
		if store.identity == nil {
			return nil, fmt.Errorf("session file %s holds a sealed token but no seal identity is configured", store.path)
		}
		token, err := sealed.Decrypt(session.SealedToken, store.identity)
		if err != nil {
			return nil, fmt.Errorf("unsealing session token: %w", err)
		}
		session.Token = token.String()
		token.Close()
		session.SealedToken = ""
	}

	if session.Token == "" {
		return nil, fmt.Errorf("%w: session file %s has no token", ErrNoSession, store.path)
	}
	return &session, nil
}

// Save writes session, sealing the token if the store has an identity.
func (store *Store) Save(session *Session) error {
	if session == nil || session.Token == "" {
		return fmt.Errorf("refusing to save a session without a token")
	}

	onDisk := *session
	onDisk.SealedToken = ""
	if store.identity != nil {
		ciphertext, err := sealed.Encrypt([]byte(session.Token), store.identity.Recipient)
		if err != nil {
			return fmt.Errorf("sealing session token: %w", err)
		}
		onDisk.Token = ""
		onDisk.SealedToken = ciphertext
	}

	data, err := json.MarshalIndent(&onDisk, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	data = append(data, '\n')

	directory := filepath.Dir(store.path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return fmt.Errorf("creating session directory %s: %w", directory, err)
	}

	temporary, err := os.CreateTemp(directory, ".session-*.json")
	if err != nil {
		return fmt.Errorf("creating temporary session file: %w", err)
	}
	temporaryPath := temporary.Name()
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := temporary.Chmod(0600); err != nil {
		temporary.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("setting session file mode: %w", err)
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(temporaryPath, store.path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("installing session file %s: %w", store.path, err)
	}
	return nil
}

// Clear removes all persisted session state. Clearing an absent
// session is not an error.
func (store *Store) Clear() error {
	if err := os.Remove(store.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file %s: %w", store.path, err)
	}
	return nil
}
