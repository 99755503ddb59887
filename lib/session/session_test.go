// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/flagdash/lib/sealed"
)

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "session.json"), nil)
	original := &Session{Token: "jwt-token", Username: "admin", Server: "http://localhost:8080/api/v1"}

	if err := store.Save(original); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(original, loaded); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_FileFormatAndPermissions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewStore(path, nil)
	if err := store.Save(&Session{Token: "abc", Username: "ops"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %o, want 0600", info.Mode().Perm())
	}
	directoryInfo, err := os.Stat(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if directoryInfo.Mode().Perm() != 0700 {
		t.Errorf("directory mode = %o, want 0700", directoryInfo.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("session file lacks a trailing newline")
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("session file is not JSON: %v", err)
	}
	if fields["token"] != "abc" || fields["username"] != "ops" {
		t.Errorf("fields = %v", fields)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "absent.json"), nil)
	_, err := store.Load()
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
	if !strings.Contains(err.Error(), "flagdash login") {
		t.Errorf("error %q does not point at flagdash login", err)
	}
}

func TestStore_LoadWithoutToken(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte(`{"token":"","username":"admin"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(path, nil).Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestStore_LoadCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := NewStore(path, nil).Load()
	if err == nil || errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want a parse error", err)
	}
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "session.json"), nil)
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear on absent session: %v", err)
	}
	if err := store.Save(&Session{Token: "t", Username: "u"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Load after Clear: err = %v, want ErrNoSession", err)
	}
}

func TestStore_SaveRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "session.json"), nil)
	if err := store.Save(&Session{Username: "u"}); err == nil {
		t.Fatal("Save accepted a session without a token")
	}
}

func TestStore_Sealed(t *testing.T) {
	t.Parallel()

	identity, err := sealed.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	defer identity.Close()

	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(path, identity)
	if err := store.Save(&Session{Token: "plaintext-token", Username: "admin"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "plaintext-token") {
		t.Fatalf("sealed session file contains the token: %s", data)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Token != "plaintext-token" || loaded.SealedToken != "" {
		t.Errorf("loaded = %+v", loaded)
	}

	if _, err := NewStore(path, nil).Load(); err == nil {
		t.Error("Load of a sealed session without an identity succeeded")
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("FLAGDASH_SESSION_FILE", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := DefaultPath(); got != "/xdg/flagdash/session.json" {
		t.Errorf("DefaultPath() = %q", got)
	}

	t.Setenv("FLAGDASH_SESSION_FILE", "/explicit/session.json")
	if got := DefaultPath(); got != "/explicit/session.json" {
		t.Errorf("DefaultPath() = %q with FLAGDASH_SESSION_FILE set", got)
	}
}
