// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/bureau-foundation/flagdash/lib/featureflag"
	"github.com/bureau-foundation/flagdash/lib/secret"
	"github.com/bureau-foundation/flagdash/lib/session"
)

const (
	testToken    = "token-1"
	testUsername = "admin"
	testPassword = "hunter2"
)

// flagService is an in-memory flag service speaking the REST API.
type flagService struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	flags    []featureflag.Flag
	nextID   int64
	calls    []string
	bodies   map[string]string
	audit    []featureflag.AuditEntry
	forceErr int
}

func newFlagService(t *testing.T) *flagService {
	t.Helper()
	service := &flagService{t: t, nextID: 100, bodies: make(map[string]string)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", service.login)
	mux.HandleFunc("GET /api/v1/flags", service.authenticated(service.list))
	mux.HandleFunc("POST /api/v1/flags", service.authenticated(service.create))
	mux.HandleFunc("POST /api/v1/flags/evaluate", service.authenticated(service.evaluate))
	mux.HandleFunc("GET /api/v1/flags/{id}", service.authenticated(service.get))
	mux.HandleFunc("PUT /api/v1/flags/{id}", service.authenticated(service.update))
	mux.HandleFunc("DELETE /api/v1/flags/{id}", service.authenticated(service.remove))
	mux.HandleFunc("POST /api/v1/flags/{key}/toggle", service.authenticated(service.toggle))
	mux.HandleFunc("GET /api/v1/audit/entity/{type}/{id}", service.authenticated(service.auditLog))

	service.server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body, _ := io.ReadAll(request.Body)
		request.Body = io.NopCloser(bytes.NewReader(body))
		call := request.Method + " " + request.URL.Path
		if request.URL.RawQuery != "" {
			call += "?" + request.URL.RawQuery
		}
		service.mu.Lock()
		service.calls = append(service.calls, call)
		service.bodies[request.Method+" "+request.URL.Path] = string(body)
		service.mu.Unlock()
		mux.ServeHTTP(writer, request)
	}))
	t.Cleanup(service.server.Close)
	return service
}

func (service *flagService) baseURL() string {
	return service.server.URL + "/api/v1"
}

func (service *flagService) recorded() []string {
	service.mu.Lock()
	defer service.mu.Unlock()
	return append([]string(nil), service.calls...)
}

func (service *flagService) body(methodAndPath string) map[string]any {
	service.mu.Lock()
	raw := service.bodies[methodAndPath]
	service.mu.Unlock()
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		service.t.Fatalf("body of %s is not JSON: %q", methodAndPath, raw)
	}
	return decoded
}

func (service *flagService) add(flag featureflag.Flag) {
	service.mu.Lock()
	defer service.mu.Unlock()
	service.flags = append(service.flags, flag)
}

func (service *flagService) failWith(status int) {
	service.mu.Lock()
	defer service.mu.Unlock()
	service.forceErr = status
}

func writeJSON(writer http.ResponseWriter, status int, value any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(value)
}

func (service *flagService) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Authorization") != "Bearer "+testToken {
			writeJSON(writer, http.StatusUnauthorized, map[string]string{"error": "token expired"})
			return
		}
		service.mu.Lock()
		status := service.forceErr
		service.mu.Unlock()
		if status != 0 {
			writeJSON(writer, status, map[string]string{"error": http.StatusText(status), "errorId": "e-1"})
			return
		}
		next(writer, request)
	}
}

func (service *flagService) login(writer http.ResponseWriter, request *http.Request) {
	var credentials featureflag.LoginRequest
	json.NewDecoder(request.Body).Decode(&credentials)
	if credentials.Username != testUsername || credentials.Password != testPassword {
		writeJSON(writer, http.StatusUnauthorized, map[string]string{"error": "bad credentials"})
		return
	}
	writeJSON(writer, http.StatusOK, featureflag.LoginResponse{Token: testToken, Type: "Bearer"})
}

func (service *flagService) list(writer http.ResponseWriter, request *http.Request) {
	environment := featureflag.Environment(request.URL.Query().Get("environment"))
	service.mu.Lock()
	defer service.mu.Unlock()
	flags := []featureflag.Flag{}
	for _, flag := range service.flags {
		if environment == "" || flag.Environment == environment {
			flags = append(flags, flag)
		}
	}
	writeJSON(writer, http.StatusOK, flags)
}

func (service *flagService) find(idText string) (int, bool) {
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		return 0, false
	}
	for index, flag := range service.flags {
		if flag.ID != nil && *flag.ID == id {
			return index, true
		}
	}
	return 0, false
}

func (service *flagService) get(writer http.ResponseWriter, request *http.Request) {
	service.mu.Lock()
	defer service.mu.Unlock()
	index, ok := service.find(request.PathValue("id"))
	if !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"error": "Feature flag not found"})
		return
	}
	writeJSON(writer, http.StatusOK, service.flags[index])
}

func (service *flagService) create(writer http.ResponseWriter, request *http.Request) {
	var flag featureflag.Flag
	json.NewDecoder(request.Body).Decode(&flag)
	service.mu.Lock()
	defer service.mu.Unlock()
	for _, existing := range service.flags {
		if existing.FlagKey == flag.FlagKey && existing.Environment == flag.Environment {
			writeJSON(writer, http.StatusConflict, map[string]string{"error": "Flag key already exists"})
			return
		}
	}
	service.nextID++
	flag.ID = featureflag.Int64(service.nextID)
	flag.Version = featureflag.Int64(0)
	service.flags = append(service.flags, flag)
	writeJSON(writer, http.StatusCreated, flag)
}

func (service *flagService) update(writer http.ResponseWriter, request *http.Request) {
	var flag featureflag.Flag
	json.NewDecoder(request.Body).Decode(&flag)
	service.mu.Lock()
	defer service.mu.Unlock()
	index, ok := service.find(request.PathValue("id"))
	if !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"error": "Feature flag not found"})
		return
	}
	flag.ID = service.flags[index].ID
	service.flags[index] = flag
	writeJSON(writer, http.StatusOK, flag)
}

func (service *flagService) remove(writer http.ResponseWriter, request *http.Request) {
	service.mu.Lock()
	defer service.mu.Unlock()
	index, ok := service.find(request.PathValue("id"))
	if !ok {
		writeJSON(writer, http.StatusNotFound, map[string]string{"error": "Feature flag not found"})
		return
	}
	service.flags = append(service.flags[:index], service.flags[index+1:]...)
	writer.WriteHeader(http.StatusNoContent)
}

func (service *flagService) toggle(writer http.ResponseWriter, request *http.Request) {
	key := request.PathValue("key")
	environment := featureflag.Environment(request.URL.Query().Get("environment"))
	service.mu.Lock()
	defer service.mu.Unlock()
	for index, flag := range service.flags {
		if flag.FlagKey == key && flag.Environment == environment {
			service.flags[index].Enabled = !flag.Enabled
			writeJSON(writer, http.StatusOK, service.flags[index])
			return
		}
	}
	writeJSON(writer, http.StatusNotFound, map[string]string{"error": "Feature flag not found"})
}

func (service *flagService) evaluate(writer http.ResponseWriter, request *http.Request) {
	var evaluation featureflag.EvaluationRequest
	json.NewDecoder(request.Body).Decode(&evaluation)
	service.mu.Lock()
	defer service.mu.Unlock()
	for _, flag := range service.flags {
		if flag.FlagKey == evaluation.FlagKey && flag.Environment == evaluation.Environment {
			reason := "flag disabled"
			if flag.Enabled {
				reason = "rollout"
			}
			writeJSON(writer, http.StatusOK, featureflag.EvaluationResponse{
				FlagKey: flag.FlagKey,
				Enabled: flag.Enabled,
				Reason:  reason,
			})
			return
		}
	}
	writeJSON(writer, http.StatusNotFound, map[string]string{"error": "Feature flag not found"})
}

func (service *flagService) auditLog(writer http.ResponseWriter, request *http.Request) {
	service.mu.Lock()
	defer service.mu.Unlock()
	writeJSON(writer, http.StatusOK, map[string]any{"content": service.audit})
}

// harness runs commands against a flagService with an isolated session
// file and no config file.
type harness struct {
	t           *testing.T
	service     *flagService
	sessionFile string
	input       string
	password    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("FLAGDASH_CONFIG", "")
	t.Setenv("FLAGDASH_SESSION_FILE", "")
	return &harness{
		t:           t,
		service:     newFlagService(t),
		sessionFile: filepath.Join(t.TempDir(), "session.json"),
		password:    testPassword,
	}
}

// signIn writes a valid session.
func (h *harness) signIn() {
	h.t.Helper()
	store := session.NewStore(h.sessionFile, nil)
	err := store.Save(&session.Session{Token: testToken, Username: testUsername, Server: h.service.baseURL()})
	if err != nil {
		h.t.Fatalf("saving session: %v", err)
	}
}

func (h *harness) loadSession() (*session.Session, error) {
	return session.NewStore(h.sessionFile, nil).Load()
}

// connection returns the connection flags for the harness.
func (h *harness) connection() []string {
	return []string{"--server", h.service.baseURL(), "--session-file", h.sessionFile}
}

// run executes args with the connection flags appended and returns
// stdout and the command's error.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	return h.runRaw(append(args, h.connection()...)...)
}

// runRaw executes args exactly as given.
func (h *harness) runRaw(args ...string) (string, error) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	streams := &IO{
		In:       strings.NewReader(h.input),
		Out:      &stdout,
		Err:      &stderr,
		LogLevel: new(slog.LevelVar),
		ReadPassword: func(string) (*secret.Buffer, error) {
			if h.password == "" {
				return nil, errors.New("no password scripted")
			}
			return secret.NewFromString(h.password)
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := Root(streams).Execute(context.Background(), args, logger)
	return stdout.String(), err
}

func sampleFlags() []featureflag.Flag {
	return []featureflag.Flag{
		{
			ID:                featureflag.Int64(7),
			FlagKey:           "new-ui",
			Name:              "New UI",
			Description:       "Redesigned **dashboard**.",
			Environment:       featureflag.Production,
			Enabled:           true,
			RolloutPercentage: 50,
			Version:           featureflag.Int64(3),
		},
		{
			ID:                featureflag.Int64(8),
			FlagKey:           "new-ui",
			Name:              "New UI",
			Environment:       featureflag.Staging,
			RolloutPercentage: 100,
			Version:           featureflag.Int64(1),
		},
		{
			ID:                featureflag.Int64(9),
			FlagKey:           "dark-mode",
			Name:              "Dark mode",
			Environment:       featureflag.Staging,
			Enabled:           true,
			RolloutPercentage: 20,
			Version:           featureflag.Int64(0),
		},
	}
}

func (h *harness) seed() {
	for _, flag := range sampleFlags() {
		h.service.add(flag)
	}
}
