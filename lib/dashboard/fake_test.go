// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/flagdash/lib/featureflag"
	"github.com/bureau-foundation/flagdash/lib/flagclient"
	"github.com/bureau-foundation/flagdash/lib/secret"
	"github.com/bureau-foundation/flagdash/lib/session"
)

// fakeAPI is an in-memory flag service. It records one line per call
// and behaves like the real client on 401/403: the unauthorized hook
// runs before the error is returned.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string
	token string

	flags map[featureflag.Environment][]featureflag.Flag
	audit []featureflag.AuditEntry

	listErr   error
	mutateErr error
	auditErr  error
	loginErr  error

	created     featureflag.Flag
	updated     featureflag.Flag
	loginToken  string
	unauthorize func()
}

func newFakeAPI(flags ...featureflag.Flag) *fakeAPI {
	api := &fakeAPI{
		flags:      make(map[featureflag.Environment][]featureflag.Flag),
		loginToken: "token-from-login",
	}
	for _, flag := range flags {
		api.flags[flag.Environment] = append(api.flags[flag.Environment], flag)
	}
	return api
}

func (api *fakeAPI) record(format string, args ...any) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.calls = append(api.calls, fmt.Sprintf(format, args...))
}

func (api *fakeAPI) fail(err error) error {
	if err != nil && errors.Is(err, flagclient.ErrUnauthorized) && api.unauthorize != nil {
		api.unauthorize()
	}
	return err
}

// Calls returns the recorded calls and resets the record.
func (api *fakeAPI) Calls() []string {
	api.mu.Lock()
	defer api.mu.Unlock()
	calls := api.calls
	api.calls = nil
	return calls
}

func (api *fakeAPI) Token() string {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.token
}

func (api *fakeAPI) ListFlags(_ context.Context, environment featureflag.Environment) ([]featureflag.Flag, error) {
	api.record("ListFlags %s", environment)
	if api.listErr != nil {
		return nil, api.fail(api.listErr)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	return slices.Clone(api.flags[environment]), nil
}

func (api *fakeAPI) GetFlag(_ context.Context, id int64) (featureflag.Flag, error) {
	api.record("GetFlag %d", id)
	api.mu.Lock()
	defer api.mu.Unlock()
	for _, flags := range api.flags {
		for _, flag := range flags {
			if flag.ID != nil && *flag.ID == id {
				return flag, nil
			}
		}
	}
	return featureflag.Flag{}, &flagclient.APIError{StatusCode: http.StatusNotFound, Method: "GET", Path: fmt.Sprintf("/flags/%d", id)}
}

func (api *fakeAPI) CreateFlag(_ context.Context, flag featureflag.Flag) (featureflag.Flag, error) {
	api.record("CreateFlag %s", flag.FlagKey)
	if api.mutateErr != nil {
		return featureflag.Flag{}, api.fail(api.mutateErr)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	api.created = flag
	api.flags[flag.Environment] = append(api.flags[flag.Environment], flag)
	return flag, nil
}

func (api *fakeAPI) UpdateFlag(_ context.Context, id int64, flag featureflag.Flag) (featureflag.Flag, error) {
	api.record("UpdateFlag %d", id)
	if api.mutateErr != nil {
		return featureflag.Flag{}, api.fail(api.mutateErr)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	api.updated = flag
	return flag, nil
}

func (api *fakeAPI) ToggleFlag(_ context.Context, flagKey string, environment featureflag.Environment) (*featureflag.Flag, error) {
	api.record("ToggleFlag %s %s", flagKey, environment)
	if api.mutateErr != nil {
		return nil, api.fail(api.mutateErr)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	flags := api.flags[environment]
	for index := range flags {
		if flags[index].FlagKey == flagKey {
			flags[index].Enabled = !flags[index].Enabled
			toggled := flags[index]
			return &toggled, nil
		}
	}
	return nil, nil
}

func (api *fakeAPI) DeleteFlag(_ context.Context, id int64) error {
	api.record("DeleteFlag %d", id)
	if api.mutateErr != nil {
		return api.fail(api.mutateErr)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	for environment, flags := range api.flags {
		api.flags[environment] = slices.DeleteFunc(flags, func(flag featureflag.Flag) bool {
			return flag.ID != nil && *flag.ID == id
		})
	}
	return nil
}

func (api *fakeAPI) AuditLog(_ context.Context, entityType, entityID string, size int) ([]featureflag.AuditEntry, error) {
	api.record("AuditLog %s %s %d", entityType, entityID, size)
	if api.auditErr != nil {
		return nil, api.fail(api.auditErr)
	}
	return slices.Clone(api.audit), nil
}

func (api *fakeAPI) Login(_ context.Context, username string, password *secret.Buffer) (featureflag.LoginResponse, error) {
	api.record("Login %s %s", username, password.String())
	if api.loginErr != nil {
		// Login never runs the unauthorized hook.
		return featureflag.LoginResponse{}, api.loginErr
	}
	return featureflag.LoginResponse{Token: api.loginToken, Type: "Bearer"}, nil
}

func (api *fakeAPI) SetToken(token string) error {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.token = token
	return nil
}

// fakeStore keeps the session in memory.
type fakeStore struct {
	mu      sync.Mutex
	current *session.Session
	saves   int
	clears  int
	loadErr error
}

func (store *fakeStore) Load() (*session.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.loadErr != nil {
		return nil, store.loadErr
	}
	if store.current == nil {
		return nil, session.ErrNoSession
	}
	copied := *store.current
	return &copied, nil
}

func (store *fakeStore) Save(current *session.Session) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	copied := *current
	store.current = &copied
	store.saves++
	return nil
}

func (store *fakeStore) Clear() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.current = nil
	store.clears++
	return nil
}

func (store *fakeStore) Session() *session.Session {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.current
}

const testServer = "http://flags.test/api/v1"

// newTestModel wires a Model to api and store, sized to a large
// terminal, with the first refresh already applied.
func newTestModel(t *testing.T, api *fakeAPI, store *fakeStore, environment featureflag.Environment) Model {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard := NewGuard(store, testServer, logger)
	guard.Bind(api)
	api.unauthorize = guard.HandleUnauthorized

	model := NewModel(Options{
		Client: api,
		Guard:  guard,
		State:  NewState(environment, nil),
		Server: testServer,
		Logger: logger,
		Now:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 140, Height: 30})
	model = updated.(Model)
	return settle(t, model, model.Init())
}

func signedIn() *fakeStore {
	return &fakeStore{current: &session.Session{
		Token:    "token-restored",
		Username: "alice",
		Server:   testServer,
	}}
}

// settle runs cmd and every command it leads to, feeding the results
// back through Update. Timer-driven messages (spinner, heat, status
// fade) are not fed back, and commands still blocked after a short
// wait are abandoned, so settle returns once the request traffic has
// quiesced.
func settle(t *testing.T, model Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		message, finished := runCommand(next)
		if !finished {
			continue
		}
		switch message := message.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, message...)
			continue
		case spinner.TickMsg, heatTickMsg, statusFadeMsg:
			continue
		}
		updated, followup := model.Update(message)
		model = updated.(Model)
		queue = append(queue, followup)
	}
	return model
}

func runCommand(cmd tea.Cmd) (tea.Msg, bool) {
	result := make(chan tea.Msg, 1)
	go func() { result <- cmd() }()
	select {
	case message := <-result:
		return message, true
	case <-time.After(200 * time.Millisecond):
		return nil, false
	}
}

// press sends one key and settles the resulting commands.
func press(t *testing.T, model Model, message tea.KeyMsg) Model {
	t.Helper()
	updated, cmd := model.Update(message)
	return settle(t, updated.(Model), cmd)
}

func keyRunes(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keySave  = tea.KeyMsg{Type: tea.KeyCtrlS}
)

func productionNewUI() featureflag.Flag {
	return featureflag.Flag{
		ID:                featureflag.Int64(7),
		FlagKey:           "new-ui",
		Name:              "New UI",
		Description:       "Ships the **redesigned** dashboard.",
		Environment:       featureflag.Production,
		Enabled:           true,
		RolloutPercentage: 50,
		Version:           featureflag.Int64(3),
	}
}
