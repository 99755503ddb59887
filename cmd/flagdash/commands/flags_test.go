// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/flagdash/cmd/flagdash/cli"
	"github.com/bureau-foundation/flagdash/lib/featureflag"
	"github.com/bureau-foundation/flagdash/lib/session"
)

func requireCalls(t *testing.T, service *flagService, want ...string) {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	got := service.recorded()
	if got == nil {
		got = []string{}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
}

func TestFlagsListRequiresSession(t *testing.T) {
	h := newHarness(t)
	h.seed()

	_, err := h.run("flags", "list")
	requireCategory(t, err, cli.CategoryForbidden)
	if !strings.Contains(err.Error(), "flagdash login") {
		t.Errorf("error should hint at login: %v", err)
	}
	requireCalls(t, h.service)
}

func TestFlagsListTable(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()

	output, err := h.run("flags", "list", "--environment", "STAGING")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireCalls(t, h.service, "GET /api/v1/flags?environment=STAGING")

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got:\n%s", output)
	}
	for _, column := range []string{"ID", "KEY", "NAME", "ENVIRONMENT", "ROLLOUT", "STATUS"} {
		if !strings.Contains(lines[0], column) {
			t.Errorf("header missing %s: %q", column, lines[0])
		}
	}
	if fields := strings.Fields(lines[2]); fields[0] != "9" || fields[1] != "dark-mode" || !strings.Contains(lines[2], "20%") || !strings.HasSuffix(lines[2], "Enabled") {
		t.Errorf("dark-mode row = %q", lines[2])
	}
}

func TestFlagsListProductionScenario(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()

	output, err := h.run("flags", "list", "-e", "PRODUCTION")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected exactly one row, got:\n%s", output)
	}
	for _, cell := range []string{"new-ui", "New UI", "PRODUCTION", "50%", "Enabled"} {
		if !strings.Contains(lines[1], cell) {
			t.Errorf("row missing %q: %q", cell, lines[1])
		}
	}
}

func TestFlagsListDefaultEnvironmentEmpty(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()

	output, err := h.run("flags", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireCalls(t, h.service, "GET /api/v1/flags?environment=DEVELOPMENT")
	if strings.TrimSpace(output) != "No feature flags in DEVELOPMENT." {
		t.Errorf("output = %q", output)
	}
}

func TestFlagsListJSONAndMatch(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()

	output, err := h.run("flags", "list", "-e", "STAGING", "--match", "drk", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var flags []featureflag.Flag
	if err := json.Unmarshal([]byte(output), &flags); err != nil {
		t.Fatalf("decoding %q: %v", output, err)
	}
	if len(flags) != 1 || flags[0].FlagKey != "dark-mode" {
		t.Errorf("flags = %+v", flags)
	}

	output, err = h.run("flags", "list", "--json")
	if err != nil || strings.TrimSpace(output) != "[]" {
		t.Errorf("an empty listing is [] in JSON, got %q, %v", output, err)
	}
}

func TestFlagsToggle(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()

	output, err := h.run("flags", "toggle", "new-ui", "-e", "PRODUCTION")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	requireCalls(t, h.service, "POST /api/v1/flags/new-ui/toggle?environment=PRODUCTION")
	if strings.TrimSpace(output) != "new-ui is now Disabled in PRODUCTION" {
		t.Errorf("output = %q", output)
	}
}

func TestFlagsToggleMissingKey(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	_, err := h.run("flags", "toggle")
	requireCategory(t, err, cli.CategoryValidation)
	requireCalls(t, h.service)
}

func TestFlagsCreate(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	output, err := h.run("flags", "create", "--key", "beta", "--name", "Beta", "-e", "STAGING", "--rollout", "10")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	requireCalls(t, h.service, "POST /api/v1/flags")

	body := h.service.body("POST /api/v1/flags")
	want := map[string]any{
		"flagKey":           "beta",
		"name":              "Beta",
		"environment":       "STAGING",
		"enabled":           false,
		"defaultValue":      false,
		"rolloutPercentage": float64(10),
	}
	for key, value := range want {
		if body[key] != value {
			t.Errorf("body[%s] = %v, want %v", key, body[key], value)
		}
	}
	if _, present := body["id"]; present {
		t.Error("a create payload never carries an id")
	}
	if strings.TrimSpace(output) != "Created beta in STAGING (id 101)" {
		t.Errorf("output = %q", output)
	}
}

func TestFlagsCreateValidation(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	_, err := h.run("flags", "create", "--name", "No key")
	requireCategory(t, err, cli.CategoryValidation)

	_, err = h.run("flags", "create", "--key", "wide", "--rollout", "150")
	requireCategory(t, err, cli.CategoryValidation)

	requireCalls(t, h.service)
}

func TestFlagsCreateDuplicateIsConflict(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()

	_, err := h.run("flags", "create", "--key", "new-ui", "-e", "PRODUCTION")
	requireCategory(t, err, cli.CategoryConflict)
	if !strings.Contains(err.Error(), "Flag key already exists") {
		t.Errorf("the service message should be shown: %v", err)
	}
}

func TestFlagsUpdateByKeyKeepsOtherFields(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()

	output, err := h.run("flags", "update", "new-ui", "-e", "STAGING", "--rollout", "50")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	requireCalls(t, h.service, "GET /api/v1/flags?environment=STAGING", "PUT /api/v1/flags/8")

	body := h.service.body("PUT /api/v1/flags/8")
	if body["rolloutPercentage"] != float64(50) || body["name"] != "New UI" || body["flagKey"] != "new-ui" {
		t.Errorf("body = %v", body)
	}
	if body["enabled"] != false || body["version"] != float64(1) {
		t.Errorf("unchanged fields and the version must be sent back: %v", body)
	}
	if strings.TrimSpace(output) != "Updated new-ui in STAGING" {
		t.Errorf("output = %q", output)
	}
}

func TestFlagsUpdateByID(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()

	if _, err := h.run("flags", "update", "7", "--enabled=false"); err != nil {
		t.Fatalf("update: %v", err)
	}
	requireCalls(t, h.service, "GET /api/v1/flags/7", "PUT /api/v1/flags/7")
	if body := h.service.body("PUT /api/v1/flags/7"); body["enabled"] != false || body["rolloutPercentage"] != float64(50) {
		t.Errorf("body = %v", body)
	}
}

func TestFlagsUpdateNothing(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	_, err := h.run("flags", "update", "7")
	requireCategory(t, err, cli.CategoryValidation)
	requireCalls(t, h.service)
}

func TestFlagsGet(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()

	output, err := h.run("flags", "get", "new-ui", "-e", "PRODUCTION")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for _, fragment := range []string{"Key:", "new-ui", "ID:", "7", "Rollout:", "50%", "Version:", "3", "Redesigned **dashboard**."} {
		if !strings.Contains(output, fragment) {
			t.Errorf("detail missing %q:\n%s", fragment, output)
		}
	}

	output, err = h.run("flags", "get", "9", "--json")
	if err != nil {
		t.Fatalf("get --json: %v", err)
	}
	var flag featureflag.Flag
	if err := json.Unmarshal([]byte(output), &flag); err != nil || flag.FlagKey != "dark-mode" {
		t.Errorf("decoded %+v, %v", flag, err)
	}
}

func TestFlagsGetNotFound(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()

	_, err := h.run("flags", "get", "ghost", "-e", "STAGING")
	requireCategory(t, err, cli.CategoryNotFound)
	if !strings.Contains(err.Error(), "flagdash flags list --environment STAGING") {
		t.Errorf("error should hint at list: %v", err)
	}

	_, err = h.run("flags", "get", "404")
	requireCategory(t, err, cli.CategoryNotFound)
}

func TestFlagsDeleteDeclined(t *testing.T) {
	for _, answer := range []string{"n\n", "\n", "", "maybe\n"} {
		h := newHarness(t)
		h.signIn()
		h.seed()
		h.input = answer

		output, err := h.run("flags", "delete", "dark-mode", "-e", "STAGING")
		if err != nil {
			t.Fatalf("delete with answer %q: %v", answer, err)
		}
		requireCalls(t, h.service, "GET /api/v1/flags?environment=STAGING")
		if strings.TrimSpace(output) != "Cancelled." {
			t.Errorf("answer %q: output = %q", answer, output)
		}
	}
}

func TestFlagsDeleteConfirmed(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()
	h.input = "y\n"

	output, err := h.run("flags", "delete", "dark-mode", "-e", "STAGING")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	requireCalls(t, h.service, "GET /api/v1/flags?environment=STAGING", "DELETE /api/v1/flags/9")
	if strings.TrimSpace(output) != "Deleted dark-mode from STAGING" {
		t.Errorf("output = %q", output)
	}
}

func TestFlagsDeleteYesSkipsPrompt(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()

	if _, err := h.run("flags", "delete", "7", "--yes"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	requireCalls(t, h.service, "GET /api/v1/flags/7", "DELETE /api/v1/flags/7")
}

func TestFlagsEvaluate(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()

	output, err := h.run("flags", "evaluate", "dark-mode", "-e", "STAGING", "--user", "42")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if strings.TrimSpace(output) != "dark-mode: on (rollout)" {
		t.Errorf("output = %q", output)
	}
	body := h.service.body("POST /api/v1/flags/evaluate")
	if body["flagKey"] != "dark-mode" || body["environment"] != "STAGING" || body["userId"] != "42" {
		t.Errorf("body = %v", body)
	}
}

func TestFlagsEvaluateExitStatus(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()

	output, err := h.run("flags", "evaluate", "new-ui", "-e", "STAGING", "--exit-status")
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("a disabled flag under --exit-status exits 1, got %v", err)
	}
	if !strings.Contains(output, "new-ui: off") {
		t.Errorf("the verdict is still printed: %q", output)
	}
}

func TestFlagsAudit(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()
	h.service.audit = []featureflag.AuditEntry{
		{ID: 2, EntityType: featureflag.AuditEntityType, EntityID: 7, Action: "TOGGLE", UserID: "admin", Changes: "enabled:\n false -> true"},
		{ID: 1, EntityType: featureflag.AuditEntityType, EntityID: 7, Action: "CREATE", UserEmail: "ops@example.com"},
	}

	output, err := h.run("flags", "audit", "new-ui", "-e", "PRODUCTION", "--size", "5")
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	calls := h.service.recorded()
	if len(calls) != 2 || calls[1] != "GET /api/v1/audit/entity/FeatureFlag/7?size=5&sort=timestamp%2Cdesc" {
		t.Errorf("requests = %v", calls)
	}
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two entries:\n%s", output)
	}
	if !strings.Contains(lines[1], "TOGGLE") || !strings.Contains(lines[1], "enabled: false -> true") {
		t.Errorf("entry = %q", lines[1])
	}
	if !strings.Contains(lines[2], "ops@example.com") {
		t.Errorf("the email is preferred over the user id: %q", lines[2])
	}
	output, err = h.run("flags", "audit", "7", "--json")
	if err != nil {
		t.Fatalf("audit --json: %v", err)
	}
	if !strings.Contains(output, `"entityId": 7`) {
		t.Errorf("entity ids are numbers on the wire:\n%s", output)
	}
}

func TestRejectedTokenClearsSession(t *testing.T) {
	h := newHarness(t)
	store := session.NewStore(h.sessionFile, nil)
	if err := store.Save(&session.Session{Token: "stale", Username: testUsername}); err != nil {
		t.Fatalf("saving session: %v", err)
	}

	_, err := h.run("flags", "list")
	requireCategory(t, err, cli.CategoryForbidden)
	if !strings.Contains(err.Error(), "flagdash login") {
		t.Errorf("error should hint at login: %v", err)
	}
	if _, err := h.loadSession(); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("a rejected session must be cleared, Load error = %v", err)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.service.failWith(http.StatusInternalServerError)

	_, err := h.run("flags", "toggle", "new-ui")
	requireCategory(t, err, cli.CategoryTransient)
	if !strings.Contains(err.Error(), "e-1") {
		t.Errorf("the error id should be reported: %v", err)
	}
	if _, err := h.loadSession(); err != nil {
		t.Errorf("a 500 must not clear the session: %v", err)
	}
}

func TestFlagsDigitKeyNeedsByKey(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.seed()
	h.service.add(featureflag.Flag{
		ID:          featureflag.Int64(12),
		FlagKey:     "2024",
		Name:        "Yearly banner",
		Environment: featureflag.Staging,
	})

	_, err := h.run("flags", "get", "2024", "-e", "STAGING")
	requireCategory(t, err, cli.CategoryNotFound)

	output, err := h.run("flags", "get", "2024", "-e", "STAGING", "--by-key")
	if err != nil {
		t.Fatalf("get --by-key: %v", err)
	}
	if !strings.Contains(output, "Yearly banner") {
		t.Errorf("detail should show the flag keyed 2024:\n%s", output)
	}
	requireCalls(t, h.service, "GET /api/v1/flags/2024", "GET /api/v1/flags?environment=STAGING")
}
