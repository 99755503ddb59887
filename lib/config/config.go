// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "FLAGDASH_CONFIG"

// Config is the master configuration.
type Config struct {
	// Profile selects an entry of Profiles to apply over the base
	// values. Empty applies none.
	Profile string `yaml:"profile"`

	Server    ServerConfig    `yaml:"server"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Session   SessionConfig   `yaml:"session"`
	Log       LogConfig       `yaml:"log"`

	Profiles map[string]*Overrides `yaml:"profiles,omitempty"`
}

// Overrides holds the sections a profile may replace. Empty fields
// keep the base value.
type Overrides struct {
	Server    *ServerConfig    `yaml:"server,omitempty"`
	Dashboard *DashboardConfig `yaml:"dashboard,omitempty"`
	Session   *SessionConfig   `yaml:"session,omitempty"`
}

// ServerConfig locates the flag service.
type ServerConfig struct {
	// BaseURL is the API root, e.g. "http://localhost:8080/api/v1".
	BaseURL string `yaml:"base_url"`
}

// DashboardConfig controls the interactive dashboard.
type DashboardConfig struct {
	// DefaultEnvironment is selected at startup.
	DefaultEnvironment string `yaml:"default_environment"`

	// Environments populate the environment selector, in order. Values
	// are passed to the service verbatim.
	Environments []string `yaml:"environments"`
}

// SessionConfig controls where the session is persisted.
type SessionConfig struct {
	// File overrides the session file path.
	File string `yaml:"file"`

	// SealIdentity is an age identity file. When set, the token is
	// stored encrypted to it.
	SealIdentity string `yaml:"seal_identity"`
}

// LogConfig controls the command logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8080/api/v1",
		},
		Dashboard: DashboardConfig{
			DefaultEnvironment: "DEVELOPMENT",
			Environments:       []string{"DEVELOPMENT", "STAGING", "PRODUCTION"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load resolves the config file (path, else $FLAGDASH_CONFIG, else
// defaults), applies the selected profile and expands variables. A
// non-empty profile argument wins over the file's profile key.
func Load(path, profile string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if profile != "" {
		cfg.Profile = profile
	}
	if err := cfg.applyProfile(); err != nil {
		return nil, err
	}

	cfg.expandVariables()
	return cfg, nil
}

// loadFile merges a config file over the current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	// Lists replace rather than merge: clear defaults the file sets.
	var probe struct {
		Dashboard struct {
			Environments []string `yaml:"environments"`
		} `yaml:"dashboard"`
	}
	if err := yaml.Unmarshal(data, &probe); err == nil && probe.Dashboard.Environments != nil {
		c.Dashboard.Environments = nil
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// applyProfile overlays the selected profile.
func (c *Config) applyProfile() error {
	if c.Profile == "" {
		return nil
	}
	overrides, ok := c.Profiles[c.Profile]
	if !ok {
		return fmt.Errorf("unknown profile %q (defined: %s)", c.Profile, strings.Join(c.profileNames(), ", "))
	}
	if overrides == nil {
		return nil
	}

	if overrides.Server != nil && overrides.Server.BaseURL != "" {
		c.Server.BaseURL = overrides.Server.BaseURL
	}

	if overrides.Dashboard != nil {
		if overrides.Dashboard.DefaultEnvironment != "" {
			c.Dashboard.DefaultEnvironment = overrides.Dashboard.DefaultEnvironment
		}
		if len(overrides.Dashboard.Environments) > 0 {
			c.Dashboard.Environments = overrides.Dashboard.Environments
		}
	}

	if overrides.Session != nil {
		if overrides.Session.File != "" {
			c.Session.File = overrides.Session.File
		}
		if overrides.Session.SealIdentity != "" {
			c.Session.SealIdentity = overrides.Session.SealIdentity
		}
	}
	return nil
}

func (c *Config) profileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	if len(names) == 0 {
		return []string{"none"}
	}
	sort.Strings(names)
	return names
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Session.File = expandVars(c.Session.File, vars)
	c.Session.SealIdentity = expandVars(c.Session.SealIdentity, vars)
	c.Server.BaseURL = expandVars(c.Server.BaseURL, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. Environment names are
// not checked against the known set: unknown values are forwarded to
// the service as-is.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.BaseURL == "" {
		errs = append(errs, fmt.Errorf("server.base_url is required"))
	} else if parsed, err := url.Parse(c.Server.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("server.base_url: %w", err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errs = append(errs, fmt.Errorf("server.base_url must be an http or https URL, got %q", c.Server.BaseURL))
	}

	if strings.TrimSpace(c.Dashboard.DefaultEnvironment) == "" {
		errs = append(errs, fmt.Errorf("dashboard.default_environment is required"))
	}
	if len(c.Dashboard.Environments) == 0 {
		errs = append(errs, fmt.Errorf("dashboard.environments must list at least one environment"))
	}
	for index, environment := range c.Dashboard.Environments {
		if strings.TrimSpace(environment) == "" {
			errs = append(errs, fmt.Errorf("dashboard.environments[%d] is empty", index))
		}
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// LogLevel returns the configured slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(text string) (slog.Level, error) {
	if text == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}
