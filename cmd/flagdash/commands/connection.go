// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/flagdash/cmd/flagdash/cli"
	"github.com/bureau-foundation/flagdash/lib/config"
	"github.com/bureau-foundation/flagdash/lib/dashboard"
	"github.com/bureau-foundation/flagdash/lib/featureflag"
	"github.com/bureau-foundation/flagdash/lib/flagclient"
	"github.com/bureau-foundation/flagdash/lib/sealed"
	"github.com/bureau-foundation/flagdash/lib/session"
)

const loginHint = "Run 'flagdash login' to sign in."

// ConnectionParams are the flags shared by every command that talks to
// the flag service. It binds its own flags so parameter structs can
// hold it as a named field.
type ConnectionParams struct {
	ConfigPath  string
	Profile     string
	Server      string
	SessionFile string
}

// AddFlags registers the connection flags.
func (params *ConnectionParams) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&params.ConfigPath, "config", "", "config file (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&params.Profile, "profile", "", "config profile to apply")
	flagSet.StringVar(&params.Server, "server", "", "flag service API root, overriding server.base_url")
	flagSet.StringVar(&params.SessionFile, "session-file", "", "session file, overriding session.file and $FLAGDASH_SESSION_FILE")
}

// Connection is an API client wired to the persisted session.
type Connection struct {
	Config *config.Config
	Store  *session.Store
	Guard  *dashboard.Guard
	Client *flagclient.Client

	identity *sealed.Identity
}

// Open loads the configuration, applies flag overrides and builds the
// client. The client's unauthorized hook clears the session through
// the guard, so a rejected token never outlives the command that saw
// it. The caller must Close the connection.
func (params *ConnectionParams) Open(logger *slog.Logger, level *slog.LevelVar) (*Connection, error) {
	cfg, err := config.Load(params.ConfigPath, params.Profile)
	if err != nil {
		return nil, cli.Validation("loading config: %w", err)
	}
	if params.Server != "" {
		cfg.Server.BaseURL = params.Server
	}
	if params.SessionFile != "" {
		cfg.Session.File = params.SessionFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid config: %w", err)
	}
	if level != nil {
		level.Set(cfg.LogLevel())
	}

	var identity *sealed.Identity
	if cfg.Session.SealIdentity != "" {
		identity, err = sealed.LoadIdentity(cfg.Session.SealIdentity)
		if err != nil {
			return nil, cli.Validation("loading session seal identity: %w", err).
				WithHint("Create one with 'flagdash session keygen " + cfg.Session.SealIdentity + "'.")
		}
	}

	path := cfg.Session.File
	if path == "" {
		path = session.DefaultPath()
	}
	store := session.NewStore(path, identity)

	var guard *dashboard.Guard
	client, err := flagclient.New(flagclient.Config{
		BaseURL: cfg.Server.BaseURL,
		Logger:  logger,
		OnUnauthorized: func() {
			guard.HandleUnauthorized()
		},
	})
	if err != nil {
		if identity != nil {
			identity.Close()
		}
		return nil, cli.Validation("%w", err)
	}
	guard = dashboard.NewGuard(store, client.BaseURL(), logger)
	guard.Bind(client)

	return &Connection{
		Config:   cfg,
		Store:    store,
		Guard:    guard,
		Client:   client,
		identity: identity,
	}, nil
}

// Sealed reports whether sessions are stored encrypted.
func (connection *Connection) Sealed() bool {
	return connection.identity != nil
}

// RequireSession restores the saved session, failing with a forbidden
// error and a login hint when there is none.
func (connection *Connection) RequireSession() (*session.Session, error) {
	current, err := connection.Guard.Restore()
	if err != nil {
		return nil, cli.Internal("reading session %s: %w", connection.Store.Path(), err).
			WithHint("Run 'flagdash login' to replace it.")
	}
	if current == nil {
		return nil, cli.Forbidden("not signed in to %s", connection.Client.BaseURL()).WithHint(loginHint)
	}
	return current, nil
}

// Environment resolves an --environment value, falling back to the
// configured default. Values are forwarded to the service verbatim.
func (connection *Connection) Environment(flagValue string) featureflag.Environment {
	if flagValue != "" {
		return featureflag.Environment(flagValue)
	}
	return featureflag.Environment(connection.Config.Dashboard.DefaultEnvironment)
}

// Environments returns the configured environment list.
func (connection *Connection) Environments() []featureflag.Environment {
	environments := make([]featureflag.Environment, 0, len(connection.Config.Dashboard.Environments))
	for _, name := range connection.Config.Dashboard.Environments {
		environments = append(environments, featureflag.Environment(name))
	}
	return environments
}

// Close releases the token and the seal identity.
func (connection *Connection) Close() error {
	err := connection.Client.Close()
	if connection.identity != nil {
		connection.identity.Close()
	}
	return err
}
