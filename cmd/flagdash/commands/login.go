// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/flagdash/cmd/flagdash/cli"
	"github.com/bureau-foundation/flagdash/lib/flagclient"
	"github.com/bureau-foundation/flagdash/lib/secret"
	"github.com/bureau-foundation/flagdash/lib/session"
)

type loginParams struct {
	Connection   ConnectionParams
	Username     string `flag:"username,u" desc:"operator username (prompted when omitted)"`
	PasswordFile string `flag:"password-file" desc:"read the password from this file, or - for stdin (default: prompt)"`
}

// LoginCommand returns the "login" command, which exchanges credentials
// for a bearer token and saves the session.
func LoginCommand(streams *IO) *cli.Command {
	var params loginParams

	return &cli.Command{
		Name:    "login",
		Summary: "Sign in and save the session",
		Description: `Sign in to the flag service and save the session locally.

The dashboard and the flag commands use the saved session
transparently. The session file is written with mode 0600 at
$FLAGDASH_SESSION_FILE, session.file from the config, or
$XDG_CONFIG_HOME/flagdash/session.json. When session.seal_identity is
configured the token is stored encrypted to that age identity.`,
		Usage: "flagdash login [flags]",
		Examples: []cli.Example{
			{
				Description: "Sign in interactively",
				Command:     "flagdash login --username admin",
			},
			{
				Description: "Sign in from a script",
				Command:     "flagdash login --username ci --password-file /run/secrets/flagdash",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("login", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}

			connection, err := params.Connection.Open(logger, streams.LogLevel)
			if err != nil {
				return err
			}
			defer connection.Close()

			username := strings.TrimSpace(params.Username)
			if username == "" {
				username, err = streams.prompt("Username: ")
				if err != nil {
					return cli.Validation("reading username: %w", err).WithHint("Pass --username.")
				}
				username = strings.TrimSpace(username)
			}
			if username == "" {
				return cli.Validation("username is required")
			}

			password, err := readLoginPassword(streams, params.PasswordFile)
			if err != nil {
				return err
			}
			defer password.Close()

			response, err := connection.Client.Login(ctx, username, password)
			if err != nil {
				if errors.Is(err, flagclient.ErrUnauthorized) {
					return cli.Forbidden("signing in as %s: invalid username or password", username)
				}
				return apiFailure("signing in as "+username, err)
			}

			current := &session.Session{Token: response.Token, Username: username}
			if err := connection.Guard.Establish(current); err != nil {
				return cli.Internal("%w", err)
			}

			logger.Debug("session saved", "path", connection.Store.Path(), "sealed", connection.Sealed())
			fmt.Fprintf(streams.Out, "Signed in to %s as %s\n", connection.Client.BaseURL(), username)
			fmt.Fprintf(streams.Out, "Session saved to %s\n", connection.Store.Path())
			return nil
		},
	}
}

// readLoginPassword reads the password from passwordFile, or prompts
// when it is empty.
func readLoginPassword(streams *IO, passwordFile string) (*secret.Buffer, error) {
	if passwordFile == "" {
		return streams.readPassword("Password: ")
	}
	buffer, err := secret.ReadFromPath(passwordFile)
	if err != nil {
		return nil, cli.Validation("reading password from %s: %w", passwordFile, err)
	}
	return buffer, nil
}

// LogoutCommand returns the "logout" command.
func LogoutCommand(streams *IO) *cli.Command {
	var params ConnectionParams

	return &cli.Command{
		Name:    "logout",
		Summary: "Remove the saved session",
		Description: `Remove the saved session. A dashboard open in another terminal
notices and returns to its login view.`,
		Usage: "flagdash logout [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("logout", pflag.ContinueOnError)
			params.AddFlags(flagSet)
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}

			connection, err := params.Open(logger, streams.LogLevel)
			if err != nil {
				return err
			}
			defer connection.Close()

			_, loadErr := connection.Store.Load()
			if err := connection.Guard.Logout(); err != nil {
				return cli.Internal("%w", err)
			}
			if errors.Is(loadErr, session.ErrNoSession) {
				fmt.Fprintln(streams.Out, "Not signed in.")
				return nil
			}
			fmt.Fprintln(streams.Out, "Signed out.")
			return nil
		},
	}
}

type whoamiParams struct {
	cli.JSONOutput
	Connection ConnectionParams
	Verify     bool `flag:"verify" desc:"check the token against the service"`
}

type whoamiResult struct {
	Username    string `json:"username"`
	Server      string `json:"server"`
	SessionFile string `json:"sessionFile"`
	Sealed      bool   `json:"sealed"`
	Verified    *bool  `json:"verified,omitempty"`
}

// WhoAmICommand returns the "whoami" command.
func WhoAmICommand(streams *IO) *cli.Command {
	var params whoamiParams

	return &cli.Command{
		Name:    "whoami",
		Summary: "Show the signed-in operator",
		Description: `Show who the saved session belongs to and which server issued it.
With --verify, also make an authenticated request; a rejected token
clears the session.`,
		Usage: "flagdash whoami [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("whoami", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}

			connection, err := params.Connection.Open(logger, streams.LogLevel)
			if err != nil {
				return err
			}
			defer connection.Close()

			current, err := connection.RequireSession()
			if err != nil {
				return err
			}

			result := whoamiResult{
				Username:    current.Username,
				Server:      current.Server,
				SessionFile: connection.Store.Path(),
				Sealed:      connection.Sealed(),
			}
			if result.Server == "" {
				result.Server = connection.Client.BaseURL()
			}
			if params.Verify {
				if _, err := connection.Client.ListFlags(ctx, connection.Environment("")); err != nil {
					return apiFailure("verifying session", err)
				}
				verified := true
				result.Verified = &verified
			}

			if done, err := params.EmitJSON(streams.Out, result); done {
				return err
			}
			fmt.Fprintf(streams.Out, "%s @ %s\n", result.Username, result.Server)
			storage := "plain"
			if result.Sealed {
				storage = "sealed"
			}
			fmt.Fprintf(streams.Out, "session: %s (%s)\n", result.SessionFile, storage)
			if result.Verified != nil {
				fmt.Fprintln(streams.Out, "token: accepted by the service")
			}
			return nil
		},
	}
}
