// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/flagdash/cmd/flagdash/cli"
	"github.com/bureau-foundation/flagdash/lib/dashboard"
)

type dashboardParams struct {
	Connection  ConnectionParams
	Environment string `flag:"environment,e" desc:"environment selected at startup (default: dashboard.default_environment)"`
	LogOutput   string `flag:"log-output" desc:"write JSON log records to this file (in addition to the status bar)"`
}

// DashboardCommand returns the "dashboard" command that runs the
// interactive TUI.
func DashboardCommand(streams *IO) *cli.Command {
	var params dashboardParams

	return &cli.Command{
		Name:    "dashboard",
		Summary: "Interactive flag dashboard (default command)",
		Description: `Open the interactive dashboard: a table of the feature flags in one
environment, with create, edit, toggle and delete actions, a fuzzy
filter, a detail view with the flag's audit history, and an in-app
login form when no session is saved.

Warnings and errors from background work appear in the status bar.
Use --log-output to also capture every log record as JSON for
post-mortem debugging.

The session file is watched: signing in or out from another terminal
is reflected immediately.`,
		Usage: "flagdash dashboard [flags]",
		Examples: []cli.Example{
			{
				Description: "Open the dashboard on production",
				Command:     "flagdash dashboard --environment PRODUCTION",
			},
			{
				Description: "Keep a debug log of every API request",
				Command:     "flagdash --log-output /tmp/flagdash.jsonl",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("dashboard", &params)
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return runDashboard(ctx, streams, &params)
		},
	}
}

// runDashboard runs the TUI until the operator quits. Logging is routed
// through a TUILogHandler that shows warnings and errors in the status
// bar instead of writing to stderr (which would corrupt the alt-screen
// display).
func runDashboard(ctx context.Context, streams *IO, params *dashboardParams) error {
	statusHandler := dashboard.NewTUILogHandler(slog.LevelWarn)
	var handler slog.Handler = statusHandler
	if params.LogOutput != "" {
		fileHandler, cleanup, err := openFileLogHandler(params.LogOutput)
		if err != nil {
			return cli.Validation("opening log output %s: %w", params.LogOutput, err)
		}
		defer cleanup()
		handler = fanoutHandler{statusHandler, fileHandler}
	}
	logger := slog.New(handler)

	connection, err := params.Connection.Open(logger, streams.LogLevel)
	if err != nil {
		return err
	}
	defer connection.Close()

	state := dashboard.NewState(connection.Environment(params.Environment), connection.Environments())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := dashboard.NewModel(dashboard.Options{
		Client:  connection.Client,
		Guard:   connection.Guard,
		State:   state,
		Server:  connection.Client.BaseURL(),
		Logger:  logger,
		Context: ctx,
	})
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)
	statusHandler.SetProgram(program)

	changes, err := connection.Store.Watch(ctx)
	if err != nil {
		logger.Warn("not watching the session file", "path", connection.Store.Path(), "error", err)
	} else {
		go dashboard.ForwardSessionChanges(ctx, changes, program.Send)
	}

	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// openFileLogHandler creates a slog.JSONHandler that writes to the
// given file path. Returns the handler, a cleanup function to close
// the file, and any error. The file is created or truncated.
func openFileLogHandler(path string) (slog.Handler, func(), error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return handler, func() { file.Close() }, nil
}

// fanoutHandler is a slog.Handler that sends each record to multiple
// underlying handlers. A record is enabled if any sub-handler is
// enabled for that level.
type fanoutHandler []slog.Handler

func (handlers fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, handler := range handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (handlers fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithAttrs(attrs)
	}
	return derived
}

func (handlers fanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithGroup(name)
	}
	return derived
}
