// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the flagdash command tree: the interactive
// dashboard (the default command), session management and scriptable
// flag operations.
package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	"golang.org/x/term"

	"github.com/bureau-foundation/flagdash/cmd/flagdash/cli"
	"github.com/bureau-foundation/flagdash/lib/secret"
)

// IO carries the streams and process-wide settings commands share.
// Tests substitute buffers and a scripted password reader.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// LogLevel is the command logger's level. Commands set it from the
	// loaded config. May be nil.
	LogLevel *slog.LevelVar

	// ReadPassword prompts for a password without echo. Nil reads from
	// the controlling terminal via golang.org/x/term.
	ReadPassword func(prompt string) (*secret.Buffer, error)

	lines *bufio.Reader
}

// StandardIO returns IO over the process's standard streams.
func StandardIO(level *slog.LevelVar) *IO {
	return &IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr, LogLevel: level}
}

// readLine reads one line of input, without the line terminator.
// Returns io.EOF only when no input at all was available.
func (streams *IO) readLine() (string, error) {
	if streams.lines == nil {
		streams.lines = bufio.NewReader(streams.In)
	}
	line, err := streams.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// prompt writes label to Err and reads the answer from In.
func (streams *IO) prompt(label string) (string, error) {
	fmt.Fprint(streams.Err, label)
	return streams.readLine()
}

func (streams *IO) readPassword(prompt string) (*secret.Buffer, error) {
	if streams.ReadPassword != nil {
		return streams.ReadPassword(prompt)
	}
	return readTerminalPassword(streams.Err, prompt)
}

func readTerminalPassword(w io.Writer, prompt string) (*secret.Buffer, error) {
	stdinFileDescriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFileDescriptor) {
		return nil, cli.Validation("no terminal available for interactive password prompt (use --password-file)")
	}

	fmt.Fprint(w, prompt)
	passwordBytes, err := term.ReadPassword(stdinFileDescriptor)
	fmt.Fprintln(w)
	if err != nil {
		return nil, cli.Internal("reading password: %w", err)
	}
	if len(passwordBytes) == 0 {
		return nil, cli.Validation("password is empty")
	}

	buffer, err := secret.NewFromBytes(passwordBytes)
	if err != nil {
		secret.Zero(passwordBytes)
		return nil, cli.Internal("protecting password: %w", err)
	}
	return buffer, nil
}

// Root builds the flagdash command tree. Running it without a
// subcommand opens the dashboard.
func Root(streams *IO) *cli.Command {
	dashboard := DashboardCommand(streams)

	return &cli.Command{
		Name: "flagdash",
		Description: `flagdash: terminal dashboard for a feature flag service.

Without a command, opens the interactive dashboard for the configured
server. Sign in once with "flagdash login"; the session is saved
locally and shared by the dashboard and the flag commands.`,
		Usage:      "flagdash [command] [flags]",
		HelpOutput: streams.Err,
		Examples: []cli.Example{
			{
				Description: "Sign in and open the dashboard",
				Command:     "flagdash login --username admin && flagdash",
			},
			{
				Description: "List the flags enabled in staging as JSON",
				Command:     "flagdash flags list --environment STAGING --json",
			},
		},
		Flags: dashboard.Flags,
		Run:   dashboard.Run,
		Subcommands: []*cli.Command{
			dashboard,
			LoginCommand(streams),
			LogoutCommand(streams),
			WhoAmICommand(streams),
			FlagsCommand(streams),
			SessionCommand(streams),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					if len(args) > 0 {
						return cli.Validation("unexpected argument: %s", args[0])
					}
					fmt.Fprintf(streams.Out, "flagdash %s\n", buildVersion())
					return nil
				},
			},
		},
	}
}

func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "(devel)"
	}
	return info.Main.Version
}
