// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/flagdash/cmd/flagdash/cli"
	"github.com/bureau-foundation/flagdash/lib/sealed"
)

// SessionCommand returns the "session" command group.
func SessionCommand(streams *IO) *cli.Command {
	return &cli.Command{
		Name:    "session",
		Summary: "Manage how the session is stored",
		Subcommands: []*cli.Command{
			sessionKeygenCommand(streams, time.Now),
		},
	}
}

func sessionKeygenCommand(streams *IO, now func() time.Time) *cli.Command {
	return &cli.Command{
		Name:    "keygen",
		Summary: "Create an age identity for sealing the session token",
		Description: `Write a new age identity to <path> (mode 0600, never overwriting an
existing file). Point session.seal_identity at it and sign in again:
the token is then stored encrypted and only readable with the
identity file.`,
		Usage: "flagdash session keygen <path>",
		Examples: []cli.Example{
			{
				Description: "Seal the session with a new identity",
				Command:     "flagdash session keygen ~/.config/flagdash/identity.txt",
			},
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			path, err := singleArgument(args, "identity file path")
			if err != nil {
				return err
			}

			identity, err := sealed.GenerateIdentity()
			if err != nil {
				return cli.Internal("generating identity: %w", err)
			}
			defer identity.Close()

			if err := sealed.WriteIdentityFile(path, identity, now()); err != nil {
				return cli.Conflict("%w", err).WithHint("Choose a path that does not exist yet.")
			}

			fmt.Fprintf(streams.Out, "Wrote identity to %s\n", path)
			fmt.Fprintf(streams.Out, "Public key: %s\n", identity.Recipient)
			fmt.Fprintf(streams.Err, "Set session.seal_identity: %s in your config, then run 'flagdash login'.\n", path)
			return nil
		},
	}
}
