// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node of the flagdash command tree. A node with
// Subcommands dispatches on its first positional argument; a node with
// Run executes. A node may have both: Run then handles invocations that
// name no subcommand, which is how a bare "flagdash" opens the
// dashboard.
type Command struct {
	// Name is the word that selects this command ("flags", "toggle").
	Name string

	// Summary is the one-liner listed in the parent's help.
	Summary string

	// Description is the longer text at the top of this command's help.
	// Summary is used when it is empty.
	Description string

	// Usage overrides the generated usage line.
	Usage string

	Examples []Example

	// Flags builds a fresh flag set bound to the command's parameters.
	// Nil means the command takes no flags.
	Flags func() *pflag.FlagSet

	Subcommands []*Command

	// Run receives the positional arguments left after flag parsing.
	Run func(ctx context.Context, args []string, logger *slog.Logger) error

	// HelpOutput receives help text. Unset commands use their parent's,
	// and stderr at the root.
	HelpOutput io.Writer

	parent *Command
}

// Example is a command line shown under "Examples:" in help, with an
// optional comment line above it.
type Example struct {
	Description string
	Command     string
}

// Execute runs the command tree against args.
func (command *Command) Execute(ctx context.Context, args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if len(args) > 0 && isHelpFlag(args[0]) {
		command.PrintHelp(command.helpOutput())
		return nil
	}

	if len(command.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, err := command.lookup(args[0])
		if err != nil {
			return err
		}
		sub.parent = command
		return sub.Execute(ctx, args[1:], logger)
	}

	if command.Run == nil {
		command.PrintHelp(command.helpOutput())
		switch {
		case len(command.Subcommands) == 0:
			return fmt.Errorf("no action defined for %q", command.fullName())
		case len(args) == 0:
			return errors.New("subcommand required")
		default:
			return fmt.Errorf("subcommand required (got flag %q)", args[0])
		}
	}

	positional, helped, err := command.parseFlags(args)
	if err != nil || helped {
		return err
	}
	return command.Run(ctx, positional, logger)
}

// lookup finds the subcommand called name, or reports it unknown with
// the closest match.
func (command *Command) lookup(name string) (*Command, error) {
	for _, sub := range command.Subcommands {
		if sub.Name == name {
			return sub, nil
		}
	}
	if suggestion := suggestCommand(name, command.Subcommands); suggestion != "" {
		return nil, command.usageError("unknown command %q (did you mean %q?)", name, suggestion)
	}
	return nil, command.usageError("unknown command %q", name)
}

// parseFlags parses args with the command's flag set and returns the
// positional arguments. helped is true when --help was given and help
// has been printed.
func (command *Command) parseFlags(args []string) (positional []string, helped bool, err error) {
	if command.Flags == nil {
		return args, false, nil
	}
	flagSet := command.Flags()
	flagSet.SetOutput(io.Discard)

	err = flagSet.Parse(args)
	switch {
	case err == nil:
		return flagSet.Args(), false, nil
	case errors.Is(err, pflag.ErrHelp):
		command.PrintHelp(command.helpOutput())
		return nil, true, nil
	}

	message := err.Error()
	if strings.Contains(message, "unknown flag") || strings.Contains(message, "unknown shorthand flag") {
		// Suggest against an untouched flag set.
		if suggestion := suggestFlag(args, command.Flags()); suggestion != "" {
			return nil, false, command.usageError("%s (did you mean %s?)", message, suggestion)
		}
	}
	return nil, false, command.usageError("%s", message)
}

// usageError formats an invocation mistake and points at --help.
func (command *Command) usageError(format string, args ...any) error {
	return fmt.Errorf(format+"\n\nRun '%s --help' for usage.", append(args, command.fullName())...)
}

// PrintHelp writes the command's help text to w.
func (command *Command) PrintHelp(w io.Writer) {
	name := command.fullName()

	switch {
	case command.Description != "":
		fmt.Fprintf(w, "%s\n\n", command.Description)
	case command.Summary != "":
		fmt.Fprintf(w, "%s\n\n", command.Summary)
	}

	usage := command.Usage
	if usage == "" {
		usage = name + " [flags]"
		if len(command.Subcommands) > 0 {
			usage = name + " <command> [flags]"
		}
	}
	fmt.Fprintf(w, "Usage:\n  %s\n", usage)

	if len(command.Subcommands) > 0 {
		fmt.Fprint(w, "\nCommands:\n")
		table := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range command.Subcommands {
			fmt.Fprintf(table, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		table.Flush()
	}

	if command.Flags != nil {
		if flagUsage := command.Flags().FlagUsages(); flagUsage != "" {
			fmt.Fprintf(w, "\nFlags:\n%s", flagUsage)
		}
	}

	if len(command.Examples) > 0 {
		fmt.Fprint(w, "\nExamples:\n")
		for _, example := range command.Examples {
			if example.Description == "" {
				fmt.Fprintf(w, "  %s\n", example.Command)
				continue
			}
			fmt.Fprintf(w, "  # %s\n  %s\n\n", example.Description, example.Command)
		}
	}

	if len(command.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

// fullName is the space-separated path from the root, as typed.
func (command *Command) fullName() string {
	if command.parent == nil {
		return command.Name
	}
	return command.parent.fullName() + " " + command.Name
}

func (command *Command) helpOutput() io.Writer {
	for node := command; node != nil; node = node.parent {
		if node.HelpOutput != nil {
			return node.HelpOutput
		}
	}
	return os.Stderr
}

func isHelpFlag(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	}
	return false
}
