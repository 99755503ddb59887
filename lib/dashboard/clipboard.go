// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"os"
	"strings"

	"github.com/aymanbagabas/go-osc52/v2"
	tea "github.com/charmbracelet/bubbletea"
)

// copyToClipboard writes text to the system clipboard with an OSC 52
// sequence on the controlling terminal, outside bubbletea's renderer.
// Inside tmux or screen the sequence is wrapped in a passthrough as
// well as sent directly, covering both forwarding configurations.
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
		if err != nil {
			return nil
		}
		defer tty.Close()

		sequence := osc52.New(text)
		term := os.Getenv("TERM")
		switch {
		case os.Getenv("TMUX") != "" || strings.HasPrefix(term, "tmux"):
			sequence.Tmux().WriteTo(tty)
		case strings.HasPrefix(term, "screen"):
			sequence.Screen().WriteTo(tty)
		}
		sequence.WriteTo(tty)
		return nil
	}
}
