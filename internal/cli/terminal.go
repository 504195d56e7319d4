// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// defaultWidth is used when the terminal width cannot be detected.
const defaultWidth = 80

// maxRenderWidth keeps very wide terminals readable.
const maxRenderWidth = 120

// output is the shared termenv output for styled text.
var output = termenv.NewOutput(os.Stdout)

// TerminalWidth returns the render width for the current terminal.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	if w > maxRenderWidth {
		return maxRenderWidth
	}
	return w
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// styled applies a foreground color when stdout supports it.
func styled(s, color string) string {
	if output.ColorProfile() == termenv.Ascii {
		return s
	}
	return output.String(s).Foreground(output.Color(color)).String()
}

// dim renders secondary text.
func dim(s string) string {
	return output.String(s).Faint().String()
}

// errorLine renders an error line in red.
func errorLine(s string) string {
	return styled(s, "1")
}

// accentLine renders an accent line in cyan.
func accentLine(s string) string {
	return styled(s, "6")
}
