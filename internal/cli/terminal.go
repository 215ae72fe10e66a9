// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/jeranaias/routine-tui/internal/util"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width we'll use for wrapping
	MinTerminalWidth = 40
)

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or DefaultTerminalWidth.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return DefaultTerminalWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// colorProfile respects NO_COLOR and FORCE_COLOR before asking termenv.
func colorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return termenv.TrueColor
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// =============================================================================
// MARKDOWN OUTPUT
// =============================================================================

// writeReply prints reply text to w. Terminals get glamour rendering;
// pipes get the raw text so output stays scriptable.
func writeReply(w io.Writer, text string, markdown bool) {
	if markdown && isTerminal(w) {
		out, err := renderReply(text, terminalWidth(w)-4, glamour.WithAutoStyle())
		if err == nil {
			io.WriteString(w, out)
			return
		}
	}
	io.WriteString(w, text)
	if len(text) > 0 && text[len(text)-1] != '\n' {
		io.WriteString(w, "\n")
	}
}

// renderReply renders text as markdown, keeping single newlines as line
// breaks.
func renderReply(text string, width int, style glamour.TermRendererOption) (string, error) {
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", err
	}
	return r.Render(util.HardBreaks(text))
}
