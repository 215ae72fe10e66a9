// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/routine-tui/internal/catalog"
	"github.com/jeranaias/routine-tui/internal/export"
)

// =============================================================================
// MESSAGES
// =============================================================================

// catalogLoadedMsg carries the result of a catalog load.
type catalogLoadedMsg struct {
	products []catalog.Product
	err      error
}

// catalogChangedMsg is sent when the watched catalog file changes.
type catalogChangedMsg struct{}

// advisorDoneMsg is sent when a routine or follow-up request returns.
type advisorDoneMsg struct {
	op  string
	err error
}

// exportDoneMsg is sent when a transcript export finishes.
type exportDoneMsg struct {
	path string
	err  error
}

// statusClearMsg clears a status line if it is still the one that was set.
type statusClearMsg struct {
	seq int
}

// =============================================================================
// COMMANDS
// =============================================================================

func loadCatalog(ctx context.Context, loader *catalog.Loader) tea.Cmd {
	return func() tea.Msg {
		products, err := loader.Load(ctx)
		return catalogLoadedMsg{products: products, err: err}
	}
}

func waitForChange(w *catalog.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		<-w.Changes()
		return catalogChangedMsg{}
	}
}

func runAdvisor(op string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return advisorDoneMsg{op: op, err: fn()}
	}
}

func exportTranscript(conv *export.Conversation, dir string) tea.Cmd {
	return func() tea.Msg {
		opts := export.DefaultOptions()
		opts.OutputDir = dir
		exp, err := export.ForFormat("markdown", opts)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		path, err := export.ExportToFile(conv, exp, opts)
		return exportDoneMsg{path: path, err: err}
	}
}

func clearStatusAfter(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusClearMsg{seq: seq}
	})
}
