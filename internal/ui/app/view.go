// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/routine-tui/internal/advisor"
	"github.com/jeranaias/routine-tui/internal/ui/grid"
	"github.com/jeranaias/routine-tui/internal/ui/styles"
	"github.com/jeranaias/routine-tui/internal/util"
)

// layout holds the pane sizes computed on resize. Sizes exclude borders.
type layout struct {
	stacked bool
	leftW   int
	rightW  int
	gridH   int
	panelH  int
	chatH   int
}

// resize recomputes pane sizes for the current window.
func (m *Model) resize() {
	m.theme.SetSize(m.width, m.height)
	m.help.Width = m.width

	bodyH := max(m.height-2, 8)
	l := layout{}

	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		l.stacked = true
		l.leftW = max(m.width-2, 10)
		l.rightW = l.leftW
		l.gridH = max(bodyH*2/5-2, 3)
		l.panelH = max(bodyH/5-2, 2)
		l.chatH = max(bodyH-l.gridH-l.panelH-6, 3)
	} else {
		total := m.width - 4
		l.leftW = total * 3 / 5
		l.rightW = total - l.leftW
		l.gridH = bodyH - 2
		l.panelH = max(bodyH/3-2, 3)
		l.chatH = max(bodyH-l.panelH-4, 3)
	}
	m.layout = l

	m.grid.SetSize(l.leftW, l.gridH)
	m.panel.SetSize(l.rightW, l.panelH)

	// One line of the chat pane belongs to the input.
	m.viewport.Width = l.rightW
	m.viewport.Height = max(l.chatH-1, 1)
	m.input.Width = max(l.rightW-4, 10)

	m.markdown = nil
	if m.cfg.UI.Markdown {
		style := "light"
		if m.theme.IsDark {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(max(l.rightW-2, 20)),
		)
		if err != nil {
			m.log.Warn().Err(err).Msg("markdown renderer unavailable")
		} else {
			m.markdown = r
		}
	}
	m.refreshTranscript()
}

// refreshTranscript re-renders the advisor transcript into the viewport.
func (m *Model) refreshTranscript() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	t := m.theme
	entries := m.advisor.Transcript()
	if len(entries) == 0 {
		return t.Loading.Render(advisor.MsgEmptyTranscript)
	}

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		switch e.Kind {
		case advisor.EntryRoutine:
			parts = append(parts, m.renderMarkdown(e.Text, t.Routine))
		case advisor.EntryAssistant:
			parts = append(parts, m.renderMarkdown(e.Text, t.AssistantReply))
		case advisor.EntryUser:
			parts = append(parts, t.UserMessage.Render("You: ")+strings.Join(util.SplitLines(e.Text), "\n"))
		case advisor.EntryNotice:
			parts = append(parts, styles.RenderNotice(e.Text))
		case advisor.EntryLoading:
			parts = append(parts, m.spinner.View()+" "+t.Loading.Render(e.Text))
		case advisor.EntryError:
			parts = append(parts, styles.RenderError(e.Text))
		}
	}
	return strings.Join(parts, "\n\n")
}

// renderMarkdown renders reply text with glamour, falling back to plain
// lines when markdown is off or rendering fails.
func (m *Model) renderMarkdown(text string, fallback lipgloss.Style) string {
	if m.markdown != nil {
		out, err := m.markdown.Render(util.HardBreaks(text))
		if err == nil {
			return strings.TrimRight(out, "\n")
		}
		m.log.Debug().Err(err).Msg("markdown render failed")
	}
	return fallback.Render(strings.Join(util.SplitLines(text), "\n"))
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole screen.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.viewHeader()
	footer := m.viewFooter()

	if m.showHelp {
		return lipgloss.JoinVertical(lipgloss.Left, header, m.help.FullHelpView(m.keys.FullHelp()), footer)
	}

	gridPane := m.pane(FocusGrid, m.layout.leftW, m.layout.gridH, m.grid.View())
	panelPane := m.pane(FocusPanel, m.layout.rightW, m.layout.panelH, m.panel.View())
	chatBody := lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.input.View())
	chatPane := m.pane(FocusChat, m.layout.rightW, m.layout.chatH, chatBody)

	var body string
	if m.layout.stacked {
		body = lipgloss.JoinVertical(lipgloss.Left, gridPane, panelPane, chatPane)
	} else {
		right := lipgloss.JoinVertical(lipgloss.Left, panelPane, chatPane)
		body = lipgloss.JoinHorizontal(lipgloss.Top, gridPane, right)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) pane(f Focus, width, height int, content string) string {
	style := m.theme.Unfocused
	if m.focus == f {
		style = m.theme.Focused
	}
	return style.Width(width).Height(height).MaxHeight(height + 2).Render(content)
}

func (m Model) viewHeader() string {
	t := m.theme
	title := t.HeaderTitle.Render("routine")
	filter := t.HeaderFilter.Render("Category: " + grid.CategoryLabel(m.category))
	counts := fmt.Sprintf("%d products | %d selected", len(m.grid.Cards()), m.store.Len())

	parts := []string{title, filter, counts}
	if m.loading {
		parts = append(parts, t.Loading.Render("loading catalog..."))
	}
	return t.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) viewFooter() string {
	t := m.theme
	var left string
	switch {
	case m.status != "" && m.statusIsErr:
		left = styles.RenderError(m.status)
	case m.status != "":
		left = m.status
	case m.pending:
		left = m.spinner.View() + " waiting for the advisor"
	default:
		left = "Focus: " + m.focus.String()
	}

	hints := m.help.ShortHelpView(m.keys.ShortHelp())
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if gap < 1 {
		return t.StatusBar.Width(m.width).Render(util.TruncateWidth(left, max(m.width-2, 1)))
	}
	return t.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + hints)
}
