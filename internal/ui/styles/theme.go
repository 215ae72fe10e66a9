// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER / STATUS
	// ==========================================================================

	Header       lipgloss.Style
	HeaderTitle  lipgloss.Style
	HeaderFilter lipgloss.Style
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// PRODUCT GRID
	// ==========================================================================

	Card            lipgloss.Style
	CardFocused     lipgloss.Style
	CardSelected    lipgloss.Style
	CardTitle       lipgloss.Style
	CardBrand       lipgloss.Style
	CardMarker      lipgloss.Style
	DescOverlay     lipgloss.Style
	GridPlaceholder lipgloss.Style

	// ==========================================================================
	// SELECTION PANEL
	// ==========================================================================

	Panel        lipgloss.Style
	PanelTitle   lipgloss.Style
	PanelRow     lipgloss.Style
	PanelRowSel  lipgloss.Style
	RemoveButton lipgloss.Style
	PanelEmpty   lipgloss.Style

	// ==========================================================================
	// CHAT PANE
	// ==========================================================================

	ChatPane       lipgloss.Style
	Routine        lipgloss.Style
	UserMessage    lipgloss.Style
	AssistantReply lipgloss.Style
	Notice         lipgloss.Style
	Loading        lipgloss.Style
	ErrorMessage   lipgloss.Style
	InputPrompt    lipgloss.Style

	// Focus ring applied to whichever pane has focus
	Focused   lipgloss.Style
	Unfocused lipgloss.Style
}

// NewTheme creates a theme. mode is "auto", "dark" or "light"; auto asks
// the terminal for its background.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch mode {
	case "dark":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(Gold)
	t.HeaderFilter = lipgloss.NewStyle().Foreground(Cyan)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)

	// Grid
	t.Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(OverlayDim).
		Padding(0, 1)
	t.CardFocused = t.Card.
		BorderForeground(Gold)
	t.CardSelected = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)
	t.CardTitle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)
	t.CardBrand = lipgloss.NewStyle().Foreground(TextSecondary)
	t.CardMarker = lipgloss.NewStyle().Foreground(TextMuted)
	t.DescOverlay = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SurfaceBright).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Gold).
		Padding(0, 1)
	t.GridPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		Padding(1, 2)

	// Panel
	t.Panel = lipgloss.NewStyle().Padding(0, 1)
	t.PanelTitle = lipgloss.NewStyle().Bold(true).Foreground(Gold)
	t.PanelRow = lipgloss.NewStyle().Foreground(TextPrimary)
	t.PanelRowSel = lipgloss.NewStyle().Foreground(TextInverse).Background(Cyan)
	t.RemoveButton = lipgloss.NewStyle().Foreground(Rose)
	t.PanelEmpty = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	// Chat
	t.ChatPane = lipgloss.NewStyle().Padding(0, 1)
	t.Routine = lipgloss.NewStyle().Foreground(TextPrimary)
	t.UserMessage = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.AssistantReply = lipgloss.NewStyle().Foreground(Purple)
	t.Notice = lipgloss.NewStyle().Foreground(Amber)
	t.Loading = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.ErrorMessage = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.InputPrompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	t.Focused = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Gold)
	t.Unfocused = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Overlay)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
