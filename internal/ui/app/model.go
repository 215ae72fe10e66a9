// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"github.com/jeranaias/routine-tui/internal/advisor"
	"github.com/jeranaias/routine-tui/internal/catalog"
	"github.com/jeranaias/routine-tui/internal/chat"
	"github.com/jeranaias/routine-tui/internal/config"
	"github.com/jeranaias/routine-tui/internal/export"
	"github.com/jeranaias/routine-tui/internal/logging"
	"github.com/jeranaias/routine-tui/internal/selection"
	"github.com/jeranaias/routine-tui/internal/ui/grid"
	"github.com/jeranaias/routine-tui/internal/ui/panel"
	"github.com/jeranaias/routine-tui/internal/ui/styles"
)

// MsgLoadFailed is shown under the grid placeholder when the catalog fails.
const MsgLoadFailed = "Failed to load products (press r to retry)"

// statusTTL is how long a transient status line stays visible.
const statusTTL = 4 * time.Second

var (
	gridKeys  = grid.DefaultKeyMap()
	panelKeys = panel.DefaultKeyMap()
)

// Focus identifies the pane receiving key presses.
type Focus int

const (
	FocusGrid Focus = iota
	FocusPanel
	FocusChat
	focusCount
)

// String returns the pane name.
func (f Focus) String() string {
	switch f {
	case FocusGrid:
		return "products"
	case FocusPanel:
		return "selection"
	case FocusChat:
		return "chat"
	default:
		return "unknown"
	}
}

// Deps are the collaborators the shell drives.
type Deps struct {
	Config  *config.Config
	Loader  *catalog.Loader
	Store   *selection.Store
	Advisor *advisor.Advisor
	Theme   *styles.Theme

	// Watcher is optional; nil disables live reload.
	Watcher *catalog.Watcher

	// ExportDir is where transcripts are written. Defaults to ".".
	ExportDir string
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx     context.Context
	cfg     *config.Config
	loader  *catalog.Loader
	store   *selection.Store
	advisor *advisor.Advisor
	watcher *catalog.Watcher
	theme   *styles.Theme
	log     zerolog.Logger

	keys     KeyMap
	help     help.Model
	grid     *grid.Model
	panel    *panel.Model
	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	markdown *glamour.TermRenderer

	products   []catalog.Product
	categories []string
	category   string

	focus     Focus
	loading   bool
	pending   bool
	showHelp  bool
	exportDir string

	status      string
	statusIsErr bool
	statusSeq   int

	width  int
	height int
	layout layout
}

// New builds the shell around d.
func New(ctx context.Context, d Deps) Model {
	cfg := d.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := d.Theme
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}
	dir := d.ExportDir
	if dir == "" {
		dir = "."
	}

	g := grid.New(theme)
	g.SetColumns(cfg.UI.Columns)
	g.Bind(d.Store)
	g.SetFocus(true)

	p := panel.New(theme, d.Store)
	p.Bind()

	in := textinput.New()
	in.Placeholder = "Ask a follow-up question..."
	in.Prompt = "> "
	in.PromptStyle = theme.InputPrompt
	in.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Loading

	m := Model{
		ctx:       ctx,
		cfg:       cfg,
		loader:    d.Loader,
		store:     d.Store,
		advisor:   d.Advisor,
		watcher:   d.Watcher,
		theme:     theme,
		log:       logging.Component("app"),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		grid:      g,
		panel:     p,
		input:     in,
		spinner:   sp,
		viewport:  viewport.New(40, 10),
		exportDir: dir,
		loading:   true,
	}
	m.refreshTranscript()
	return m
}

// Init starts the first catalog load and the file watcher.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadCatalog(m.ctx, m.loader),
		waitForChange(m.watcher),
	)
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, d Deps) error {
	p := tea.NewProgram(
		New(ctx, d),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshTranscript()
		return m, cmd

	case catalogLoadedMsg:
		return m.handleCatalog(msg)

	case catalogChangedMsg:
		m.log.Info().Str("source", m.loader.Source()).Msg("catalog changed on disk")
		m.loading = true
		return m, tea.Batch(loadCatalog(m.ctx, m.loader), waitForChange(m.watcher))

	case advisorDoneMsg:
		return m.handleAdvisorDone(msg)

	case exportDoneMsg:
		if msg.err != nil {
			m.log.Error().Err(msg.err).Msg("export failed")
			return m.setStatus("Export failed: "+msg.err.Error(), true)
		}
		m.log.Info().Str("path", msg.path).Msg("transcript exported")
		return m.setStatus("Exported to "+msg.path, false)

	case grid.ToggleMsg:
		if msg.Err != nil {
			return m.setStatus("Could not save selection: "+msg.Err.Error(), true)
		}
		verb := "Removed"
		if msg.Selected {
			verb = "Added"
		}
		return m.setStatus(fmt.Sprintf("%s %s", verb, msg.Product.Name), false)

	case panel.RemoveMsg:
		if msg.Err != nil {
			return m.setStatus("Could not save selection: "+msg.Err.Error(), true)
		}
		if msg.Removed {
			return m.setStatus("Removed "+msg.Product.Name, false)
		}
		return m, nil

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusIsErr = false
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Back, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	// An open description overlay owns the keyboard until it closes.
	if m.focus == FocusGrid && m.grid.OverlayOpen() {
		return m, m.grid.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.NextFocus):
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case key.Matches(msg, m.keys.PrevFocus):
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == FocusChat {
		return m.handleChatKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.NextCategory):
		return m.cycleCategory(1)
	case key.Matches(msg, m.keys.PrevCategory):
		return m.cycleCategory(-1)
	case key.Matches(msg, m.keys.Generate):
		return m.generate()
	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		return m, loadCatalog(m.ctx, m.loader)
	case key.Matches(msg, m.keys.Export):
		return m.export()
	}

	if m.focus == FocusPanel {
		return m, m.panel.Update(msg)
	}
	return m, m.grid.Update(msg)
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.setFocus(FocusGrid)
		return m, nil
	case key.Matches(msg, m.keys.Send):
		return m.askFollowUp()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) setFocus(f Focus) {
	m.focus = f
	m.grid.SetFocus(f == FocusGrid)
	m.panel.SetFocus(f == FocusPanel)
	if f == FocusChat {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// =============================================================================
// CATALOG
// =============================================================================

func (m Model) handleCatalog(msg catalogLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		m.log.Error().Err(msg.err).Str("source", m.loader.Source()).Msg("catalog load failed")
		m.grid.Fail(MsgLoadFailed)
		return m, nil
	}

	m.products = msg.products
	m.categories = catalog.Categories(msg.products)
	m.grid.Render(catalog.FilterByCategory(m.products, m.category))
	m.log.Debug().
		Int("products", len(m.products)).
		Str("category", m.category).
		Msg("catalog rendered")
	return m, nil
}

// cycleCategory moves the filter through "all" followed by every category
// and reloads the catalog for the new value.
func (m Model) cycleCategory(delta int) (tea.Model, tea.Cmd) {
	options := append([]string{""}, m.categories...)
	idx := 0
	for i, c := range options {
		if c == m.category {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(options)) % len(options)
	m.category = options[idx]
	m.loading = true
	return m, loadCatalog(m.ctx, m.loader)
}

// =============================================================================
// ADVISOR
// =============================================================================

func (m Model) generate() (tea.Model, tea.Cmd) {
	if m.pending || m.advisor.Busy() {
		return m.setStatus("A request is already in progress", true)
	}
	items := m.store.Items()
	adv := m.advisor
	ctx := m.ctx
	m.pending = true
	return m, tea.Batch(
		m.spinner.Tick,
		runAdvisor("generate", func() error {
			return adv.GenerateRoutine(ctx, items)
		}),
	)
}

func (m Model) askFollowUp() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if m.pending || m.advisor.Busy() {
		return m.setStatus("A request is already in progress", true)
	}
	m.input.Reset()
	adv := m.advisor
	ctx := m.ctx
	m.pending = true
	return m, tea.Batch(
		m.spinner.Tick,
		runAdvisor("follow-up", func() error {
			return adv.AskFollowUp(ctx, text)
		}),
	)
}

func (m Model) handleAdvisorDone(msg advisorDoneMsg) (tea.Model, tea.Cmd) {
	// A rejected request leaves the running one pending.
	if errors.Is(msg.err, advisor.ErrBusy) {
		return m.setStatus("A request is already in progress", true)
	}
	m.pending = false
	m.refreshTranscript()

	var verr *advisor.ValidationError
	switch {
	case msg.err == nil:
		return m, nil
	case errors.As(msg.err, &verr), errors.Is(msg.err, chat.ErrNotConfigured):
		// Already shown as a transcript notice.
		return m, nil
	default:
		m.log.Error().Err(msg.err).Str("op", msg.op).Str("session", m.advisor.SessionID()).Msg("advisor request failed")
		return m, nil
	}
}

func (m Model) export() (tea.Model, tea.Cmd) {
	conv := export.NewConversation(m.advisor, m.store.Items(), m.cfg.Chat.Model)
	return m, exportTranscript(conv, m.exportDir)
}

// =============================================================================
// STATUS
// =============================================================================

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.statusSeq++
	m.status = text
	m.statusIsErr = isErr
	return m, clearStatusAfter(m.statusSeq, statusTTL)
}

// =============================================================================
// ACCESSORS (tests)
// =============================================================================

// Focused returns the pane that has focus.
func (m Model) Focused() Focus { return m.focus }

// Category returns the active category filter; empty means all.
func (m Model) Category() string { return m.category }

// Grid returns the product grid.
func (m Model) Grid() *grid.Model { return m.grid }

// Panel returns the selection panel.
func (m Model) Panel() *panel.Model { return m.panel }

// Status returns the current status line.
func (m Model) Status() string { return m.status }
