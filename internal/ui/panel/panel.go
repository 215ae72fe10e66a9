// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/routine-tui/internal/catalog"
	"github.com/jeranaias/routine-tui/internal/selection"
	"github.com/jeranaias/routine-tui/internal/ui/styles"
	"github.com/jeranaias/routine-tui/internal/util"
)

// MsgEmpty is shown when nothing is selected.
const MsgEmpty = "No products selected yet."

// RemoveLabel is the text of each row's remove control.
const RemoveLabel = "[Remove]"

// Row is one selected product and the handler that removes it.
type Row struct {
	Index   int
	Product catalog.Product
	Remove  func() (bool, error)
}

// Label returns the "name (brand)" text of the row.
func (r Row) Label() string {
	return fmt.Sprintf("%s (%s)", r.Product.Name, r.Product.Brand)
}

// RemoveMsg reports the outcome of a row removal.
type RemoveMsg struct {
	Product catalog.Product
	Removed bool
	Err     error
}

// KeyMap defines the panel bindings.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Remove key.Binding
}

// DefaultKeyMap returns the default panel bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x/del", "remove"),
		),
	}
}

// Model is the selection panel.
type Model struct {
	mu sync.Mutex

	theme *styles.Theme
	keys  KeyMap
	store *selection.Store

	rows    []Row
	cursor  int
	focused bool
	width   int
	height  int

	cancel func()
}

// New creates a panel over store and renders its current contents.
func New(theme *styles.Theme, store *selection.Store) *Model {
	m := &Model{
		theme: theme,
		keys:  DefaultKeyMap(),
		store: store,
	}
	m.Render()
	return m
}

// Render rebuilds every row, and its remove handler, from the store.
// Handlers from earlier renders are discarded.
func (m *Model) Render() {
	m.build(m.store.Items())
}

func (m *Model) build(items []catalog.Product) {
	rows := make([]Row, len(items))
	for i, p := range items {
		index := i
		rows[i] = Row{
			Index:   index,
			Product: p,
			Remove: func() (bool, error) {
				return m.store.RemoveAt(context.Background(), index)
			},
		}
	}

	m.mu.Lock()
	m.rows = rows
	if m.cursor >= len(rows) {
		m.cursor = max(len(rows)-1, 0)
	}
	m.mu.Unlock()
}

// Bind re-renders the panel on every store change. Calling it again
// replaces the earlier subscription.
func (m *Model) Bind() {
	m.Unbind()
	cancel := m.store.Subscribe(m.build)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()
	m.Render()
}

// Unbind stops following the store.
func (m *Model) Unbind() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Rows returns the rows built by the last render.
func (m *Model) Rows() []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Row, len(m.rows))
	copy(out, m.rows)
	return out
}

// Cursor returns the focused row index.
func (m *Model) Cursor() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor
}

// SetFocus marks the panel as focused.
func (m *Model) SetFocus(focused bool) {
	m.mu.Lock()
	m.focused = focused
	m.mu.Unlock()
}

// SetSize sets the area available to the panel.
func (m *Model) SetSize(width, height int) {
	m.mu.Lock()
	m.width = width
	m.height = height
	m.mu.Unlock()
}

// Update handles a key press while the panel has focus.
func (m *Model) Update(msg tea.KeyMsg) tea.Cmd {
	m.mu.Lock()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Remove):
		if m.cursor >= len(m.rows) {
			break
		}
		row := m.rows[m.cursor]
		m.mu.Unlock()

		removed, err := row.Remove()
		m.Render()
		return func() tea.Msg {
			return RemoveMsg{Product: row.Product, Removed: removed, Err: err}
		}
	}
	m.mu.Unlock()
	return nil
}

// View renders the panel.
func (m *Model) View() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.theme
	var b strings.Builder
	b.WriteString(t.PanelTitle.Render(fmt.Sprintf("Selected (%d)", len(m.rows))))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(t.PanelEmpty.Render(MsgEmpty))
		return t.Panel.Render(b.String())
	}

	labelWidth := 0
	if m.width > 0 {
		labelWidth = max(m.width-len(RemoveLabel)-4, 8)
	}

	first := 0
	if m.height > 1 {
		visible := m.height - 1
		if m.cursor >= visible {
			first = m.cursor - visible + 1
		}
	}

	for i := first; i < len(m.rows); i++ {
		if m.height > 1 && i-first >= m.height-1 {
			break
		}
		label := m.rows[i].Label()
		if labelWidth > 0 {
			label = util.PadWidth(util.TruncateWidth(label, labelWidth), labelWidth)
		}
		style := t.PanelRow
		if m.focused && i == m.cursor {
			style = t.PanelRowSel
		}
		b.WriteString(style.Render(label))
		b.WriteString(" ")
		b.WriteString(t.RemoveButton.Render(RemoveLabel))
		if i < len(m.rows)-1 {
			b.WriteString("\n")
		}
	}
	return t.Panel.Render(b.String())
}
