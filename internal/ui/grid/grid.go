// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package grid

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeranaias/routine-tui/internal/catalog"
	"github.com/jeranaias/routine-tui/internal/selection"
	"github.com/jeranaias/routine-tui/internal/ui/styles"
	"github.com/jeranaias/routine-tui/internal/util"
)

// Placeholder texts.
const (
	MsgChooseCategory = "Select a category to view products"
	MsgNoProducts     = "No products found for this category."
)

// cardHeight is the rendered height of one card including its border.
const cardHeight = 5

// DefaultColumns is used when SetColumns is never called.
const DefaultColumns = 3

// Card is one rendered product.
type Card struct {
	Product  catalog.Product
	Selected bool
}

// ID returns the product id the card stands for.
func (c Card) ID() string {
	return c.Product.ID
}

// ToggleMsg reports the outcome of a card toggle.
type ToggleMsg struct {
	Product  catalog.Product
	Selected bool
	Err      error
}

// Model is the product grid. It is shared by pointer because the selection
// store calls back into it.
type Model struct {
	mu sync.Mutex

	theme *styles.Theme
	keys  KeyMap

	cards   []Card
	loaded  bool
	failure string

	cursor  int
	overlay string // id of the card whose description is open

	columns int
	width   int
	height  int
	focused bool

	store  *selection.Store
	cancel func()
}

// New creates an empty grid.
func New(theme *styles.Theme) *Model {
	return &Model{
		theme:   theme,
		keys:    DefaultKeyMap(),
		columns: DefaultColumns,
	}
}

// =============================================================================
// RENDERING INPUT
// =============================================================================

// Render replaces the cards with one card per product, in input order.
// An empty slice leaves the grid showing the "no products" placeholder.
func (m *Model) Render(products []catalog.Product) {
	m.mu.Lock()
	m.cards = make([]Card, len(products))
	for i, p := range products {
		m.cards[i] = Card{Product: p}
	}
	m.loaded = true
	m.failure = ""
	m.overlay = ""
	if m.cursor >= len(m.cards) {
		m.cursor = max(len(m.cards)-1, 0)
	}
	store := m.store
	m.mu.Unlock()

	if store != nil {
		m.ApplySelection(store)
	}
}

// Fail clears the grid and shows msg under the initial placeholder.
func (m *Model) Fail(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards = nil
	m.loaded = false
	m.failure = msg
	m.cursor = 0
	m.overlay = ""
}

// ApplySelection recomputes every card's marker from the store.
func (m *Model) ApplySelection(store *selection.Store) {
	m.applyItems(store.Items())
}

func (m *Model) applyItems(items []catalog.Product) {
	ids := make(map[string]struct{}, len(items))
	for _, p := range items {
		ids[p.ID] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.cards {
		_, ok := ids[m.cards[i].Product.ID]
		m.cards[i].Selected = ok
	}
}

// Bind makes the grid follow store. A previous binding is cancelled first so
// the grid never holds more than one subscription.
func (m *Model) Bind(store *selection.Store) {
	m.Unbind()

	cancel := store.Subscribe(m.applyItems)

	m.mu.Lock()
	m.store = store
	m.cancel = cancel
	m.mu.Unlock()

	m.ApplySelection(store)
}

// Unbind drops the current store subscription, if any.
func (m *Model) Unbind() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.store = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Cards returns a copy of the current cards.
func (m *Model) Cards() []Card {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Card, len(m.cards))
	copy(out, m.cards)
	return out
}

// Loaded reports whether Render has been called since the last failure.
func (m *Model) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// Cursor returns the index of the focused card.
func (m *Model) Cursor() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor
}

// Current returns the focused card.
func (m *Model) Current() (Card, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursor < 0 || m.cursor >= len(m.cards) {
		return Card{}, false
	}
	return m.cards[m.cursor], true
}

// OverlayOpen reports whether a description overlay is showing.
func (m *Model) OverlayOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlay != ""
}

// SetFocus marks the grid as the focused pane.
func (m *Model) SetFocus(focused bool) {
	m.mu.Lock()
	m.focused = focused
	m.mu.Unlock()
}

// SetSize sets the area available to the grid.
func (m *Model) SetSize(width, height int) {
	m.mu.Lock()
	m.width = width
	m.height = height
	m.mu.Unlock()
}

// SetColumns sets the number of cards per row.
func (m *Model) SetColumns(n int) {
	if n < 1 {
		n = 1
	}
	m.mu.Lock()
	m.columns = n
	m.mu.Unlock()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a key press while the grid has focus.
func (m *Model) Update(msg tea.KeyMsg) tea.Cmd {
	m.mu.Lock()

	// The overlay owns the keyboard while open; nothing reaches the card.
	if m.overlay != "" {
		if key.Matches(msg, m.keys.Close) {
			m.overlay = ""
		}
		m.mu.Unlock()
		return nil
	}

	if len(m.cards) == 0 {
		m.mu.Unlock()
		return nil
	}

	cols := m.effectiveColumnsLocked()
	switch {
	case key.Matches(msg, m.keys.Left):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Right):
		if m.cursor < len(m.cards)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor-cols >= 0 {
			m.cursor -= cols
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor+cols < len(m.cards) {
			m.cursor += cols
		} else if last := len(m.cards) - 1; m.cursor/cols < last/cols {
			m.cursor = last
		}
	case key.Matches(msg, m.keys.Details):
		m.overlay = m.cards[m.cursor].Product.ID
	case key.Matches(msg, m.keys.Toggle):
		product := m.cards[m.cursor].Product
		store := m.store
		m.mu.Unlock()
		return toggle(store, product)
	}
	m.mu.Unlock()
	return nil
}

// toggle runs synchronously so the store notification lands before the next
// render; the returned command only reports the result.
func toggle(store *selection.Store, p catalog.Product) tea.Cmd {
	if store == nil {
		return nil
	}
	selected, err := store.Toggle(context.Background(), p)
	return func() tea.Msg {
		return ToggleMsg{Product: p, Selected: selected, Err: err}
	}
}

func (m *Model) effectiveColumnsLocked() int {
	cols := m.columns
	if cols < 1 {
		cols = 1
	}
	if m.width > 0 {
		// Keep cards at least 18 cells wide.
		if fit := m.width / 18; fit < cols {
			cols = max(fit, 1)
		}
	}
	return cols
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the grid.
func (m *Model) View() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.theme
	if !m.loaded {
		out := t.GridPlaceholder.Render(MsgChooseCategory)
		if m.failure != "" {
			out += "\n" + styles.RenderError(m.failure)
		}
		return out
	}
	if len(m.cards) == 0 {
		return t.GridPlaceholder.Render(MsgNoProducts)
	}

	cols := m.effectiveColumnsLocked()
	cardWidth := 24
	if m.width > 0 {
		cardWidth = m.width/cols - 2
	}
	inner := max(cardWidth-2, 8)

	overlay := m.overlayViewLocked(m.width)
	visibleRows := len(m.cards)
	if m.height > 0 {
		avail := m.height - lipgloss.Height(overlay)
		visibleRows = max(avail/cardHeight, 1)
	}

	totalRows := (len(m.cards) + cols - 1) / cols
	firstRow := 0
	if cursorRow := m.cursor / cols; cursorRow >= visibleRows {
		firstRow = cursorRow - visibleRows + 1
	}
	lastRow := min(firstRow+visibleRows, totalRows)

	var rows []string
	for r := firstRow; r < lastRow; r++ {
		var cells []string
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if i >= len(m.cards) {
				break
			}
			cells = append(cells, m.cardViewLocked(i, inner))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	out := lipgloss.JoinVertical(lipgloss.Left, rows...)
	if overlay != "" {
		out = lipgloss.JoinVertical(lipgloss.Left, out, overlay)
	}
	return out
}

func (m *Model) cardViewLocked(i, inner int) string {
	t := m.theme
	card := m.cards[i]
	p := card.Product

	marker := t.CardMarker.Render(styles.MarkerUnselected)
	if card.Selected {
		marker = t.CardSelected.Render(styles.MarkerSelected)
	}
	name := t.CardTitle.Render(util.TruncateWidth(p.Name, inner-4))
	brand := t.CardBrand.Render(util.TruncateWidth(p.Brand, inner))
	category := t.CardMarker.Render(util.TruncateWidth(CategoryLabel(p.Category), inner))

	body := strings.Join([]string{marker + " " + name, brand, category}, "\n")

	style := t.Card
	if m.focused && i == m.cursor {
		style = t.CardFocused
	}
	return style.Width(inner).Render(body)
}

func (m *Model) overlayViewLocked(width int) string {
	if m.overlay == "" {
		return ""
	}
	p, ok := catalogFind(m.cards, m.overlay)
	if !ok {
		return ""
	}
	w := 60
	if width > 0 {
		w = max(width-4, 20)
	}
	body := m.theme.CardTitle.Render(p.Name) + "\n" +
		m.theme.CardBrand.Render(p.Brand) + "\n\n" +
		strings.Join(util.SplitLines(p.Description), "\n")
	return m.theme.DescOverlay.Width(w).Render(body)
}

func catalogFind(cards []Card, id string) (catalog.Product, bool) {
	for _, c := range cards {
		if c.Product.ID == id {
			return c.Product, true
		}
	}
	return catalog.Product{}, false
}

// =============================================================================
// LABELS
// =============================================================================

// CategoryLabel turns a category value such as "skincare" or "hair_care"
// into a display label. An empty category means no filter.
func CategoryLabel(category string) string {
	if category == "" {
		return "All products"
	}
	return cases.Title(language.English).String(strings.NewReplacer("_", " ", "-", " ").Replace(category))
}
