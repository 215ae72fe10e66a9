// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package grid

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/routine-tui/internal/catalog"
	"github.com/jeranaias/routine-tui/internal/kv"
	"github.com/jeranaias/routine-tui/internal/selection"
	"github.com/jeranaias/routine-tui/internal/ui/styles"
)

var products = []catalog.Product{
	{ID: "a1", Name: "Foaming Cleanser", Brand: "L'Oréal Paris", Category: "cleanser", Description: "Gentle daily wash."},
	{ID: "b1", Name: "Hyaluronic Serum", Brand: "L'Oréal Paris", Category: "serum", Description: "Plumps.\nHydrates."},
	{ID: "c1", Name: "Hydrating Cleanser", Brand: "CeraVe", Category: "cleanser", Description: "Non-foaming."},
}

func newGrid() *Model {
	m := New(styles.NewTheme("dark"))
	m.SetFocus(true)
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func cardIDs(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID()
	}
	return out
}

func TestView_BeforeLoad(t *testing.T) {
	m := newGrid()
	assert.Contains(t, m.View(), MsgChooseCategory)
	assert.False(t, m.Loaded())
}

func TestRender_EmptyShowsPlaceholder(t *testing.T) {
	m := newGrid()
	m.Render(nil)

	assert.Empty(t, m.Cards())
	assert.Contains(t, m.View(), MsgNoProducts)
}

func TestRender_OneCardPerProductInOrder(t *testing.T) {
	m := newGrid()
	m.Render(products)
	assert.Equal(t, []string{"a1", "b1", "c1"}, cardIDs(m.Cards()))

	// Re-rendering replaces rather than appends
	m.Render(products[:1])
	assert.Equal(t, []string{"a1"}, cardIDs(m.Cards()))
}

func TestRender_CategoryFilter(t *testing.T) {
	m := newGrid()
	m.Render(catalog.FilterByCategory(products, "cleanser"))

	for _, c := range m.Cards() {
		assert.Equal(t, "cleanser", c.Product.Category)
	}
	assert.Len(t, m.Cards(), 2)
}

func TestFail_ShowsMessage(t *testing.T) {
	m := newGrid()
	m.Render(products)
	m.Fail("Failed to load products (press r to retry)")

	view := m.View()
	assert.Contains(t, view, MsgChooseCategory)
	assert.Contains(t, view, "press r to retry")
	assert.Empty(t, m.Cards())
}

func TestToggle_UpdatesStoreAndMarkers(t *testing.T) {
	store := selection.New(kv.NewMemoryStore(), selection.DefaultKey)
	m := newGrid()
	m.Render(products)
	m.Bind(store)

	cmd := m.Update(keyMsg("enter"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(ToggleMsg)
	require.True(t, ok)
	assert.NoError(t, msg.Err)
	assert.True(t, msg.Selected)
	assert.True(t, store.Contains("a1"))
	assert.True(t, m.Cards()[0].Selected)

	// Space toggles it back off
	m.Update(keyMsg(" "))
	assert.False(t, store.Contains("a1"))
	assert.False(t, m.Cards()[0].Selected)
}

func TestApplySelection_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := selection.New(kv.NewMemoryStore(), selection.DefaultKey)
	_, err := store.Toggle(ctx, products[1])
	require.NoError(t, err)

	m := newGrid()
	m.Render(products)
	m.ApplySelection(store)
	first := m.Cards()
	m.ApplySelection(store)
	m.ApplySelection(store)

	assert.Equal(t, first, m.Cards())
	assert.False(t, first[0].Selected)
	assert.True(t, first[1].Selected)
}

func TestBind_ReplacesSubscription(t *testing.T) {
	store := selection.New(kv.NewMemoryStore(), selection.DefaultKey)
	m := newGrid()
	m.Bind(store)
	m.Bind(store)
	m.Bind(store)
	assert.Equal(t, 1, store.Subscribers())

	m.Unbind()
	assert.Equal(t, 0, store.Subscribers())
}

func TestBind_FollowsExternalChanges(t *testing.T) {
	store := selection.New(kv.NewMemoryStore(), selection.DefaultKey)
	m := newGrid()
	m.Render(products)
	m.Bind(store)

	_, err := store.Toggle(context.Background(), products[2])
	require.NoError(t, err)
	assert.True(t, m.Cards()[2].Selected)

	_, err = store.RemoveAt(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, m.Cards()[2].Selected)
}

func TestOverlay_DoesNotToggle(t *testing.T) {
	store := selection.New(kv.NewMemoryStore(), selection.DefaultKey)
	m := newGrid()
	m.Render(products)
	m.Bind(store)

	m.Update(keyMsg("d"))
	require.True(t, m.OverlayOpen())
	assert.Contains(t, m.View(), "Gentle daily wash.")

	// Enter and space are swallowed by the overlay
	assert.Nil(t, m.Update(keyMsg("enter")))
	assert.Nil(t, m.Update(keyMsg(" ")))
	assert.Equal(t, 0, store.Len())
	assert.True(t, m.OverlayOpen())

	m.Update(keyMsg("d"))
	assert.False(t, m.OverlayOpen())

	m.Update(keyMsg("d"))
	m.Update(keyMsg("esc"))
	assert.False(t, m.OverlayOpen())
	assert.Equal(t, 0, store.Len())
}

func TestNavigation_Clamped(t *testing.T) {
	m := newGrid()
	m.SetColumns(2)
	m.Render(products)

	m.Update(keyMsg("left"))
	assert.Equal(t, 0, m.Cursor())

	m.Update(keyMsg("right"))
	assert.Equal(t, 1, m.Cursor())

	m.Update(keyMsg("j"))
	assert.Equal(t, 2, m.Cursor())

	m.Update(keyMsg("l"))
	assert.Equal(t, 2, m.Cursor())

	m.Update(keyMsg("k"))
	assert.Equal(t, 0, m.Cursor())
}

func TestView_Markers(t *testing.T) {
	store := selection.New(kv.NewMemoryStore(), selection.DefaultKey)
	_, err := store.Toggle(context.Background(), products[0])
	require.NoError(t, err)

	m := newGrid()
	m.SetSize(120, 40)
	m.Render(products)
	m.Bind(store)

	view := m.View()
	assert.Equal(t, 1, strings.Count(view, styles.MarkerSelected))
	assert.Equal(t, 2, strings.Count(view, styles.MarkerUnselected))
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "All products", CategoryLabel(""))
	assert.Equal(t, "Skincare", CategoryLabel("skincare"))
	assert.Equal(t, "Hair Care", CategoryLabel("hair_care"))
}
