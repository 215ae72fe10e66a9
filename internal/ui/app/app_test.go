// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/routine-tui/internal/advisor"
	"github.com/jeranaias/routine-tui/internal/catalog"
	"github.com/jeranaias/routine-tui/internal/chat"
	"github.com/jeranaias/routine-tui/internal/config"
	"github.com/jeranaias/routine-tui/internal/kv"
	"github.com/jeranaias/routine-tui/internal/selection"
	"github.com/jeranaias/routine-tui/internal/ui/styles"
)

const catalogJSON = `{"products":[
 {"id":"a1","name":"Foaming Cleanser","brand":"L'Oréal Paris","category":"cleanser","description":"Gentle.","image":"a1.png"},
 {"id":"b1","name":"Hyaluronic Serum","brand":"L'Oréal Paris","category":"serum","description":"Plumps.","image":"b1.png"},
 {"id":"c1","name":"Hydrating Cleanser","brand":"CeraVe","category":"cleanser","description":"Calm.","image":"c1.png"}
]}`

// stubCompleter answers every request with reply.
type stubCompleter struct {
	reply string
	calls int
}

func (s *stubCompleter) IsConfigured() bool { return true }

func (s *stubCompleter) Complete(_ context.Context, _ []chat.Message) (string, error) {
	s.calls++
	return s.reply, nil
}

type harness struct {
	model   Model
	store   *selection.Store
	advisor *advisor.Advisor
	chat    *stubCompleter
	catalog string
	dir     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, func(cfg *config.Config) { cfg.UI.Markdown = false })
}

// newHarnessWith builds a harness from the default config after applying
// tweak.
func newHarnessWith(t *testing.T, tweak func(cfg *config.Config)) *harness {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "products.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0644))

	cfg := config.Default()
	cfg.Catalog.Source = path
	tweak(cfg)

	store := selection.New(kv.NewMemoryStore(), selection.DefaultKey)
	completer := &stubCompleter{reply: "Morning: cleanse.\nNight: serum."}
	adv := advisor.New(completer, cfg.Chat.SystemPrompt)

	m := New(context.Background(), Deps{
		Config:    cfg,
		Loader:    catalog.NewLoader(cfg.Catalog),
		Store:     store,
		Advisor:   adv,
		Theme:     styles.NewTheme("dark"),
		ExportDir: dir,
	})
	h := &harness{model: m, store: store, advisor: adv, chat: completer, catalog: path, dir: dir}
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.load()
	return h
}

// send feeds msg to the model and returns the follow-up command.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) load() {
	h.send(loadCatalog(context.Background(), h.model.loader)())
}

func (h *harness) key(s string) tea.Cmd {
	switch s {
	case "tab":
		return h.send(tea.KeyMsg{Type: tea.KeyTab})
	case "enter":
		return h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return h.send(tea.KeyMsg{Type: tea.KeyEsc})
	}
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// advisorResult runs the batch returned by generate/follow-up and returns
// the advisor message from it.
func advisorResult(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return msg
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if done, ok := c().(advisorDoneMsg); ok {
			return done
		}
	}
	t.Fatal("no advisor result in batch")
	return nil
}

func cardIDs(h *harness) []string {
	var out []string
	for _, c := range h.model.Grid().Cards() {
		out = append(out, c.ID())
	}
	return out
}

func TestInitialLoad_ShowsAllProducts(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, []string{"a1", "b1", "c1"}, cardIDs(h))
	assert.Equal(t, "", h.model.Category())

	view := h.model.View()
	assert.Contains(t, view, "Category: All products")
	assert.Contains(t, view, "No products selected yet.")
}

func TestCategoryCycle_ReloadsAndFilters(t *testing.T) {
	h := newHarness(t)

	cmd := h.key("c")
	require.NotNil(t, cmd)
	assert.Equal(t, "cleanser", h.model.Category())
	h.send(cmd())
	assert.Equal(t, []string{"a1", "c1"}, cardIDs(h))

	h.send(h.key("c")())
	assert.Equal(t, "serum", h.model.Category())
	assert.Equal(t, []string{"b1"}, cardIDs(h))

	// Wraps back to all products
	h.send(h.key("c")())
	assert.Equal(t, "", h.model.Category())
	assert.Len(t, cardIDs(h), 3)

	h.send(h.key("C")())
	assert.Equal(t, "serum", h.model.Category())
}

func TestCategoryCycle_PicksUpCatalogChanges(t *testing.T) {
	h := newHarness(t)
	h.send(h.key("c")())
	require.Equal(t, "cleanser", h.model.Category())

	// Drop the first cleanser; the next reload reflects it
	updated := strings.Replace(catalogJSON,
		`{"id":"a1","name":"Foaming Cleanser","brand":"L'Oréal Paris","category":"cleanser","description":"Gentle.","image":"a1.png"},`, "", 1)
	require.NoError(t, os.WriteFile(h.catalog, []byte(updated), 0644))

	h.send(h.key("r")())
	assert.Equal(t, []string{"c1"}, cardIDs(h))
}

func TestLoadFailure_ShowsRetryHint(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.catalog, []byte(`{"items":[]}`), 0644))

	h.send(h.key("r")())
	assert.Empty(t, cardIDs(h))
	assert.Contains(t, h.model.View(), MsgLoadFailed)

	require.NoError(t, os.WriteFile(h.catalog, []byte(catalogJSON), 0644))
	h.send(h.key("r")())
	assert.Len(t, cardIDs(h), 3)
}

func TestFocusCycle(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, FocusGrid, h.model.Focused())
	h.key("tab")
	assert.Equal(t, FocusPanel, h.model.Focused())
	h.key("tab")
	assert.Equal(t, FocusChat, h.model.Focused())
	h.key("tab")
	assert.Equal(t, FocusGrid, h.model.Focused())
}

func TestToggle_UpdatesPanel(t *testing.T) {
	h := newHarness(t)

	cmd := h.key("enter")
	require.NotNil(t, cmd)
	h.send(cmd())

	assert.True(t, h.store.Contains("a1"))
	assert.Contains(t, h.model.Status(), "Added Foaming Cleanser")
	assert.Contains(t, h.model.View(), "Foaming Cleanser (L'Oréal Paris)")

	// Remove from the panel
	h.key("tab")
	h.send(h.key("x")())
	assert.Equal(t, 0, h.store.Len())
	assert.False(t, h.model.Grid().Cards()[0].Selected)
}

func TestGenerate_EmptySelectionShowsNotice(t *testing.T) {
	h := newHarness(t)

	h.send(advisorResult(t, h.key("g")))
	assert.Equal(t, 0, h.chat.calls)
	assert.Contains(t, h.model.View(), advisor.MsgSelectProduct)
}

func TestGenerateThenFollowUp(t *testing.T) {
	h := newHarness(t)
	h.send(h.key("enter")())

	h.send(advisorResult(t, h.key("g")))
	require.Equal(t, 1, h.chat.calls)
	transcript := h.advisor.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, advisor.EntryRoutine, transcript[0].Kind)
	assert.Contains(t, h.model.View(), "Night: serum.")

	h.key("tab")
	h.key("tab")
	require.Equal(t, FocusChat, h.model.Focused())
	h.model.input.SetValue("Can I add a toner?")
	h.send(advisorResult(t, h.key("enter")))

	assert.Equal(t, 2, h.chat.calls)
	transcript = h.advisor.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, advisor.EntryUser, transcript[1].Kind)
	assert.Equal(t, advisor.EntryAssistant, transcript[2].Kind)
	assert.Empty(t, h.model.input.Value())
}

func TestFollowUp_BlankIgnored(t *testing.T) {
	h := newHarness(t)
	h.key("tab")
	h.key("tab")
	h.model.input.SetValue("   ")
	assert.Nil(t, h.key("enter"))
	assert.Equal(t, 0, h.chat.calls)
}

func TestChatFocus_KeysAreTyped(t *testing.T) {
	h := newHarness(t)
	h.key("tab")
	h.key("tab")

	h.key("q")
	h.key("g")
	assert.Equal(t, "qg", h.model.input.Value())
	assert.Equal(t, 0, h.chat.calls)

	h.key("esc")
	assert.Equal(t, FocusGrid, h.model.Focused())
}

func TestExport_WritesMarkdown(t *testing.T) {
	h := newHarness(t)
	h.send(h.key("enter")())
	h.send(advisorResult(t, h.key("g")))

	cmd := h.key("e")
	require.NotNil(t, cmd)
	msg := cmd().(exportDoneMsg)
	require.NoError(t, msg.err)
	assert.Equal(t, h.dir, filepath.Dir(msg.path))

	data, err := os.ReadFile(msg.path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Night: serum.")

	h.send(msg)
	assert.Contains(t, h.model.Status(), "Exported to")
}

func TestHelpAndQuit(t *testing.T) {
	h := newHarness(t)

	h.key("?")
	assert.Contains(t, h.model.View(), "next category")
	h.key("?")

	cmd := h.key("q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestStatusClear_OnlyLatest(t *testing.T) {
	h := newHarness(t)
	h.send(h.key("enter")())
	seq := h.model.statusSeq

	h.send(statusClearMsg{seq: seq - 1})
	assert.NotEmpty(t, h.model.Status())

	h.send(statusClearMsg{seq: seq})
	assert.Empty(t, h.model.Status())
}

func TestGenerate_MarkdownKeepsLineBreaks(t *testing.T) {
	h := newHarnessWith(t, func(*config.Config) {})
	require.True(t, h.model.cfg.UI.Markdown)
	h.chat.reply = "Step 1 cleanse\nStep 2 serum\nStep 3 moisturize"
	h.send(tea.WindowSizeMsg{Width: 160, Height: 50})
	h.send(h.key("enter")())

	h.send(advisorResult(t, h.key("g")))
	require.Equal(t, 1, h.chat.calls)

	rendered := ansi.Strip(h.model.renderTranscript())
	found := 0
	for _, line := range strings.Split(rendered, "\n") {
		n := strings.Count(line, "Step ")
		assert.LessOrEqual(t, n, 1, "steps joined on one line: %q", line)
		found += n
	}
	assert.Equal(t, 3, found)
}

func TestGenerate_SecondRequestKeepsPending(t *testing.T) {
	h := newHarness(t)
	h.send(h.key("enter")())

	first := h.key("g")
	require.True(t, h.model.pending)

	h.key("g")
	assert.Contains(t, h.model.Status(), "already in progress")
	assert.Equal(t, 0, h.chat.calls)

	// A rejected request finishing first must not end the running one.
	h.send(advisorDoneMsg{op: "generate", err: advisor.ErrBusy})
	assert.True(t, h.model.pending)

	h.send(advisorResult(t, first))
	assert.False(t, h.model.pending)
	assert.Equal(t, 1, h.chat.calls)
}

func TestOverlay_OwnsKeyboard(t *testing.T) {
	h := newHarness(t)

	h.key("d")
	require.True(t, h.model.Grid().OverlayOpen())

	for _, k := range []string{"tab", "c", "g", "e", "r", "?", "enter", "q"} {
		assert.Nil(t, h.key(k), "key %q escaped the overlay", k)
	}
	assert.Equal(t, FocusGrid, h.model.Focused())
	assert.Equal(t, "", h.model.Category())
	assert.Equal(t, 0, h.store.Len())
	assert.Equal(t, 0, h.chat.calls)
	assert.True(t, h.model.Grid().OverlayOpen())

	h.key("esc")
	assert.False(t, h.model.Grid().OverlayOpen())
}
