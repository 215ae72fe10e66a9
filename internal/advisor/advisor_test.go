// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package advisor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/routine-tui/internal/catalog"
	"github.com/jeranaias/routine-tui/internal/chat"
	"github.com/jeranaias/routine-tui/internal/config"
)

// fakeCompleter returns scripted replies and records every call.
type fakeCompleter struct {
	configured bool
	replies    []string
	errs       []error
	calls      [][]chat.Message
	block      chan struct{}
	started    chan struct{}
}

func (f *fakeCompleter) IsConfigured() bool { return f.configured }

func (f *fakeCompleter) Complete(ctx context.Context, messages []chat.Message) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, append([]chat.Message(nil), messages...))
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "ok", nil
}

var (
	p1 = catalog.Product{ID: "a1", Name: "Foaming Cleanser", Brand: "L'Oréal Paris", Category: "cleanser", Description: "Gentle."}
	p2 = catalog.Product{ID: "b1", Name: "Hyaluronic Serum", Brand: "L'Oréal Paris", Category: "serum", Description: "Plumps."}
)

func roles(msgs []chat.Message) []chat.Role {
	out := make([]chat.Role, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Role)
	}
	return out
}

func TestGenerateRoutine_EmptySelection(t *testing.T) {
	f := &fakeCompleter{configured: true}
	a := New(f, "")

	err := a.GenerateRoutine(context.Background(), nil)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	assert.Empty(t, f.calls, "no request may be sent")
	assert.Equal(t, []Entry{{Kind: EntryNotice, Text: MsgSelectProduct}}, a.Transcript())
	assert.Empty(t, a.History())
}

func TestGenerateRoutine_NotConfigured(t *testing.T) {
	f := &fakeCompleter{configured: false}
	a := New(f, "")

	err := a.GenerateRoutine(context.Background(), []catalog.Product{p1})
	assert.True(t, errors.Is(err, chat.ErrNotConfigured))
	assert.Empty(t, f.calls)
	require.Len(t, a.Transcript(), 1)
	assert.Equal(t, EntryNotice, a.Transcript()[0].Kind)
	assert.False(t, a.Busy())
}

func TestGenerateRoutine_Success(t *testing.T) {
	f := &fakeCompleter{configured: true, replies: []string{"Step 1...\nStep 2..."}}
	a := New(f, "")

	require.NoError(t, a.GenerateRoutine(context.Background(), []catalog.Product{p1, p2}))

	history := a.History()
	assert.Equal(t, []chat.Role{chat.RoleSystem, chat.RoleUser, chat.RoleAssistant}, roles(history))
	assert.Equal(t, config.DefaultSystemPrompt, history[0].Content)
	assert.Equal(t, "Step 1...\nStep 2...", history[2].Content)

	// The request carried exactly [system, user]
	require.Len(t, f.calls, 1)
	assert.Equal(t, []chat.Role{chat.RoleSystem, chat.RoleUser}, roles(f.calls[0]))
	assert.Contains(t, f.calls[0][1].Content, "Name: Foaming Cleanser\nBrand: L'Oréal Paris\nCategory: cleanser\nDescription: Gentle.")
	assert.Contains(t, f.calls[0][1].Content, "Name: Hyaluronic Serum")

	assert.Equal(t, []Entry{{Kind: EntryRoutine, Text: "Step 1...\nStep 2..."}}, a.Transcript())
	assert.False(t, a.Busy())
}

func TestGenerateRoutine_ResetsHistory(t *testing.T) {
	f := &fakeCompleter{configured: true}
	a := New(f, "custom advisor")
	ctx := context.Background()

	require.NoError(t, a.GenerateRoutine(ctx, []catalog.Product{p1}))
	require.NoError(t, a.AskFollowUp(ctx, "morning or night?"))
	assert.Len(t, a.History(), 5)

	require.NoError(t, a.GenerateRoutine(ctx, []catalog.Product{p2}))
	history := a.History()
	assert.Equal(t, []chat.Role{chat.RoleSystem, chat.RoleUser, chat.RoleAssistant}, roles(history))
	assert.Equal(t, "custom advisor", history[0].Content)
	assert.Len(t, a.Transcript(), 1)
}

func TestGenerateRoutine_Failure(t *testing.T) {
	f := &fakeCompleter{configured: true, errs: []error{&chat.Error{Kind: chat.NetworkError, Status: 500}}}
	a := New(f, "")

	err := a.GenerateRoutine(context.Background(), []catalog.Product{p1})
	require.Error(t, err)

	assert.Equal(t, []chat.Role{chat.RoleSystem, chat.RoleUser}, roles(a.History()))
	assert.Equal(t, []Entry{{Kind: EntryError, Text: MsgGenerateFailed}}, a.Transcript())
	assert.False(t, a.Busy())
}

func TestAskFollowUp_Empty(t *testing.T) {
	f := &fakeCompleter{configured: true}
	a := New(f, "")
	require.NoError(t, a.GenerateRoutine(context.Background(), []catalog.Product{p1}))
	before := a.Transcript()

	err := a.AskFollowUp(context.Background(), "   \n")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, before, a.Transcript())
	assert.Len(t, a.History(), 3)
	assert.Len(t, f.calls, 1)
}

func TestAskFollowUp_Success(t *testing.T) {
	f := &fakeCompleter{configured: true, replies: []string{"Routine", "Use it at night."}}
	a := New(f, "")
	ctx := context.Background()

	require.NoError(t, a.GenerateRoutine(ctx, []catalog.Product{p1}))
	require.NoError(t, a.AskFollowUp(ctx, "when?"))

	assert.Equal(t, []Entry{
		{Kind: EntryRoutine, Text: "Routine"},
		{Kind: EntryUser, Text: "when?"},
		{Kind: EntryAssistant, Text: "Use it at night."},
	}, a.Transcript())

	// The full history was sent
	require.Len(t, f.calls, 2)
	assert.Len(t, f.calls[1], 4)
	assert.Equal(t, "when?", f.calls[1][3].Content)
	assert.Len(t, a.History(), 5)
}

func TestAskFollowUp_FailureKeepsUserTurn(t *testing.T) {
	f := &fakeCompleter{
		configured: true,
		replies:    []string{"Step 1..."},
		errs:       []error{nil, &chat.Error{Kind: chat.ParseError}},
	}
	a := New(f, "")
	ctx := context.Background()

	require.NoError(t, a.GenerateRoutine(ctx, []catalog.Product{p1, p2}))
	require.Error(t, a.AskFollowUp(ctx, "more?"))

	assert.Equal(t, []Entry{
		{Kind: EntryRoutine, Text: "Step 1..."},
		{Kind: EntryUser, Text: "more?"},
		{Kind: EntryError, Text: MsgFollowUpFailed},
	}, a.Transcript())

	history := a.History()
	require.Len(t, history, 4)
	assert.Equal(t, chat.RoleUser, history[3].Role)
	assert.Equal(t, "more?", history[3].Content)
}

func TestAskFollowUp_WithoutRoutineSeedsSystem(t *testing.T) {
	f := &fakeCompleter{configured: true}
	a := New(f, "")

	require.NoError(t, a.AskFollowUp(context.Background(), "hello"))
	assert.Equal(t, []chat.Role{chat.RoleSystem, chat.RoleUser, chat.RoleAssistant}, roles(a.History()))
}

func TestBusyGuard(t *testing.T) {
	f := &fakeCompleter{
		configured: true,
		block:      make(chan struct{}),
		started:    make(chan struct{}),
	}
	a := New(f, "")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- a.GenerateRoutine(ctx, []catalog.Product{p1}) }()

	select {
	case <-f.started:
	case <-time.After(2 * time.Second):
		t.Fatal("request never started")
	}
	assert.True(t, a.Busy())

	assert.True(t, errors.Is(a.GenerateRoutine(ctx, []catalog.Product{p2}), ErrBusy))
	assert.True(t, errors.Is(a.AskFollowUp(ctx, "hi"), ErrBusy))
	assert.True(t, errors.Is(a.Reset(), ErrBusy))
	assert.Equal(t, []Entry{{Kind: EntryLoading, Text: MsgGenerating}}, a.Transcript())

	close(f.block)
	require.NoError(t, <-done)
	assert.False(t, a.Busy())
	assert.Len(t, a.History(), 3)
}

func TestReset(t *testing.T) {
	a := New(&fakeCompleter{configured: true}, "")
	require.NoError(t, a.GenerateRoutine(context.Background(), []catalog.Product{p1}))
	require.NoError(t, a.Reset())
	assert.Empty(t, a.History())
	assert.Empty(t, a.Transcript())
}

func TestSessionID(t *testing.T) {
	a := New(&fakeCompleter{}, "")
	b := New(&fakeCompleter{}, "")
	assert.Len(t, a.SessionID(), 36)
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

// TestGenerateRoutine_OverHTTP wires the advisor to the real client and a
// mocked endpoint.
func TestGenerateRoutine_OverHTTP(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.Write([]byte(`{"choices":[{"message":{"content":"Step 1..."}}]}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := chat.NewClient(config.ChatConfig{Endpoint: srv.URL})
	a := New(client, "")
	ctx := context.Background()

	require.NoError(t, a.GenerateRoutine(ctx, []catalog.Product{p1, p2}))
	assert.Equal(t, []chat.Role{chat.RoleSystem, chat.RoleUser, chat.RoleAssistant}, roles(a.History()))

	require.Error(t, a.AskFollowUp(ctx, "more?"))
	transcript := a.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, "Step 1...", transcript[0].Text)
	assert.Equal(t, EntryError, transcript[2].Kind)
	assert.Equal(t, "more?", a.History()[3].Content)
}
