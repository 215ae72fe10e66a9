// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/routine-tui/internal/catalog"
	"github.com/jeranaias/routine-tui/internal/chat"
	"github.com/jeranaias/routine-tui/internal/config"
)

// ErrBusy is returned when a request is started while another is in flight.
var ErrBusy = errors.New("advisor: a request is already in progress")

// ValidationError reports an operation invoked with unusable input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Advisor owns one conversation. It is safe for concurrent use; the lock is
// not held while a request is on the wire.
type Advisor struct {
	mu         sync.Mutex
	client     chat.Completer
	system     string
	history    []chat.Message
	transcript []Entry
	busy       bool
	session    string
	log        zerolog.Logger
}

// New creates an advisor. An empty systemPrompt uses the default instruction.
func New(client chat.Completer, systemPrompt string) *Advisor {
	if systemPrompt == "" {
		systemPrompt = config.DefaultSystemPrompt
	}
	session := uuid.NewString()
	return &Advisor{
		client:  client,
		system:  systemPrompt,
		session: session,
		log: log.Logger.With().
			Str("component", "advisor").
			Str("session", session).
			Logger(),
	}
}

// BuildPrompt renders the selection as the user message of a new routine.
func BuildPrompt(products []catalog.Product) string {
	blocks := make([]string, 0, len(products))
	for _, p := range products {
		blocks = append(blocks, fmt.Sprintf("Name: %s\nBrand: %s\nCategory: %s\nDescription: %s",
			p.Name, p.Brand, p.Category, p.Description))
	}
	return "Here are my selected products:\n\n" +
		strings.Join(blocks, "\n\n") +
		"\n\nPlease create a routine for me."
}

// GenerateRoutine starts a fresh conversation about selection.
func (a *Advisor) GenerateRoutine(ctx context.Context, selection []catalog.Product) error {
	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		return ErrBusy
	}
	if len(selection) == 0 {
		a.transcript = []Entry{{Kind: EntryNotice, Text: MsgSelectProduct}}
		a.mu.Unlock()
		return &ValidationError{Field: "selection", Message: "no products selected"}
	}
	if !a.client.IsConfigured() {
		a.transcript = []Entry{{Kind: EntryNotice, Text: MsgNotConfigured}}
		a.mu.Unlock()
		return chat.ErrNotConfigured
	}

	a.busy = true
	a.history = []chat.Message{
		chat.NewSystemMessage(a.system),
		chat.NewUserMessage(BuildPrompt(selection)),
	}
	a.transcript = []Entry{{Kind: EntryLoading, Text: MsgGenerating}}
	outgoing := append([]chat.Message(nil), a.history...)
	a.mu.Unlock()

	a.log.Info().Int("products", len(selection)).Msg("generating routine")
	reply, err := a.client.Complete(ctx, outgoing)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.busy = false

	if err != nil {
		a.log.Error().Err(err).Msg("routine generation failed")
		a.transcript = []Entry{{Kind: EntryError, Text: MsgGenerateFailed}}
		return err
	}

	a.history = append(a.history, chat.NewAssistantMessage(reply))
	a.transcript = []Entry{{Kind: EntryRoutine, Text: reply}}
	return nil
}

// AskFollowUp sends text as the next user turn.
func (a *Advisor) AskFollowUp(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		return ErrBusy
	}
	if text == "" {
		a.mu.Unlock()
		return &ValidationError{Field: "message", Message: "must not be empty"}
	}
	if !a.client.IsConfigured() {
		a.transcript = append(a.transcript, Entry{Kind: EntryNotice, Text: MsgNotConfigured})
		a.mu.Unlock()
		return chat.ErrNotConfigured
	}

	a.busy = true
	if len(a.history) == 0 {
		a.history = []chat.Message{chat.NewSystemMessage(a.system)}
	}
	a.history = append(a.history, chat.NewUserMessage(text))
	a.transcript = append(a.transcript,
		Entry{Kind: EntryUser, Text: text},
		Entry{Kind: EntryLoading, Text: MsgThinking},
	)
	loadingAt := len(a.transcript) - 1
	outgoing := append([]chat.Message(nil), a.history...)
	a.mu.Unlock()

	a.log.Info().Int("turns", len(outgoing)).Msg("sending follow-up")
	reply, err := a.client.Complete(ctx, outgoing)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.busy = false

	if err != nil {
		a.log.Error().Err(err).Msg("follow-up failed")
		a.transcript[loadingAt] = Entry{Kind: EntryError, Text: MsgFollowUpFailed}
		return err
	}

	a.history = append(a.history, chat.NewAssistantMessage(reply))
	a.transcript[loadingAt] = Entry{Kind: EntryAssistant, Text: reply}
	return nil
}

// Reset discards the conversation and transcript.
func (a *Advisor) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.busy {
		return ErrBusy
	}
	a.history = nil
	a.transcript = nil
	return nil
}

// History returns a copy of the conversation sent to the endpoint.
func (a *Advisor) History() []chat.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]chat.Message(nil), a.history...)
}

// Transcript returns a copy of the visible chat window.
func (a *Advisor) Transcript() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Entry(nil), a.transcript...)
}

// Busy reports whether a request is in flight.
func (a *Advisor) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy
}

// SessionID identifies this conversation in logs and export file names.
func (a *Advisor) SessionID() string {
	return a.session
}
