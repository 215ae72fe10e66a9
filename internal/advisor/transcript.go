// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package advisor

import "fmt"

// EntryKind identifies how a transcript entry is rendered.
type EntryKind int

const (
	// EntryRoutine is a generated routine; it is the whole transcript.
	EntryRoutine EntryKind = iota
	EntryUser
	EntryAssistant
	// EntryNotice is an inline prompt such as a validation message.
	EntryNotice
	EntryLoading
	EntryError
)

func (k EntryKind) String() string {
	switch k {
	case EntryRoutine:
		return "routine"
	case EntryUser:
		return "user"
	case EntryAssistant:
		return "assistant"
	case EntryNotice:
		return "notice"
	case EntryLoading:
		return "loading"
	case EntryError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k EntryKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *EntryKind) UnmarshalText(b []byte) error {
	for c := EntryRoutine; c <= EntryError; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown entry kind %q", b)
}

// Entry is one block of the visible chat window. Text keeps its newlines;
// renderers turn each one into a line break.
type Entry struct {
	Kind EntryKind `json:"kind"`
	Text string    `json:"text"`
}

// Transcript messages shown to the user.
const (
	MsgSelectProduct   = "Please select at least one product."
	MsgGenerating      = "Generating your routine..."
	MsgThinking        = "Thinking..."
	MsgGenerateFailed  = "Sorry, there was an error generating your routine."
	MsgFollowUpFailed  = "Sorry, there was an error answering your question."
	MsgNotConfigured   = "The chat endpoint is not configured. Set chat.endpoint or ROUTINE_CHAT_ENDPOINT."
	MsgEmptyTranscript = "Select products and press g to generate a routine."
)
