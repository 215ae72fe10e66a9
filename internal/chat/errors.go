// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when no chat endpoint is configured.
var ErrNotConfigured = errors.New("chat endpoint not configured")

// Kind classifies a request failure.
type Kind int

const (
	// NetworkError covers connectivity failures and non-2xx responses.
	NetworkError Kind = iota + 1
	// ParseError covers malformed JSON and unexpected envelopes.
	ParseError
)

func (k Kind) String() string {
	switch k {
	case NetworkError:
		return "network"
	case ParseError:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is returned by Client.Complete for transport and envelope failures.
type Error struct {
	Kind Kind
	// Status is the HTTP status for non-2xx responses, zero otherwise.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("chat %s error (HTTP %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("chat %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary reports whether the failure is worth retrying.
func (e *Error) Temporary() bool {
	return e.Kind == NetworkError && (e.Status == 429 || (e.Status >= 500 && e.Status < 600))
}
