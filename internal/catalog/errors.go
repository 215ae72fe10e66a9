// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import "fmt"

// Kind classifies a load failure.
type Kind int

const (
	// NetworkError covers connectivity failures, non-2xx responses and
	// unreadable local files.
	NetworkError Kind = iota + 1
	// ParseError covers malformed JSON and a missing products array.
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

// Error is returned by Loader.Load.
type Error struct {
	Kind   Kind
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("catalog %s error (%s): %v", e.Kind, e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
