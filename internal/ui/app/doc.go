// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the interactive terminal shell.
//
// It composes the product grid, the selection panel and the chat pane into a
// single Bubble Tea program:
//
//	+---------------------------+----------------------+
//	| product grid              | selected products    |
//	|                           +----------------------+
//	|                           | routine / follow-ups |
//	|                           | > input              |
//	+---------------------------+----------------------+
//
// Catalog loads and chat requests run in tea.Cmds so the UI never blocks.
package app
