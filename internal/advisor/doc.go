// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package advisor runs the routine conversation: it turns a product
// selection into a prompt, keeps the role-tagged history sent to the chat
// endpoint, and maintains the transcript the user sees.
//
// # Conversation rules
//
//   - GenerateRoutine resets history to exactly [system, user] and replaces
//     the transcript.
//   - AskFollowUp appends to both; a failed follow-up keeps the user turn.
//   - Only one request runs at a time; a second one fails with ErrBusy.
package advisor
