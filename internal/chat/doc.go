// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the HTTP transport for the routine advisor.
//
// The endpoint is a thin proxy in front of a chat completion API. It accepts
//
//	{ "messages": [ { "role": "...", "content": "..." } ], "model": "gpt-4o" }
//
// and answers with an envelope whose reply text lives at
// choices[0].message.content. Anything else is a ParseError.
//
// # Error Handling
//
//   - ErrNotConfigured: no endpoint set; nothing is sent
//   - *Error{Kind: NetworkError}: connectivity failure or non-2xx status
//   - *Error{Kind: ParseError}: malformed JSON or unexpected envelope
//
// Rate limiting (429) and server errors (5xx) are retried with exponential
// backoff. Outgoing requests are paced by a token bucket.
package chat
