// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across routine packages.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// Text Utilities:
//   - TruncateWidth: display-width aware truncation (cards, panel rows)
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - SplitLines: newline normalization for transcript rendering
//
// # Usage
//
//	// Fit a product name into a card column
//	title := util.TruncateWidth(p.Name, 24)
//
//	// Write the persisted selection atomically
//	err := util.AtomicWriteFile(path, data, 0600)
package util
