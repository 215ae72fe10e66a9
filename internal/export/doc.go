// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes routine conversations and product selections to
// files.
//
// # Transcript Formats
//
//   - Markdown: headings per entry, suitable for notes apps
//   - HTML: standalone page with embedded CSS; newlines become <br>
//   - JSON: the session, selection and transcript as data
//
// # Selection Formats
//
//   - CSV: one row per product
//   - XLSX: a single "Selection" sheet
//
// All files are written with util.AtomicWriteFile.
//
// # Usage
//
//	conv := export.NewConversation(adv, store.Items(), model)
//	path, err := export.ExportToFile(conv, export.NewHTMLExporter(nil), nil)
package export
