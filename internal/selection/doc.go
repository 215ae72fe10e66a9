// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package selection owns the user's ordered, persisted set of chosen
// products.
//
// All mutation goes through Store: Toggle, RemoveAt and Clear. Each one
// writes the complete list to the key-value backend before returning, so
// the in-memory and persisted copies never disagree. Renderers observe
// changes through Subscribe instead of being called ad hoc.
package selection
