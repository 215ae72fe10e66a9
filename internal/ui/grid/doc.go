// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package grid renders the product catalog as a grid of cards.
//
// Each card shows a selection marker that mirrors the selection store and
// can open a description overlay. The grid follows the store through a single
// subscription created by Bind.
package grid
