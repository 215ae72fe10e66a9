// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog loads the static product list.
//
// A catalog is a JSON document of the form
//
//	{ "products": [ { "id", "name", "brand", "category", "description", "image" } ] }
//
// served over HTTP(S) or read from a file relative to the application root.
// Every Load re-reads the source; there is no cache, no retry and no paging.
// A failed load returns no products at all.
package catalog
