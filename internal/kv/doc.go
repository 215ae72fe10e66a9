// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kv provides the small key-value persistence layer behind the
// product selection.
//
// # Backends
//
//   - SQLiteStore: default, a single kv table in ~/.routine/routine.db
//   - FileStore: one JSON document per key, written atomically
//   - RedisStore: shared storage via go-redis, no expiry
//   - MemoryStore: process-local, used by tests and --ephemeral
//
// Every backend overwrites the whole value on Set and reports a missing
// key as ErrNotFound.
package kv
