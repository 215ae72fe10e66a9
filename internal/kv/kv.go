// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jeranaias/routine-tui/internal/config"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kv: key not found")

// Store is a byte-oriented key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open returns the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil

	case config.BackendFile:
		dir := cfg.Path
		if dir == "" {
			base, err := config.ConfigDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(base, "state")
		}
		return NewFileStore(dir)

	case config.BackendRedis:
		return NewRedisStore(ctx, cfg.RedisURL)

	case config.BackendSQLite, "":
		path := cfg.Path
		if path == "" {
			p, err := config.DefaultDBPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		return NewSQLiteStore(path)

	default:
		return nil, fmt.Errorf("kv: unknown backend %q", cfg.Backend)
	}
}
