// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for routine.
//
// Supports TOML, JSON and YAML configuration files, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - CatalogConfig: Product catalog source and fetch timeout
//   - ChatConfig: Chat endpoint, model, retries and pacing
//   - StorageConfig: Key-value backend for the persisted selection
//   - LogConfig: zerolog level, format and destination
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (ROUTINE_*), including those from .env
//   - ~/.routine/config.toml
//   - ~/.routine/config.json
//   - ~/.routine/config.yaml
//   - Built-in defaults
//
// # Usage
//
//	_ = config.LoadDotEnv()
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	endpoint := cfg.Chat.Endpoint
package config
