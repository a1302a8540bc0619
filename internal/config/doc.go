// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for sofia.
//
// Supports both TOML and JSON configuration formats, with defaults,
// environment variable overrides, validation and hot reload.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SOFIA_*)
//   - ~/.sofia/config.toml
//   - ~/.sofia/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Printf("config: %v (using defaults)", err)
//	}
//
//	go config.Watch(ctx, path, 0, func(cfg *config.Config, err error) {
//	    if err == nil {
//	        config.SetGlobal(cfg)
//	    }
//	})
package config
