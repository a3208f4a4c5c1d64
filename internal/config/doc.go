// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for blackv.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command-line flags (applied by the cli package)
//   - Environment variables (BLACKV_*)
//   - A .env file in the working directory
//   - ~/.blackv/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//
// Follow edits while running:
//
//	go config.Watch(ctx, path, func(cfg *config.Config) {
//	    ctrl.SetModel(cfg.Model)
//	}, logger)
package config
