// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chartchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: Inference server location and timeouts
//   - DatasetConfig: Accepted files and preview size
//   - ChartConfig: Where rendered charts are written
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CHARTCHAT_*), including those set by .env files
//   - ~/.chartchat/config.toml
//   - ~/.chartchat/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := vizapi.NewClientWithConfig(cfg.ClientConfig())
package config
