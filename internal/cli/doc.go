// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI surfaces of
// chartchat.
//
// # Key Types
//
//   - Command: Enumeration of the available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - App: The wired session, client, renderer and command context
//   - JSONResponse: Machine-readable output for --json
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(args)
//	case cli.CmdChat:
//	    err = cli.HandleChat(args)
//	}
//
// # Commands Overview
//
//   - tui: Full-screen chat (default)
//   - ask: One prompt, optionally after loading a dataset
//   - chat: Line-based chat with history
//   - status: Server reachability and effective settings
//   - config: Show, inspect and edit the configuration file
//   - version: Build information
package cli
