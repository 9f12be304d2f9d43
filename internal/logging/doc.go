// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the structured logger shared by every chartchat
// component.
//
// Log records go to a rotating JSON file only. The terminal belongs to the
// TUI and the REPL, so nothing is ever written to stdout or stderr.
package logging
