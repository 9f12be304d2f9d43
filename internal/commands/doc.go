// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the TUI and
// the line-mode REPL.
//
// # Key Types
//
//   - Registry: command registry with all built-in commands
//   - Context: the session and collaborators a handler works on
//   - Result: what a handler produced (output, quit request, wait signal)
//   - Completer: tab completion for command names and file arguments
//
// # Built-in Commands
//
//   - /upload <path>: load a dataset
//   - /watch <path>|off: re-load a dataset whenever it is saved
//   - /clear: clear the conversation
//   - /preview, /data: dataset preview
//   - /chart [n]: render a chart turn to HTML
//   - /export [path]: export the conversation
//   - /status, /help, /quit
//
// # Usage
//
//	reg := commands.NewRegistry()
//	if res, ok := reg.Execute(cmdCtx, input); ok {
//	    fmt.Println(res.Output)
//	}
package commands
