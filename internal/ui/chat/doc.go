// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat view for chartchat.

The Model is a Bubble Tea model over a session.Session. It never mutates
session state directly from observer callbacks: the session notifies through
a one-slot channel and the model re-reads a fresh snapshot on its own
goroutine.

# Layout

	header
	transcript viewport (auto-scrolls when turns are added)
	dataset preview (when a dataset is loaded)
	error line, command output, spinner
	input
	status bar

Chart turns are written to HTML pages by a chart.Renderer as soon as they
arrive; the page path is shown in the turn.

Lines starting with a slash run through the commands registry instead of
being sent to the server.
*/
package chat
