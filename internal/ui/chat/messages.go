// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/jeranaias/chartchat/internal/commands"

// stateChangedMsg signals that the session changed since the last snapshot.
type stateChangedMsg struct{}

// commandResultMsg carries the outcome of a slash command.
type commandResultMsg struct {
	Input  string
	Result commands.Result
}

// chartRenderedMsg reports a chart page written in the background.
type chartRenderedMsg struct {
	Key    string
	TurnID string
	Path   string
	Err    error
}
