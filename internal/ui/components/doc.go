// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks of the chartchat
// TUI: the header, transcript turns, the dataset preview table, the request
// spinner and the status bar.
//
// Components are plain values with a View method. They hold no session
// state of their own; the chat model feeds them snapshots.
package components
