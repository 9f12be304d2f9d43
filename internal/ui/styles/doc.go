// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for chartchat.
//
// All colors are Lip Gloss AdaptiveColors, so they follow the terminal's
// light or dark background automatically. Theme bundles the styles the TUI
// and the REPL render with.
//
// Every status color is paired with an ASCII indicator ([OK], [X], [!], [i])
// so nothing is conveyed by color alone.
package styles
