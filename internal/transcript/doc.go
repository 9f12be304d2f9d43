// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript contains the ordered log of conversation turns.
//
// # Key Types
//
//   - Turn: one entry, authored by the user or the bot
//   - Kind: text, chart, or the transient pending placeholder
//   - Transcript: append-only sequence with remove-by-kind and clear
//
// Turns are never edited in place. A reply replaces its placeholder by
// removing it and appending the terminal turn, so renderers only ever see
// whole values appear and disappear.
//
// # Usage
//
//	t := transcript.New()
//	t.AppendExchange(transcript.UserText("bar chart of sales by region"))
//	// ... later, when the reply arrives
//	t.RemovePending()
//	t.Append(transcript.BotText("Here you go."))
package transcript
