// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across chartchat.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth: display-width aware truncation for table cells
//
// Formatting:
//   - FormatNumber: shortest decimal form of a float, as a browser would print it
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	cell := util.TruncateWidth(util.FormatNumber(3.50), 12)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
