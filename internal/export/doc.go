// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to files.
//
// Exports are one-way: nothing written here is ever loaded back into a
// session. Pending placeholders are never exported.
//
// # Key Types
//
//   - Document: transcript snapshot plus dataset metadata
//   - Exporter: format interface (JSON, Markdown)
//   - Options: export configuration options
//
// # Usage
//
//	doc := export.NewDocument(s.ID(), s.Turns(), s.Dataset())
//	path, err := export.ExportToFile(doc, export.NewMarkdownExporter(nil), nil)
//
// Export to a specific file, picking the format from its extension:
//
//	err := export.WriteFile("charts.md", doc)
package export
