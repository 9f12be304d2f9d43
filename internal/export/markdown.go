// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/chartchat/internal/transcript"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports documents to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a document to Markdown format.
func (e *MarkdownExporter) Export(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(doc.title())))
		sb.WriteString(fmt.Sprintf("session: %s\n", doc.SessionID))
		sb.WriteString(fmt.Sprintf("turns: %d\n", len(doc.Turns)))
		sb.WriteString(fmt.Sprintf("charts: %d\n", doc.Charts()))
		sb.WriteString(fmt.Sprintf("exported: %s\n", doc.ExportedAt.Format(time.RFC3339)))
		sb.WriteString("generator: chartchat\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(doc.title())))

	if e.options.IncludeMetadata && doc.Dataset != nil {
		sb.WriteString("## Dataset\n\n")
		sb.WriteString(fmt.Sprintf("- **File**: %s\n", doc.Dataset.Name))
		sb.WriteString(fmt.Sprintf("- **Rows**: %d\n", doc.Dataset.Rows))
		if len(doc.Dataset.Columns) > 0 {
			sb.WriteString(fmt.Sprintf("- **Columns**: %s\n", strings.Join(doc.Dataset.Columns, ", ")))
		}
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversation\n\n")
	if len(doc.Turns) == 0 {
		sb.WriteString("_No messages._\n")
	}

	for i, turn := range doc.Turns {
		label := turn.Sender.DisplayName()
		if e.options.IncludeTimestamps && !turn.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(turn.CreatedAt)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		sb.WriteString(e.formatTurn(turn))
		sb.WriteString("\n\n")

		if i < len(doc.Turns)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from chartchat on %s*\n",
		doc.ExportedAt.Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func (e *MarkdownExporter) formatTurn(turn transcript.Turn) string {
	if !turn.IsChart() {
		return strings.TrimSpace(turn.Text)
	}

	var sb strings.Builder
	if turn.Text != "" {
		sb.WriteString(strings.TrimSpace(turn.Text))
		sb.WriteString("\n\n")
	}
	sb.WriteString("```json\n")
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, turn.ChartSpec, "", "  "); err == nil {
		sb.Write(pretty.Bytes())
	} else {
		sb.Write(turn.ChartSpec)
	}
	sb.WriteString("\n```")
	return sb.String()
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
