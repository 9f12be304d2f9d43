// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chartchat/internal/dataset"
	"github.com/jeranaias/chartchat/internal/transcript"
)

func sampleDocument() *Document {
	turns := []transcript.Turn{
		transcript.UserText("sales by region"),
		transcript.BotChart(json.RawMessage(`{"mark":"bar","encoding":{"x":{"field":"region"}}}`), "Sales per region"),
		transcript.UserText("and per month?"),
		transcript.Pending(),
	}
	ds := dataset.New("sales.csv", []string{"region", "sales"}, []dataset.Row{
		{"region": "EU", "sales": 10.0},
		{"region": "US", "sales": 12.0},
	})
	return NewDocument("sess_test", turns, ds)
}

func TestNewDocument_SkipsPending(t *testing.T) {
	doc := sampleDocument()

	require.Len(t, doc.Turns, 3)
	for _, turn := range doc.Turns {
		assert.False(t, turn.IsPending())
	}
	assert.Equal(t, 1, doc.Charts())
	require.NotNil(t, doc.Dataset)
	assert.Equal(t, "sales.csv", doc.Dataset.Name)
	assert.Equal(t, []string{"region", "sales"}, doc.Dataset.Columns)
	assert.Equal(t, 2, doc.Dataset.Rows)
}

func TestNewDocument_NoDataset(t *testing.T) {
	doc := NewDocument("s", []transcript.Turn{transcript.UserText("hi there")}, nil)
	assert.Nil(t, doc.Dataset)
	assert.Equal(t, "hi there", doc.title())
}

func TestJSONExporter(t *testing.T) {
	data, err := NewJSONExporter(nil).Export(sampleDocument())
	require.NoError(t, err)

	var decoded struct {
		SessionID string `json:"session_id"`
		Turns     []struct {
			Kind      string          `json:"kind"`
			Sender    string          `json:"sender"`
			ChartSpec json.RawMessage `json:"chart_spec"`
		} `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "sess_test", decoded.SessionID)
	require.Len(t, decoded.Turns, 3)
	assert.Equal(t, "chart", decoded.Turns[1].Kind)
	assert.JSONEq(t, `{"mark":"bar","encoding":{"x":{"field":"region"}}}`, string(decoded.Turns[1].ChartSpec))

	_, err = NewJSONExporter(nil).Export(nil)
	assert.Error(t, err)
}

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleDocument())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\n"))
	assert.Contains(t, md, "charts: 1\n")
	assert.Contains(t, md, "# sales.csv")
	assert.Contains(t, md, "- **Columns**: region, sales")
	assert.Contains(t, md, "### You")
	assert.Contains(t, md, "### Assistant")
	assert.Contains(t, md, "Sales per region\n\n```json\n{\n  \"mark\": \"bar\"")
	assert.NotContains(t, md, "pending")
}

func TestMarkdownExporter_NoMetadata(t *testing.T) {
	opts := &Options{}
	out, err := NewMarkdownExporter(opts).Export(sampleDocument())
	require.NoError(t, err)
	md := string(out)

	assert.False(t, strings.HasPrefix(md, "---\n"))
	assert.NotContains(t, md, "## Dataset")
	assert.NotContains(t, md, "<sub>")
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	path, err := ExportToFile(sampleDocument(), NewJSONExporter(nil), &Options{OutputDir: dir})
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "chartchat_sales_"))
	assert.Equal(t, ".json", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestWriteFile_PicksFormatFromExtension(t *testing.T) {
	dir := t.TempDir()
	doc := sampleDocument()

	jsonPath := filepath.Join(dir, "out", "chat.json")
	require.NoError(t, WriteFile(jsonPath, doc))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	mdPath := filepath.Join(dir, "chat.md")
	require.NoError(t, WriteFile(mdPath, doc))
	data, err = os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Conversation")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"sales data", "sales_data"},
		{"a/b:c", "a-b-c"},
		{"", "conversation"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in))
	}
}

func TestEscapeYAML(t *testing.T) {
	assert.Equal(t, "plain", escapeYAML("plain"))
	assert.Equal(t, `"a: b"`, escapeYAML("a: b"))
}
