// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chart

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chartchat/internal/dataset"
)

const barSpec = `{
  "$schema": "https://vega.github.io/schema/vega-lite/v5.json",
  "title": "Revenue by region",
  "data": {"name": "data"},
  "mark": {"type": "bar", "tooltip": true},
  "encoding": {
    "x": {"field": "region", "type": "nominal"},
    "y": {"field": "revenue", "type": "quantitative", "aggregate": "sum"},
    "tooltip": [{"field": "region"}]
  }
}`

func sampleRows() []dataset.Row {
	return []dataset.Row{
		{"region": "EU", "revenue": 10.5, "active": true, "note": nil},
		{"region": "US", "revenue": 12.0, "active": false, "note": "x"},
	}
}

func TestBind_ReplacesData(t *testing.T) {
	out, err := Bind(json.RawMessage(barSpec), sampleRows())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))

	data := doc["data"].(map[string]any)
	values := data["values"].([]any)
	require.Len(t, values, 2)
	first := values[0].(map[string]any)
	assert.Equal(t, "EU", first["region"])
	assert.Equal(t, 10.5, first["revenue"])
	assert.Nil(t, first["note"])
	assert.NotContains(t, data, "name")

	assert.Equal(t, "Revenue by region", doc["title"])
	assert.Contains(t, doc, "encoding")
}

func TestBind_NoRows(t *testing.T) {
	out, err := Bind(json.RawMessage(`{"mark":"line"}`), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mark":"line","data":{"values":[]}}`, string(out))
}

func TestBind_LeavesInputUntouched(t *testing.T) {
	spec := json.RawMessage(`{"mark":"point","data":{"name":"data"}}`)
	before := string(spec)
	_, err := Bind(spec, sampleRows())
	require.NoError(t, err)
	assert.Equal(t, before, string(spec))
}

func TestBind_RejectsNonObjects(t *testing.T) {
	for _, spec := range []string{``, `null`, `[1,2]`, `"bar"`, `{broken`} {
		_, err := Bind(json.RawMessage(spec), nil)
		assert.Error(t, err, spec)
	}
	_, err := Bind(json.RawMessage(`[]`), nil)
	assert.ErrorIs(t, err, ErrNotObject)
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(json.RawMessage(barSpec))
	require.NoError(t, err)

	assert.Equal(t, "Revenue by region", s.Title)
	assert.Equal(t, "bar", s.Mark)
	require.Len(t, s.Encodings, 2)
	assert.Equal(t, "x: region [nominal]", s.Encodings[0].String())
	assert.Equal(t, "y: sum(revenue) [quantitative]", s.Encodings[1].String())
}

func TestSummarize_StringMarkAndLayer(t *testing.T) {
	s, err := Summarize(json.RawMessage(`{"mark":"line","title":{"text":"T"}}`))
	require.NoError(t, err)
	assert.Equal(t, "line", s.Mark)
	assert.Equal(t, "T", s.Title)

	s, err = Summarize(json.RawMessage(`{"layer":[{"mark":"bar"},{"mark":"rule"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "layer", s.Mark)
}

func TestDescribe(t *testing.T) {
	out, err := Describe(json.RawMessage(barSpec), false)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "title: Revenue by region\nmark: bar\n"))
	assert.Contains(t, out, "  x: region [nominal]\n")
	assert.Contains(t, out, `"encoding": {`)

	colored, err := Describe(json.RawMessage(barSpec), true)
	require.NoError(t, err)
	assert.Contains(t, colored, "\x1b[")
}

func TestHTMLRenderer_WritesPage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	r, err := NewHTMLRenderer(dir, 4)
	require.NoError(t, err)

	path, err := r.Render(context.Background(), Chart{
		TurnID:     "turn_abc",
		Spec:       json.RawMessage(barSpec),
		Rows:       sampleRows(),
		Generation: 1,
		Caption:    "Revenue <b>by</b> region",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "turn_abc.html"), path)

	page, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "vega-embed@6")
	assert.Contains(t, html, "<title>Revenue by region</title>")
	assert.Contains(t, html, `"values":[`)
	assert.Contains(t, html, "Revenue &lt;b&gt;by&lt;/b&gt; region")
}

func TestHTMLRenderer_CachesByTurnAndGeneration(t *testing.T) {
	dir := t.TempDir()
	r, err := NewHTMLRenderer(dir, 4)
	require.NoError(t, err)

	c := Chart{TurnID: "turn_1", Spec: json.RawMessage(`{"mark":"bar"}`), Rows: sampleRows(), Generation: 1}
	path, err := r.Render(context.Background(), c)
	require.NoError(t, err)

	info1, err := os.Stat(path)
	require.NoError(t, err)

	// Same key: served from cache, file untouched.
	again, err := r.Render(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	info2, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime())
	assert.Equal(t, 1, r.Cached())

	// New dataset generation: rebound and rewritten.
	c.Generation = 2
	c.Rows = []dataset.Row{{"region": "APAC"}}
	_, err = r.Render(context.Background(), c)
	require.NoError(t, err)
	page, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(page), "APAC")
	assert.Equal(t, 2, r.Cached())

	// Deleted file is rendered again.
	require.NoError(t, os.Remove(path))
	_, err = r.Render(context.Background(), c)
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestHTMLRenderer_Errors(t *testing.T) {
	_, err := NewHTMLRenderer("", 1)
	assert.Error(t, err)

	r, err := NewHTMLRenderer(t.TempDir(), 1)
	require.NoError(t, err)

	_, err = r.Render(context.Background(), Chart{TurnID: "t", Spec: json.RawMessage(`[]`)})
	assert.ErrorIs(t, err, ErrNotObject)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Render(ctx, Chart{TurnID: "t", Spec: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "turn_1", fileName("turn_1"))
	assert.Equal(t, "_etc_passwd", fileName("../etc/passwd"))
	assert.Equal(t, "chart", fileName(""))
}
