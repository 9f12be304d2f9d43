// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jeranaias/chartchat/internal/dataset"
	"github.com/jeranaias/chartchat/internal/util"
)

// Chart is everything a renderer needs to draw one chart turn.
type Chart struct {
	// TurnID identifies the transcript turn the chart belongs to.
	TurnID string

	// Spec is the opaque specification from the inference server.
	Spec json.RawMessage

	// Rows is the dataset the specification refers to.
	Rows []dataset.Row

	// Generation identifies Rows; see dataset.Store.Generation.
	Generation uint64

	// Caption is shown under the chart.
	Caption string
}

// Renderer draws a chart and returns where the result can be found.
type Renderer interface {
	Render(ctx context.Context, c Chart) (string, error)
}

// =============================================================================
// HTML RENDERER
// =============================================================================

// DefaultCacheSize is the number of rendered charts remembered by default.
const DefaultCacheSize = 64

type cacheKey struct {
	turnID     string
	generation uint64
}

// HTMLRenderer writes one standalone HTML page per chart.
type HTMLRenderer struct {
	dir   string
	cache *lru.Cache[cacheKey, string]
	mu    sync.Mutex
}

// NewHTMLRenderer creates a renderer that writes pages into dir.
func NewHTMLRenderer(dir string, cacheSize int) (*HTMLRenderer, error) {
	if dir == "" {
		return nil, errors.New("chart output directory is required")
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create render cache: %w", err)
	}
	return &HTMLRenderer{dir: dir, cache: cache}, nil
}

// Dir returns the output directory.
func (r *HTMLRenderer) Dir() string {
	return r.dir
}

// Render writes <dir>/<turn>.html and returns its path. A chart already
// rendered for the same turn and dataset generation is not written again.
func (r *HTMLRenderer) Render(ctx context.Context, c Chart) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := cacheKey{turnID: c.TurnID, generation: c.Generation}

	r.mu.Lock()
	defer r.mu.Unlock()

	if path, ok := r.cache.Get(key); ok {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		r.cache.Remove(key)
	}

	bound, err := Bind(c.Spec, c.Rows)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, pageData{
		Title:   pageTitle(c),
		Caption: c.Caption,
		Spec:    template.JS(bound),
	})
	if err != nil {
		return "", fmt.Errorf("render chart page: %w", err)
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("create chart directory: %w", err)
	}
	path := filepath.Join(r.dir, fileName(c.TurnID)+".html")
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write chart page: %w", err)
	}

	r.cache.Add(key, path)
	return path, nil
}

// Cached reports how many rendered charts are remembered.
func (r *HTMLRenderer) Cached() int {
	return r.cache.Len()
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func fileName(turnID string) string {
	name := unsafeName.ReplaceAllString(turnID, "_")
	if name == "" {
		return "chart"
	}
	return name
}

func pageTitle(c Chart) string {
	if s, err := Summarize(c.Spec); err == nil && s.Title != "" {
		return s.Title
	}
	if c.Caption != "" {
		return c.Caption
	}
	return "chartchat"
}

type pageData struct {
	Title   string
	Caption string
	Spec    template.JS
}

// Bound specs come from json.Marshal, which escapes <, > and &, so they are
// safe to place inside a script element.
var pageTemplate = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://cdn.jsdelivr.net/npm/vega@5"></script>
<script src="https://cdn.jsdelivr.net/npm/vega-lite@5"></script>
<script src="https://cdn.jsdelivr.net/npm/vega-embed@6"></script>
<style>
body { font-family: sans-serif; margin: 2rem; }
p.caption { color: #555; }
</style>
</head>
<body>
<div id="chart"></div>
{{if .Caption}}<p class="caption">{{.Caption}}</p>{{end}}
<script>
vegaEmbed("#chart", {{.Spec}}, {actions: true}).catch(function (err) {
  document.getElementById("chart").textContent = String(err);
});
</script>
</body>
</html>
`))
