// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chart

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// Encoding is one visual channel of a chart.
type Encoding struct {
	Channel   string
	Field     string
	Type      string
	Aggregate string
}

func (e Encoding) String() string {
	field := e.Field
	if field == "" {
		field = "*"
	}
	if e.Aggregate != "" {
		field = e.Aggregate + "(" + field + ")"
	}
	if e.Type != "" {
		return fmt.Sprintf("%s: %s [%s]", e.Channel, field, e.Type)
	}
	return fmt.Sprintf("%s: %s", e.Channel, field)
}

// Summary is what a terminal can show about a chart without drawing it.
type Summary struct {
	Title     string
	Mark      string
	Encodings []Encoding
}

// Summarize extracts the title, mark and encodings of a specification.
// Unknown or malformed parts are skipped.
func Summarize(spec json.RawMessage) (Summary, error) {
	doc, err := decodeObject(spec)
	if err != nil {
		return Summary{}, err
	}

	var s Summary
	s.Title = titleOf(doc["title"])
	s.Mark = markOf(doc["mark"])
	if s.Mark == "" {
		if _, layered := doc["layer"]; layered {
			s.Mark = "layer"
		}
	}

	var enc map[string]json.RawMessage
	if raw, ok := doc["encoding"]; ok {
		_ = json.Unmarshal(raw, &enc)
	}
	channels := make([]string, 0, len(enc))
	for ch := range enc {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	for _, ch := range channels {
		var def struct {
			Field     string `json:"field"`
			Type      string `json:"type"`
			Aggregate string `json:"aggregate"`
		}
		// Array-valued channels such as tooltip lists are skipped.
		if json.Unmarshal(enc[ch], &def) != nil {
			continue
		}
		s.Encodings = append(s.Encodings, Encoding{
			Channel:   ch,
			Field:     def.Field,
			Type:      def.Type,
			Aggregate: def.Aggregate,
		})
	}
	return s, nil
}

func markOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var name string
	if json.Unmarshal(raw, &name) == nil {
		return name
	}
	var obj struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.Type
	}
	return ""
}

func titleOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var title string
	if json.Unmarshal(raw, &title) == nil {
		return title
	}
	var obj struct {
		Text string `json:"text"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.Text
	}
	return ""
}

// Describe renders a plain-text summary followed by the indented
// specification. With color set the specification is syntax highlighted.
func Describe(spec json.RawMessage, color bool) (string, error) {
	s, err := Summarize(spec)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if s.Title != "" {
		fmt.Fprintf(&b, "title: %s\n", s.Title)
	}
	mark := s.Mark
	if mark == "" {
		mark = "unknown"
	}
	fmt.Fprintf(&b, "mark: %s\n", mark)
	for _, e := range s.Encodings {
		fmt.Fprintf(&b, "  %s\n", e)
	}

	pretty, err := json.MarshalIndent(json.RawMessage(spec), "", "  ")
	if err != nil {
		return "", fmt.Errorf("format chart: %w", err)
	}
	b.WriteString("\n")
	if color {
		b.WriteString(highlightJSON(string(pretty)))
	} else {
		b.Write(pretty)
	}
	b.WriteString("\n")
	return b.String(), nil
}

// highlightJSON applies terminal syntax highlighting using chroma.
func highlightJSON(code string) string {
	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}
