// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jeranaias/chartchat/internal/dataset"
)

// ErrNotObject is returned for specifications that are not JSON objects.
var ErrNotObject = errors.New("chart specification is not a JSON object")

// Bind returns a self-contained copy of spec whose top-level data source is
// the given rows. Everything else in spec is left as it was.
func Bind(spec json.RawMessage, rows []dataset.Row) ([]byte, error) {
	doc, err := decodeObject(spec)
	if err != nil {
		return nil, err
	}

	if rows == nil {
		rows = []dataset.Row{}
	}
	values, err := json.Marshal(map[string]any{"values": rows})
	if err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	doc["data"] = values

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return out, nil
}

func decodeObject(spec json.RawMessage) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(spec)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if doc == nil {
		return nil, ErrNotObject
	}
	return doc, nil
}
