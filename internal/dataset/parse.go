// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEmpty is returned when the input has no header line.
var ErrEmpty = errors.New("file is empty")

// Parse reads delimiter-separated text. The first record is the header; every
// following record becomes a Row with inferred value types.
//
// Ragged records are tolerated: missing cells become nil and extra cells are
// dropped. When a header name repeats, the later cell wins and the column keeps
// its first position.
func Parse(r io.Reader, delim rune) (*Dataset, error) {
	// A leading UTF-8 BOM would otherwise end up in the first column name.
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	rec, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, describeParseError(err)
	}

	fields := append([]string(nil), rec...)
	header := uniqueColumns(fields)

	rows := make([]Row, 0, 64)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, describeParseError(err)
		}

		row := make(Row, len(header))
		for i, name := range fields {
			if i < len(rec) {
				row[name] = Infer(rec[i])
			} else if _, ok := row[name]; !ok {
				row[name] = nil
			}
		}
		rows = append(rows, row)
	}

	return &Dataset{Rows: rows, header: header}, nil
}

// Infer converts one raw cell to its typed value. Blank cells and the tokens
// "null" and "NaN" become nil, "true"/"false" become bools, finite numbers
// become float64, and anything else stays the original (untrimmed) string.
func Infer(raw string) any {
	v := strings.TrimSpace(raw)
	switch v {
	case "", "null", "NaN":
		return nil
	case "true":
		return true
	case "false":
		return false
	}

	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return raw
}

// uniqueColumns drops repeated header names, keeping first positions.
func uniqueColumns(fields []string) []string {
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func describeParseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("line %d, column %d: %w", pe.Line, pe.Column, pe.Err)
	}
	return err
}
