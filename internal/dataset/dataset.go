// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dataset

import (
	"path/filepath"
	"strings"
)

// Row is a single record. Values are string, float64, bool or nil.
type Row map[string]any

// Dataset is an ordered sequence of rows with a fixed column order.
type Dataset struct {
	// Name is the file name the data came from.
	Name string

	Rows []Row

	header []string
}

// New builds a Dataset from rows that all share the given column order.
func New(name string, columns []string, rows []Row) *Dataset {
	header := make([]string, len(columns))
	copy(header, columns)
	return &Dataset{Name: name, Rows: rows, header: header}
}

// Columns returns the keys of the first row in file order, or nil when the
// dataset has no rows.
func (d *Dataset) Columns() []string {
	if d == nil || len(d.Rows) == 0 {
		return nil
	}
	cols := make([]string, len(d.header))
	copy(cols, d.header)
	return cols
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Head returns at most n rows from the start of the dataset.
func (d *Dataset) Head(n int) []Row {
	if d == nil || n <= 0 {
		return nil
	}
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	return d.Rows[:n]
}

// Values returns the row values of one record in column order.
func (d *Dataset) Values(r Row) []any {
	out := make([]any, len(d.header))
	for i, col := range d.header {
		out[i] = r[col]
	}
	return out
}

// DelimiterFor returns the field delimiter for a file name based on its
// extension. Unknown extensions get a comma.
func DelimiterFor(name string) rune {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tsv", ".tab":
		return '\t'
	default:
		return ','
	}
}

// HasExtension reports whether name ends with one of the given extensions,
// ignoring case. Extensions include the leading dot.
func HasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, e := range extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
