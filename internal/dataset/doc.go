// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dataset holds the tabular data a user uploaded.
//
// # Key Types
//
//   - Dataset: parsed rows plus the column order taken from the header
//   - Row: one record, column name to a typed scalar (string, float64, bool or nil)
//   - Store: the single current Dataset, replaced as a whole value
//
// # Usage
//
//	ds, err := dataset.Parse(f, dataset.DelimiterFor("sales.csv"))
//	if err != nil {
//	    return err
//	}
//	store.Set(ds)
//
// Every cell goes through the same inference function, so a column may mix
// numbers and strings exactly like the source file does.
package dataset
