// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jeranaias/chartchat/internal/dataset"
	"github.com/jeranaias/chartchat/internal/ui/styles"
	"github.com/jeranaias/chartchat/internal/util"
)

// =============================================================================
// DATASET PREVIEW
// =============================================================================

// DefaultPreviewRows is the number of rows shown in the preview.
const DefaultPreviewRows = 10

// maxCellWidth caps a single preview cell.
const maxCellWidth = 24

// Preview renders the first rows of the loaded dataset as a table.
type Preview struct {
	Dataset *dataset.Dataset
	Visible bool
	MaxRows int
	Width   int
	theme   *styles.Theme
}

// NewPreview creates a preview with the default row limit.
func NewPreview(theme *styles.Theme) *Preview {
	return &Preview{
		MaxRows: DefaultPreviewRows,
		Width:   80,
		theme:   theme,
	}
}

// View renders the table, or a one-line hint when the preview is hidden.
// It renders nothing when no dataset is loaded.
func (p *Preview) View() string {
	ds := p.Dataset
	if ds == nil || ds.Len() == 0 {
		return ""
	}
	if !p.Visible {
		return p.theme.PreviewHint.Render(
			"Dataset " + ds.Name + " loaded (" + strconv.Itoa(ds.Len()) + " rows). Ctrl+P to preview.")
	}

	cols := ds.Columns()
	cellWidth := maxCellWidth
	if len(cols) > 0 && p.Width > 0 {
		// Two padding columns and one border per cell.
		if w := p.Width/len(cols) - 3; w < cellWidth {
			cellWidth = w
		}
	}
	if cellWidth < 4 {
		cellWidth = 4
	}

	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = util.TruncateWidth(c, cellWidth)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.theme.PreviewBorder).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.theme.PreviewHeader
			}
			return p.theme.PreviewCell
		}).
		Headers(headers...)

	for _, row := range PreviewRows(ds, p.MaxRows) {
		for i := range row {
			row[i] = util.TruncateWidth(row[i], cellWidth)
		}
		t.Row(row...)
	}

	caption := p.theme.PreviewHint.Render(
		ds.Name + ": showing " + strconv.Itoa(min(p.MaxRows, ds.Len())) + " of " + strconv.Itoa(ds.Len()) + " rows")
	return t.String() + "\n" + caption
}

// PreviewRows returns the display text of the first n rows in column order.
func PreviewRows(ds *dataset.Dataset, n int) [][]string {
	head := ds.Head(n)
	out := make([][]string, 0, len(head))
	for _, r := range head {
		vals := ds.Values(r)
		cells := make([]string, len(vals))
		for i, v := range vals {
			cells[i] = FormatCell(v)
		}
		out = append(out, cells)
	}
	return out
}

// FormatCell returns the display text of a single value. Missing values
// render as an empty cell.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return util.FormatNumber(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
