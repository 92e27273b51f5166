package ui

import "strings"

// Table aligns short listings, like clients and vocabularies, by
// padding alone. No borders.
type Table struct {
	cols int
	rows [][]string
}

// NewTable creates a table with a fixed number of columns.
func NewTable(cols int) *Table {
	return &Table{cols: cols}
}

// AddRow appends a row. Missing cells render empty, extra cells are
// dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, t.cols)
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// String renders the rows with two spaces between columns.
func (t *Table) String() string {
	if len(t.rows) == 0 {
		return ""
	}

	widths := make([]int, t.cols)
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for _, row := range t.rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			if i < t.cols-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
