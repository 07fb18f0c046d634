package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const tableGap = "  "

// Table aligns columns without borders. Cells may be styled; widths are
// measured on what the terminal shows.
type Table struct {
	cols int
	rows [][]string
}

// NewTable creates a table with cols columns.
func NewTable(cols int) *Table {
	return &Table{cols: cols}
}

// AddRow appends a row. Missing cells are blank and extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, t.cols)
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// String renders the rows. The last column is never padded.
func (t *Table) String() string {
	widths := make([]int, t.cols)
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var sb strings.Builder
	for _, row := range t.rows {
		last := len(row) - 1
		for i, cell := range row {
			sb.WriteString(cell)
			if i < last {
				sb.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)))
				sb.WriteString(tableGap)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
