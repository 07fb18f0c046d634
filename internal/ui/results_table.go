package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
)

// ColumnDef sizes one column of a ResultsTable. Columns with a zero Share
// are fixed at Min; the rest split what is left of the terminal width.
type ColumnDef struct {
	Share float64
	Min   int
	Max   int // 0 means unbounded
	Align lipgloss.Position
	Style lipgloss.Style
}

const (
	resultsMargin = 2
	resultsGap    = 2
)

// MatchLayout is the flat listing: number, text, path, tags.
var MatchLayout = []ColumnDef{
	{Min: 4, Align: lipgloss.Right, Style: Muted},
	{Share: 0.5, Min: 20, Max: 100},
	{Share: 0.35, Min: 15, Max: 80, Style: Muted},
	{Share: 0.15, Min: 8, Max: 30, Style: Accent},
}

// ResultsTable lays out rows in proportion to the terminal width and
// truncates cells that do not fit.
type ResultsTable struct {
	columns []ColumnDef
	widths  []int
	rows    [][]string
}

func NewResultsTable(display *DisplayContext, columns []ColumnDef) *ResultsTable {
	return &ResultsTable{columns: columns, widths: columnWidths(display.Width, columns)}
}

func columnWidths(total int, columns []ColumnDef) []int {
	widths := make([]int, len(columns))
	flex := total - resultsMargin - resultsGap*(len(columns)-1)
	var shares float64
	for i, c := range columns {
		if c.Share == 0 {
			widths[i] = c.Min
			flex -= c.Min
		}
		shares += c.Share
	}
	flex = max(flex, 0)

	for i, c := range columns {
		if c.Share == 0 {
			continue
		}
		w := max(int(float64(flex)*c.Share/shares), c.Min)
		if c.Max > 0 {
			w = min(w, c.Max)
		}
		widths[i] = w
	}
	return widths
}

func (t *ResultsTable) AddRow(cells ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(cells) {
			row[i] = TruncateWithEllipsis(cells[i], t.widths[i])
		}
	}
	t.rows = append(t.rows, row)
}

func (t *ResultsTable) Render() string {
	if len(t.rows) == 0 {
		return ""
	}
	last := len(t.columns) - 1
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderRow(false).
		BorderColumn(false).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col > last {
				return lipgloss.NewStyle()
			}
			c := t.columns[col]
			s := c.Style.Width(t.widths[col]).Align(c.Align)
			if col < last {
				s = s.PaddingRight(resultsGap)
			}
			return s
		}).
		Rows(t.rows...).
		Render()
}

// TruncateWithEllipsis shortens s to at most maxWidth display columns,
// backing up to a space in the second half when there is one.
func TruncateWithEllipsis(s string, maxWidth int) string {
	switch {
	case maxWidth <= 0 || runewidth.StringWidth(s) <= maxWidth:
		return s
	case maxWidth <= 3:
		return runewidth.Truncate(s, maxWidth, "")
	}
	cut := runewidth.Truncate(s, maxWidth-3, "")
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

// FormatRowNum right-aligns num to the width of maxNum, at least two digits.
func FormatRowNum(num, maxNum int) string {
	s := strconv.Itoa(num)
	pad := max(len(strconv.Itoa(maxNum)), 2) - len(s)
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
