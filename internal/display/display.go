// Package display renders normalized tables for the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/leofalp/tabscrape/core/table"
)

// Preview defaults.
const (
	DefaultPreviewRows  = 10
	DefaultCellWidth    = 40
	emptyTableMessage   = "no records extracted"
	truncationIndicator = "…"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	noteStyle   = lipgloss.NewStyle().Faint(true)
)

// Render draws every row of t. A positive width caps the table width;
// lipgloss wraps cells to fit.
func Render(t table.Table, width int) string {
	if t.Empty() {
		return emptyTableMessage
	}
	return build(t, t.StringRows(), width).String()
}

// Preview draws at most maxRows rows with every cell cut to maxCell
// runes, followed by a line counting the rows left out. Non-positive
// limits use the defaults.
func Preview(t table.Table, maxRows, maxCell int) string {
	if t.Empty() {
		return emptyTableMessage
	}
	if maxRows <= 0 {
		maxRows = DefaultPreviewRows
	}
	if maxCell <= 0 {
		maxCell = DefaultCellWidth
	}

	rows := t.StringRows()
	hidden := 0
	if len(rows) > maxRows {
		hidden = len(rows) - maxRows
		rows = rows[:maxRows]
	}
	for _, row := range rows {
		for j, c := range row {
			row[j] = Truncate(c, maxCell)
		}
	}

	out := build(t, rows, 0).String()
	if hidden > 0 {
		out += "\n" + noteStyle.Render(fmt.Sprintf("… %d more %s", hidden, pluralize(hidden, "row", "rows")))
	}
	return out
}

// Summary describes the table shape in one line.
func Summary(t table.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s, %d %s",
		t.Len(), pluralize(t.Len(), "row", "rows"),
		len(t.Columns), pluralize(len(t.Columns), "column", "columns"))
	if len(t.Pruned) > 0 {
		fmt.Fprintf(&b, " (dropped empty: %s)", strings.Join(t.Pruned, ", "))
	}
	if t.Skipped > 0 {
		fmt.Fprintf(&b, " (skipped %d non-object %s)", t.Skipped, pluralize(t.Skipped, "record", "records"))
	}
	return b.String()
}

// Truncate cuts s to maxLen runes, ending with an ellipsis when cut.
// Line breaks are flattened to spaces.
func Truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return truncationIndicator
	}
	return string(runes[:maxLen-1]) + truncationIndicator
}

func build(t table.Table, rows [][]string, width int) *lgtable.Table {
	tbl := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == lgtable.HeaderRow:
				return headerStyle
			case col < len(t.Columns) && t.Columns[col].Kind == table.KindNumber:
				return numberStyle
			default:
				return cellStyle
			}
		}).
		Headers(t.Header()...).
		Rows(rows...)
	if width > 0 {
		tbl = tbl.Width(width)
	}
	return tbl
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
