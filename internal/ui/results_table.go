package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/helio-search/helio/internal/client"
	"github.com/helio-search/helio/internal/ledger"
)

// Alignment represents column text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

// ColumnDef describes one column of a rendered table. A zero WidthRatio
// means the column is fixed at MinWidth; ratios share out whatever the
// fixed columns leave over.
type ColumnDef struct {
	Name       string
	WidthRatio float64
	MinWidth   int
	MaxWidth   int // 0 means no limit
	Align      Alignment
	Style      lipgloss.Style
}

const timeLayout = "2006-01-02 15:04:05"

// Column layouts are built per call so they pick up the accent style
// in effect after ConfigureTheme.
func recordColumns() []ColumnDef {
	return []ColumnDef{
		{Name: "num", MinWidth: 4, MaxWidth: 6, Align: AlignRight, Style: Muted},
		{Name: "start", MinWidth: 19, MaxWidth: 19},
		{Name: "instrument", WidthRatio: 0.25, MinWidth: 8, MaxWidth: 20, Style: Accent},
		{Name: "source", WidthRatio: 0.25, MinWidth: 8, MaxWidth: 22, Style: Muted},
		{Name: "wave", MinWidth: 8, MaxWidth: 10, Align: AlignRight},
		{Name: "client", WidthRatio: 0.15, MinWidth: 5, MaxWidth: 12, Style: Muted},
	}
}

func historyColumns() []ColumnDef {
	return []ColumnDef{
		{Name: "time", MinWidth: 19, MaxWidth: 19},
		{Name: "query", WidthRatio: 0.6, MinWidth: 24, MaxWidth: 70},
		{Name: "records", MinWidth: 7, MaxWidth: 8, Align: AlignRight, Style: Muted},
	}
}

// RecordsTable renders search records in query order.
func RecordsTable(display *DisplayContext, records []client.Record) string {
	if len(records) == 0 {
		return ""
	}

	columns := recordColumns()
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{
			FormatRowNum(i+1, len(records)),
			r.Start.Format(timeLayout),
			r.Instrument,
			r.Source,
			r.Wavelength,
			r.Client,
		})
	}
	return renderColumns(columns, columnWidths(display, columns), rows)
}

// HistoryTable renders ledger entries newest first.
func HistoryTable(display *DisplayContext, entries []ledger.SearchEntry) string {
	if len(entries) == 0 {
		return ""
	}

	columns := historyColumns()
	widths := columnWidths(display, columns)
	queryWidth := widths[1]

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.At.Local().Format(timeLayout),
			TruncateWithEllipsis(e.Query, queryWidth),
			strconv.Itoa(e.Records),
		})
	}
	return renderColumns(columns, widths, rows)
}

const (
	columnPadding = 2
	tableMargin   = 2
)

// columnWidths sizes every column for the current terminal. Fixed
// columns take their minimum and ratio columns split the remainder;
// every width is then clamped to the column's min/max.
func columnWidths(display *DisplayContext, columns []ColumnDef) []int {
	widths := make([]int, len(columns))
	remaining := display.TermWidth - tableMargin - columnPadding*(len(columns)-1)

	var flexible float64
	for i, col := range columns {
		if col.WidthRatio == 0 {
			widths[i] = clampWidth(col.MinWidth, col)
			remaining -= widths[i]
		} else {
			flexible += col.WidthRatio
		}
	}
	if remaining < 0 {
		remaining = 0
	}

	for i, col := range columns {
		if col.WidthRatio > 0 {
			widths[i] = clampWidth(int(float64(remaining)*col.WidthRatio/flexible), col)
		}
	}
	return widths
}

func clampWidth(w int, col ColumnDef) int {
	if w < col.MinWidth {
		w = col.MinWidth
	}
	if col.MaxWidth > 0 && w > col.MaxWidth {
		w = col.MaxWidth
	}
	return w
}

// renderColumns draws rows with a muted rule between them and no outer
// border.
func renderColumns(columns []ColumnDef, widths []int, rows [][]string) string {
	return table.New().
		Border(lipgloss.Border{Top: "─", Bottom: "─", Middle: "─"}).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderRow(true).
		BorderColumn(false).
		BorderStyle(Muted).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col >= len(columns) {
				return lipgloss.NewStyle()
			}
			def := columns[col]
			style := def.Style.Width(widths[col])
			switch def.Align {
			case AlignRight:
				style = style.Align(lipgloss.Right)
			case AlignCenter:
				style = style.Align(lipgloss.Center)
			}
			if col < len(columns)-1 {
				style = style.PaddingRight(columnPadding)
			}
			return style
		}).
		Rows(rows...).
		Render()
}

// TruncateWithEllipsis shortens s to maxLen, preferring a word boundary
// when one falls in the second half of the cut.
func TruncateWithEllipsis(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}

	cut := s[:maxLen-3]
	if i := strings.LastIndex(cut, " "); i > maxLen/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

// FormatRowNum right-aligns a row number to the width of the largest.
func FormatRowNum(num, maxNum int) string {
	width := len(strconv.Itoa(maxNum))
	if width < 2 {
		width = 2
	}
	return fmt.Sprintf("%*d", width, num)
}
