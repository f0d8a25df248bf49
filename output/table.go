package output

import (
	"io"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/vegasq/tabular/dataset"
)

// maxCellWidth caps the display width of one table cell; longer values
// are truncated with an ellipsis to keep terminal output readable.
const maxCellWidth = 40

// TableFormatter outputs a raster as an aligned plain-text table.
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (t *TableFormatter) SetOutput(w io.Writer) {
	t.writer = w
}

// Format renders the raster as a bordered table.
func (t *TableFormatter) Format(r *dataset.Raster) error {
	table := tablewriter.NewWriter(t.writer)

	header := make([]string, r.ColumnCount())
	for i, col := range r.Columns() {
		header[i] = string(col)
	}
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	for row := 0; row < r.RowCount(); row++ {
		record := make([]string, r.ColumnCount())
		for col := range record {
			record[col] = truncateCell(r.Cell(row, col).String())
		}
		table.Append(record)
	}

	table.Render()
	return nil
}

// truncateCell shortens a value to maxCellWidth display columns,
// counting wide runes properly.
func truncateCell(s string) string {
	if runewidth.StringWidth(s) <= maxCellWidth {
		return s
	}
	return runewidth.Truncate(s, maxCellWidth, "…")
}
