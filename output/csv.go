package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/dataset"
)

// CSVFormatter outputs a raster as CSV with a header row.
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes the raster as CSV, columns in raster order.
func (c *CSVFormatter) Format(r *dataset.Raster) error {
	csvWriter := csv.NewWriter(c.writer)

	header := make([]string, r.ColumnCount())
	for i, col := range r.Columns() {
		header[i] = string(col)
	}
	if err := csvWriter.Write(header); err != nil {
		return err
	}

	for row := 0; row < r.RowCount(); row++ {
		record := make([]string, r.ColumnCount())
		for col := range record {
			record[col] = cellText(r.Cell(row, col))
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// cellText converts a cell to its CSV field text. Empty cells become
// empty fields so they round-trip as absence rather than "".
func cellText(v data.Value) string {
	if v.IsEmpty() {
		return ""
	}
	// Only string payloads need injection guarding; numbers keep their
	// leading minus sign.
	if v.Kind() == data.KindString {
		s, _ := v.StringValue()
		return sanitizeField(s)
	}
	return v.String()
}

// sanitizeField guards against CSV injection by prefixing characters
// that could trigger formula execution in spreadsheet applications.
func sanitizeField(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '\n', '|':
		return "'" + strings.ReplaceAll(s, "'", "''")
	}
	return s
}
