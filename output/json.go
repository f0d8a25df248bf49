package output

import (
	"encoding/json"
	"io"

	"github.com/vegasq/tabular/dataset"
)

// JSONFormatter outputs a raster as JSON Lines.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON Lines formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes the raster as JSON Lines (one JSON object per row).
func (j *JSONFormatter) Format(r *dataset.Raster) error {
	encoder := json.NewEncoder(j.writer)
	cols := r.Columns()
	for row := 0; row < r.RowCount(); row++ {
		obj := make(map[string]interface{}, len(cols))
		for col := range cols {
			obj[string(cols[col])] = nativeValue(r.Cell(row, col))
		}
		if err := encoder.Encode(obj); err != nil {
			return err
		}
	}
	return nil
}
