package output

import (
	"io"
	"time"

	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/dataset"
)

// Formatter defines the interface for output formatters.
//
// Implementers must provide Format to write a raster in the target
// format and SetOutput to change the output destination.
type Formatter interface {
	// Format writes the raster in the formatter's specific format
	Format(r *dataset.Raster) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// nativeValue maps a cell to the Go value formatters encode: nil for
// Empty, an error marker string for Invalid, RFC 3339 text for dates.
func nativeValue(v data.Value) interface{} {
	switch v.Kind() {
	case data.KindEmpty:
		return nil
	case data.KindInt:
		i, _ := v.IntValue()
		return i
	case data.KindDouble:
		f, _ := v.DoubleValue()
		return f
	case data.KindBool:
		b, _ := v.BoolValue()
		return b
	case data.KindString:
		s, _ := v.StringValue()
		return s
	case data.KindDate:
		secs, _ := v.DateValue()
		return time.Unix(secs, 0).UTC().Format(time.RFC3339)
	}
	return v.String()
}
