// Package output provides formatters for writing materialized rasters
// to various output formats.
//
// This package defines the Formatter interface and provides
// implementations for common output formats. All formatters work on a
// *dataset.Raster and respect its column order.
//
// # Supported Formats
//
//   - JSON Lines: one JSON object per row (suitable for streaming)
//   - CSV: comma-separated values with header row
//   - Table: aligned plain-text table for terminals
//
// # Basic Usage
//
// Using the JSON formatter:
//
//	formatter := output.NewJSONFormatter(os.Stdout)
//	if err := formatter.Format(raster); err != nil {
//	    log.Fatal(err)
//	}
//
// Using the CSV formatter:
//
//	formatter := output.NewCSVFormatter(os.Stdout)
//	if err := formatter.Format(raster); err != nil {
//	    log.Fatal(err)
//	}
//
// # Writing to Different Destinations
//
// Change output destination dynamically:
//
//	formatter := output.NewJSONFormatter(os.Stdout)
//
//	file, err := os.Create("output.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer file.Close()
//
//	formatter.SetOutput(file)
//	if err := formatter.Format(raster); err != nil {
//	    log.Fatal(err)
//	}
//
// # Formatter Interface
//
// Implement custom formatters by satisfying the Formatter interface:
//
//	type Formatter interface {
//	    Format(r *dataset.Raster) error
//	    SetOutput(w io.Writer)
//	}
//
// # Value Handling
//
// Cell values map to each format's natural representation: strings,
// numbers and booleans directly, Empty as JSON null or an empty CSV
// field, dates as RFC 3339 text, and Invalid as the "#INVALID!"
// marker so bad data stays visible in the result.
package output
