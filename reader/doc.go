// Package reader turns Apache Parquet files into datasets.
//
// # Overview
//
// The reader package is the file-backed ingestion path of the engine.
// It opens parquet files with the parquet-go/parquet-go library and
// exposes them through the dataset.Stream contract, so a file on disk
// can be filtered, joined and aggregated exactly like an in-memory
// raster or a SQL table.
//
// # Opening files
//
// Open validates a single file and captures its column layout:
//
//	src, err := reader.Open("sales.parquet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ds := src.Dataset()
//
// Dataset accepts a glob pattern and unions every matching file into a
// single dataset, tagging each row with a _file column holding the
// source path:
//
//	ds, err := reader.Dataset("data/2024-*.parquet")
//
// # Streaming
//
// Rows are pulled from disk in fixed-size batches rather than loaded
// whole, so pipelines that end in a limit or a sample never read more
// of the file than they need. Cloning a stream reopens the file, which
// keeps independent consumers independent.
//
// # Value mapping
//
// Parquet values map onto the engine's value model: integers and
// floats keep their numeric kinds, UTF8 byte arrays become strings,
// booleans stay booleans, nulls become the empty value and timestamps
// become dates. Anything without a sensible mapping, such as a nested
// group, becomes the invalid value.
//
// # Schema inspection
//
// Schema reports the column layout of a file without reading any rows,
// including nested fields in dot notation.
package reader
