package reader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/dataset"
	"github.com/vegasq/tabular/formula"
)

// Source is a parquet file usable as a dataset. Opening validates the
// file once; every stream drawn from the source reopens it so that
// concurrent consumers never share a file handle.
type Source struct {
	path    string
	columns []data.Column
}

// Open validates path as a parquet file and captures its column
// layout. Returns an error if the file doesn't exist or is not a
// valid parquet file.
func Open(path string) (*Source, error) {
	file, pqFile, err := openParquet(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	fields := pqFile.Schema().Fields()
	columns := make([]data.Column, len(fields))
	for i, f := range fields {
		columns[i] = data.Column(f.Name())
	}

	return &Source{path: path, columns: columns}, nil
}

// Columns returns the top-level column names in file order.
func (s *Source) Columns() []data.Column {
	out := make([]data.Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Stream returns a fresh pull stream over the file.
func (s *Source) Stream() dataset.Stream {
	return &fileStream{path: s.path, columns: s.columns}
}

// Dataset wraps the source in a streaming dataset.
func (s *Source) Dataset() dataset.Dataset {
	return dataset.NewStreamDataset(s.Stream())
}

// Dataset opens every parquet file matching pattern and unions them
// into one dataset. Multi-file reads tag each row with a _file column
// holding the source path; a plain path without glob wildcards maps to
// a single file with its columns untouched.
//
// The pattern follows filepath.Glob:
//   - "data/*.parquet" matches all parquet files in data
//   - "data/2024-*.parquet" matches files starting with 2024-
//   - "data/*/*.parquet" matches files in subdirectories of data
func Dataset(pattern string) (dataset.Dataset, error) {
	if !strings.ContainsAny(pattern, "*?[]{}") {
		src, err := Open(pattern)
		if err != nil {
			return nil, err
		}
		return src.Dataset(), nil
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", pattern)
	}

	// Cap the expansion so a careless pattern cannot exhaust file
	// handles.
	const maxFiles = 1000
	if len(matches) > maxFiles {
		return nil, fmt.Errorf("glob pattern matched too many files (%d), maximum is %d", len(matches), maxFiles)
	}
	sort.Strings(matches)

	var combined dataset.Dataset
	for _, path := range matches {
		src, err := Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		tagged := src.Dataset().Calculate(map[data.Column]formula.Expression{
			"_file": &formula.Literal{Value: data.String(path)},
		})
		if combined == nil {
			combined = tagged
		} else {
			combined = combined.Union(tagged)
		}
	}
	return combined, nil
}

func openParquet(path string) (*os.File, *parquet.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	return file, pqFile, nil
}

// fileStream pulls rows from a parquet file one batch at a time. The
// file is opened on the first Fetch and closed when the last batch
// goes out, so a stream that is never drained never touches the disk
// beyond validation.
type fileStream struct {
	path    string
	columns []data.Column

	file   *os.File
	reader *parquet.Reader
	done   bool
}

var _ dataset.Stream = (*fileStream)(nil)

func (s *fileStream) Columns(job *dataset.Job, callback func([]data.Column, error)) {
	cols := make([]data.Column, len(s.columns))
	copy(cols, s.columns)
	callback(cols, nil)
}

func (s *fileStream) Fetch(job *dataset.Job, sink dataset.Sink) {
	if s.done {
		sink(nil, false, nil)
		return
	}
	if job != nil && job.Cancelled() {
		s.close()
		sink(nil, false, dataset.ErrCancelled)
		return
	}
	if s.reader == nil {
		file, pqFile, err := openParquet(s.path)
		if err != nil {
			s.done = true
			sink(nil, false, err)
			return
		}
		s.file = file
		s.reader = parquet.NewReader(pqFile)
	}

	rows := make([]data.Tuple, 0, dataset.BatchSize)
	hasMore := true
	for len(rows) < dataset.BatchSize {
		row := make(map[string]interface{})
		if err := s.reader.Read(&row); err != nil {
			if !errors.Is(err, io.EOF) {
				s.close()
				sink(nil, false, fmt.Errorf("failed to read row: %w", err))
				return
			}
			hasMore = false
			break
		}
		rows = append(rows, s.rowTuple(row))
	}
	if !hasMore {
		s.close()
	}
	sink(rows, hasMore, nil)
}

func (s *fileStream) Clone() dataset.Stream {
	return &fileStream{path: s.path, columns: s.columns}
}

func (s *fileStream) close() {
	s.done = true
	if s.reader != nil {
		_ = s.reader.Close()
		s.reader = nil
	}
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
}

func (s *fileStream) rowTuple(row map[string]interface{}) data.Tuple {
	tuple := make(data.Tuple, len(s.columns))
	for i, col := range s.columns {
		tuple[i] = fileValue(row[string(col)])
	}
	return tuple
}

// fileValue maps a decoded parquet value onto the engine's value
// model. Nested groups and other shapes with no scalar mapping become
// the invalid value.
func fileValue(v interface{}) data.Value {
	switch x := v.(type) {
	case nil:
		return data.Empty
	case bool:
		return data.Bool(x)
	case int32:
		return data.Int(int64(x))
	case int64:
		return data.Int(x)
	case float32:
		return data.Double(float64(x))
	case float64:
		return data.Double(x)
	case string:
		return data.String(x)
	case []byte:
		return data.String(string(x))
	case time.Time:
		return data.Date(x.Unix())
	default:
		return data.Invalid
	}
}
