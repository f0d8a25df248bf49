package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/dataset"
	"github.com/vegasq/tabular/formula"
	"github.com/vegasq/tabular/output"
	"github.com/vegasq/tabular/reader"
)

var (
	filterFlag  = flag.String("filter", "", "Row filter formula (e.g., \"=[@age]>30\")")
	calcFlag    = flag.String("calc", "", "Calculated column as name=formula (e.g., \"shout=UPPERCASE([@name])\")")
	selectFlag  = flag.String("select", "", "Comma-separated columns to keep")
	sortFlag    = flag.String("sort", "", "Column to sort by")
	descFlag    = flag.Bool("desc", false, "Sort descending")
	numericFlag = flag.Bool("numeric", false, "Sort numerically instead of lexicographically")
	limitFlag   = flag.Int("limit", 0, "Limit number of rows (0 = unlimited)")
	offsetFlag  = flag.Int("offset", 0, "Skip the first n rows")
	sampleFlag  = flag.Int("sample", 0, "Random sample of n rows (0 = disabled)")
	distinct    = flag.Bool("distinct", false, "Drop duplicate rows")
	formatFlag  = flag.String("f", "table", "Output format: table, jsonl, csv")
	schemaFlag  = flag.Bool("schema", false, "Show schema information instead of data")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <file.parquet>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "A tool to read and transform Parquet files.\n\n")
		fmt.Fprintf(os.Stderr, "All flags must come BEFORE the file argument. The file argument\n")
		fmt.Fprintf(os.Stderr, "may be a glob pattern; matching files are combined and each row\n")
		fmt.Fprintf(os.Stderr, "gains a _file column with its source path.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s data.parquet\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -f csv -filter \"=[@age]>30\" data.parquet\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -calc \"total=[@price]*[@qty]\" -sort total -numeric -desc data.parquet\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -schema data.parquet\n", os.Args[0])
	}

	flag.Parse()

	if *limitFlag < 0 || *offsetFlag < 0 || *sampleFlag < 0 {
		fatalf("Error: -limit, -offset and -sample must be non-negative")
	}
	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: missing parquet file argument\n\n")
		flag.Usage()
		os.Exit(1)
	}
	pattern := flag.Arg(0)

	if *schemaFlag {
		printSchema(pattern, *formatFlag)
		return
	}

	ds, err := reader.Dataset(pattern)
	if err != nil {
		if os.IsNotExist(err) {
			fatalf("Error: file '%s' not found", pattern)
		}
		fatalf("Error: %v", err)
	}

	ds, err = applyPipeline(ds)
	if err != nil {
		fatalf("Error: %v", err)
	}

	raster, err := materialize(ds)
	if err != nil {
		fatalf("Error: %v", err)
	}

	formatter, err := newFormatter(*formatFlag)
	if err != nil {
		fatalf("Error: %v", err)
	}
	if err := formatter.Format(raster); err != nil {
		fatalf("Error formatting output: %v", err)
	}
}

// applyPipeline chains the requested transformations in a fixed order:
// filter, calculate, select, distinct, sort, offset, limit, sample.
func applyPipeline(ds dataset.Dataset) (dataset.Dataset, error) {
	loc := formula.DefaultLocale()

	if *filterFlag != "" {
		cond, _, err := formula.Parse(*filterFlag, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid -filter formula: %w", err)
		}
		ds = ds.Filter(cond)
	}

	if *calcFlag != "" {
		name, text, ok := strings.Cut(*calcFlag, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("-calc expects name=formula, got %q", *calcFlag)
		}
		if !strings.HasPrefix(text, "=") {
			text = "=" + text
		}
		expr, _, err := formula.Parse(text, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid -calc formula: %w", err)
		}
		ds = ds.Calculate(map[data.Column]formula.Expression{
			data.Column(strings.TrimSpace(name)): expr,
		})
	}

	if *selectFlag != "" {
		var cols []data.Column
		for _, name := range strings.Split(*selectFlag, ",") {
			cols = append(cols, data.Column(strings.TrimSpace(name)))
		}
		ds = ds.SelectColumns(cols)
	}

	if *distinct {
		ds = ds.Distinct()
	}

	if *sortFlag != "" {
		ds = ds.Sort([]dataset.Order{{
			Expr:      &formula.Sibling{Column: data.Column(*sortFlag)},
			Ascending: !*descFlag,
			Numeric:   *numericFlag,
		}})
	}

	if *offsetFlag > 0 {
		ds = ds.Offset(*offsetFlag)
	}
	if *limitFlag > 0 {
		ds = ds.Limit(*limitFlag)
	}
	if *sampleFlag > 0 {
		ds = ds.Random(*sampleFlag)
	}
	return ds, nil
}

func materialize(ds dataset.Dataset) (*dataset.Raster, error) {
	var (
		out  *dataset.Raster
		rerr error
	)
	done := make(chan struct{})
	ds.Raster(dataset.NewJob(), func(r *dataset.Raster, err error) {
		out, rerr = r, err
		close(done)
	})
	<-done
	return out, rerr
}

func newFormatter(format string) (output.Formatter, error) {
	switch format {
	case "table":
		return output.NewTableFormatter(os.Stdout), nil
	case "json", "jsonl":
		return output.NewJSONFormatter(os.Stdout), nil
	case "csv":
		return output.NewCSVFormatter(os.Stdout), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (supported: table, jsonl, csv)", format)
	}
}

// printSchema renders the column layout of the first file matching
// pattern through the regular formatters.
func printSchema(pattern, format string) {
	path := pattern
	if strings.ContainsAny(pattern, "*?[]{}") {
		matches, err := filepathGlob(pattern)
		if err != nil {
			fatalf("Error: %v", err)
		}
		path = matches[0]
		if len(matches) > 1 {
			fmt.Fprintf(os.Stderr, "# Showing schema from: %s (%d files matched)\n", path, len(matches))
		}
	}

	infos, err := reader.Schema(path)
	if err != nil {
		if os.IsNotExist(err) {
			fatalf("Error: file '%s' not found", path)
		}
		fatalf("Error opening file: %v", err)
	}

	cols := []data.Column{"name", "type", "required", "repeated"}
	rows := make([]data.Tuple, len(infos))
	for i, info := range infos {
		rows[i] = data.Tuple{
			data.String(info.Name),
			data.String(info.Type),
			data.Bool(info.Required),
			data.Bool(info.Repeated),
		}
	}

	formatter, err := newFormatter(format)
	if err != nil {
		fatalf("Error: %v", err)
	}
	if err := formatter.Format(dataset.NewRaster(cols, rows, true)); err != nil {
		fatalf("Error formatting output: %v", err)
	}
}

func filepathGlob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
