package dataset

import (
	"github.com/pkg/errors"
	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/formula"
)

// BatchSize is the number of rows per stream batch and the chunk size
// for parallel raster work.
const BatchSize = 256

// ErrCancelled is delivered when an operation observes its job was
// cancelled before it could finish.
var ErrCancelled = errors.New("operation cancelled")

// Sink receives one batch of rows from a Stream. hasMore tells the
// consumer whether fetching again can produce more rows. On a non-nil
// err the stream is finished and rows must be ignored.
type Sink func(rows []data.Tuple, hasMore bool, err error)

// Stream is a single-use, statefully positioned cursor over row
// batches. Clone returns an independent cursor rewound to the start,
// sharing only immutable configuration.
type Stream interface {
	// Columns delivers the stream's column names. May require a
	// round-trip for remote sources, hence the callback.
	Columns(job *Job, callback func(cols []data.Column, err error))

	// Fetch delivers exactly one batch through sink.
	Fetch(job *Job, sink Sink)

	Clone() Stream
}

// Order is one sort key. Numeric selects numeric comparison of the
// evaluated key; otherwise keys compare lexicographically by their
// string form. The choice is explicit, never inferred from the data.
type Order struct {
	Expr      formula.Expression
	Ascending bool
	Numeric   bool
}

// Aggregator describes one aggregated value: Map is evaluated against
// every source row of a group, Reduce folds the collected values.
type Aggregator struct {
	Map    formula.Expression
	Reduce formula.Function
}

// GroupBy names one group key column and the expression producing it.
type GroupBy struct {
	Column data.Column
	Expr   formula.Expression
}

// AggregateValue names one output column and its aggregator.
type AggregateValue struct {
	Column     data.Column
	Aggregator Aggregator
}

// JoinType selects the join flavor.
type JoinType int

const (
	// LeftJoin keeps every left row; unmatched rows get Empty cells
	// for the foreign columns.
	LeftJoin JoinType = iota

	// InnerJoin keeps only left rows with at least one match.
	InnerJoin
)

// Join describes a join against a foreign dataset. On is evaluated
// with the left row as the sibling row and the candidate foreign row
// as the foreign row; a true result matches.
type Join struct {
	Type    JoinType
	Foreign Dataset
	On      formula.Expression
}

// Flatten describes the tall-form conversion of a row set: every cell
// becomes its own row in column ValueTo. ColumnNameTo, when non-empty,
// receives the originating column's name. RowColumn, when non-empty,
// receives RowIdentifier evaluated against the originating row.
type Flatten struct {
	ValueTo       data.Column
	ColumnNameTo  data.Column
	RowColumn     data.Column
	RowIdentifier formula.Expression
}

// Dataset is the abstract capability set for relational transforms,
// independent of execution strategy. Every transform returns a new
// Dataset describing the derived data; the receiver is never mutated.
// Engines that cannot run an operation natively fall back to another
// representation internally.
type Dataset interface {
	// ColumnNames delivers the dataset's column names.
	ColumnNames(job *Job, callback func(cols []data.Column, err error))

	// Raster materializes the dataset fully.
	Raster(job *Job, callback func(r *Raster, err error))

	// Stream returns a fresh cursor over the dataset's rows.
	Stream() Stream

	Filter(condition formula.Expression) Dataset
	Sort(by []Order) Dataset
	Limit(n int) Dataset
	Offset(n int) Dataset
	Random(n int) Dataset
	Distinct() Dataset
	Calculate(calculations map[data.Column]formula.Expression) Dataset
	SelectColumns(cols []data.Column) Dataset
	Aggregate(groups []GroupBy, values []AggregateValue) Dataset
	Pivot(horizontal, vertical, values []data.Column) Dataset
	Join(join Join) Dataset
	Union(other Dataset) Dataset
	Flatten(f Flatten) Dataset
	Transpose() Dataset
}
