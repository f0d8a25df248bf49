package sqlgen

import (
	"sort"
	"strings"

	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/dataset"
	"github.com/vegasq/tabular/formula"
)

// Source executes finished SQL statements against one database
// connection.
type Source interface {
	Dialect() Dialect

	// Columns learns the column names of a statement's result,
	// typically through a zero-row probe.
	Columns(sqlText string, job *dataset.Job, callback func([]data.Column, error))

	// Stream executes the statement and cursors over its rows.
	// columns may be nil when the caller does not know the schema yet.
	Stream(sqlText string, columns []data.Column) dataset.Stream

	// Equivalent reports whether other reads from the same connection,
	// which pushed-down joins and unions require.
	Equivalent(other Source) bool
}

// SQLDataset implements dataset.Dataset by accumulating operations
// into a SQL fragment. Operations the dialect cannot express fall
// back, whole, to the stream and raster engines over the SQL generated
// so far.
type SQLDataset struct {
	source   Source
	fragment *Fragment
	columns  []data.Column
}

var _ dataset.Dataset = (*SQLDataset)(nil)

// NewSQLDataset wraps a table. columns may be nil; operations needing
// the schema before execution then fall back to streaming.
func NewSQLDataset(source Source, table string, columns []data.Column) *SQLDataset {
	return &SQLDataset{
		source:   source,
		fragment: NewFragment(source.Dialect(), table),
		columns:  columns,
	}
}

// SQL returns the statement the dataset would execute.
func (d *SQLDataset) SQL() string { return d.fragment.SQL() }

func (d *SQLDataset) with(f *Fragment, columns []data.Column) *SQLDataset {
	return &SQLDataset{source: d.source, fragment: f, columns: columns}
}

func (d *SQLDataset) ColumnNames(job *dataset.Job, callback func([]data.Column, error)) {
	if d.columns != nil {
		callback(d.columns, nil)
		return
	}
	d.source.Columns(d.fragment.SQL(), job, callback)
}

func (d *SQLDataset) Stream() dataset.Stream {
	return d.source.Stream(d.fragment.SQL(), d.columns)
}

func (d *SQLDataset) Raster(job *dataset.Job, callback func(*dataset.Raster, error)) {
	dataset.Drain(job, d.Stream(), callback)
}

// fallback hands the rows generated so far to the stream engine.
func (d *SQLDataset) fallback() dataset.Dataset {
	return dataset.NewStreamDataset(d.Stream())
}

func (d *SQLDataset) Filter(condition formula.Expression) dataset.Dataset {
	sql, ok := ExpressionSQL(condition.Prepare(), d.source.Dialect())
	if !ok {
		return d.fallback().Filter(condition)
	}
	return d.with(d.fragment.SQLWhere(sql), d.columns)
}

func (d *SQLDataset) Sort(by []dataset.Order) dataset.Dataset {
	if len(by) == 0 {
		return d
	}
	dialect := d.source.Dialect()
	terms := make([]string, len(by))
	for i, o := range by {
		expr, ok := ExpressionSQL(o.Expr.Prepare(), dialect)
		if !ok {
			return d.fallback().Sort(by)
		}
		if o.Numeric {
			expr = dialect.CastNumeric(expr)
		} else {
			expr = dialect.CastString(expr)
		}
		if o.Ascending {
			terms[i] = expr + " ASC"
		} else {
			terms[i] = expr + " DESC"
		}
	}
	return d.with(d.fragment.SQLOrder(strings.Join(terms, ",")), d.columns)
}

func (d *SQLDataset) Limit(n int) dataset.Dataset {
	return d.with(d.fragment.SQLLimit(n), d.columns)
}

func (d *SQLDataset) Offset(n int) dataset.Dataset {
	return d.with(d.fragment.SQLOffset(n), d.columns)
}

func (d *SQLDataset) Random(n int) dataset.Dataset {
	return d.fallback().Random(n)
}

func (d *SQLDataset) Distinct() dataset.Dataset {
	return d.with(d.fragment.SQLSelect("DISTINCT *"), d.columns)
}

func (d *SQLDataset) Calculate(calculations map[data.Column]formula.Expression) dataset.Dataset {
	if d.columns == nil {
		return d.fallback().Calculate(calculations)
	}
	dialect := d.source.Dialect()

	targets := make([]data.Column, 0, len(calculations))
	for c := range calculations {
		targets = append(targets, c)
	}
	sortColumns(targets)

	outCols := append([]data.Column(nil), d.columns...)
	for _, c := range targets {
		if data.IndexOfColumn(outCols, c) < 0 {
			outCols = append(outCols, c)
		}
	}

	terms := make([]string, 0, len(outCols))
	for _, c := range outCols {
		if expr, ok := calculations[c]; ok {
			sql, sok := ExpressionSQL(expr.Prepare(), dialect)
			if !sok {
				return d.fallback().Calculate(calculations)
			}
			terms = append(terms, sql+" AS "+dialect.QuoteIdentifier(string(c)))
			continue
		}
		terms = append(terms, dialect.QuoteIdentifier(string(c)))
	}
	return d.with(d.fragment.SQLSelect(strings.Join(terms, ",")), outCols)
}

func (d *SQLDataset) SelectColumns(cols []data.Column) dataset.Dataset {
	dialect := d.source.Dialect()
	kept := cols
	if d.columns != nil {
		kept = make([]data.Column, 0, len(cols))
		for _, c := range cols {
			if idx := data.IndexOfColumn(d.columns, c); idx >= 0 {
				kept = append(kept, d.columns[idx])
			}
		}
	}
	terms := make([]string, len(kept))
	for i, c := range kept {
		terms[i] = dialect.QuoteIdentifier(string(c))
	}
	return d.with(d.fragment.SQLSelect(strings.Join(terms, ",")), kept)
}

func (d *SQLDataset) Aggregate(groups []dataset.GroupBy, values []dataset.AggregateValue) dataset.Dataset {
	dialect := d.source.Dialect()

	groupTerms := make([]string, len(groups))
	selectTerms := make([]string, 0, len(groups)+len(values))
	outCols := make([]data.Column, 0, len(groups)+len(values))
	for i, g := range groups {
		sql, ok := ExpressionSQL(g.Expr.Prepare(), dialect)
		if !ok {
			return d.fallback().Aggregate(groups, values)
		}
		groupTerms[i] = sql
		selectTerms = append(selectTerms, sql+" AS "+dialect.QuoteIdentifier(string(g.Column)))
		outCols = append(outCols, g.Column)
	}
	for _, v := range values {
		mapSQL, ok := ExpressionSQL(v.Aggregator.Map.Prepare(), dialect)
		if !ok {
			return d.fallback().Aggregate(groups, values)
		}
		agg, ok := dialect.AggregationSQL(v.Aggregator.Reduce, mapSQL)
		if !ok {
			return d.fallback().Aggregate(groups, values)
		}
		selectTerms = append(selectTerms, agg+" AS "+dialect.QuoteIdentifier(string(v.Column)))
		outCols = append(outCols, v.Column)
	}

	f := d.fragment
	if len(groups) > 0 {
		f = f.SQLGroup(strings.Join(groupTerms, ","))
	}
	return d.with(f.SQLSelect(strings.Join(selectTerms, ",")), outCols)
}

func (d *SQLDataset) Join(j dataset.Join) dataset.Dataset {
	other, ok := j.Foreign.(*SQLDataset)
	if !ok || !d.source.Equivalent(other.source) {
		return d.fallback().Join(j)
	}
	if d.columns == nil || other.columns == nil {
		return d.fallback().Join(j)
	}
	dialect := d.source.Dialect()
	cond, ok := expressionSQL(j.On.Prepare(), dialect, exprContext{Alias: "A", ForeignAlias: "B"})
	if !ok {
		return d.fallback().Join(j)
	}

	kind := "LEFT JOIN"
	if j.Type == dataset.InnerJoin {
		kind = "JOIN"
	}

	selectTerms := make([]string, 0, len(d.columns)+len(other.columns))
	outCols := append([]data.Column(nil), d.columns...)
	for _, c := range d.columns {
		selectTerms = append(selectTerms, dialect.QuoteIdentifier("A")+"."+dialect.QuoteIdentifier(string(c)))
	}
	for _, c := range other.columns {
		if data.ColumnsContain(d.columns, c) {
			continue
		}
		outCols = append(outCols, c)
		selectTerms = append(selectTerms, dialect.QuoteIdentifier("B")+"."+dialect.QuoteIdentifier(string(c)))
	}

	from := "(" + d.fragment.SQL() + ") AS " + dialect.QuoteIdentifier("A")
	f := newSubqueryFragment(dialect, from, d.fragment.depth+1).
		SQLJoin(kind + " (" + other.fragment.SQL() + ") AS " + dialect.QuoteIdentifier("B") + " ON " + cond).
		SQLSelect(strings.Join(selectTerms, ","))
	return d.with(f, outCols)
}

func (d *SQLDataset) Union(other dataset.Dataset) dataset.Dataset {
	o, ok := other.(*SQLDataset)
	if !ok || !d.source.Equivalent(o.source) {
		return d.fallback().Union(other)
	}
	// UNION needs both sides to produce the same column list.
	if d.columns == nil || o.columns == nil || !sameColumns(d.columns, o.columns) {
		return d.fallback().Union(other)
	}
	return d.with(d.fragment.SQLUnion(o.fragment), d.columns)
}

func (d *SQLDataset) Pivot(horizontal, vertical, values []data.Column) dataset.Dataset {
	return d.fallback().Pivot(horizontal, vertical, values)
}

func (d *SQLDataset) Flatten(f dataset.Flatten) dataset.Dataset {
	return d.fallback().Flatten(f)
}

func (d *SQLDataset) Transpose() dataset.Dataset {
	return d.fallback().Transpose()
}

func sameColumns(a, b []data.Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].EqualTo(b[i]) {
			return false
		}
	}
	return true
}

func sortColumns(cols []data.Column) {
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })
}
