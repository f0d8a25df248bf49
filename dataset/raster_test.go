package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/formula"
)

func testRaster() *Raster {
	return NewRaster(
		[]data.Column{"a", "b"},
		[]data.Tuple{
			{data.Int(1), data.String("x")},
			{data.Int(2), data.String("y")},
			{data.Int(3), data.String("x")},
		},
		true,
	)
}

func parseExpr(t *testing.T, text string) formula.Expression {
	t.Helper()
	expr, _, err := formula.Parse(text, formula.DefaultLocale())
	require.NoError(t, err)
	return expr
}

func TestRaster_DuplicateColumnsPanic(t *testing.T) {
	assert.Panics(t, func() {
		NewRaster([]data.Column{"a", "A"}, nil, true)
	})
}

func TestRaster_ReadOnlyMutationPanics(t *testing.T) {
	r := testRaster()
	assert.Panics(t, func() { r.AddRow(data.Tuple{data.Int(4)}) })
	assert.Panics(t, func() { r.SetValue(0, "a", data.Int(9)) })
	assert.Panics(t, func() { r.RemoveRows([]int{0}) })
	assert.Panics(t, func() { r.RemoveColumns([]data.Column{"a"}) })
}

func TestRaster_Editing(t *testing.T) {
	r := NewEmptyRaster()
	r.AddColumn("a", data.Empty)
	r.AddColumn("b", data.Empty)
	r.AddRow(data.Tuple{data.Int(1), data.String("x")})
	r.AddRow(data.Tuple{data.Int(2)})
	r.SetValue(1, "b", data.String("y"))

	require.Equal(t, 2, r.RowCount())
	assert.True(t, r.Cell(1, 1).Equals(data.String("y")))
	// Short tuples pad with Empty on access.
	assert.True(t, r.Cell(1, 0).Equals(data.Int(2)))

	r.RemoveRows([]int{0})
	require.Equal(t, 1, r.RowCount())
	r.RemoveColumns([]data.Column{"a"})
	assert.Equal(t, []data.Column{"b"}, r.Columns())
	assert.True(t, r.Cell(0, 0).Equals(data.String("y")))
}

func TestRaster_Filtered(t *testing.T) {
	out, err := testRaster().Filtered(nil, parseExpr(t, "=[@a]>1"))
	require.NoError(t, err)
	require.Equal(t, 2, out.RowCount())
	assert.True(t, out.Cell(0, 0).Equals(data.Int(2)))
	assert.True(t, out.Cell(1, 0).Equals(data.Int(3)))
}

func TestRaster_SortedStable(t *testing.T) {
	// Sorting by b only must keep the a=1 row before the a=3 row.
	out, err := testRaster().Sorted(nil, []Order{
		{Expr: &formula.Sibling{Column: "b"}, Ascending: true},
	})
	require.NoError(t, err)
	require.Equal(t, 3, out.RowCount())
	assert.True(t, out.Cell(0, 0).Equals(data.Int(1)))
	assert.True(t, out.Cell(1, 0).Equals(data.Int(3)))
	assert.True(t, out.Cell(2, 0).Equals(data.Int(2)))
}

func TestRaster_SortedNumericVsLexicographic(t *testing.T) {
	r := NewRaster([]data.Column{"n"}, []data.Tuple{
		{data.Int(10)}, {data.Int(9)}, {data.Int(100)},
	}, true)
	key := &formula.Sibling{Column: "n"}

	numeric, err := r.Sorted(nil, []Order{{Expr: key, Ascending: true, Numeric: true}})
	require.NoError(t, err)
	assert.True(t, numeric.Cell(0, 0).Equals(data.Int(9)))
	assert.True(t, numeric.Cell(2, 0).Equals(data.Int(100)))

	lex, err := r.Sorted(nil, []Order{{Expr: key, Ascending: true}})
	require.NoError(t, err)
	// "10" < "100" < "9" as strings.
	assert.True(t, lex.Cell(0, 0).Equals(data.Int(10)))
	assert.True(t, lex.Cell(1, 0).Equals(data.Int(100)))
	assert.True(t, lex.Cell(2, 0).Equals(data.Int(9)))
}

func TestRaster_Aggregated(t *testing.T) {
	out, err := testRaster().Aggregated(nil,
		[]GroupBy{{Column: "b", Expr: &formula.Sibling{Column: "b"}}},
		[]AggregateValue{{Column: "total", Aggregator: Aggregator{
			Map:    &formula.Sibling{Column: "a"},
			Reduce: formula.FunctionSum,
		}}},
	)
	require.NoError(t, err)
	require.Equal(t, []data.Column{"b", "total"}, out.Columns())
	// Groups appear in first-seen order: x before y.
	require.Equal(t, 2, out.RowCount())
	assert.True(t, out.Cell(0, 0).Equals(data.String("x")))
	assert.True(t, out.Cell(0, 1).Equals(data.Double(4)))
	assert.True(t, out.Cell(1, 0).Equals(data.String("y")))
	assert.True(t, out.Cell(1, 1).Equals(data.Double(2)))
}

func TestRaster_AggregatedOrderSensitiveReducer(t *testing.T) {
	out, err := testRaster().Aggregated(nil,
		[]GroupBy{{Column: "b", Expr: &formula.Sibling{Column: "b"}}},
		[]AggregateValue{{Column: "joined", Aggregator: Aggregator{
			Map:    &formula.Sibling{Column: "a"},
			Reduce: formula.FunctionConcat,
		}}},
	)
	require.NoError(t, err)
	// Rows within a group accumulate in arrival order.
	assert.True(t, out.Cell(0, 1).Equals(data.String("13")))
}

func TestRaster_AggregatedDuplicateTargetPanics(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = testRaster().Aggregated(nil,
			[]GroupBy{{Column: "b", Expr: &formula.Sibling{Column: "b"}}},
			[]AggregateValue{{Column: "b", Aggregator: Aggregator{
				Map:    &formula.Sibling{Column: "a"},
				Reduce: formula.FunctionSum,
			}}},
		)
	})
}

func TestRaster_JoinedEmptyForeign(t *testing.T) {
	right := NewRaster([]data.Column{"a", "c"}, nil, true)
	out, err := testRaster().Joined(nil, Join{
		Type: LeftJoin,
		On:   parseExpr(t, "=[@a]=[#a]"),
	}, right)
	require.NoError(t, err)
	require.Equal(t, []data.Column{"a", "b", "c"}, out.Columns())
	require.Equal(t, 3, out.RowCount())
	for i := 0; i < 3; i++ {
		assert.True(t, out.Cell(i, 2).IsEmpty(), "row %d foreign cell", i)
	}
}

func TestRaster_Joined(t *testing.T) {
	right := NewRaster([]data.Column{"a", "c"}, []data.Tuple{
		{data.Int(1), data.String("one")},
		{data.Int(2), data.String("two")},
		{data.Int(2), data.String("dos")},
	}, true)
	out, err := testRaster().Joined(nil, Join{
		Type: LeftJoin,
		On:   parseExpr(t, "=[@a]=[#a]"),
	}, right)
	require.NoError(t, err)
	// 1 matches once, 2 matches twice, 3 pads Empty.
	require.Equal(t, 4, out.RowCount())
	assert.True(t, out.Cell(0, 2).Equals(data.String("one")))
	assert.True(t, out.Cell(1, 2).Equals(data.String("two")))
	assert.True(t, out.Cell(2, 2).Equals(data.String("dos")))
	assert.True(t, out.Cell(3, 2).IsEmpty())

	inner, err := testRaster().Joined(nil, Join{
		Type: InnerJoin,
		On:   parseExpr(t, "=[@a]=[#a]"),
	}, right)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.RowCount())
}

func TestRaster_JoinedManyRows(t *testing.T) {
	// More left rows than one parallel chunk, to cover the merge.
	rows := make([]data.Tuple, 1000)
	for i := range rows {
		rows[i] = data.Tuple{data.Int(int64(i % 7))}
	}
	left := NewRaster([]data.Column{"k"}, rows, true)
	right := NewRaster([]data.Column{"k", "name"}, []data.Tuple{
		{data.Int(0), data.String("zero")},
		{data.Int(1), data.String("one")},
	}, true)

	out, err := left.Joined(nil, Join{Type: LeftJoin, On: parseExpr(t, "=[@k]=[#k]")}, right)
	require.NoError(t, err)
	require.Equal(t, 1000, out.RowCount())
	// Output preserves left row order across chunks.
	for i := 0; i < 14; i++ {
		assert.True(t, out.Cell(i, 0).Equals(data.Int(int64(i%7))), "row %d", i)
	}
}

func TestRaster_Pivoted(t *testing.T) {
	r := NewRaster([]data.Column{"year", "city", "sales"}, []data.Tuple{
		{data.Int(2024), data.String("ams"), data.Int(10)},
		{data.Int(2024), data.String("rtm"), data.Int(20)},
		{data.Int(2025), data.String("ams"), data.Int(30)},
	}, true)
	out, err := r.Pivoted(nil,
		[]data.Column{"city"},
		[]data.Column{"year"},
		[]data.Column{"sales"},
	)
	require.NoError(t, err)
	require.Equal(t, []data.Column{"year", "ams", "rtm"}, out.Columns())
	require.Equal(t, 2, out.RowCount())
	assert.True(t, out.Cell(0, 1).Equals(data.Int(10)))
	assert.True(t, out.Cell(0, 2).Equals(data.Int(20)))
	assert.True(t, out.Cell(1, 1).Equals(data.Int(30)))
	// Missing (2025, rtm) combination fills Invalid.
	assert.False(t, out.Cell(1, 2).IsValid())
}

func TestRaster_DistinctRows(t *testing.T) {
	r := NewRaster([]data.Column{"a"}, []data.Tuple{
		{data.Int(1)}, {data.Int(2)}, {data.Int(1)}, {data.String("1")},
	}, true)
	out, err := r.DistinctRows(nil)
	require.NoError(t, err)
	// Int(1) and String("1") compare equal, so three rows collapse.
	require.Equal(t, 2, out.RowCount())
	assert.True(t, out.Cell(0, 0).Equals(data.Int(1)))
	assert.True(t, out.Cell(1, 0).Equals(data.Int(2)))
}

func TestRaster_RandomRows(t *testing.T) {
	rows := make([]data.Tuple, 100)
	for i := range rows {
		rows[i] = data.Tuple{data.Int(int64(i))}
	}
	r := NewRaster([]data.Column{"i"}, rows, true)

	out, err := r.RandomRows(nil, 10)
	require.NoError(t, err)
	require.Equal(t, 10, out.RowCount())
	// No duplicates: sampling is without replacement.
	seen := map[int64]bool{}
	for i := 0; i < out.RowCount(); i++ {
		v, _ := out.Cell(i, 0).IntValue()
		assert.False(t, seen[v])
		seen[v] = true
	}

	all, err := r.RandomRows(nil, 1000)
	require.NoError(t, err)
	assert.Equal(t, 100, all.RowCount())
}

func TestRaster_Unioned(t *testing.T) {
	other := NewRaster([]data.Column{"b", "c"}, []data.Tuple{
		{data.String("z"), data.Int(9)},
	}, true)
	out := testRaster().Unioned(other)
	require.Equal(t, []data.Column{"a", "b", "c"}, out.Columns())
	require.Equal(t, 4, out.RowCount())
	assert.True(t, out.Cell(0, 2).IsEmpty())
	assert.True(t, out.Cell(3, 0).IsEmpty())
	assert.True(t, out.Cell(3, 1).Equals(data.String("z")))
	assert.True(t, out.Cell(3, 2).Equals(data.Int(9)))
}

func TestRaster_Flattened(t *testing.T) {
	out, err := testRaster().Flattened(nil, Flatten{
		ValueTo:       "value",
		ColumnNameTo:  "column",
		RowColumn:     "row",
		RowIdentifier: &formula.Sibling{Column: "a"},
	})
	require.NoError(t, err)
	require.Equal(t, []data.Column{"row", "column", "value"}, out.Columns())
	require.Equal(t, 6, out.RowCount())
	assert.True(t, out.Cell(0, 0).Equals(data.Int(1)))
	assert.True(t, out.Cell(0, 1).Equals(data.String("a")))
	assert.True(t, out.Cell(0, 2).Equals(data.Int(1)))
	assert.True(t, out.Cell(1, 1).Equals(data.String("b")))
	assert.True(t, out.Cell(1, 2).Equals(data.String("x")))
}

func TestRaster_Transposed(t *testing.T) {
	out := testRaster().Transposed()
	require.Equal(t, []data.Column{"column", "row_1", "row_2", "row_3"}, out.Columns())
	require.Equal(t, 2, out.RowCount())
	assert.True(t, out.Cell(0, 0).Equals(data.String("a")))
	assert.True(t, out.Cell(0, 2).Equals(data.Int(2)))
	assert.True(t, out.Cell(1, 0).Equals(data.String("b")))
	assert.True(t, out.Cell(1, 3).Equals(data.String("x")))
}

func TestRaster_CalculatedIdentity(t *testing.T) {
	// Overwriting an existing column: Identity reads the pre-update
	// cell; new columns append.
	out, err := testRaster().Calculated(nil, map[data.Column]formula.Expression{
		"a": parseExpr(t, "=[@]*10"),
		"d": parseExpr(t, "=[@a]+1"),
	})
	require.NoError(t, err)
	require.Equal(t, []data.Column{"a", "b", "d"}, out.Columns())
	assert.True(t, out.Cell(0, 0).Equals(data.Double(10)))
	// The new column sees the pre-update value of a.
	assert.True(t, out.Cell(0, 2).Equals(data.Int(2)))
}

func TestRaster_Cancellation(t *testing.T) {
	job := NewJob()
	job.Cancel()
	_, err := testRaster().Filtered(job, parseExpr(t, "=TRUE"))
	assert.ErrorIs(t, err, ErrCancelled)
}
