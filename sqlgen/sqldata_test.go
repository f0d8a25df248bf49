package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/dataset"
	"github.com/vegasq/tabular/formula"
)

// fakeSource serves a fixed raster for every statement and records the
// statements it was asked to run.
type fakeSource struct {
	dialect Dialect
	raster  *dataset.Raster
	queries []string
}

func newFakeSource(d Dialect, r *dataset.Raster) *fakeSource {
	return &fakeSource{dialect: d, raster: r}
}

func (s *fakeSource) Dialect() Dialect { return s.dialect }

func (s *fakeSource) Columns(_ string, _ *dataset.Job, callback func([]data.Column, error)) {
	callback(s.raster.Columns(), nil)
}

func (s *fakeSource) Stream(sqlText string, _ []data.Column) dataset.Stream {
	s.queries = append(s.queries, sqlText)
	return dataset.NewRasterDataset(s.raster).Stream()
}

func (s *fakeSource) Equivalent(other Source) bool {
	o, ok := other.(*fakeSource)
	return ok && o == s
}

func parseExpr(t *testing.T, text string) formula.Expression {
	t.Helper()
	expr, _, err := formula.Parse(text, formula.DefaultLocale())
	require.NoError(t, err)
	return expr
}

func materialize(t *testing.T, d dataset.Dataset) *dataset.Raster {
	t.Helper()
	var out *dataset.Raster
	done := make(chan struct{})
	d.Raster(dataset.NewJob(), func(r *dataset.Raster, err error) {
		require.NoError(t, err)
		out = r
		close(done)
	})
	<-done
	return out
}

func peopleRaster() *dataset.Raster {
	return dataset.NewRaster(
		[]data.Column{"name", "age"},
		[]data.Tuple{
			{data.String("alice"), data.Int(34)},
			{data.String("bob"), data.Int(25)},
			{data.String("ann"), data.Int(41)},
		},
		true,
	)
}

func peopleDataset(d Dialect) (*SQLDataset, *fakeSource) {
	src := newFakeSource(d, peopleRaster())
	return NewSQLDataset(src, "people", []data.Column{"name", "age"}), src
}

func TestSQLDataset_Filter(t *testing.T) {
	d, _ := peopleDataset(StandardDialect{})
	out := d.Filter(parseExpr(t, "=[@age]>30"))
	require.IsType(t, &SQLDataset{}, out)
	assert.Equal(t, `SELECT * FROM "people" WHERE ("age">30)`, out.(*SQLDataset).SQL())
}

func TestSQLDataset_FilterOrRewritesToIn(t *testing.T) {
	d, _ := peopleDataset(StandardDialect{})
	out := d.Filter(parseExpr(t, `=OR([@name]="alice";[@name]="bob")`))
	require.IsType(t, &SQLDataset{}, out)
	assert.Equal(t, `SELECT * FROM "people" WHERE ("name" IN ('alice','bob'))`, out.(*SQLDataset).SQL())
}

func TestSQLDataset_SortCasts(t *testing.T) {
	d, _ := peopleDataset(StandardDialect{})
	out := d.Sort([]dataset.Order{
		{Expr: &formula.Sibling{Column: "age"}, Ascending: true, Numeric: true},
		{Expr: &formula.Sibling{Column: "name"}, Ascending: false},
	})
	assert.Equal(t,
		`SELECT * FROM "people" ORDER BY CAST("age" AS NUMERIC) ASC,CAST("name" AS VARCHAR) DESC`,
		out.(*SQLDataset).SQL())
}

func TestSQLDataset_FilterAfterSortWraps(t *testing.T) {
	d, _ := peopleDataset(StandardDialect{})
	out := d.
		Sort([]dataset.Order{{Expr: &formula.Sibling{Column: "age"}, Ascending: true, Numeric: true}}).
		Filter(parseExpr(t, "=[@age]>30"))
	assert.Equal(t,
		`SELECT * FROM (SELECT * FROM "people" ORDER BY CAST("age" AS NUMERIC) ASC) AS T0 WHERE ("age">30)`,
		out.(*SQLDataset).SQL())
}

func TestSQLDataset_LimitOffsetDistinct(t *testing.T) {
	d, _ := peopleDataset(StandardDialect{})
	assert.Equal(t, `SELECT * FROM "people" LIMIT 10`, d.Limit(10).(*SQLDataset).SQL())
	assert.Equal(t, `SELECT * FROM "people" OFFSET 5`, d.Offset(5).(*SQLDataset).SQL())
	assert.Equal(t, `SELECT DISTINCT * FROM "people"`, d.Distinct().(*SQLDataset).SQL())

	m, _ := peopleDataset(MySQLDialect{})
	assert.Equal(t, "SELECT * FROM `people` LIMIT 5,18446744073709551615", m.Offset(5).(*SQLDataset).SQL())
}

func TestSQLDataset_Calculate(t *testing.T) {
	d, _ := peopleDataset(StandardDialect{})
	out := d.Calculate(map[data.Column]formula.Expression{
		"shout": parseExpr(t, "=UPPERCASE([@name])"),
	})
	sq, ok := out.(*SQLDataset)
	require.True(t, ok)
	assert.Equal(t, `SELECT "name","age",UPPER("name") AS "shout" FROM "people"`, sq.SQL())

	cols := make(chan []data.Column, 1)
	sq.ColumnNames(dataset.NewJob(), func(c []data.Column, err error) {
		require.NoError(t, err)
		cols <- c
	})
	assert.Equal(t, []data.Column{"name", "age", "shout"}, <-cols)
}

func TestSQLDataset_SelectColumns(t *testing.T) {
	d, _ := peopleDataset(StandardDialect{})
	out := d.SelectColumns([]data.Column{"age", "missing"})
	assert.Equal(t, `SELECT "age" FROM "people"`, out.(*SQLDataset).SQL())
}

func TestSQLDataset_Aggregate(t *testing.T) {
	d, _ := peopleDataset(StandardDialect{})
	out := d.Aggregate(
		[]dataset.GroupBy{{Column: "name", Expr: &formula.Sibling{Column: "name"}}},
		[]dataset.AggregateValue{{Column: "total", Aggregator: dataset.Aggregator{
			Map:    &formula.Sibling{Column: "age"},
			Reduce: formula.FunctionSum,
		}}},
	)
	assert.Equal(t,
		`SELECT "name" AS "name",SUM("age") AS "total" FROM "people" GROUP BY "name"`,
		out.(*SQLDataset).SQL())
}

func TestSQLDataset_JoinPushdown(t *testing.T) {
	src := newFakeSource(StandardDialect{}, peopleRaster())
	left := NewSQLDataset(src, "l", []data.Column{"id", "a"})
	right := NewSQLDataset(src, "r", []data.Column{"id", "b"})

	out := left.Join(dataset.Join{
		Type:    dataset.LeftJoin,
		Foreign: right,
		On:      parseExpr(t, "=[@id]=[#id]"),
	})
	sq, ok := out.(*SQLDataset)
	require.True(t, ok, "same-source join must stay in SQL")
	assert.Equal(t,
		`SELECT "A"."id","A"."a","B"."b" FROM (SELECT * FROM "l") AS "A" LEFT JOIN (SELECT * FROM "r") AS "B" ON ("A"."id"="B"."id")`,
		sq.SQL())
}

func TestSQLDataset_JoinDifferentSourcesFallsBack(t *testing.T) {
	left, _ := peopleDataset(StandardDialect{})
	otherSrc := newFakeSource(StandardDialect{}, peopleRaster())
	right := NewSQLDataset(otherSrc, "r", []data.Column{"id", "b"})

	out := left.Join(dataset.Join{
		Type:    dataset.LeftJoin,
		Foreign: right,
		On:      parseExpr(t, "=[@name]=[#id]"),
	})
	_, pushed := out.(*SQLDataset)
	assert.False(t, pushed)
}

func TestSQLDataset_Union(t *testing.T) {
	src := newFakeSource(StandardDialect{}, peopleRaster())
	a := NewSQLDataset(src, "a", []data.Column{"name", "age"})
	b := NewSQLDataset(src, "b", []data.Column{"name", "age"})
	out := a.Union(b)
	sq, ok := out.(*SQLDataset)
	require.True(t, ok)
	assert.Equal(t, `SELECT * FROM "a" UNION SELECT * FROM "b"`, sq.SQL())

	c := NewSQLDataset(src, "c", []data.Column{"other"})
	_, pushed := a.Union(c).(*SQLDataset)
	assert.False(t, pushed, "mismatched columns must fall back")
}

func TestSQLDataset_UntranslatableFilterFallsBack(t *testing.T) {
	// The standard dialect has no regex operator, so the whole filter
	// runs in memory against the streamed rows.
	d, src := peopleDataset(StandardDialect{})
	out := d.Filter(parseExpr(t, `=[@name]±±="^a"`))
	_, pushed := out.(*SQLDataset)
	require.False(t, pushed)

	r := materialize(t, out)
	require.Equal(t, 2, r.RowCount())
	assert.True(t, r.Cell(0, 0).Equals(data.String("alice")))
	assert.True(t, r.Cell(1, 0).Equals(data.String("ann")))
	// The fallback streamed the accumulated SQL, not a rewritten one.
	require.NotEmpty(t, src.queries)
	assert.Equal(t, `SELECT * FROM "people"`, src.queries[0])
}

func TestSQLDataset_MySQLRegexStaysPushed(t *testing.T) {
	d, _ := peopleDataset(MySQLDialect{})
	out := d.Filter(parseExpr(t, `=[@name]±±="^a"`))
	sq, ok := out.(*SQLDataset)
	require.True(t, ok)
	assert.Equal(t, "SELECT * FROM `people` WHERE (`name` REGEXP BINARY '^a')", sq.SQL())
}

func TestSQLDataset_RasterRoundTrip(t *testing.T) {
	d, _ := peopleDataset(StandardDialect{})
	r := materialize(t, d)
	require.Equal(t, 3, r.RowCount())
	assert.Equal(t, []data.Column{"name", "age"}, r.Columns())
}

func TestExpressionSQL_NotExpressible(t *testing.T) {
	dialect := StandardDialect{}
	_, ok := ExpressionSQL(&formula.Identity{}, dialect)
	assert.False(t, ok)
	_, ok = ExpressionSQL(&formula.Foreign{Column: "x"}, dialect)
	assert.False(t, ok, "foreign refs need a join context")
	_, ok = ExpressionSQL(&formula.Literal{Value: data.Invalid}, dialect)
	assert.False(t, ok)
}
