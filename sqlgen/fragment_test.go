package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFragment_WhereAfterFrom(t *testing.T) {
	f := NewFragment(StandardDialect{}, "t").SQLWhere("y")
	assert.Equal(t, `SELECT * FROM "t" WHERE y`, f.SQL())
}

func TestFragment_WhereAfterOrderWraps(t *testing.T) {
	f := NewFragment(StandardDialect{}, "t").SQLOrder("x").SQLWhere("y")
	assert.Equal(t, `SELECT * FROM (SELECT * FROM "t" ORDER BY x) AS T0 WHERE y`, f.SQL())
}

func TestFragment_RepeatedWrapsNest(t *testing.T) {
	f := NewFragment(StandardDialect{}, "t").SQLWhere("a").SQLWhere("b")
	assert.Equal(t, `SELECT * FROM (SELECT * FROM "t" WHERE a) AS T0 WHERE b`, f.SQL())

	g := f.SQLWhere("c")
	assert.Equal(t,
		`SELECT * FROM (SELECT * FROM (SELECT * FROM "t" WHERE a) AS T0 WHERE b) AS T1 WHERE c`,
		g.SQL())
}

func TestFragment_InOrderClausesDoNotWrap(t *testing.T) {
	f := NewFragment(StandardDialect{}, "t").
		SQLWhere("w").
		SQLGroup("g").
		SQLHaving("h").
		SQLOrder("o").
		SQLLimit(5).
		SQLSelect("a,b")
	assert.Equal(t,
		`SELECT a,b FROM "t" WHERE w GROUP BY g HAVING h ORDER BY o LIMIT 5`,
		f.SQL())
}

func TestFragment_AppendIsImmutable(t *testing.T) {
	base := NewFragment(StandardDialect{}, "t")
	_ = base.SQLWhere("y")
	assert.Equal(t, `SELECT * FROM "t"`, base.SQL())
}

func TestFragment_Union(t *testing.T) {
	a := NewFragment(StandardDialect{}, "a")
	b := NewFragment(StandardDialect{}, "b").SQLWhere("x")
	assert.Equal(t, `SELECT * FROM "a" UNION SELECT * FROM "b" WHERE x`, a.SQLUnion(b).SQL())
}

func TestFragment_MySQLOffset(t *testing.T) {
	f := NewFragment(MySQLDialect{}, "t").SQLOffset(5)
	assert.Equal(t, "SELECT * FROM `t` LIMIT 5,18446744073709551615", f.SQL())
}
