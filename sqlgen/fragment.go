package sqlgen

import "strconv"

// Clause identifies a fragment's logical position. The order is the
// logical execution order of a SQL statement, not its textual order.
type Clause int

const (
	ClauseFrom Clause = iota
	ClauseJoin
	ClauseWhere
	ClauseGroup
	ClauseHaving
	ClauseOrder
	ClauseLimit
	ClauseSelect
	ClauseUnion
)

// Fragment is an immutable, append-only SQL statement under
// construction. Every append returns a new fragment; appending a
// clause at or before the current position first wraps the receiver
// as a subquery, so clauses always land in logical order.
type Fragment struct {
	dialect Dialect
	clause  Clause
	depth   int

	from   string
	join   string
	where  string
	group  string
	having string
	order  string
	limit  string
	offset string
	sel    string
	union  string
}

// NewFragment starts a fragment reading from the given table.
func NewFragment(d Dialect, table string) *Fragment {
	return &Fragment{dialect: d, clause: ClauseFrom, from: d.QuoteIdentifier(table)}
}

// newSubqueryFragment starts a fragment from raw FROM text, used for
// subquery wraps and pushed-down joins.
func newSubqueryFragment(d Dialect, from string, depth int) *Fragment {
	return &Fragment{dialect: d, clause: ClauseFrom, from: from, depth: depth}
}

// Alias returns the alias a wrap of this fragment would use.
func (f *Fragment) Alias() string {
	return "T" + strconv.Itoa(f.depth)
}

// wrap packages the fragment as FROM (subquery) AS Tn.
func (f *Fragment) wrap() *Fragment {
	return newSubqueryFragment(f.dialect, "("+f.SQL()+") AS "+f.Alias(), f.depth+1)
}

// advance returns a copy positioned so that a clause of type to can be
// appended: the receiver when it sits strictly before to, a subquery
// wrap otherwise.
func (f *Fragment) advance(to Clause) *Fragment {
	g := f
	for g.clause >= to {
		g = g.wrap()
	}
	out := *g
	out.clause = to
	return &out
}

// SQLJoin appends a complete join clause ("LEFT JOIN ... ON ...").
func (f *Fragment) SQLJoin(text string) *Fragment {
	g := f.advance(ClauseJoin)
	g.join = text
	return g
}

// SQLWhere appends a WHERE condition.
func (f *Fragment) SQLWhere(condition string) *Fragment {
	g := f.advance(ClauseWhere)
	g.where = condition
	return g
}

// SQLGroup appends a GROUP BY list.
func (f *Fragment) SQLGroup(list string) *Fragment {
	g := f.advance(ClauseGroup)
	g.group = list
	return g
}

// SQLHaving appends a HAVING condition.
func (f *Fragment) SQLHaving(condition string) *Fragment {
	g := f.advance(ClauseHaving)
	g.having = condition
	return g
}

// SQLOrder appends an ORDER BY list.
func (f *Fragment) SQLOrder(list string) *Fragment {
	g := f.advance(ClauseOrder)
	g.order = list
	return g
}

// SQLLimit appends a row limit.
func (f *Fragment) SQLLimit(n int) *Fragment {
	g := f.advance(ClauseLimit)
	g.limit = f.dialect.LimitSQL(n)
	return g
}

// SQLOffset appends a row offset. Offset shares the limit position in
// the clause order.
func (f *Fragment) SQLOffset(n int) *Fragment {
	g := f.advance(ClauseLimit)
	g.offset = f.dialect.OffsetSQL(n)
	return g
}

// SQLSelect sets the select list, which otherwise defaults to *.
func (f *Fragment) SQLSelect(list string) *Fragment {
	g := f.advance(ClauseSelect)
	g.sel = list
	return g
}

// SQLUnion appends UNION with another finished fragment.
func (f *Fragment) SQLUnion(other *Fragment) *Fragment {
	g := f.advance(ClauseUnion)
	g.union = other.SQL()
	return g
}

// SQL assembles the statement text.
func (f *Fragment) SQL() string {
	sel := f.sel
	if sel == "" {
		sel = "*"
	}
	s := "SELECT " + sel + " FROM " + f.from
	if f.join != "" {
		s += " " + f.join
	}
	if f.where != "" {
		s += " WHERE " + f.where
	}
	if f.group != "" {
		s += " GROUP BY " + f.group
	}
	if f.having != "" {
		s += " HAVING " + f.having
	}
	if f.order != "" {
		s += " ORDER BY " + f.order
	}
	if f.limit != "" {
		s += " " + f.limit
	}
	if f.offset != "" {
		s += " " + f.offset
	}
	if f.union != "" {
		s += " UNION " + f.union
	}
	return s
}
