// Package sqlgen pushes dataset operations down to a SQL database.
//
// A Fragment is an immutable, append-only description of a SQL
// statement under construction, tagged with its current logical clause
// position in the fixed order
//
//	FROM < JOIN < WHERE < GROUP BY < HAVING < ORDER BY < LIMIT < SELECT < UNION
//
// Appending a clause at or before the current position wraps the whole
// fragment as a subquery (FROM (...) AS Tn) first, so the generated
// SQL is always syntactically orderable with the minimum nesting.
//
// A Dialect translates identifiers, literals, operators, functions and
// aggregations to a vendor's SQL; anything a dialect cannot express
// reports not-expressible instead of producing wrong SQL.
//
// SQLDataset implements dataset.Dataset on top of a Fragment and a
// Source that executes finished SQL. Each operation attempts a pure
// SQL translation; when any sub-expression is not expressible, the
// whole operation falls back to streaming the current SQL result and
// running against the stream/raster engines instead. There is no
// partial pushdown of a single operation, so a pushdown failure is
// invisible apart from speed.
package sqlgen
