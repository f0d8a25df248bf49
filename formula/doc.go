// Package formula implements the expression system shared by every
// execution engine: the evaluatable expression tree, the binary operator
// semantics, the scalar/aggregate function library, and the
// locale-parameterized formula parser.
//
// Expressions evaluate against a row (and, during join-condition
// evaluation, a second "foreign" row) and always produce a data.Value;
// bad data degrades to data.Invalid and never raises an error. Prepare
// performs idempotent constant folding and a small set of query
// rewrites, the most important being the OR-of-equals to IN rewrite
// that enables both SQL pushdown and in-memory short-circuit lookup.
//
// Example usage:
//
//	expr, _, err := Parse(`=IF([@age]>30;"old";"young")`, DefaultLocale())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result := expr.Apply(row, nil, data.Empty)
package formula
