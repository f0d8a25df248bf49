// Package data defines the value model shared by every execution engine.
//
// A Value is a dynamically typed cell: string, integer, double, boolean,
// date, the explicit absence Empty, or the poison value Invalid. Values
// coerce permissively between the scalar kinds (dates never coerce), and
// any arithmetic that would produce NaN or an infinity collapses to
// Invalid rather than carrying a broken number around.
//
// Columns compare case-insensitively but preserve the case they were
// created with. A Tuple is one row of cells; a Row pairs a tuple with its
// column list so expressions can resolve cells by name.
package data
