package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/formula"
)

// Dialect translates values, operators, functions and aggregations to
// one database vendor's SQL. Every translation that a vendor cannot
// express returns ok=false; callers treat that as "fall back", never
// as an error.
type Dialect interface {
	// QuoteIdentifier quotes and escapes a column or table name.
	QuoteIdentifier(name string) string

	// LiteralString quotes and escapes a string literal.
	LiteralString(s string) string

	// LiteralValue renders a value as a SQL literal.
	LiteralValue(v data.Value) (string, bool)

	// BinarySQL renders a binary operator application.
	BinarySQL(op formula.Binary, lhs, rhs string) (string, bool)

	// FunctionSQL renders a function call.
	FunctionSQL(fn formula.Function, args []string) (string, bool)

	// AggregationSQL renders a reducer applied to a mapped expression.
	AggregationSQL(reduce formula.Function, mapSQL string) (string, bool)

	// CastNumeric and CastString force the comparison type of a sort
	// key.
	CastNumeric(expr string) string
	CastString(expr string) string

	// LimitSQL and OffsetSQL render the row-window clauses.
	LimitSQL(n int) string
	OffsetSQL(n int) string
}

// StandardDialect emits portable ANSI-flavored SQL. Vendor dialects
// embed it and override what differs.
type StandardDialect struct{}

func (StandardDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (StandardDialect) LiteralString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (d StandardDialect) LiteralValue(v data.Value) (string, bool) {
	switch v.Kind() {
	case data.KindInt:
		i, _ := v.IntValue()
		return strconv.FormatInt(i, 10), true
	case data.KindDouble:
		f, _ := v.DoubleValue()
		return strconv.FormatFloat(f, 'f', -1, 64), true
	case data.KindString:
		s, _ := v.StringValue()
		return d.LiteralString(s), true
	case data.KindBool:
		b, _ := v.BoolValue()
		if b {
			return "TRUE", true
		}
		return "FALSE", true
	case data.KindEmpty:
		return "NULL", true
	}
	// Dates and Invalid have no portable literal form.
	return "", false
}

func (StandardDialect) BinarySQL(op formula.Binary, lhs, rhs string) (string, bool) {
	switch op {
	case formula.BinaryAddition:
		return "(" + lhs + "+" + rhs + ")", true
	case formula.BinarySubtraction:
		return "(" + lhs + "-" + rhs + ")", true
	case formula.BinaryMultiplication:
		return "(" + lhs + "*" + rhs + ")", true
	case formula.BinaryDivision:
		return "(" + lhs + "/" + rhs + ")", true
	case formula.BinaryModulus:
		return "MOD(" + lhs + "," + rhs + ")", true
	case formula.BinaryPower:
		return "POWER(" + lhs + "," + rhs + ")", true
	case formula.BinaryConcatenation:
		return "(" + lhs + " || " + rhs + ")", true
	case formula.BinaryEqual:
		return "(" + lhs + "=" + rhs + ")", true
	case formula.BinaryNotEqual:
		return "(" + lhs + "<>" + rhs + ")", true
	case formula.BinaryGreater:
		return "(" + lhs + ">" + rhs + ")", true
	case formula.BinaryLesser:
		return "(" + lhs + "<" + rhs + ")", true
	case formula.BinaryGreaterEqual:
		return "(" + lhs + ">=" + rhs + ")", true
	case formula.BinaryLesserEqual:
		return "(" + lhs + "<=" + rhs + ")", true
	case formula.BinaryContainsStringStrict:
		return "(" + lhs + " LIKE ('%' || " + rhs + " || '%'))", true
	case formula.BinaryContainsString:
		return "(LOWER(" + lhs + ") LIKE ('%' || LOWER(" + rhs + ") || '%'))", true
	}
	// Regex operators have no portable form.
	return "", false
}

func (StandardDialect) FunctionSQL(fn formula.Function, args []string) (string, bool) {
	list := strings.Join(args, ",")
	switch fn {
	case formula.FunctionUppercase:
		return "UPPER(" + list + ")", true
	case formula.FunctionLowercase:
		return "LOWER(" + list + ")", true
	case formula.FunctionLength:
		return "CHAR_LENGTH(" + list + ")", true
	case formula.FunctionTrim:
		return "TRIM(" + list + ")", true
	case formula.FunctionConcat:
		if len(args) == 0 {
			return "''", true
		}
		return "(" + strings.Join(args, " || ") + ")", true
	case formula.FunctionAbsolute:
		return "ABS(" + list + ")", true
	case formula.FunctionNegate:
		return "(-" + list + ")", true
	case formula.FunctionSqrt:
		return "SQRT(" + list + ")", true
	case formula.FunctionExp:
		return "EXP(" + list + ")", true
	case formula.FunctionLn:
		return "LN(" + list + ")", true
	case formula.FunctionFloor:
		return "FLOOR(" + list + ")", true
	case formula.FunctionCeiling:
		return "CEILING(" + list + ")", true
	case formula.FunctionRound:
		return "ROUND(" + list + ")", true
	case formula.FunctionPower:
		return "POWER(" + list + ")", true
	case formula.FunctionCoalesce:
		return "COALESCE(" + list + ")", true
	case formula.FunctionIf:
		if len(args) != 3 {
			return "", false
		}
		return "(CASE WHEN " + args[0] + " THEN " + args[1] + " ELSE " + args[2] + " END)", true
	case formula.FunctionAnd:
		if len(args) == 0 {
			return "", false
		}
		return "(" + strings.Join(args, " AND ") + ")", true
	case formula.FunctionOr:
		if len(args) == 0 {
			return "", false
		}
		return "(" + strings.Join(args, " OR ") + ")", true
	case formula.FunctionNot:
		if len(args) != 1 {
			return "", false
		}
		return "(NOT " + args[0] + ")", true
	case formula.FunctionIn:
		if len(args) < 2 {
			return "", false
		}
		return "(" + args[0] + " IN (" + strings.Join(args[1:], ",") + "))", true
	case formula.FunctionNotIn:
		if len(args) < 2 {
			return "", false
		}
		return "(" + args[0] + " NOT IN (" + strings.Join(args[1:], ",") + "))", true
	case formula.FunctionIsEmpty:
		if len(args) != 1 {
			return "", false
		}
		return "(" + args[0] + " IS NULL)", true
	case formula.FunctionLeft:
		if len(args) != 2 {
			return "", false
		}
		return "SUBSTRING(" + args[0] + " FROM 1 FOR " + args[1] + ")", true
	case formula.FunctionMid:
		if len(args) != 3 {
			return "", false
		}
		return "SUBSTRING(" + args[0] + " FROM " + args[1] + " FOR " + args[2] + ")", true
	}
	return "", false
}

func (StandardDialect) AggregationSQL(reduce formula.Function, mapSQL string) (string, bool) {
	switch reduce {
	case formula.FunctionSum:
		return "SUM(" + mapSQL + ")", true
	case formula.FunctionMin:
		return "MIN(" + mapSQL + ")", true
	case formula.FunctionMax:
		return "MAX(" + mapSQL + ")", true
	case formula.FunctionCountAll:
		return "COUNT(*)", true
	case formula.FunctionCountDistinct:
		return "COUNT(DISTINCT " + mapSQL + ")", true
	case formula.FunctionAverage:
		// AVERAGE divides by the count of all rows, matching the
		// in-memory reducer rather than SQL AVG over non-NULLs.
		return "(SUM(" + mapSQL + ")/COUNT(*))", true
	}
	return "", false
}

func (StandardDialect) CastNumeric(expr string) string {
	return "CAST(" + expr + " AS NUMERIC)"
}

func (StandardDialect) CastString(expr string) string {
	return "CAST(" + expr + " AS VARCHAR)"
}

func (StandardDialect) LimitSQL(n int) string {
	return "LIMIT " + strconv.Itoa(n)
}

func (StandardDialect) OffsetSQL(n int) string {
	return "OFFSET " + strconv.Itoa(n)
}

// MySQLDialect emits MySQL syntax: backtick identifier quoting, no
// standalone OFFSET clause, regex support through REGEXP.
type MySQLDialect struct {
	StandardDialect
}

func (MySQLDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d MySQLDialect) BinarySQL(op formula.Binary, lhs, rhs string) (string, bool) {
	switch op {
	case formula.BinaryMatchesRegexStrict:
		return "(" + lhs + " REGEXP BINARY " + rhs + ")", true
	case formula.BinaryMatchesRegex:
		return "(" + lhs + " REGEXP " + rhs + ")", true
	case formula.BinaryConcatenation:
		return "CONCAT(" + lhs + "," + rhs + ")", true
	}
	return d.StandardDialect.BinarySQL(op, lhs, rhs)
}

func (d MySQLDialect) FunctionSQL(fn formula.Function, args []string) (string, bool) {
	switch fn {
	case formula.FunctionConcat:
		if len(args) == 0 {
			return "''", true
		}
		return "CONCAT(" + strings.Join(args, ",") + ")", true
	case formula.FunctionLeft:
		if len(args) != 2 {
			return "", false
		}
		return "LEFT(" + args[0] + "," + args[1] + ")", true
	case formula.FunctionRight:
		if len(args) != 2 {
			return "", false
		}
		return "RIGHT(" + args[0] + "," + args[1] + ")", true
	}
	return d.StandardDialect.FunctionSQL(fn, args)
}

func (d MySQLDialect) AggregationSQL(reduce formula.Function, mapSQL string) (string, bool) {
	if reduce == formula.FunctionConcat {
		return "GROUP_CONCAT(" + mapSQL + " SEPARATOR '')", true
	}
	return d.StandardDialect.AggregationSQL(reduce, mapSQL)
}

func (MySQLDialect) CastNumeric(expr string) string {
	return "CAST(" + expr + " AS DECIMAL(30,10))"
}

func (MySQLDialect) CastString(expr string) string {
	return "CAST(" + expr + " AS CHAR)"
}

// OffsetSQL uses MySQL's two-argument LIMIT because OFFSET needs a
// LIMIT; the huge row count is the documented idiom for "no limit".
func (MySQLDialect) OffsetSQL(n int) string {
	return fmt.Sprintf("LIMIT %d,18446744073709551615", n)
}

// PostgresDialect emits PostgreSQL syntax.
type PostgresDialect struct {
	StandardDialect
}

func (d PostgresDialect) BinarySQL(op formula.Binary, lhs, rhs string) (string, bool) {
	switch op {
	case formula.BinaryMatchesRegexStrict:
		return "(" + lhs + " ~ " + rhs + ")", true
	case formula.BinaryMatchesRegex:
		return "(" + lhs + " ~* " + rhs + ")", true
	}
	return d.StandardDialect.BinarySQL(op, lhs, rhs)
}

func (d PostgresDialect) AggregationSQL(reduce formula.Function, mapSQL string) (string, bool) {
	if reduce == formula.FunctionConcat {
		return "STRING_AGG(CAST(" + mapSQL + " AS VARCHAR),'')", true
	}
	return d.StandardDialect.AggregationSQL(reduce, mapSQL)
}

// SQLiteDialect emits SQLite syntax. SQLite has no CHAR_LENGTH, POWER
// or regex operator in its default build.
type SQLiteDialect struct {
	StandardDialect
}

func (d SQLiteDialect) FunctionSQL(fn formula.Function, args []string) (string, bool) {
	switch fn {
	case formula.FunctionLength:
		return "LENGTH(" + strings.Join(args, ",") + ")", true
	case formula.FunctionCeiling, formula.FunctionPower, formula.FunctionSqrt,
		formula.FunctionExp, formula.FunctionLn:
		return "", false
	}
	return d.StandardDialect.FunctionSQL(fn, args)
}

func (d SQLiteDialect) BinarySQL(op formula.Binary, lhs, rhs string) (string, bool) {
	if op == formula.BinaryPower {
		return "", false
	}
	return d.StandardDialect.BinarySQL(op, lhs, rhs)
}

func (SQLiteDialect) CastString(expr string) string {
	return "CAST(" + expr + " AS TEXT)"
}
