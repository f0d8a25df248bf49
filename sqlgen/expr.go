package sqlgen

import (
	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/formula"
)

// exprContext says how column references render. A sibling reference
// becomes Alias.column when Alias is set, a bare quoted column name
// otherwise. Foreign references are only expressible inside a pushed
// down join, where ForeignAlias names the right-hand side.
type exprContext struct {
	Alias        string
	ForeignAlias string
}

func (c exprContext) column(d Dialect, alias string, col data.Column) string {
	q := d.QuoteIdentifier(string(col))
	if alias == "" {
		return q
	}
	return d.QuoteIdentifier(alias) + "." + q
}

// ExpressionSQL translates a prepared expression to SQL. ok is false
// when any part of the tree is not expressible in the dialect:
// identity references, foreign references outside a join context,
// nondeterministic or untranslatable functions, and literals without
// a SQL form all make the whole expression unpushable.
func ExpressionSQL(e formula.Expression, d Dialect) (string, bool) {
	return expressionSQL(e, d, exprContext{})
}

func expressionSQL(e formula.Expression, d Dialect, ctx exprContext) (string, bool) {
	switch n := e.(type) {
	case *formula.Literal:
		return d.LiteralValue(n.Value)
	case *formula.Sibling:
		return ctx.column(d, ctx.Alias, n.Column), true
	case *formula.Foreign:
		if ctx.ForeignAlias == "" {
			return "", false
		}
		return ctx.column(d, ctx.ForeignAlias, n.Column), true
	case *formula.Identity:
		return "", false
	case *formula.Comparison:
		lhs, ok := expressionSQL(n.LHS, d, ctx)
		if !ok {
			return "", false
		}
		rhs, ok := expressionSQL(n.RHS, d, ctx)
		if !ok {
			return "", false
		}
		return d.BinarySQL(n.Op, lhs, rhs)
	case *formula.Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			s, ok := expressionSQL(a, d, ctx)
			if !ok {
				return "", false
			}
			args[i] = s
		}
		return d.FunctionSQL(n.Fn, args)
	}
	return "", false
}
