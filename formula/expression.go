package formula

import (
	"strings"

	"github.com/vegasq/tabular/data"
)

// Expression is an evaluatable formula tree. The node set is closed:
// Literal, Identity, Sibling, Foreign, Comparison and Call are the only
// implementations, and engines switch exhaustively over them.
type Expression interface {
	// Apply evaluates the expression against row. foreign supplies the
	// paired row during join-condition evaluation and is nil otherwise;
	// input supplies the "current cell" read by Identity.
	Apply(row data.Row, foreign *data.Row, input data.Value) data.Value

	// Prepare returns an equivalent expression with constant subtrees
	// folded and the standard query rewrites applied. Prepare is
	// idempotent: preparing a prepared expression changes nothing.
	Prepare() Expression

	// IsConstant reports whether the subtree reads no sibling, foreign
	// or identity reference and is built only from deterministic
	// functions, making it safe to pre-evaluate.
	IsConstant() bool

	// ToFormula serializes the expression in the given locale. The
	// result parses back to an equal tree.
	ToFormula(loc *Locale) string
}

// Literal is a constant value.
type Literal struct {
	Value data.Value
}

func (l *Literal) Apply(data.Row, *data.Row, data.Value) data.Value { return l.Value }
func (l *Literal) Prepare() Expression                              { return l }
func (l *Literal) IsConstant() bool                                 { return true }

// Identity passes through the externally supplied "current cell" value.
type Identity struct{}

func (i *Identity) Apply(_ data.Row, _ *data.Row, input data.Value) data.Value { return input }
func (i *Identity) Prepare() Expression                                        { return i }
func (i *Identity) IsConstant() bool                                           { return false }

// Sibling reads a column from the row being evaluated.
type Sibling struct {
	Column data.Column
}

func (s *Sibling) Apply(row data.Row, _ *data.Row, _ data.Value) data.Value {
	v, ok := row.Value(s.Column)
	if !ok {
		return data.Invalid
	}
	return v
}

func (s *Sibling) Prepare() Expression { return s }
func (s *Sibling) IsConstant() bool    { return false }

// Foreign reads a column from the paired foreign row, which is only
// present during join-condition evaluation.
type Foreign struct {
	Column data.Column
}

func (f *Foreign) Apply(_ data.Row, foreign *data.Row, _ data.Value) data.Value {
	if foreign == nil {
		return data.Invalid
	}
	v, ok := foreign.Value(f.Column)
	if !ok {
		return data.Invalid
	}
	return v
}

func (f *Foreign) Prepare() Expression { return f }
func (f *Foreign) IsConstant() bool    { return false }

// Comparison applies a binary operator to two subexpressions.
type Comparison struct {
	Op  Binary
	LHS Expression
	RHS Expression
}

func (c *Comparison) Apply(row data.Row, foreign *data.Row, input data.Value) data.Value {
	return c.Op.Apply(c.LHS.Apply(row, foreign, input), c.RHS.Apply(row, foreign, input))
}

func (c *Comparison) IsConstant() bool {
	return c.LHS.IsConstant() && c.RHS.IsConstant()
}

func (c *Comparison) Prepare() Expression {
	prepared := &Comparison{Op: c.Op, LHS: c.LHS.Prepare(), RHS: c.RHS.Prepare()}
	if prepared.IsConstant() {
		return &Literal{Value: prepared.Apply(data.Row{}, nil, data.Invalid)}
	}
	return prepared
}

// Call evaluates a function over its arguments. Arguments are always
// evaluated eagerly; the function itself rechecks arity.
type Call struct {
	Fn   Function
	Args []Expression
}

func (c *Call) Apply(row data.Row, foreign *data.Row, input data.Value) data.Value {
	args := make([]data.Value, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.Apply(row, foreign, input)
	}
	return c.Fn.Apply(args)
}

func (c *Call) IsConstant() bool {
	if !c.Fn.IsDeterministic() {
		return false
	}
	for _, a := range c.Args {
		if !a.IsConstant() {
			return false
		}
	}
	return true
}

func (c *Call) Prepare() Expression {
	args := make([]Expression, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.Prepare()
	}

	var rewritten Expression
	switch c.Fn {
	case FunctionNot:
		rewritten = prepareNot(args)
	case FunctionAnd:
		rewritten = prepareAnd(args)
	case FunctionOr:
		rewritten = prepareOr(args)
	default:
		rewritten = &Call{Fn: c.Fn, Args: args}
	}

	if rewritten.IsConstant() {
		if _, isLiteral := rewritten.(*Literal); !isLiteral {
			return &Literal{Value: rewritten.Apply(data.Row{}, nil, data.Invalid)}
		}
	}
	return rewritten
}

// prepareNot rewrites NOT(a=b) to a<>b, NOT(IN(...)) to NOT.IN(...) and
// NOT(NOT(x)) to x.
func prepareNot(args []Expression) Expression {
	if len(args) == 1 {
		switch arg := args[0].(type) {
		case *Comparison:
			if arg.Op == BinaryEqual {
				return &Comparison{Op: BinaryNotEqual, LHS: arg.LHS, RHS: arg.RHS}
			}
		case *Call:
			if arg.Fn == FunctionIn {
				return &Call{Fn: FunctionNotIn, Args: arg.Args}
			}
			if arg.Fn == FunctionNot && len(arg.Args) == 1 {
				return arg.Args[0]
			}
		}
	}
	return &Call{Fn: FunctionNot, Args: args}
}

// prepareAnd flattens nested ANDs and folds the whole expression to
// false when any constant argument evaluates to false.
func prepareAnd(args []Expression) Expression {
	flat := flattenCalls(FunctionAnd, args)
	for _, a := range flat {
		if a.IsConstant() {
			if b, ok := a.Apply(data.Row{}, nil, data.Invalid).BoolValue(); ok && !b {
				return &Literal{Value: data.Bool(false)}
			}
		}
	}
	return &Call{Fn: FunctionAnd, Args: flat}
}

// prepareOr flattens nested ORs, folds to true on a constant true
// argument, and rewrites an OR made entirely of equality comparisons
// against one column into a single IN call. The IN form both pushes
// down to SQL and short-circuits in memory.
func prepareOr(args []Expression) Expression {
	flat := flattenCalls(FunctionOr, args)
	for _, a := range flat {
		if a.IsConstant() {
			if b, ok := a.Apply(data.Row{}, nil, data.Invalid).BoolValue(); ok && b {
				return &Literal{Value: data.Bool(true)}
			}
		}
	}
	if in, ok := orToIn(flat); ok {
		return in
	}
	return &Call{Fn: FunctionOr, Args: flat}
}

func flattenCalls(fn Function, args []Expression) []Expression {
	out := make([]Expression, 0, len(args))
	for _, a := range args {
		if call, ok := a.(*Call); ok && call.Fn == fn {
			out = append(out, call.Args...)
			continue
		}
		out = append(out, a)
	}
	return out
}

// orToIn matches OR(col=v1, col=v2, ...) where every disjunct compares
// the same sibling (or consistently the same foreign) column.
func orToIn(args []Expression) (Expression, bool) {
	if len(args) < 2 {
		return nil, false
	}
	var ref Expression
	values := make([]Expression, 0, len(args))
	for _, a := range args {
		cmp, ok := a.(*Comparison)
		if !ok || cmp.Op != BinaryEqual {
			return nil, false
		}
		if !isColumnRef(cmp.LHS) {
			return nil, false
		}
		if ref == nil {
			ref = cmp.LHS
		} else if !sameColumnRef(ref, cmp.LHS) {
			return nil, false
		}
		values = append(values, cmp.RHS)
	}
	return &Call{Fn: FunctionIn, Args: append([]Expression{ref}, values...)}, true
}

func isColumnRef(e Expression) bool {
	switch e.(type) {
	case *Sibling, *Foreign:
		return true
	}
	return false
}

func sameColumnRef(a, b Expression) bool {
	switch av := a.(type) {
	case *Sibling:
		bv, ok := b.(*Sibling)
		return ok && av.Column.EqualTo(bv.Column)
	case *Foreign:
		bv, ok := b.(*Foreign)
		return ok && av.Column.EqualTo(bv.Column)
	}
	return false
}

// ToFormula implementations. Binary expressions always parenthesize,
// which keeps serialization round-trippable without precedence
// bookkeeping.

func (l *Literal) ToFormula(loc *Locale) string {
	return loc.literalText(l.Value)
}

func (i *Identity) ToFormula(*Locale) string { return "[@]" }

func (s *Sibling) ToFormula(*Locale) string {
	return "[@" + string(s.Column) + "]"
}

func (f *Foreign) ToFormula(*Locale) string {
	return "[#" + string(f.Column) + "]"
}

func (c *Comparison) ToFormula(loc *Locale) string {
	return "(" + c.LHS.ToFormula(loc) + c.Op.Symbol() + c.RHS.ToFormula(loc) + ")"
}

func (c *Call) ToFormula(loc *Locale) string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.ToFormula(loc)
	}
	return loc.FunctionName(c.Fn) + "(" + strings.Join(parts, string(loc.ArgumentSeparator)) + ")"
}
