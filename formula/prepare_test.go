package formula

import (
	"testing"

	"github.com/vegasq/tabular/data"
)

func lit(v data.Value) Expression  { return &Literal{Value: v} }
func sib(name string) Expression   { return &Sibling{Column: data.Column(name)} }
func eq(a, b Expression) *Comparison {
	return &Comparison{Op: BinaryEqual, LHS: a, RHS: b}
}

func TestPrepare_Idempotence(t *testing.T) {
	loc := DefaultLocale()
	exprs := []Expression{
		lit(data.Int(1)),
		sib("a"),
		&Comparison{Op: BinaryAddition, LHS: lit(data.Int(1)), RHS: lit(data.Int(2))},
		&Call{Fn: FunctionNot, Args: []Expression{eq(sib("a"), lit(data.Int(1)))}},
		&Call{Fn: FunctionOr, Args: []Expression{
			eq(sib("a"), lit(data.Int(1))),
			eq(sib("a"), lit(data.Int(2))),
		}},
		&Call{Fn: FunctionAnd, Args: []Expression{
			&Call{Fn: FunctionAnd, Args: []Expression{eq(sib("a"), lit(data.Int(1))), eq(sib("b"), lit(data.Int(2)))}},
			eq(sib("c"), lit(data.Int(3))),
		}},
		&Call{Fn: FunctionRandom, Args: nil},
		&Call{Fn: FunctionUppercase, Args: []Expression{sib("name")}},
	}

	for _, e := range exprs {
		once := e.Prepare()
		twice := once.Prepare()
		if once.ToFormula(loc) != twice.ToFormula(loc) {
			t.Errorf("prepare not idempotent: %q vs %q", once.ToFormula(loc), twice.ToFormula(loc))
		}
	}
}

func TestPrepare_OrToIn(t *testing.T) {
	loc := DefaultLocale()
	or := &Call{Fn: FunctionOr, Args: []Expression{
		eq(sib("a"), lit(data.Int(1))),
		eq(sib("a"), lit(data.Int(2))),
	}}
	want := &Call{Fn: FunctionIn, Args: []Expression{sib("a"), lit(data.Int(1)), lit(data.Int(2))}}
	if got := or.Prepare(); got.ToFormula(loc) != want.ToFormula(loc) {
		t.Errorf("OR->IN rewrite: got %q, want %q", got.ToFormula(loc), want.ToFormula(loc))
	}

	// Mixed columns must not rewrite.
	mixed := &Call{Fn: FunctionOr, Args: []Expression{
		eq(sib("a"), lit(data.Int(1))),
		eq(sib("b"), lit(data.Int(2))),
	}}
	if got := mixed.Prepare(); got.ToFormula(loc) == want.ToFormula(loc) {
		t.Error("OR over different columns should not rewrite to IN")
	}

	// Foreign references rewrite too, when consistent.
	foreignOr := &Call{Fn: FunctionOr, Args: []Expression{
		eq(&Foreign{Column: "k"}, lit(data.Int(1))),
		eq(&Foreign{Column: "K"}, lit(data.Int(2))),
	}}
	prep := foreignOr.Prepare()
	if call, ok := prep.(*Call); !ok || call.Fn != FunctionIn {
		t.Errorf("foreign OR should rewrite to IN, got %q", prep.ToFormula(loc))
	}
}

func TestPrepare_NotRewrites(t *testing.T) {
	loc := DefaultLocale()

	notEq := &Call{Fn: FunctionNot, Args: []Expression{eq(sib("a"), lit(data.Int(1)))}}
	if got := notEq.Prepare(); got.ToFormula(loc) != "([@a]<>1)" {
		t.Errorf("NOT(=) = %q, want ([@a]<>1)", got.ToFormula(loc))
	}

	notIn := &Call{Fn: FunctionNot, Args: []Expression{
		&Call{Fn: FunctionIn, Args: []Expression{sib("a"), lit(data.Int(1))}},
	}}
	if got := notIn.Prepare(); got.ToFormula(loc) != "NOT.IN([@a];1)" {
		t.Errorf("NOT(IN) = %q, want NOT.IN([@a];1)", got.ToFormula(loc))
	}

	notNot := &Call{Fn: FunctionNot, Args: []Expression{
		&Call{Fn: FunctionNot, Args: []Expression{eq(sib("a"), sib("b"))}},
	}}
	if got := notNot.Prepare(); got.ToFormula(loc) != "([@a]=[@b])" {
		t.Errorf("NOT(NOT(x)) = %q, want ([@a]=[@b])", got.ToFormula(loc))
	}
}

func TestPrepare_Folding(t *testing.T) {
	loc := DefaultLocale()

	// Constant subtrees fold.
	sum := &Call{Fn: FunctionSum, Args: []Expression{lit(data.Int(1)), lit(data.Int(2))}}
	if got := sum.Prepare(); got.ToFormula(loc) != "3" {
		t.Errorf("constant SUM should fold, got %q", got.ToFormula(loc))
	}

	// AND with a constant false argument folds entirely.
	and := &Call{Fn: FunctionAnd, Args: []Expression{eq(sib("a"), lit(data.Int(1))), lit(data.Bool(false))}}
	if got := and.Prepare(); got.ToFormula(loc) != "FALSE" {
		t.Errorf("AND(..., FALSE) should fold to FALSE, got %q", got.ToFormula(loc))
	}

	// OR with a constant true argument folds entirely.
	or := &Call{Fn: FunctionOr, Args: []Expression{eq(sib("a"), lit(data.Int(1))), lit(data.Bool(true))}}
	if got := or.Prepare(); got.ToFormula(loc) != "TRUE" {
		t.Errorf("OR(..., TRUE) should fold to TRUE, got %q", got.ToFormula(loc))
	}

	// Non-deterministic calls never fold, even with constant arguments.
	random := &Call{Fn: FunctionRandomBetween, Args: []Expression{lit(data.Int(1)), lit(data.Int(10))}}
	if _, isLit := random.Prepare().(*Literal); isLit {
		t.Error("RANDOM.BETWEEN must never be constant-folded")
	}
}

func TestExpression_Apply(t *testing.T) {
	row := data.NewRow([]data.Column{"a", "b"}, data.Tuple{data.Int(10), data.String("x")})

	if got := sib("a").Apply(row, nil, data.Empty); !got.Equals(data.Int(10)) {
		t.Errorf("sibling = %v", got)
	}
	if got := sib("missing").Apply(row, nil, data.Empty); got.IsValid() {
		t.Errorf("missing sibling = %v, want Invalid", got)
	}
	if got := (&Identity{}).Apply(row, nil, data.Int(42)); !got.Equals(data.Int(42)) {
		t.Errorf("identity = %v", got)
	}
	// Foreign without a foreign row is unevaluable.
	if got := (&Foreign{Column: "a"}).Apply(row, nil, data.Empty); got.IsValid() {
		t.Errorf("foreign without row = %v, want Invalid", got)
	}
	foreign := data.NewRow([]data.Column{"k"}, data.Tuple{data.Int(7)})
	if got := (&Foreign{Column: "k"}).Apply(row, &foreign, data.Empty); !got.Equals(data.Int(7)) {
		t.Errorf("foreign = %v", got)
	}
}
