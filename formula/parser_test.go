package formula

import (
	"testing"

	"github.com/vegasq/tabular/data"
)

func mustParse(t *testing.T, text string, loc *Locale) Expression {
	t.Helper()
	expr, _, err := Parse(text, loc)
	if err != nil {
		t.Fatalf("Parse(%q): %v", text, err)
	}
	return expr
}

func TestParse_Precedence(t *testing.T) {
	loc := DefaultLocale()
	row := data.Row{}

	tests := []struct {
		formula string
		want    data.Value
	}{
		{"=1+2*3", data.Int(7)},
		{"=(1+2)*3", data.Int(9)},
		{"=2^3*2", data.Double(16)},
		{"=2*3^2", data.Double(18)},
		{"=10-2-3", data.Int(5)},
		{"=1+2=3", data.Bool(true)},
		{"=\"a\"&1+1", data.String("a2")},
		{"=-2+5", data.Int(3)},
		{"=7%3", data.Double(1)},
		{"=1.5*2", data.Double(3)},
		{"=SUM(1;2;3)", data.Double(6)},
		{"=IF(TRUE;1;2)", data.Int(1)},
		{"=PI>3", data.Bool(true)},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			expr := mustParse(t, tt.formula, loc)
			got := expr.Apply(row, nil, data.Empty)
			if !got.Equals(tt.want) {
				t.Errorf("%s = %v, want %v", tt.formula, got, tt.want)
			}
		})
	}
}

func TestParse_References(t *testing.T) {
	loc := DefaultLocale()
	row := data.NewRow([]data.Column{"a"}, data.Tuple{data.Int(10)})

	expr := mustParse(t, `=IF([@a]>5;"big";"small")`, loc)
	if got := expr.Apply(row, nil, data.Empty); !got.Equals(data.String("big")) {
		t.Errorf("IF formula = %v, want big", got)
	}

	// Equivalent hand-built tree evaluates identically.
	direct := &Call{Fn: FunctionIf, Args: []Expression{
		&Comparison{Op: BinaryGreater, LHS: &Sibling{Column: "a"}, RHS: &Literal{Value: data.Int(5)}},
		&Literal{Value: data.String("big")},
		&Literal{Value: data.String("small")},
	}}
	if got, want := expr.Apply(row, nil, data.Empty), direct.Apply(row, nil, data.Empty); !got.Equals(want) {
		t.Errorf("parsed %v vs direct %v", got, want)
	}

	identity := mustParse(t, "=[@]*2", loc)
	if got := identity.Apply(row, nil, data.Int(21)); !got.Equals(data.Double(42)) {
		t.Errorf("identity formula = %v, want 42", got)
	}

	foreign := mustParse(t, "=[@a]=[#a]", loc)
	f := data.NewRow([]data.Column{"a"}, data.Tuple{data.Int(10)})
	got := foreign.Apply(row, &f, data.Empty)
	if b, _ := got.BoolValue(); !b {
		t.Errorf("foreign comparison = %v, want true", got)
	}
}

func TestParse_StringEscapes(t *testing.T) {
	loc := DefaultLocale()
	expr := mustParse(t, `="say ""hi"""`, loc)
	if got := expr.Apply(data.Row{}, nil, data.Empty); !got.Equals(data.String(`say "hi"`)) {
		t.Errorf("escaped string = %v", got)
	}
}

func TestParse_LongestFunctionNameWins(t *testing.T) {
	loc := DefaultLocale()
	// MEDIAN.LOW must not parse as MEDIAN followed by garbage.
	expr := mustParse(t, "=MEDIAN.LOW(1;2;3;4)", loc)
	call, ok := expr.(*Call)
	if !ok || call.Fn != FunctionMedianLow {
		t.Fatalf("parsed %T %v, want MEDIAN.LOW call", expr, expr)
	}
	// Same for IF vs IF.ERROR and COUNT vs COUNT.DISTINCT.
	if c := mustParse(t, "=IF.ERROR(1;2)", loc).(*Call); c.Fn != FunctionIfError {
		t.Errorf("IF.ERROR parsed as %v", c.Fn.Name())
	}
	if c := mustParse(t, "=COUNT.DISTINCT(1;1;2)", loc).(*Call); c.Fn != FunctionCountDistinct {
		t.Errorf("COUNT.DISTINCT parsed as %v", c.Fn.Name())
	}
}

func TestParse_RoundTrip(t *testing.T) {
	loc := DefaultLocale()
	formulas := []string{
		"=1+2*3",
		`=IF([@a]>5;"big";"small")`,
		"=SUM(1;2;3)",
		`=UPPERCASE([@name])&"!"`,
		"=IN([@a];1;2;3)",
		`=[@x]~="needle"`,
		"=NOT([@done])",
	}

	for _, f := range formulas {
		t.Run(f, func(t *testing.T) {
			first := mustParse(t, f, loc)
			serialized := first.ToFormula(loc)
			second := mustParse(t, serialized, loc)
			if first.ToFormula(loc) != second.ToFormula(loc) {
				t.Errorf("round trip drifted: %q -> %q -> %q", f, serialized, second.ToFormula(loc))
			}
		})
	}
}

func TestParse_Annotations(t *testing.T) {
	loc := DefaultLocale()
	text := "=1+SUM(2;3)"
	_, annotations, err := Parse(text, loc)
	if err != nil {
		t.Fatal(err)
	}
	// Nodes: 1, 2, 3, SUM call, the + comparison; each exactly once.
	if len(annotations) != 5 {
		t.Fatalf("got %d annotations, want 5: %+v", len(annotations), annotations)
	}
	seen := map[Expression]bool{}
	for _, a := range annotations {
		if a.Start < 0 || a.End > len([]rune(text)) || a.Start >= a.End {
			t.Errorf("bad span [%d, %d)", a.Start, a.End)
		}
		if seen[a.Expr] {
			t.Error("subexpression annotated twice")
		}
		seen[a.Expr] = true
	}
}

func TestParse_CustomLocale(t *testing.T) {
	loc := NewLocale(Locale{
		DecimalSeparator:  ',',
		ArgumentSeparator: ';',
		StringQualifier:   '\'',
		Constants:         map[string]data.Value{"WAHR": data.Bool(true)},
		FunctionNames:     map[Function]string{FunctionSum: "SUMME"},
	})

	expr := mustParse(t, "=SUMME(1,5;2,5)", loc)
	if got := expr.Apply(data.Row{}, nil, data.Empty); !got.Equals(data.Double(4)) {
		t.Errorf("localized SUM = %v, want 4", got)
	}
	if got := mustParse(t, "=WAHR", loc).Apply(data.Row{}, nil, data.Empty); !got.Equals(data.Bool(true)) {
		t.Errorf("localized constant = %v", got)
	}
	// Serialization uses the locale's names and separators.
	if got := expr.ToFormula(loc); got != "SUMME(1,5;2,5)" {
		t.Errorf("ToFormula = %q, want SUMME(1,5;2,5)", got)
	}
}

func TestParse_Errors(t *testing.T) {
	loc := DefaultLocale()
	bad := []string{
		"=1+",
		`="unterminated`,
		"=SUM(1;",
		"=[@name",
		"=)",
		"=UNKNOWNFN(1)",
	}
	for _, f := range bad {
		if _, _, err := Parse(f, loc); err == nil {
			t.Errorf("Parse(%q) should fail", f)
		}
	}
}
