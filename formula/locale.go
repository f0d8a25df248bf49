package formula

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/vegasq/tabular/data"
)

// Locale parameterizes the formula syntax: separators, the string
// qualifier, and the localized names of functions and constants. The
// tables normally come from an external language table; DefaultLocale
// is the built-in English set using canonical function identifiers.
type Locale struct {
	DecimalSeparator  rune
	ArgumentSeparator rune
	StringQualifier   rune

	// Constants maps localized constant names to their values.
	Constants map[string]data.Value

	// FunctionNames maps functions to their localized names. Functions
	// absent from the map keep their canonical identifier.
	FunctionNames map[Function]string

	sortedFunctions []localizedFunction
	sortedConstants []string
}

type localizedFunction struct {
	name string
	fn   Function
}

// NewLocale finishes a locale definition by building the longest-first
// lookup tables the parser needs. Longest-first matching stops a short
// function name from shadowing a longer one sharing its prefix.
func NewLocale(loc Locale) *Locale {
	out := loc
	out.sortedFunctions = make([]localizedFunction, 0, len(functions))
	for _, fn := range AllFunctions() {
		out.sortedFunctions = append(out.sortedFunctions, localizedFunction{name: out.FunctionName(fn), fn: fn})
	}
	sort.Slice(out.sortedFunctions, func(i, j int) bool {
		a, b := out.sortedFunctions[i], out.sortedFunctions[j]
		if len(a.name) != len(b.name) {
			return len(a.name) > len(b.name)
		}
		return a.name < b.name
	})
	out.sortedConstants = make([]string, 0, len(out.Constants))
	for name := range out.Constants {
		out.sortedConstants = append(out.sortedConstants, name)
	}
	sort.Slice(out.sortedConstants, func(i, j int) bool {
		a, b := out.sortedConstants[i], out.sortedConstants[j]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return &out
}

// DefaultLocale returns the built-in English locale: "." decimal
// separator, ";" argument separator, double-quote string qualifier,
// canonical function names.
func DefaultLocale() *Locale {
	return NewLocale(Locale{
		DecimalSeparator:  '.',
		ArgumentSeparator: ';',
		StringQualifier:   '"',
		Constants: map[string]data.Value{
			"TRUE":  data.Bool(true),
			"FALSE": data.Bool(false),
			"PI":    data.Double(math.Pi),
			"EMPTY": data.Empty,
			"ERROR": data.Invalid,
		},
	})
}

// FunctionName returns the localized name for fn.
func (loc *Locale) FunctionName(fn Function) string {
	if name, ok := loc.FunctionNames[fn]; ok {
		return name
	}
	return fn.Name()
}

// constantText returns the localized name of a constant value, if any.
func (loc *Locale) constantText(v data.Value) (string, bool) {
	for _, name := range loc.sortedConstants {
		c := loc.Constants[name]
		// Invalid never equals itself, match it by kind.
		if !c.IsValid() && !v.IsValid() {
			return name, true
		}
		if c.Equals(v) && c.Kind() == v.Kind() {
			return name, true
		}
	}
	return "", false
}

// literalText serializes a literal value in this locale.
func (loc *Locale) literalText(v data.Value) string {
	switch v.Kind() {
	case data.KindInt:
		i, _ := v.IntValue()
		return strconv.FormatInt(i, 10)
	case data.KindDouble:
		f, _ := v.DoubleValue()
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if loc.DecimalSeparator != '.' {
			s = strings.ReplaceAll(s, ".", string(loc.DecimalSeparator))
		}
		return s
	case data.KindString:
		s, _ := v.StringValue()
		q := string(loc.StringQualifier)
		return q + strings.ReplaceAll(s, q, q+q) + q
	case data.KindBool, data.KindEmpty, data.KindInvalid:
		if name, ok := loc.constantText(v); ok {
			return name
		}
		return "ERROR"
	case data.KindDate:
		// Dates have no literal syntax; serialize through FROM.UNIX.
		secs, _ := v.DateValue()
		return loc.FunctionName(FunctionFromUnixTime) + "(" + strconv.FormatInt(secs, 10) + ")"
	}
	return "ERROR"
}
