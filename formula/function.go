package formula

import (
	"sort"

	"github.com/vegasq/tabular/data"
)

// Arity declares how many arguments a function accepts. Max < 0 means
// unlimited.
type Arity struct {
	Min int
	Max int
}

// Fixed accepts exactly n arguments.
func Fixed(n int) Arity { return Arity{Min: n, Max: n} }

// AtLeast accepts n or more arguments.
func AtLeast(n int) Arity { return Arity{Min: n, Max: -1} }

// Between accepts between lo and hi arguments inclusive.
func Between(lo, hi int) Arity { return Arity{Min: lo, Max: hi} }

// AnyArity accepts any number of arguments, including none.
func AnyArity() Arity { return Arity{Min: 0, Max: -1} }

// Valid reports whether a call with n arguments satisfies the arity.
func (a Arity) Valid(n int) bool {
	if n < a.Min {
		return false
	}
	return a.Max < 0 || n <= a.Max
}

// Function identifies one function of the formula language.
type Function int

const (
	// String functions.
	FunctionUppercase Function = iota
	FunctionLowercase
	FunctionLeft
	FunctionRight
	FunctionMid
	FunctionLength
	FunctionTrim
	FunctionCapitalize
	FunctionSubstitute
	FunctionRegexSubstitute
	FunctionSplit
	FunctionNth
	FunctionItems
	FunctionConcat
	FunctionURLEncode
	FunctionLevenshtein

	// Math functions.
	FunctionNegate
	FunctionAbsolute
	FunctionSqrt
	FunctionLog
	FunctionLn
	FunctionExp
	FunctionRound
	FunctionFloor
	FunctionCeiling
	FunctionSign
	FunctionPower
	FunctionSin
	FunctionCos
	FunctionTan
	FunctionAsin
	FunctionAcos
	FunctionAtan
	FunctionSinh
	FunctionCosh
	FunctionTanh
	FunctionRandom
	FunctionRandomBetween
	FunctionNormalInverse

	// Logic functions.
	FunctionIf
	FunctionIfError
	FunctionAnd
	FunctionOr
	FunctionXor
	FunctionNot
	FunctionIn
	FunctionNotIn
	FunctionChoose
	FunctionCoalesce
	FunctionIsEmpty
	FunctionIsInvalid

	// Aggregating functions, also used as reducers by Dataset.Aggregate.
	FunctionSum
	FunctionMin
	FunctionMax
	FunctionAverage
	FunctionMedian
	FunctionMedianLow
	FunctionMedianHigh
	FunctionCount
	FunctionCountAll
	FunctionCountDistinct
	FunctionPack
	FunctionRandomItem

	// Date functions.
	FunctionNow
	FunctionToUnixTime
	FunctionFromUnixTime
	FunctionToISO8601
	FunctionFromISO8601
	FunctionToExcelDate
	FunctionFromExcelDate
	FunctionUTCDate
	FunctionUTCDay
	FunctionUTCMonth
	FunctionUTCYear
	FunctionUTCHour
	FunctionUTCMinute
	FunctionUTCSecond
	FunctionDuration
	FunctionAfter

	// Parsing.
	FunctionParseNumber

	numFunctions
)

type functionInfo struct {
	name          string
	arity         Arity
	deterministic bool
	apply         func(args []data.Value) data.Value
}

var functions = make(map[Function]functionInfo, numFunctions)
var functionsByName = make(map[string]Function, numFunctions)

// register wires a function into the library. Called from the per-file
// init functions.
func register(f Function, name string, arity Arity, deterministic bool, apply func([]data.Value) data.Value) {
	functions[f] = functionInfo{name: name, arity: arity, deterministic: deterministic, apply: apply}
	functionsByName[name] = f
}

// AllFunctions returns every registered function, sorted by identifier.
func AllFunctions() []Function {
	out := make([]Function, 0, len(functions))
	for f := range functions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FunctionByName resolves a canonical identifier, case-sensitively.
func FunctionByName(name string) (Function, bool) {
	f, ok := functionsByName[name]
	return f, ok
}

// Name returns the canonical identifier of f.
func (f Function) Name() string { return functions[f].name }

// Arity returns the declared argument-count rule of f.
func (f Function) Arity() Arity { return functions[f].arity }

// IsDeterministic reports whether f always produces the same result for
// the same arguments. Non-deterministic functions are never treated as
// constant-foldable.
func (f Function) IsDeterministic() bool { return functions[f].deterministic }

// Apply evaluates f over args. The arity is rechecked here; a call with
// a wrong argument count yields Invalid, never an error.
func (f Function) Apply(args []data.Value) data.Value {
	info, ok := functions[f]
	if !ok || !info.arity.Valid(len(args)) {
		return data.Invalid
	}
	return info.apply(args)
}
