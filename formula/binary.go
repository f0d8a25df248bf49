package formula

import (
	"math"
	"regexp"
	"strings"

	"github.com/vegasq/tabular/data"
)

// Binary identifies one of the infix operators of the formula language.
type Binary int

const (
	BinaryAddition Binary = iota
	BinarySubtraction
	BinaryMultiplication
	BinaryDivision
	BinaryModulus
	BinaryPower
	BinaryConcatenation
	BinaryEqual
	BinaryNotEqual
	BinaryGreater
	BinaryLesser
	BinaryGreaterEqual
	BinaryLesserEqual
	BinaryContainsString       // case-insensitive substring match
	BinaryContainsStringStrict // case-sensitive substring match
	BinaryMatchesRegex         // case-insensitive regular expression match
	BinaryMatchesRegexStrict   // case-sensitive regular expression match
)

// AllBinaries lists every operator, in parse precedence-group order.
var AllBinaries = []Binary{
	BinaryAddition, BinarySubtraction, BinaryMultiplication, BinaryDivision,
	BinaryModulus, BinaryPower, BinaryConcatenation,
	BinaryEqual, BinaryNotEqual, BinaryGreater, BinaryLesser,
	BinaryGreaterEqual, BinaryLesserEqual,
	BinaryContainsString, BinaryContainsStringStrict,
	BinaryMatchesRegex, BinaryMatchesRegexStrict,
}

// Symbol returns the operator's formula notation.
func (b Binary) Symbol() string {
	switch b {
	case BinaryAddition:
		return "+"
	case BinarySubtraction:
		return "-"
	case BinaryMultiplication:
		return "*"
	case BinaryDivision:
		return "/"
	case BinaryModulus:
		return "%"
	case BinaryPower:
		return "^"
	case BinaryConcatenation:
		return "&"
	case BinaryEqual:
		return "="
	case BinaryNotEqual:
		return "<>"
	case BinaryGreater:
		return ">"
	case BinaryLesser:
		return "<"
	case BinaryGreaterEqual:
		return ">="
	case BinaryLesserEqual:
		return "<="
	case BinaryContainsString:
		return "~="
	case BinaryContainsStringStrict:
		return "~~="
	case BinaryMatchesRegex:
		return "±="
	case BinaryMatchesRegexStrict:
		return "±±="
	}
	return "?"
}

// IsArithmetic reports whether b is one of the numeric operators, whose
// shared contract is: failed double coercion of either operand, or a
// NaN/Inf result, yields Invalid.
func (b Binary) IsArithmetic() bool {
	switch b {
	case BinaryAddition, BinarySubtraction, BinaryMultiplication,
		BinaryDivision, BinaryModulus, BinaryPower:
		return true
	}
	return false
}

// Apply evaluates lhs b rhs.
func (b Binary) Apply(lhs, rhs data.Value) data.Value {
	switch b {
	case BinaryAddition:
		if li, ri, ok := bothInts(lhs, rhs); ok {
			return data.Int(li + ri)
		}
		return applyNumeric(lhs, rhs, func(x, y float64) float64 { return x + y })
	case BinarySubtraction:
		if li, ri, ok := bothInts(lhs, rhs); ok {
			return data.Int(li - ri)
		}
		return applyNumeric(lhs, rhs, func(x, y float64) float64 { return x - y })
	case BinaryMultiplication:
		if li, ri, ok := bothInts(lhs, rhs); ok {
			return data.Int(li * ri)
		}
		return applyNumeric(lhs, rhs, func(x, y float64) float64 { return x * y })
	case BinaryDivision:
		return applyNumeric(lhs, rhs, func(x, y float64) float64 { return x / y })
	case BinaryModulus:
		return applyNumeric(lhs, rhs, math.Mod)
	case BinaryPower:
		return applyNumeric(lhs, rhs, math.Pow)

	case BinaryConcatenation:
		ls, lok := lhs.StringValue()
		rs, rok := rhs.StringValue()
		if !lok || !rok {
			return data.Invalid
		}
		return data.String(ls + rs)

	case BinaryEqual:
		return data.Bool(lhs.Equals(rhs))
	case BinaryNotEqual:
		return data.Bool(!lhs.Equals(rhs))
	case BinaryGreater:
		cmp, ok := data.Compare(lhs, rhs)
		return data.Bool(ok && cmp > 0)
	case BinaryLesser:
		cmp, ok := data.Compare(lhs, rhs)
		return data.Bool(ok && cmp < 0)
	case BinaryGreaterEqual:
		cmp, ok := data.Compare(lhs, rhs)
		return data.Bool(ok && cmp >= 0)
	case BinaryLesserEqual:
		cmp, ok := data.Compare(lhs, rhs)
		return data.Bool(ok && cmp <= 0)

	case BinaryContainsString:
		return applyContains(lhs, rhs, false)
	case BinaryContainsStringStrict:
		return applyContains(lhs, rhs, true)
	case BinaryMatchesRegex:
		return applyRegex(lhs, rhs, false)
	case BinaryMatchesRegexStrict:
		return applyRegex(lhs, rhs, true)
	}
	return data.Invalid
}

// bothInts reports whether both operands are Int, in which case the
// additive operators stay exact in integer arithmetic.
func bothInts(lhs, rhs data.Value) (int64, int64, bool) {
	if lhs.Kind() != data.KindInt || rhs.Kind() != data.KindInt {
		return 0, 0, false
	}
	li, _ := lhs.IntValue()
	ri, _ := rhs.IntValue()
	return li, ri, true
}

// applyNumeric implements the shared numeric operator contract: failed
// coercion or a non-finite result yields Invalid.
func applyNumeric(lhs, rhs data.Value, op func(x, y float64) float64) data.Value {
	lf, lok := lhs.DoubleValue()
	rf, rok := rhs.DoubleValue()
	if !lok || !rok {
		return data.Invalid
	}
	// data.Double collapses NaN/Inf to Invalid.
	return data.Double(op(lf, rf))
}

func applyContains(haystack, needle data.Value, strict bool) data.Value {
	hs, hok := haystack.StringValue()
	ns, nok := needle.StringValue()
	if !hok || !nok {
		return data.Invalid
	}
	if strict {
		return data.Bool(strings.Contains(hs, ns))
	}
	return data.Bool(strings.Contains(strings.ToLower(hs), strings.ToLower(ns)))
}

func applyRegex(subject, pattern data.Value, strict bool) data.Value {
	ss, sok := subject.StringValue()
	ps, pok := pattern.StringValue()
	if !sok || !pok {
		return data.Invalid
	}
	if !strict {
		ps = "(?i)" + ps
	}
	re, err := regexp.Compile(ps)
	if err != nil {
		return data.Invalid
	}
	return data.Bool(re.MatchString(ss))
}
