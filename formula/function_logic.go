package formula

import (
	"github.com/vegasq/tabular/data"
)

func init() {
	register(FunctionIf, "IF", Fixed(3), true, applyIf)
	register(FunctionIfError, "IF.ERROR", Fixed(2), true, applyIfError)
	register(FunctionAnd, "AND", AtLeast(1), true, applyAnd)
	register(FunctionOr, "OR", AtLeast(1), true, applyOr)
	register(FunctionXor, "XOR", Fixed(2), true, applyXor)
	register(FunctionNot, "NOT", Fixed(1), true, applyNot)
	register(FunctionIn, "IN", AtLeast(2), true, applyIn)
	register(FunctionNotIn, "NOT.IN", AtLeast(2), true, applyNotIn)
	register(FunctionChoose, "CHOOSE", AtLeast(2), true, applyChoose)
	register(FunctionCoalesce, "COALESCE", AtLeast(1), true, applyCoalesce)
	register(FunctionIsEmpty, "IS.EMPTY", Fixed(1), true, applyIsEmpty)
	register(FunctionIsInvalid, "IS.INVALID", Fixed(1), true, applyIsInvalid)
}

func applyIf(args []data.Value) data.Value {
	cond, ok := args[0].BoolValue()
	if !ok {
		return data.Invalid
	}
	if cond {
		return args[1]
	}
	return args[2]
}

// applyIfError substitutes the fallback only for Invalid, not for Empty.
func applyIfError(args []data.Value) data.Value {
	if !args[0].IsValid() {
		return args[1]
	}
	return args[0]
}

func applyAnd(args []data.Value) data.Value {
	for _, a := range args {
		b, ok := a.BoolValue()
		if !ok {
			return data.Invalid
		}
		if !b {
			return data.Bool(false)
		}
	}
	return data.Bool(true)
}

func applyOr(args []data.Value) data.Value {
	for _, a := range args {
		b, ok := a.BoolValue()
		if !ok {
			return data.Invalid
		}
		if b {
			return data.Bool(true)
		}
	}
	return data.Bool(false)
}

func applyXor(args []data.Value) data.Value {
	a, aok := args[0].BoolValue()
	b, bok := args[1].BoolValue()
	if !aok || !bok {
		return data.Invalid
	}
	return data.Bool(a != b)
}

func applyNot(args []data.Value) data.Value {
	b, ok := args[0].BoolValue()
	if !ok {
		return data.Invalid
	}
	return data.Bool(!b)
}

func applyIn(args []data.Value) data.Value {
	for _, candidate := range args[1:] {
		if args[0].Equals(candidate) {
			return data.Bool(true)
		}
	}
	return data.Bool(false)
}

func applyNotIn(args []data.Value) data.Value {
	r := applyIn(args)
	b, ok := r.BoolValue()
	if !ok {
		return data.Invalid
	}
	return data.Bool(!b)
}

// applyChoose is 1-based: CHOOSE(1; a; b) is a. Index 0 and anything
// past the argument list is out of range.
func applyChoose(args []data.Value) data.Value {
	idx, ok := args[0].IntValue()
	if !ok || idx < 1 || int(idx) > len(args)-1 {
		return data.Invalid
	}
	return args[idx]
}

// applyCoalesce returns the first argument that is both valid and
// non-empty; Empty when there is none.
func applyCoalesce(args []data.Value) data.Value {
	for _, a := range args {
		if a.IsValid() && !a.IsEmpty() {
			return a
		}
	}
	return data.Empty
}

func applyIsEmpty(args []data.Value) data.Value {
	return data.Bool(args[0].IsEmpty())
}

func applyIsInvalid(args []data.Value) data.Value {
	return data.Bool(!args[0].IsValid())
}
