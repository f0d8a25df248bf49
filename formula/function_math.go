package formula

import (
	"math"
	"math/rand/v2"

	"github.com/vegasq/tabular/data"
)

func init() {
	register(FunctionNegate, "NEGATE", Fixed(1), true, applyNegate)
	register(FunctionAbsolute, "ABS", Fixed(1), true, numeric1(math.Abs))
	register(FunctionSqrt, "SQRT", Fixed(1), true, numeric1(math.Sqrt))
	register(FunctionLog, "LOG", Between(1, 2), true, applyLog)
	register(FunctionLn, "LN", Fixed(1), true, numeric1(math.Log))
	register(FunctionExp, "EXP", Fixed(1), true, numeric1(math.Exp))
	register(FunctionRound, "ROUND", Between(1, 2), true, applyRound)
	register(FunctionFloor, "FLOOR", Fixed(1), true, numeric1(math.Floor))
	register(FunctionCeiling, "CEILING", Fixed(1), true, numeric1(math.Ceil))
	register(FunctionSign, "SIGN", Fixed(1), true, applySign)
	register(FunctionPower, "POWER", Fixed(2), true, applyPower)
	register(FunctionSin, "SIN", Fixed(1), true, numeric1(math.Sin))
	register(FunctionCos, "COS", Fixed(1), true, numeric1(math.Cos))
	register(FunctionTan, "TAN", Fixed(1), true, numeric1(math.Tan))
	register(FunctionAsin, "ASIN", Fixed(1), true, numeric1(math.Asin))
	register(FunctionAcos, "ACOS", Fixed(1), true, numeric1(math.Acos))
	register(FunctionAtan, "ATAN", Fixed(1), true, numeric1(math.Atan))
	register(FunctionSinh, "SINH", Fixed(1), true, numeric1(math.Sinh))
	register(FunctionCosh, "COSH", Fixed(1), true, numeric1(math.Cosh))
	register(FunctionTanh, "TANH", Fixed(1), true, numeric1(math.Tanh))
	register(FunctionRandom, "RANDOM", Fixed(0), false, applyRandom)
	register(FunctionRandomBetween, "RANDOM.BETWEEN", Fixed(2), false, applyRandomBetween)
	register(FunctionNormalInverse, "NORMAL.INVERSE", Fixed(3), true, applyNormalInverse)
}

// numeric1 adapts a float function to the value model; bad coercions
// and non-finite results degrade to Invalid through data.Double.
func numeric1(fn func(float64) float64) func([]data.Value) data.Value {
	return func(args []data.Value) data.Value {
		f, ok := args[0].DoubleValue()
		if !ok {
			return data.Invalid
		}
		return data.Double(fn(f))
	}
}

func applyNegate(args []data.Value) data.Value {
	if args[0].Kind() == data.KindInt {
		i, _ := args[0].IntValue()
		return data.Int(-i)
	}
	return numeric1(func(f float64) float64 { return -f })(args)
}

func applyLog(args []data.Value) data.Value {
	f, ok := args[0].DoubleValue()
	if !ok {
		return data.Invalid
	}
	base := 10.0
	if len(args) > 1 {
		var bok bool
		base, bok = args[1].DoubleValue()
		if !bok {
			return data.Invalid
		}
	}
	return data.Double(math.Log(f) / math.Log(base))
}

// applyRound rounds half away from zero. With zero decimals the result
// is an Int; with more it stays a Double scaled by 10^decimals.
func applyRound(args []data.Value) data.Value {
	f, ok := args[0].DoubleValue()
	if !ok {
		return data.Invalid
	}
	var decimals int64
	if len(args) > 1 {
		var dok bool
		decimals, dok = args[1].IntValue()
		if !dok || decimals < 0 {
			return data.Invalid
		}
	}
	if decimals == 0 {
		return data.Int(int64(math.Round(f)))
	}
	scale := math.Pow(10, float64(decimals))
	return data.Double(math.Round(f*scale) / scale)
}

func applySign(args []data.Value) data.Value {
	f, ok := args[0].DoubleValue()
	if !ok {
		return data.Invalid
	}
	switch {
	case f > 0:
		return data.Int(1)
	case f < 0:
		return data.Int(-1)
	}
	return data.Int(0)
}

func applyPower(args []data.Value) data.Value {
	base, bok := args[0].DoubleValue()
	expo, eok := args[1].DoubleValue()
	if !bok || !eok {
		return data.Invalid
	}
	return data.Double(math.Pow(base, expo))
}

func applyRandom(args []data.Value) data.Value {
	return data.Double(rand.Float64())
}

// applyRandomBetween returns a uniform integer in [lo, hi], bounds
// inclusive.
func applyRandomBetween(args []data.Value) data.Value {
	lo, lok := args[0].IntValue()
	hi, hok := args[1].IntValue()
	if !lok || !hok || hi < lo {
		return data.Invalid
	}
	return data.Int(lo + rand.Int64N(hi-lo+1))
}

func applyNormalInverse(args []data.Value) data.Value {
	p, pok := args[0].DoubleValue()
	mu, mok := args[1].DoubleValue()
	sigma, sok := args[2].DoubleValue()
	if !pok || !mok || !sok || p <= 0 || p >= 1 {
		return data.Invalid
	}
	return data.Double(mu + sigma*math.Sqrt2*math.Erfinv(2*p-1))
}
