package formula

import (
	"math/rand/v2"
	"sort"

	"github.com/vegasq/tabular/data"
)

func init() {
	register(FunctionSum, "SUM", AnyArity(), true, applySum)
	register(FunctionMin, "MIN", AtLeast(1), true, applyMin)
	register(FunctionMax, "MAX", AtLeast(1), true, applyMax)
	register(FunctionAverage, "AVERAGE", AtLeast(1), true, applyAverage)
	register(FunctionMedian, "MEDIAN", AtLeast(1), true, applyMedian)
	register(FunctionMedianLow, "MEDIAN.LOW", AtLeast(1), true, applyMedianLow)
	register(FunctionMedianHigh, "MEDIAN.HIGH", AtLeast(1), true, applyMedianHigh)
	register(FunctionCount, "COUNT", AnyArity(), true, applyCount)
	register(FunctionCountAll, "COUNT.ALL", AnyArity(), true, applyCountAll)
	register(FunctionCountDistinct, "COUNT.DISTINCT", AnyArity(), true, applyCountDistinct)
	register(FunctionPack, "PACK", AnyArity(), true, packValues)
	register(FunctionRandomItem, "RANDOM.ITEM", AtLeast(1), false, applyRandomItem)
}

// applySum skips arguments that fail numeric coercion instead of
// propagating Invalid.
func applySum(args []data.Value) data.Value {
	var total float64
	for _, a := range args {
		if f, ok := a.DoubleValue(); ok {
			total += f
		}
	}
	return data.Double(total)
}

func applyMin(args []data.Value) data.Value {
	best := data.Invalid
	var bestF float64
	for _, a := range args {
		if f, ok := a.DoubleValue(); ok {
			if !best.IsValid() || f < bestF {
				best, bestF = a, f
			}
		}
	}
	return best
}

func applyMax(args []data.Value) data.Value {
	best := data.Invalid
	var bestF float64
	for _, a := range args {
		if f, ok := a.DoubleValue(); ok {
			if !best.IsValid() || f > bestF {
				best, bestF = a, f
			}
		}
	}
	return best
}

// applyAverage divides the coercible sum by the TOTAL argument count,
// not by the count of numeric arguments. Downstream SQL generation
// mirrors this formula, so it must stay as-is.
func applyAverage(args []data.Value) data.Value {
	sum := applySum(args)
	f, ok := sum.DoubleValue()
	if !ok {
		return data.Invalid
	}
	return data.Double(f / float64(len(args)))
}

func numericSorted(args []data.Value) []float64 {
	out := make([]float64, 0, len(args))
	for _, a := range args {
		if f, ok := a.DoubleValue(); ok {
			out = append(out, f)
		}
	}
	sort.Float64s(out)
	return out
}

func applyMedian(args []data.Value) data.Value {
	fs := numericSorted(args)
	n := len(fs)
	if n == 0 {
		return data.Invalid
	}
	if n%2 == 1 {
		return data.Double(fs[n/2])
	}
	return data.Double((fs[n/2-1] + fs[n/2]) / 2)
}

func applyMedianLow(args []data.Value) data.Value {
	fs := numericSorted(args)
	n := len(fs)
	if n == 0 {
		return data.Invalid
	}
	return data.Double(fs[(n-1)/2])
}

func applyMedianHigh(args []data.Value) data.Value {
	fs := numericSorted(args)
	n := len(fs)
	if n == 0 {
		return data.Invalid
	}
	return data.Double(fs[n/2])
}

// applyCount counts the arguments that coerce numerically.
func applyCount(args []data.Value) data.Value {
	var n int64
	for _, a := range args {
		if _, ok := a.DoubleValue(); ok {
			n++
		}
	}
	return data.Int(n)
}

func applyCountAll(args []data.Value) data.Value {
	return data.Int(int64(len(args)))
}

func applyCountDistinct(args []data.Value) data.Value {
	var distinct []data.Value
	var n int64
outer:
	for _, a := range args {
		if !a.IsValid() {
			continue
		}
		for _, seen := range distinct {
			if seen.Equals(a) {
				continue outer
			}
		}
		distinct = append(distinct, a)
		n++
	}
	return data.Int(n)
}

func applyRandomItem(args []data.Value) data.Value {
	return args[rand.IntN(len(args))]
}
