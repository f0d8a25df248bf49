package data

import (
	"hash/fnv"
	"math"
	"strconv"
	"time"
)

// Kind identifies the variant stored in a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindEmpty
	KindString
	KindInt
	KindDouble
	KindBool
	KindDate
)

// Value is one cell of tabular data. The zero value is Invalid.
//
// Invalid is a poison value: any operation touching it yields Invalid,
// and Invalid never compares equal to anything, itself included. Empty
// is explicit absence (like SQL NULL) but always equals itself.
type Value struct {
	kind Kind
	str  string
	num  int64
	dbl  float64
	b    bool
}

var (
	// Empty is the explicit-absence value.
	Empty = Value{kind: KindEmpty}

	// Invalid is the poison value produced by failed coercions and
	// undefined arithmetic.
	Invalid = Value{kind: KindInvalid}
)

// String constructs a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Int constructs an integer value.
func Int(i int64) Value {
	return Value{kind: KindInt, num: i}
}

// Double constructs a floating point value. A NaN or infinite payload
// collapses to Invalid; a Double never carries a non-finite number.
func Double(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Invalid
	}
	return Value{kind: KindDouble, dbl: f}
}

// Bool constructs a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Date constructs a date value from seconds since the Unix epoch. Dates
// never coerce to or from the numeric or string kinds.
func Date(seconds int64) Value {
	return Value{kind: KindDate, num: seconds}
}

// Kind returns the variant stored in v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v is anything other than Invalid.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// IsEmpty reports whether v is the Empty value.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// StringValue coerces v to a string. Booleans become "1"/"0"; dates and
// Invalid do not coerce; Empty coerces to the empty string.
func (v Value) StringValue() (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindInt:
		return strconv.FormatInt(v.num, 10), true
	case KindDouble:
		return strconv.FormatFloat(v.dbl, 'f', -1, 64), true
	case KindBool:
		if v.b {
			return "1", true
		}
		return "0", true
	case KindEmpty:
		return "", true
	default:
		return "", false
	}
}

// IntValue coerces v to an integer. Doubles truncate; strings must parse
// as a base-10 integer; booleans become 1/0.
func (v Value) IntValue() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.num, true
	case KindDouble:
		return int64(v.dbl), true
	case KindString:
		i, err := strconv.ParseInt(v.str, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// DoubleValue coerces v to a float. Strings must parse as a number;
// booleans become 1/0. Dates, Empty and Invalid do not coerce.
func (v Value) DoubleValue() (float64, bool) {
	switch v.kind {
	case KindDouble:
		return v.dbl, true
	case KindInt:
		return float64(v.num), true
	case KindString:
		f, err := strconv.ParseFloat(v.str, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// BoolValue coerces v to a boolean. Integers 1/0 and the strings "1"/"0"
// coerce; anything else does not.
func (v Value) BoolValue() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindInt:
		switch v.num {
		case 1:
			return true, true
		case 0:
			return false, true
		}
		return false, false
	case KindDouble:
		switch v.dbl {
		case 1:
			return true, true
		case 0:
			return false, true
		}
		return false, false
	case KindString:
		switch v.str {
		case "1":
			return true, true
		case "0":
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

// DateValue returns the seconds since the Unix epoch if v is a date.
func (v Value) DateValue() (int64, bool) {
	if v.kind == KindDate {
		return v.num, true
	}
	return 0, false
}

// Equals implements the polymorphic equality of the value model.
// Invalid equals nothing; Empty equals only Empty; dates compare only
// against dates; otherwise both sides are coerced numerically first
// (Int before Double), with a string comparison only when neither side
// parses as a number.
func (v Value) Equals(other Value) bool {
	if v.kind == KindInvalid || other.kind == KindInvalid {
		return false
	}
	if v.kind == KindEmpty || other.kind == KindEmpty {
		return v.kind == other.kind
	}
	if v.kind == KindDate || other.kind == KindDate {
		return v.kind == KindDate && other.kind == KindDate && v.num == other.num
	}
	if v.kind == KindInt && other.kind == KindInt {
		return v.num == other.num
	}
	ld, lnum := v.DoubleValue()
	rd, rnum := other.DoubleValue()
	if lnum && rnum {
		return ld == rd
	}
	if lnum != rnum {
		// One side is numeric and the other is not.
		return false
	}
	ls, lok := v.StringValue()
	rs, rok := other.StringValue()
	return lok && rok && ls == rs
}

// Compare orders two values. ok is false when either side is Invalid or
// fails numeric coercion; Int-vs-Int compares exactly while any other
// combination compares through Double coercion. Dates order against
// dates only.
func Compare(a, b Value) (cmp int, ok bool) {
	if a.kind == KindInvalid || b.kind == KindInvalid {
		return 0, false
	}
	if a.kind == KindDate && b.kind == KindDate {
		switch {
		case a.num < b.num:
			return -1, true
		case a.num > b.num:
			return 1, true
		}
		return 0, true
	}
	if a.kind == KindInt && b.kind == KindInt {
		switch {
		case a.num < b.num:
			return -1, true
		case a.num > b.num:
			return 1, true
		}
		return 0, true
	}
	ad, aok := a.DoubleValue()
	bd, bok := b.DoubleValue()
	if !aok || !bok {
		return 0, false
	}
	switch {
	case ad < bd:
		return -1, true
	case ad > bd:
		return 1, true
	}
	return 0, true
}

// Hash returns a hash consistent with Equals: values that compare equal
// hash identically. Numeric and boolean values hash through their
// canonical string form, which is also what Equals falls back to.
func (v Value) Hash() uint64 {
	switch v.kind {
	case KindInvalid:
		return 0
	case KindEmpty:
		return hashString("\x00empty")
	case KindDate:
		return hashString("\x00date:" + strconv.FormatInt(v.num, 10))
	case KindInt:
		return hashString(strconv.FormatInt(v.num, 10))
	default:
		// Anything that coerces numerically hashes through a canonical
		// numeric form so that "1.50", 1.5 and true/1 hash like their
		// Equals twins.
		if f, ok := v.DoubleValue(); ok {
			return hashString(canonicalNumber(f))
		}
		s, _ := v.StringValue()
		return hashString(s)
	}
}

func canonicalNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// String renders v for display and debugging. Dates render as RFC 3339
// in UTC and Invalid renders as an error marker.
func (v Value) String() string {
	switch v.kind {
	case KindInvalid:
		return "#INVALID!"
	case KindEmpty:
		return ""
	case KindDate:
		return time.Unix(v.num, 0).UTC().Format(time.RFC3339)
	default:
		s, _ := v.StringValue()
		return s
	}
}
