package data

// Tuple is one ordered row of cells. A tuple may be shorter than the
// active column list; access through At pads with Empty.
type Tuple []Value

// At returns the cell at index i, padding with Empty past the end.
func (t Tuple) At(i int) Value {
	if i < 0 || i >= len(t) {
		return Empty
	}
	return t[i]
}

// Equals reports cell-wise equality under Value.Equals. Tuples of
// different lengths compare through Empty padding. Note that a tuple
// containing Invalid never equals anything, Invalid being unequal to
// itself.
func (t Tuple) Equals(other Tuple) bool {
	n := len(t)
	if len(other) > n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if !t.At(i).Equals(other.At(i)) {
			return false
		}
	}
	return true
}

// Hash XOR-folds the cell hashes. Column-order collisions are possible
// and callers must confirm with Equals.
func (t Tuple) Hash() uint64 {
	var h uint64
	for _, v := range t {
		h ^= v.Hash()
	}
	return h
}

// Clone returns an independent copy of the tuple.
func (t Tuple) Clone() Tuple {
	out := make(Tuple, len(t))
	copy(out, t)
	return out
}

// Row pairs a tuple with the column list it belongs to.
type Row struct {
	Columns []Column
	Values  Tuple
}

// NewRow builds a row over cols and values.
func NewRow(cols []Column, values Tuple) Row {
	return Row{Columns: cols, Values: values}
}

// Value resolves a cell by column name, case-insensitively. ok is false
// when the column is absent.
func (r Row) Value(col Column) (Value, bool) {
	idx := IndexOfColumn(r.Columns, col)
	if idx < 0 {
		return Invalid, false
	}
	return r.Values.At(idx), true
}
