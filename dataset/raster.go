package dataset

import (
	"fmt"

	"github.com/vegasq/tabular/data"
)

// Raster is an in-memory materialized table: an ordered list of unique
// columns and an ordered list of row tuples. Row tuples may be shorter
// than the column list; access pads with Empty.
//
// A read-only raster is the product of a transformation and is safe for
// concurrent readers. Mutable rasters are single-owner accumulation or
// editing buffers; the in-place editing operations panic when applied
// to a read-only raster, since that indicates a bug in the calling
// pipeline rather than bad input data.
type Raster struct {
	columns  []data.Column
	rows     []data.Tuple
	readOnly bool
}

// NewRaster builds a raster from columns and rows. Column names must be
// unique under case-insensitive comparison; duplicates panic.
func NewRaster(columns []data.Column, rows []data.Tuple, readOnly bool) *Raster {
	for i, c := range columns {
		for _, prev := range columns[:i] {
			if c.EqualTo(prev) {
				panic(fmt.Sprintf("duplicate column %q in raster", c))
			}
		}
	}
	return &Raster{columns: columns, rows: rows, readOnly: readOnly}
}

// NewEmptyRaster returns a fresh mutable raster with no columns or
// rows, for incremental accumulation.
func NewEmptyRaster() *Raster {
	return &Raster{}
}

// Columns returns the ordered column list. Callers must not modify it.
func (r *Raster) Columns() []data.Column { return r.columns }

// RowCount returns the number of rows.
func (r *Raster) RowCount() int { return len(r.rows) }

// ColumnCount returns the number of columns.
func (r *Raster) ColumnCount() int { return len(r.columns) }

// ReadOnly reports whether in-place edits are forbidden.
func (r *Raster) ReadOnly() bool { return r.readOnly }

// IndexOfColumn returns the index of the named column, or -1.
func (r *Raster) IndexOfColumn(c data.Column) int {
	return data.IndexOfColumn(r.columns, c)
}

// Tuple returns the raw tuple at row index i.
func (r *Raster) Tuple(i int) data.Tuple { return r.rows[i] }

// Row returns row i paired with the raster's columns.
func (r *Raster) Row(i int) data.Row {
	return data.NewRow(r.columns, r.rows[i])
}

// Cell returns the value at (row, column index), padding short tuples
// with Empty.
func (r *Raster) Cell(row, col int) data.Value {
	return r.rows[row].At(col)
}

func (r *Raster) assertMutable() {
	if r.readOnly {
		panic("mutating a read-only raster")
	}
}

// AddColumn appends a column, filling existing rows with def. Adding a
// duplicate column name panics.
func (r *Raster) AddColumn(c data.Column, def data.Value) {
	r.assertMutable()
	if r.IndexOfColumn(c) >= 0 {
		panic(fmt.Sprintf("duplicate column %q in raster", c))
	}
	r.columns = append(r.columns, c)
	for i := range r.rows {
		for len(r.rows[i]) < len(r.columns) {
			r.rows[i] = append(r.rows[i], data.Empty)
		}
		r.rows[i][len(r.columns)-1] = def
	}
}

// AddRow appends a row tuple.
func (r *Raster) AddRow(t data.Tuple) {
	r.assertMutable()
	r.rows = append(r.rows, t)
}

// SetValue writes one cell, extending a short tuple with Empty first.
func (r *Raster) SetValue(row int, c data.Column, v data.Value) {
	r.assertMutable()
	idx := r.IndexOfColumn(c)
	if idx < 0 {
		panic(fmt.Sprintf("no column %q in raster", c))
	}
	for len(r.rows[row]) <= idx {
		r.rows[row] = append(r.rows[row], data.Empty)
	}
	r.rows[row][idx] = v
}

// RemoveRows deletes the rows at the given indices.
func (r *Raster) RemoveRows(indices []int) {
	r.assertMutable()
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}
	kept := r.rows[:0]
	for i, t := range r.rows {
		if !drop[i] {
			kept = append(kept, t)
		}
	}
	r.rows = kept
}

// RemoveColumns deletes the named columns and their cells.
func (r *Raster) RemoveColumns(cols []data.Column) {
	r.assertMutable()
	keepIdx := make([]int, 0, len(r.columns))
	keptCols := make([]data.Column, 0, len(r.columns))
	for i, c := range r.columns {
		if !data.ColumnsContain(cols, c) {
			keepIdx = append(keepIdx, i)
			keptCols = append(keptCols, c)
		}
	}
	for ri, t := range r.rows {
		out := make(data.Tuple, len(keepIdx))
		for oi, idx := range keepIdx {
			out[oi] = t.At(idx)
		}
		r.rows[ri] = out
	}
	r.columns = keptCols
}

func (r *Raster) String() string {
	return fmt.Sprintf("Raster(%d columns, %d rows)", len(r.columns), len(r.rows))
}
