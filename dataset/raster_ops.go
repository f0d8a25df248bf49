package dataset

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/formula"
)

// rowSet indexes tuples by hash with full-equality resolution, so hash
// collisions never merge distinct rows. Group order is insertion order.
type rowSet struct {
	buckets map[uint64][]int
	keys    []data.Tuple
}

func newRowSet() *rowSet {
	return &rowSet{buckets: make(map[uint64][]int)}
}

// add returns the index of key, inserting it if unseen, and whether the
// key was already present.
func (s *rowSet) add(key data.Tuple) (int, bool) {
	h := key.Hash()
	for _, idx := range s.buckets[h] {
		if s.keys[idx].Equals(key) {
			return idx, true
		}
	}
	idx := len(s.keys)
	s.keys = append(s.keys, key)
	s.buckets[h] = append(s.buckets[h], idx)
	return idx, false
}

// Filtered returns the rows for which condition evaluates to true.
func (r *Raster) Filtered(job *Job, condition formula.Expression) (*Raster, error) {
	condition = condition.Prepare()
	out := make([]data.Tuple, 0)
	for i := range r.rows {
		if i%BatchSize == 0 && job != nil && job.Cancelled() {
			return nil, ErrCancelled
		}
		v := condition.Apply(r.Row(i), nil, data.Empty)
		if keep, ok := v.BoolValue(); ok && keep {
			out = append(out, r.rows[i])
		}
	}
	return NewRaster(r.columns, out, true), nil
}

func compareKeys(a, b data.Value, numeric bool) int {
	if numeric {
		if cmp, ok := data.Compare(a, b); ok {
			return cmp
		}
		// Rows whose key does not compare numerically sort last.
		_, aok := a.DoubleValue()
		_, bok := b.DoubleValue()
		switch {
		case aok && !bok:
			return -1
		case !aok && bok:
			return 1
		}
		return 0
	}
	as, aok := a.StringValue()
	bs, bok := b.StringValue()
	switch {
	case aok && !bok:
		return -1
	case !aok && bok:
		return 1
	case !aok && !bok:
		return 0
	}
	return strings.Compare(as, bs)
}

// Sorted returns the rows ordered by the given keys. The sort is
// stable: rows tying on every key keep their relative order.
func (r *Raster) Sorted(job *Job, by []Order) (*Raster, error) {
	keys := make([][]data.Value, len(r.rows))
	for i := range r.rows {
		if i%BatchSize == 0 && job != nil && job.Cancelled() {
			return nil, ErrCancelled
		}
		row := r.Row(i)
		keys[i] = make([]data.Value, len(by))
		for k, o := range by {
			keys[i][k] = o.Expr.Apply(row, nil, data.Empty)
		}
	}
	order := make([]int, len(r.rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		a, b := order[x], order[y]
		for k, o := range by {
			cmp := compareKeys(keys[a][k], keys[b][k], o.Numeric)
			if cmp == 0 {
				continue
			}
			if o.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	out := make([]data.Tuple, len(order))
	for i, idx := range order {
		out[i] = r.rows[idx]
	}
	return NewRaster(r.columns, out, true), nil
}

// Limited returns at most n leading rows.
func (r *Raster) Limited(n int) *Raster {
	if n > len(r.rows) {
		n = len(r.rows)
	}
	if n < 0 {
		n = 0
	}
	return NewRaster(r.columns, r.rows[:n], true)
}

// Offsetted skips the first n rows.
func (r *Raster) Offsetted(n int) *Raster {
	if n > len(r.rows) {
		n = len(r.rows)
	}
	if n < 0 {
		n = 0
	}
	return NewRaster(r.columns, r.rows[n:], true)
}

// RandomRows samples n rows uniformly without replacement, keeping the
// sampled rows in their original order. n larger than the row count
// returns every row.
func (r *Raster) RandomRows(job *Job, n int) (*Raster, error) {
	if job != nil && job.Cancelled() {
		return nil, ErrCancelled
	}
	if n >= len(r.rows) {
		return NewRaster(r.columns, r.rows, true), nil
	}
	if n < 0 {
		n = 0
	}
	chosen := make(map[int]bool, n)
	for len(chosen) < n {
		chosen[rand.IntN(len(r.rows))] = true
	}
	out := make([]data.Tuple, 0, n)
	for i := range r.rows {
		if chosen[i] {
			out = append(out, r.rows[i])
		}
	}
	return NewRaster(r.columns, out, true), nil
}

// DistinctRows drops duplicate rows, keeping the first occurrence.
// Rows containing Invalid never equal anything and are all kept.
func (r *Raster) DistinctRows(job *Job) (*Raster, error) {
	seen := newRowSet()
	out := make([]data.Tuple, 0, len(r.rows))
	for i, t := range r.rows {
		if i%BatchSize == 0 && job != nil && job.Cancelled() {
			return nil, ErrCancelled
		}
		if _, dup := seen.add(t); !dup {
			out = append(out, t)
		}
	}
	return NewRaster(r.columns, out, true), nil
}

// Calculated adds or overwrites columns per the calculation map. New
// target columns are appended; existing targets keep their position.
// Expressions see the pre-update row, and Identity evaluates to the
// targeted column's pre-update cell (Empty for new columns).
func (r *Raster) Calculated(job *Job, calculations map[data.Column]formula.Expression) (*Raster, error) {
	targets := make([]data.Column, 0, len(calculations))
	for c := range calculations {
		targets = append(targets, c)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

	cols := append([]data.Column(nil), r.columns...)
	indexOf := make(map[data.Column]int, len(targets))
	for _, c := range targets {
		idx := data.IndexOfColumn(cols, c)
		if idx < 0 {
			idx = len(cols)
			cols = append(cols, c)
		}
		indexOf[c] = idx
	}

	out := make([]data.Tuple, len(r.rows))
	for i := range r.rows {
		if i%BatchSize == 0 && job != nil && job.Cancelled() {
			return nil, ErrCancelled
		}
		row := r.Row(i)
		t := make(data.Tuple, len(cols))
		for c := range cols {
			t[c] = r.rows[i].At(c)
		}
		for _, c := range targets {
			idx := indexOf[c]
			var current data.Value = data.Empty
			if idx < len(r.columns) {
				current = r.rows[i].At(idx)
			}
			t[idx] = calculations[c].Apply(row, nil, current)
		}
		out[i] = t
	}
	return NewRaster(cols, out, true), nil
}

// Selected projects the raster onto the named columns, in the order
// given. Unknown column names are ignored.
func (r *Raster) Selected(cols []data.Column) *Raster {
	indices := make([]int, 0, len(cols))
	kept := make([]data.Column, 0, len(cols))
	for _, c := range cols {
		if idx := r.IndexOfColumn(c); idx >= 0 {
			indices = append(indices, idx)
			kept = append(kept, r.columns[idx])
		}
	}
	out := make([]data.Tuple, len(r.rows))
	for i, t := range r.rows {
		nt := make(data.Tuple, len(indices))
		for oi, idx := range indices {
			nt[oi] = t.At(idx)
		}
		out[i] = nt
	}
	return NewRaster(kept, out, true)
}

// Aggregated groups rows by the group expressions and reduces each
// value column over its group. Group branches may form in any order,
// but rows within a group accumulate in arrival order, which matters
// for order-sensitive reducers such as CONCAT. Output rows appear in
// first-seen group order. A target column named by both a group and a
// value is a caller bug and panics.
func (r *Raster) Aggregated(job *Job, groups []GroupBy, values []AggregateValue) (*Raster, error) {
	cols := make([]data.Column, 0, len(groups)+len(values))
	for _, g := range groups {
		cols = append(cols, g.Column)
	}
	for _, v := range values {
		if data.ColumnsContain(cols, v.Column) {
			panic(fmt.Sprintf("aggregate target column %q duplicates a group column", v.Column))
		}
		cols = append(cols, v.Column)
	}

	index := newRowSet()
	members := make([][]int, 0)
	for i := range r.rows {
		if i%BatchSize == 0 && job != nil && job.Cancelled() {
			return nil, ErrCancelled
		}
		row := r.Row(i)
		key := make(data.Tuple, len(groups))
		for k, g := range groups {
			key[k] = g.Expr.Apply(row, nil, data.Empty)
		}
		idx, existed := index.add(key)
		if !existed {
			members = append(members, nil)
		}
		members[idx] = append(members[idx], i)
	}

	out := make([]data.Tuple, len(index.keys))
	for g, key := range index.keys {
		if job != nil && job.Cancelled() {
			return nil, ErrCancelled
		}
		t := make(data.Tuple, 0, len(cols))
		t = append(t, key...)
		for _, v := range values {
			mapped := make([]data.Value, len(members[g]))
			for mi, ri := range members[g] {
				mapped[mi] = v.Aggregator.Map.Apply(r.Row(ri), nil, data.Empty)
			}
			t = append(t, v.Aggregator.Reduce.Apply(mapped))
		}
		out[g] = t
	}
	return NewRaster(cols, out, true), nil
}

// Joined joins r (the left side) against foreign. Foreign columns
// already present on the left are dropped from the output. The left
// rows are processed in chunks of BatchSize rows across parallel
// workers; the merged output preserves left row order. With LeftJoin a
// left row without matches still appears once, its foreign cells Empty.
func (r *Raster) Joined(job *Job, j Join, foreign *Raster) (*Raster, error) {
	on := j.On.Prepare()

	rightIdx := make([]int, 0, foreign.ColumnCount())
	rightCols := make([]data.Column, 0, foreign.ColumnCount())
	for i, c := range foreign.Columns() {
		if r.IndexOfColumn(c) < 0 {
			rightIdx = append(rightIdx, i)
			rightCols = append(rightCols, c)
		}
	}
	cols := append(append([]data.Column(nil), r.columns...), rightCols...)

	chunks := (len(r.rows) + BatchSize - 1) / BatchSize
	partials := make([][]data.Tuple, chunks)
	var wg sync.WaitGroup
	for chunk := 0; chunk < chunks; chunk++ {
		wg.Add(1)
		go func(chunk int) {
			defer wg.Done()
			lo := chunk * BatchSize
			hi := lo + BatchSize
			if hi > len(r.rows) {
				hi = len(r.rows)
			}
			part := make([]data.Tuple, 0, hi-lo)
			for li := lo; li < hi; li++ {
				if job != nil && job.Cancelled() {
					return
				}
				left := r.Row(li)
				matched := false
				for fi := 0; fi < foreign.RowCount(); fi++ {
					fr := foreign.Row(fi)
					v := on.Apply(left, &fr, data.Empty)
					if ok, valid := v.BoolValue(); !valid || !ok {
						continue
					}
					matched = true
					part = append(part, joinTuple(r.rows[li], len(r.columns), foreign.rows[fi], rightIdx))
				}
				if !matched && j.Type == LeftJoin {
					part = append(part, joinTuple(r.rows[li], len(r.columns), nil, rightIdx))
				}
			}
			partials[chunk] = part
			if job != nil {
				job.ReportProgress(fmt.Sprintf("join-%p-%d", r, chunk), 1)
			}
		}(chunk)
	}
	wg.Wait()
	if job != nil && job.Cancelled() {
		return nil, ErrCancelled
	}

	out := make([]data.Tuple, 0, len(r.rows))
	for _, part := range partials {
		out = append(out, part...)
	}
	return NewRaster(cols, out, true), nil
}

// joinTuple concatenates a left tuple padded to leftWidth with the
// selected cells of right. A nil right fills Empty.
func joinTuple(left data.Tuple, leftWidth int, right data.Tuple, rightIdx []int) data.Tuple {
	t := make(data.Tuple, 0, leftWidth+len(rightIdx))
	for i := 0; i < leftWidth; i++ {
		t = append(t, left.At(i))
	}
	for _, idx := range rightIdx {
		if right == nil {
			t = append(t, data.Empty)
		} else {
			t = append(t, right.At(idx))
		}
	}
	return t
}

// Pivoted groups rows by the vertical key columns and spreads the
// value columns across one output column per (horizontal key group,
// value column) pair. The horizontal group label is the underscore
// joined string form of its key cells. Combinations without a source
// row fill Invalid; duplicates keep the last row's value.
func (r *Raster) Pivoted(job *Job, horizontal, vertical, values []data.Column) (*Raster, error) {
	hIdx := columnIndices(r.columns, horizontal)
	vIdx := columnIndices(r.columns, vertical)
	valIdx := columnIndices(r.columns, values)

	verticals := newRowSet()
	labels := newRowSet()
	labelNames := make([]string, 0)
	// cells[group][label*len(values)+value]
	cells := make([][]data.Value, 0)

	for i, t := range r.rows {
		if i%BatchSize == 0 && job != nil && job.Cancelled() {
			return nil, ErrCancelled
		}
		vKey := pickCells(t, vIdx)
		hKey := pickCells(t, hIdx)
		gi, existed := verticals.add(vKey)
		if !existed {
			cells = append(cells, nil)
		}
		li, seen := labels.add(hKey)
		if !seen {
			parts := make([]string, len(hKey))
			for pi, v := range hKey {
				parts[pi] = v.String()
			}
			labelNames = append(labelNames, strings.Join(parts, "_"))
		}
		for len(cells[gi]) < len(labels.keys)*len(values) {
			cells[gi] = append(cells[gi], data.Invalid)
		}
		for vi, idx := range valIdx {
			cells[gi][li*len(values)+vi] = t.At(idx)
		}
	}

	cols := make([]data.Column, 0, len(vertical)+len(labelNames)*len(values))
	cols = append(cols, vertical...)
	for _, label := range labelNames {
		for _, vc := range values {
			name := label
			if len(values) > 1 {
				name = label + "_" + string(vc)
			}
			cols = append(cols, data.Column(name))
		}
	}

	cols = uniqueColumns(cols)

	out := make([]data.Tuple, len(verticals.keys))
	width := len(labelNames) * len(values)
	for g, key := range verticals.keys {
		t := make(data.Tuple, 0, len(cols))
		t = append(t, key...)
		for i := 0; i < width; i++ {
			if i < len(cells[g]) {
				t = append(t, cells[g][i])
			} else {
				t = append(t, data.Invalid)
			}
		}
		out[g] = t
	}
	return NewRaster(cols, out, true), nil
}

// uniqueColumns disambiguates synthesized column names that collide
// under case-insensitive comparison by suffixing a counter.
func uniqueColumns(cols []data.Column) []data.Column {
	out := make([]data.Column, 0, len(cols))
	for _, c := range cols {
		name := c
		for n := 2; data.ColumnsContain(out, name); n++ {
			name = data.Column(fmt.Sprintf("%s_%d", c, n))
		}
		out = append(out, name)
	}
	return out
}

func columnIndices(have []data.Column, want []data.Column) []int {
	out := make([]int, len(want))
	for i, c := range want {
		out[i] = data.IndexOfColumn(have, c)
	}
	return out
}

func pickCells(t data.Tuple, indices []int) data.Tuple {
	out := make(data.Tuple, len(indices))
	for i, idx := range indices {
		if idx < 0 {
			out[i] = data.Invalid
		} else {
			out[i] = t.At(idx)
		}
	}
	return out
}

// Unioned appends other's rows below r's. The output column list is
// r's columns followed by other's columns not already present; cells a
// side lacks fill Empty.
func (r *Raster) Unioned(other *Raster) *Raster {
	cols := append([]data.Column(nil), r.columns...)
	for _, c := range other.Columns() {
		if data.IndexOfColumn(cols, c) < 0 {
			cols = append(cols, c)
		}
	}
	out := make([]data.Tuple, 0, len(r.rows)+other.RowCount())
	for _, t := range r.rows {
		out = append(out, remapTuple(t, r.columns, cols))
	}
	for i := 0; i < other.RowCount(); i++ {
		out = append(out, remapTuple(other.Tuple(i), other.Columns(), cols))
	}
	return NewRaster(cols, out, true)
}

func remapTuple(t data.Tuple, from, to []data.Column) data.Tuple {
	out := make(data.Tuple, len(to))
	for i, c := range to {
		idx := data.IndexOfColumn(from, c)
		if idx < 0 {
			out[i] = data.Empty
		} else {
			out[i] = t.At(idx)
		}
	}
	return out
}

// Flattened converts the raster to tall form: one output row per
// (source row, source column) pair.
func (r *Raster) Flattened(job *Job, f Flatten) (*Raster, error) {
	cols := make([]data.Column, 0, 3)
	if f.RowColumn != "" {
		cols = append(cols, f.RowColumn)
	}
	if f.ColumnNameTo != "" {
		cols = append(cols, f.ColumnNameTo)
	}
	cols = append(cols, f.ValueTo)

	out := make([]data.Tuple, 0, len(r.rows)*len(r.columns))
	for i := range r.rows {
		if i%BatchSize == 0 && job != nil && job.Cancelled() {
			return nil, ErrCancelled
		}
		row := r.Row(i)
		var ident data.Value
		if f.RowColumn != "" {
			ident = data.Empty
			if f.RowIdentifier != nil {
				ident = f.RowIdentifier.Apply(row, nil, data.Empty)
			}
		}
		for ci, c := range r.columns {
			t := make(data.Tuple, 0, len(cols))
			if f.RowColumn != "" {
				t = append(t, ident)
			}
			if f.ColumnNameTo != "" {
				t = append(t, data.String(string(c)))
			}
			t = append(t, r.rows[i].At(ci))
			out = append(out, t)
		}
	}
	return NewRaster(cols, out, true), nil
}

// Transposed flips rows and columns. The first output column, named
// "column", holds the original column names; the remaining output
// columns row_1..row_n hold the original rows.
func (r *Raster) Transposed() *Raster {
	cols := make([]data.Column, 0, len(r.rows)+1)
	cols = append(cols, "column")
	for i := range r.rows {
		cols = append(cols, data.Column(fmt.Sprintf("row_%d", i+1)))
	}
	out := make([]data.Tuple, len(r.columns))
	for ci, c := range r.columns {
		t := make(data.Tuple, 0, len(cols))
		t = append(t, data.String(string(c)))
		for ri := range r.rows {
			t = append(t, r.rows[ri].At(ci))
		}
		out[ci] = t
	}
	return NewRaster(cols, out, true)
}
