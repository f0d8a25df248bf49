package dataset

import (
	"math/rand/v2"

	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/formula"
)

// Transformers are single-consumer like any Stream, so their mutable
// position state needs no locking; Clone hands independent state to a
// second consumer.

// columnCache lazily resolves and caches a stream's column list.
type columnCache struct {
	cols []data.Column
}

func (c *columnCache) get(job *Job, s Stream, callback func([]data.Column, error)) {
	if c.cols != nil {
		callback(c.cols, nil)
		return
	}
	s.Columns(job, func(cols []data.Column, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		c.cols = cols
		callback(cols, nil)
	})
}

// limitStream truncates the upstream after n rows, never over
// delivering even when the boundary falls inside a batch.
type limitStream struct {
	upstream  Stream
	n         int
	remaining int
	done      bool
}

func newLimitStream(upstream Stream, n int) *limitStream {
	return &limitStream{upstream: upstream, n: n, remaining: n}
}

func (s *limitStream) Columns(job *Job, callback func([]data.Column, error)) {
	s.upstream.Columns(job, callback)
}

func (s *limitStream) Fetch(job *Job, sink Sink) {
	if s.done || s.remaining <= 0 {
		sink(nil, false, nil)
		return
	}
	s.upstream.Fetch(job, func(rows []data.Tuple, hasMore bool, err error) {
		if err != nil {
			s.done = true
			sink(nil, false, err)
			return
		}
		if len(rows) >= s.remaining {
			rows = rows[:s.remaining]
			s.remaining = 0
			hasMore = false
		} else {
			s.remaining -= len(rows)
		}
		if !hasMore {
			s.done = true
		}
		sink(rows, hasMore, nil)
	})
}

func (s *limitStream) Clone() Stream {
	return newLimitStream(s.upstream.Clone(), s.n)
}

// offsetStream discards rows until the running position passes the
// offset, splitting the batch the boundary falls into.
type offsetStream struct {
	upstream Stream
	n        int
	toSkip   int
	done     bool
}

func newOffsetStream(upstream Stream, n int) *offsetStream {
	return &offsetStream{upstream: upstream, n: n, toSkip: n}
}

func (s *offsetStream) Columns(job *Job, callback func([]data.Column, error)) {
	s.upstream.Columns(job, callback)
}

func (s *offsetStream) Fetch(job *Job, sink Sink) {
	if s.done {
		sink(nil, false, nil)
		return
	}
	s.upstream.Fetch(job, func(rows []data.Tuple, hasMore bool, err error) {
		if err != nil {
			s.done = true
			sink(nil, false, err)
			return
		}
		if s.toSkip >= len(rows) {
			s.toSkip -= len(rows)
			rows = nil
		} else {
			rows = rows[s.toSkip:]
			s.toSkip = 0
		}
		if !hasMore {
			s.done = true
		}
		sink(rows, hasMore, nil)
	})
}

func (s *offsetStream) Clone() Stream {
	return newOffsetStream(s.upstream.Clone(), s.n)
}

// reservoirStream keeps a uniform without-replacement sample of size n
// using reservoir sampling, emitting nothing until the upstream is
// exhausted and then the whole reservoir as one final batch.
type reservoirStream struct {
	upstream  Stream
	size      int
	reservoir []data.Tuple
	seen      int
	done      bool
}

func newReservoirStream(upstream Stream, n int) *reservoirStream {
	return &reservoirStream{upstream: upstream, size: n}
}

func (s *reservoirStream) Columns(job *Job, callback func([]data.Column, error)) {
	s.upstream.Columns(job, callback)
}

func (s *reservoirStream) Fetch(job *Job, sink Sink) {
	if s.done {
		sink(nil, false, nil)
		return
	}
	s.upstream.Fetch(job, func(rows []data.Tuple, hasMore bool, err error) {
		if err != nil {
			s.done = true
			sink(nil, false, err)
			return
		}
		for _, row := range rows {
			s.seen++
			if len(s.reservoir) < s.size {
				s.reservoir = append(s.reservoir, row)
				continue
			}
			// Row number s.seen replaces a random slot with
			// probability size/seen.
			if j := rand.IntN(s.seen); j < s.size {
				s.reservoir[j] = row
			}
		}
		if hasMore {
			sink(nil, true, nil)
			return
		}
		s.done = true
		sink(s.reservoir, false, nil)
	})
}

func (s *reservoirStream) Clone() Stream {
	return newReservoirStream(s.upstream.Clone(), s.size)
}

// filterStream keeps the rows for which the condition holds.
type filterStream struct {
	upstream  Stream
	condition formula.Expression
	cache     columnCache
	done      bool
}

func newFilterStream(upstream Stream, condition formula.Expression) *filterStream {
	return &filterStream{upstream: upstream, condition: condition.Prepare()}
}

func (s *filterStream) Columns(job *Job, callback func([]data.Column, error)) {
	s.upstream.Columns(job, callback)
}

func (s *filterStream) Fetch(job *Job, sink Sink) {
	if s.done {
		sink(nil, false, nil)
		return
	}
	s.cache.get(job, s.upstream, func(cols []data.Column, err error) {
		if err != nil {
			s.done = true
			sink(nil, false, err)
			return
		}
		s.upstream.Fetch(job, func(rows []data.Tuple, hasMore bool, ferr error) {
			if ferr != nil {
				s.done = true
				sink(nil, false, ferr)
				return
			}
			out := make([]data.Tuple, 0, len(rows))
			for _, t := range rows {
				v := s.condition.Apply(data.NewRow(cols, t), nil, data.Empty)
				if keep, ok := v.BoolValue(); ok && keep {
					out = append(out, t)
				}
			}
			if !hasMore {
				s.done = true
			}
			sink(out, hasMore, nil)
		})
	})
}

func (s *filterStream) Clone() Stream {
	return newFilterStream(s.upstream.Clone(), s.condition)
}

// calculateStream applies a calculation map per batch, reusing the
// raster implementation for the per-row semantics.
type calculateStream struct {
	upstream     Stream
	calculations map[data.Column]formula.Expression
	cache        columnCache
	outCols      []data.Column
	done         bool
}

func newCalculateStream(upstream Stream, calculations map[data.Column]formula.Expression) *calculateStream {
	return &calculateStream{upstream: upstream, calculations: calculations}
}

func (s *calculateStream) Columns(job *Job, callback func([]data.Column, error)) {
	if s.outCols != nil {
		callback(s.outCols, nil)
		return
	}
	s.cache.get(job, s.upstream, func(cols []data.Column, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		// An empty batch through Calculated yields the output schema.
		out, _ := NewRaster(cols, nil, true).Calculated(nil, s.calculations)
		s.outCols = out.Columns()
		callback(s.outCols, nil)
	})
}

func (s *calculateStream) Fetch(job *Job, sink Sink) {
	if s.done {
		sink(nil, false, nil)
		return
	}
	s.cache.get(job, s.upstream, func(cols []data.Column, err error) {
		if err != nil {
			s.done = true
			sink(nil, false, err)
			return
		}
		s.upstream.Fetch(job, func(rows []data.Tuple, hasMore bool, ferr error) {
			if ferr != nil {
				s.done = true
				sink(nil, false, ferr)
				return
			}
			out, cerr := NewRaster(cols, rows, true).Calculated(job, s.calculations)
			if cerr != nil {
				s.done = true
				sink(nil, false, cerr)
				return
			}
			if !hasMore {
				s.done = true
			}
			sink(out.rows, hasMore, nil)
		})
	})
}

func (s *calculateStream) Clone() Stream {
	return newCalculateStream(s.upstream.Clone(), s.calculations)
}

// columnsStream projects each batch onto the requested columns. The
// target names resolve against the upstream schema once, lazily, and
// the resolved index list is reused for every batch.
type columnsStream struct {
	upstream Stream
	targets  []data.Column
	cache    columnCache
	indices  []int
	outCols  []data.Column
	done     bool
}

func newColumnsStream(upstream Stream, targets []data.Column) *columnsStream {
	return &columnsStream{upstream: upstream, targets: targets}
}

func (s *columnsStream) resolve(job *Job, callback func(error)) {
	if s.indices != nil {
		callback(nil)
		return
	}
	s.cache.get(job, s.upstream, func(cols []data.Column, err error) {
		if err != nil {
			callback(err)
			return
		}
		s.indices = make([]int, 0, len(s.targets))
		s.outCols = make([]data.Column, 0, len(s.targets))
		for _, c := range s.targets {
			if idx := data.IndexOfColumn(cols, c); idx >= 0 {
				s.indices = append(s.indices, idx)
				s.outCols = append(s.outCols, cols[idx])
			}
		}
		callback(nil)
	})
}

func (s *columnsStream) Columns(job *Job, callback func([]data.Column, error)) {
	s.resolve(job, func(err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(s.outCols, nil)
	})
}

func (s *columnsStream) Fetch(job *Job, sink Sink) {
	if s.done {
		sink(nil, false, nil)
		return
	}
	s.resolve(job, func(err error) {
		if err != nil {
			s.done = true
			sink(nil, false, err)
			return
		}
		s.upstream.Fetch(job, func(rows []data.Tuple, hasMore bool, ferr error) {
			if ferr != nil {
				s.done = true
				sink(nil, false, ferr)
				return
			}
			out := make([]data.Tuple, len(rows))
			for i, t := range rows {
				nt := make(data.Tuple, len(s.indices))
				for oi, idx := range s.indices {
					nt[oi] = t.At(idx)
				}
				out[i] = nt
			}
			if !hasMore {
				s.done = true
			}
			sink(out, hasMore, nil)
		})
	})
}

func (s *columnsStream) Clone() Stream {
	return newColumnsStream(s.upstream.Clone(), s.targets)
}

// flattenStream converts each upstream row into one tall row per
// source column.
type flattenStream struct {
	upstream Stream
	flatten  Flatten
	cache    columnCache
	done     bool
}

func newFlattenStream(upstream Stream, f Flatten) *flattenStream {
	return &flattenStream{upstream: upstream, flatten: f}
}

func (s *flattenStream) Columns(job *Job, callback func([]data.Column, error)) {
	cols := make([]data.Column, 0, 3)
	if s.flatten.RowColumn != "" {
		cols = append(cols, s.flatten.RowColumn)
	}
	if s.flatten.ColumnNameTo != "" {
		cols = append(cols, s.flatten.ColumnNameTo)
	}
	cols = append(cols, s.flatten.ValueTo)
	callback(cols, nil)
}

func (s *flattenStream) Fetch(job *Job, sink Sink) {
	if s.done {
		sink(nil, false, nil)
		return
	}
	s.cache.get(job, s.upstream, func(cols []data.Column, err error) {
		if err != nil {
			s.done = true
			sink(nil, false, err)
			return
		}
		s.upstream.Fetch(job, func(rows []data.Tuple, hasMore bool, ferr error) {
			if ferr != nil {
				s.done = true
				sink(nil, false, ferr)
				return
			}
			out, terr := NewRaster(cols, rows, true).Flattened(job, s.flatten)
			if terr != nil {
				s.done = true
				sink(nil, false, terr)
				return
			}
			if !hasMore {
				s.done = true
			}
			sink(out.rows, hasMore, nil)
		})
	})
}

func (s *flattenStream) Clone() Stream {
	return newFlattenStream(s.upstream.Clone(), s.flatten)
}

// joinStream joins streamed left batches against a foreign dataset.
// For each batch it specializes the join condition per left row,
// ORs the specializations together and asks the foreign dataset to
// filter and materialize only the candidate rows, then matches the
// batch against just those candidates. This bounds memory on a large
// foreign side at the cost of one foreign round-trip per batch.
type joinStream struct {
	upstream Stream
	join     Join
	cache    columnCache
	done     bool
}

func newJoinStream(upstream Stream, j Join) *joinStream {
	return &joinStream{upstream: upstream, join: j}
}

func (s *joinStream) Columns(job *Job, callback func([]data.Column, error)) {
	s.cache.get(job, s.upstream, func(left []data.Column, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		s.join.Foreign.ColumnNames(job, func(right []data.Column, rerr error) {
			if rerr != nil {
				callback(nil, rerr)
				return
			}
			cols := append([]data.Column(nil), left...)
			for _, c := range right {
				if !data.ColumnsContain(left, c) {
					cols = append(cols, c)
				}
			}
			callback(cols, nil)
		})
	})
}

func (s *joinStream) Fetch(job *Job, sink Sink) {
	if s.done {
		sink(nil, false, nil)
		return
	}
	s.cache.get(job, s.upstream, func(leftCols []data.Column, err error) {
		if err != nil {
			s.done = true
			sink(nil, false, err)
			return
		}
		s.upstream.Fetch(job, func(rows []data.Tuple, hasMore bool, ferr error) {
			if ferr != nil {
				s.done = true
				sink(nil, false, ferr)
				return
			}
			if !hasMore {
				s.done = true
			}
			if len(rows) == 0 {
				sink(nil, hasMore, nil)
				return
			}
			s.matchBatch(job, leftCols, rows, hasMore, sink)
		})
	})
}

func (s *joinStream) matchBatch(job *Job, leftCols []data.Column, rows []data.Tuple, hasMore bool, sink Sink) {
	conds := make([]formula.Expression, len(rows))
	for i, t := range rows {
		conds[i] = specializeJoinCondition(s.join.On, data.NewRow(leftCols, t))
	}
	var candidateFilter formula.Expression
	if len(conds) == 1 {
		candidateFilter = conds[0]
	} else {
		candidateFilter = &formula.Call{Fn: formula.FunctionOr, Args: conds}
	}
	candidateFilter = candidateFilter.Prepare()

	s.join.Foreign.Filter(candidateFilter).Raster(job, func(candidates *Raster, cerr error) {
		if cerr != nil {
			s.done = true
			sink(nil, false, cerr)
			return
		}
		rightIdx := make([]int, 0, candidates.ColumnCount())
		for i, c := range candidates.Columns() {
			if !data.ColumnsContain(leftCols, c) {
				rightIdx = append(rightIdx, i)
			}
		}
		out := make([]data.Tuple, 0, len(rows))
		for _, t := range rows {
			left := data.NewRow(leftCols, t)
			matched := false
			for fi := 0; fi < candidates.RowCount(); fi++ {
				fr := candidates.Row(fi)
				v := s.join.On.Apply(left, &fr, data.Empty)
				if ok, valid := v.BoolValue(); !valid || !ok {
					continue
				}
				matched = true
				out = append(out, joinTuple(t, len(leftCols), candidates.Tuple(fi), rightIdx))
			}
			if !matched && s.join.Type == LeftJoin {
				out = append(out, joinTuple(t, len(leftCols), nil, rightIdx))
			}
		}
		sink(out, hasMore, nil)
	})
}

func (s *joinStream) Clone() Stream {
	return newJoinStream(s.upstream.Clone(), s.join)
}

// specializeJoinCondition binds a join condition to one concrete left
// row: sibling references become literals holding the left row's
// values, and foreign references become sibling references so the
// result can filter the foreign dataset directly.
func specializeJoinCondition(e formula.Expression, left data.Row) formula.Expression {
	switch n := e.(type) {
	case *formula.Sibling:
		v, ok := left.Value(n.Column)
		if !ok {
			v = data.Invalid
		}
		return &formula.Literal{Value: v}
	case *formula.Foreign:
		return &formula.Sibling{Column: n.Column}
	case *formula.Comparison:
		return &formula.Comparison{
			Op:  n.Op,
			LHS: specializeJoinCondition(n.LHS, left),
			RHS: specializeJoinCondition(n.RHS, left),
		}
	case *formula.Call:
		args := make([]formula.Expression, len(n.Args))
		for i, a := range n.Args {
			args[i] = specializeJoinCondition(a, left)
		}
		return &formula.Call{Fn: n.Fn, Args: args}
	default:
		return e
	}
}
