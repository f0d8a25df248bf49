package dataset

import (
	"sync"

	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/formula"
)

// rasterStream cursors over a materialized dataset in BatchSize chunks.
type rasterStream struct {
	dataset *RasterDataset

	mu  sync.Mutex
	pos int
}

func newRasterStream(d *RasterDataset) *rasterStream {
	return &rasterStream{dataset: d}
}

func (s *rasterStream) Columns(job *Job, callback func([]data.Column, error)) {
	s.dataset.ColumnNames(job, callback)
}

func (s *rasterStream) Fetch(job *Job, sink Sink) {
	s.dataset.Raster(job, func(r *Raster, err error) {
		if err != nil {
			sink(nil, false, err)
			return
		}
		s.mu.Lock()
		lo := s.pos
		hi := lo + BatchSize
		if hi > r.RowCount() {
			hi = r.RowCount()
		}
		s.pos = hi
		s.mu.Unlock()

		batch := make([]data.Tuple, hi-lo)
		for i := lo; i < hi; i++ {
			batch[i-lo] = r.Tuple(i)
		}
		sink(batch, hi < r.RowCount(), nil)
	})
}

func (s *rasterStream) Clone() Stream {
	return newRasterStream(s.dataset)
}

// Drain pulls every batch of s into a read-only raster. The stream is
// consumed; pass a clone to keep the original rewound.
func Drain(job *Job, s Stream, callback func(*Raster, error)) {
	s.Columns(job, func(cols []data.Column, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		var rows []data.Tuple
		var pull func()
		pull = func() {
			s.Fetch(job, func(batch []data.Tuple, hasMore bool, ferr error) {
				if ferr != nil {
					callback(nil, ferr)
					return
				}
				rows = append(rows, batch...)
				if job != nil && job.Cancelled() {
					callback(nil, ErrCancelled)
					return
				}
				if hasMore {
					pull()
					return
				}
				callback(NewRaster(cols, rows, true), nil)
			})
		}
		pull()
	})
}

// StreamDataset executes operations incrementally over a Stream where
// possible and drains into a RasterDataset for the rest. The source
// stream is never consumed directly; every use starts from a clone.
type StreamDataset struct {
	source Stream
}

var _ Dataset = (*StreamDataset)(nil)

// NewStreamDataset wraps a stream source.
func NewStreamDataset(s Stream) *StreamDataset {
	return &StreamDataset{source: s}
}

func (d *StreamDataset) ColumnNames(job *Job, callback func([]data.Column, error)) {
	d.source.Clone().Columns(job, callback)
}

func (d *StreamDataset) Raster(job *Job, callback func(*Raster, error)) {
	Drain(job, d.source.Clone(), callback)
}

func (d *StreamDataset) Stream() Stream {
	return d.source.Clone()
}

// fallback rebinds the dataset to the raster engine for operations a
// stream cannot run incrementally.
func (d *StreamDataset) fallback() Dataset {
	source := d.source
	return newComputedRasterDataset(func(job *Job, callback func(*Raster, error)) {
		Drain(job, source.Clone(), callback)
	})
}

func (d *StreamDataset) Filter(condition formula.Expression) Dataset {
	return NewStreamDataset(newFilterStream(d.source.Clone(), condition))
}

func (d *StreamDataset) Limit(n int) Dataset {
	return NewStreamDataset(newLimitStream(d.source.Clone(), n))
}

func (d *StreamDataset) Offset(n int) Dataset {
	return NewStreamDataset(newOffsetStream(d.source.Clone(), n))
}

func (d *StreamDataset) Random(n int) Dataset {
	return NewStreamDataset(newReservoirStream(d.source.Clone(), n))
}

func (d *StreamDataset) Calculate(calculations map[data.Column]formula.Expression) Dataset {
	return NewStreamDataset(newCalculateStream(d.source.Clone(), calculations))
}

func (d *StreamDataset) SelectColumns(cols []data.Column) Dataset {
	return NewStreamDataset(newColumnsStream(d.source.Clone(), cols))
}

func (d *StreamDataset) Flatten(f Flatten) Dataset {
	return NewStreamDataset(newFlattenStream(d.source.Clone(), f))
}

func (d *StreamDataset) Join(j Join) Dataset {
	return NewStreamDataset(newJoinStream(d.source.Clone(), j))
}

func (d *StreamDataset) Sort(by []Order) Dataset {
	return d.fallback().Sort(by)
}

func (d *StreamDataset) Distinct() Dataset {
	return d.fallback().Distinct()
}

func (d *StreamDataset) Aggregate(groups []GroupBy, values []AggregateValue) Dataset {
	return d.fallback().Aggregate(groups, values)
}

func (d *StreamDataset) Pivot(horizontal, vertical, values []data.Column) Dataset {
	return d.fallback().Pivot(horizontal, vertical, values)
}

func (d *StreamDataset) Union(other Dataset) Dataset {
	return d.fallback().Union(other)
}

func (d *StreamDataset) Transpose() Dataset {
	return d.fallback().Transpose()
}
