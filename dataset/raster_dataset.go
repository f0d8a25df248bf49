package dataset

import (
	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/formula"
)

type rasterResult struct {
	raster *Raster
	err    error
}

// RasterDataset executes every operation against a fully materialized
// Raster. Each derived dataset holds a memoized future computing its
// raster from its parent's, so a chain of operations runs each step at
// most once no matter how many consumers ask for the result.
type RasterDataset struct {
	future *Future[rasterResult]
}

var _ Dataset = (*RasterDataset)(nil)

// NewRasterDataset wraps an already materialized raster.
func NewRasterDataset(r *Raster) *RasterDataset {
	return &RasterDataset{
		future: NewFuture(func(_ *Job, deliver func(rasterResult)) {
			deliver(rasterResult{raster: r})
		}),
	}
}

// newComputedRasterDataset wraps a computation producing a raster, for
// engines that materialize lazily (stream drains, file reads).
func newComputedRasterDataset(compute func(job *Job, callback func(*Raster, error))) *RasterDataset {
	return &RasterDataset{
		future: NewFuture(func(job *Job, deliver func(rasterResult)) {
			compute(job, func(r *Raster, err error) {
				deliver(rasterResult{raster: r, err: err})
			})
		}),
	}
}

// derive chains a transformation onto d's raster.
func (d *RasterDataset) derive(apply func(job *Job, r *Raster) (*Raster, error)) *RasterDataset {
	return &RasterDataset{
		future: NewFuture(func(job *Job, deliver func(rasterResult)) {
			d.future.Get(func(res rasterResult) {
				if res.err != nil {
					deliver(res)
					return
				}
				if job.Cancelled() {
					deliver(rasterResult{err: ErrCancelled})
					return
				}
				out, err := apply(job, res.raster)
				deliver(rasterResult{raster: out, err: err})
			})
		}),
	}
}

func (d *RasterDataset) Raster(job *Job, callback func(*Raster, error)) {
	if job != nil && job.Cancelled() {
		callback(nil, ErrCancelled)
		return
	}
	d.future.Get(func(res rasterResult) {
		callback(res.raster, res.err)
	})
}

func (d *RasterDataset) ColumnNames(job *Job, callback func([]data.Column, error)) {
	d.Raster(job, func(r *Raster, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(r.Columns(), nil)
	})
}

func (d *RasterDataset) Stream() Stream {
	return newRasterStream(d)
}

func (d *RasterDataset) Filter(condition formula.Expression) Dataset {
	return d.derive(func(job *Job, r *Raster) (*Raster, error) {
		return r.Filtered(job, condition)
	})
}

func (d *RasterDataset) Sort(by []Order) Dataset {
	return d.derive(func(job *Job, r *Raster) (*Raster, error) {
		return r.Sorted(job, by)
	})
}

func (d *RasterDataset) Limit(n int) Dataset {
	return d.derive(func(_ *Job, r *Raster) (*Raster, error) {
		return r.Limited(n), nil
	})
}

func (d *RasterDataset) Offset(n int) Dataset {
	return d.derive(func(_ *Job, r *Raster) (*Raster, error) {
		return r.Offsetted(n), nil
	})
}

func (d *RasterDataset) Random(n int) Dataset {
	return d.derive(func(job *Job, r *Raster) (*Raster, error) {
		return r.RandomRows(job, n)
	})
}

func (d *RasterDataset) Distinct() Dataset {
	return d.derive(func(job *Job, r *Raster) (*Raster, error) {
		return r.DistinctRows(job)
	})
}

func (d *RasterDataset) Calculate(calculations map[data.Column]formula.Expression) Dataset {
	return d.derive(func(job *Job, r *Raster) (*Raster, error) {
		return r.Calculated(job, calculations)
	})
}

func (d *RasterDataset) SelectColumns(cols []data.Column) Dataset {
	return d.derive(func(_ *Job, r *Raster) (*Raster, error) {
		return r.Selected(cols), nil
	})
}

func (d *RasterDataset) Aggregate(groups []GroupBy, values []AggregateValue) Dataset {
	return d.derive(func(job *Job, r *Raster) (*Raster, error) {
		return r.Aggregated(job, groups, values)
	})
}

func (d *RasterDataset) Pivot(horizontal, vertical, values []data.Column) Dataset {
	return d.derive(func(job *Job, r *Raster) (*Raster, error) {
		return r.Pivoted(job, horizontal, vertical, values)
	})
}

func (d *RasterDataset) Join(j Join) Dataset {
	return d.derive(func(job *Job, left *Raster) (*Raster, error) {
		var out *Raster
		var jerr error
		done := make(chan struct{})
		j.Foreign.Raster(job, func(right *Raster, err error) {
			defer close(done)
			if err != nil {
				jerr = err
				return
			}
			out, jerr = left.Joined(job, j, right)
		})
		<-done
		return out, jerr
	})
}

func (d *RasterDataset) Union(other Dataset) Dataset {
	return d.derive(func(job *Job, left *Raster) (*Raster, error) {
		var out *Raster
		var uerr error
		done := make(chan struct{})
		other.Raster(job, func(right *Raster, err error) {
			defer close(done)
			if err != nil {
				uerr = err
				return
			}
			out = left.Unioned(right)
		})
		<-done
		return out, uerr
	})
}

func (d *RasterDataset) Flatten(f Flatten) Dataset {
	return d.derive(func(job *Job, r *Raster) (*Raster, error) {
		return r.Flattened(job, f)
	})
}

func (d *RasterDataset) Transpose() Dataset {
	return d.derive(func(_ *Job, r *Raster) (*Raster, error) {
		return r.Transposed(), nil
	})
}
