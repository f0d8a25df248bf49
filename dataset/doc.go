// Package dataset provides the relational transform surface and its two
// in-process execution strategies.
//
// A Dataset is a description of tabular data plus the operations that
// derive new tabular data from it: filter, sort, limit, offset, random
// sampling, distinct, calculated columns, projection, aggregation,
// pivot, join, union, flatten and transpose. Every operation returns a
// new Dataset; the receiver is never mutated.
//
// Two engines implement the interface here:
//
//   - RasterDataset materializes everything into an in-memory Raster
//     (ordered columns, ordered row tuples) and applies each operation
//     directly. Joins are parallelized across row chunks.
//   - StreamDataset pulls row batches from a Stream and applies the
//     operations that can run incrementally (filter, limit, offset,
//     reservoir sampling, calculate, projection, flatten, join) as
//     stream transformers. Operations that need the whole input (sort,
//     aggregate, pivot, distinct, union, transpose) drain the stream
//     into a Raster first and continue there.
//
// # Basic Usage
//
// Build a raster, derive a result, and collect it:
//
//	r := dataset.NewRaster(
//	    []data.Column{"a", "b"},
//	    []data.Tuple{
//	        {data.Int(1), data.String("x")},
//	        {data.Int(2), data.String("y")},
//	    },
//	    true,
//	)
//
//	cond, _, _ := formula.Parse("=[@a]>1", formula.DefaultLocale())
//	out := dataset.NewRasterDataset(r).Filter(cond).Limit(10)
//
//	job := dataset.NewJob()
//	out.Raster(job, func(result *dataset.Raster, err error) {
//	    // ...
//	})
//
// # Asynchrony, Jobs and Futures
//
// Operations that do real work deliver their results through callbacks
// rather than blocking the caller. A Job carries a cancellation flag
// and aggregated progress through the whole call chain; long loops and
// batch boundaries poll Job.Cancelled and stop early. A Future memoizes
// a one-shot asynchronous computation so that concurrent and repeated
// requests share a single execution.
//
// # Streams
//
// A Stream is a single-use cursor over row batches of at most BatchSize
// rows. Fetch delivers exactly one batch per call; the sink's hasMore
// flag tells the consumer whether another Fetch is worthwhile. Clone
// produces an independent cursor rewound to the start.
package dataset
