package dataset

import (
	"sync"
	"time"
)

// Producer computes the value of a Future. It must deliver its result
// (possibly a partial one, when the job was cancelled mid-way) exactly
// once through deliver.
type Producer[T any] func(job *Job, deliver func(T))

// Future memoizes a one-shot asynchronous computation. The first Get
// triggers the producer; concurrent and later callers queue up and all
// receive the same value once it arrives.
//
// Cancel and Expire are distinct: Cancel drops every registered waiter
// (nobody is called back) and cancels the producing job; Expire only
// cancels the job, so a producer that delivers a partial result still
// reaches the waiters. An optional time limit expires the future
// automatically.
type Future[T any] struct {
	mu       sync.Mutex
	produce  Producer[T]
	timeout  time.Duration
	job      *Job
	timer    *time.Timer
	started  bool
	resolved bool
	dropped  bool
	value    T
	waiters  []func(T)
}

// NewFuture returns a future producing its value through produce on
// first demand.
func NewFuture[T any](produce Producer[T]) *Future[T] {
	return &Future[T]{produce: produce}
}

// NewTimedFuture is NewFuture with a time limit: if the producer has
// not delivered within limit of the first Get, the future expires.
func NewTimedFuture[T any](produce Producer[T], limit time.Duration) *Future[T] {
	return &Future[T]{produce: produce, timeout: limit}
}

// Get requests the value. callback runs exactly once with the result,
// unless the future is cancelled first, in which case it never runs.
func (f *Future[T]) Get(callback func(T)) {
	f.mu.Lock()
	if f.dropped {
		f.mu.Unlock()
		return
	}
	if f.resolved {
		v := f.value
		f.mu.Unlock()
		callback(v)
		return
	}
	f.waiters = append(f.waiters, callback)
	if f.started {
		f.mu.Unlock()
		return
	}
	f.started = true
	f.job = NewJob()
	job := f.job
	if f.timeout > 0 {
		f.timer = time.AfterFunc(f.timeout, f.Expire)
	}
	f.mu.Unlock()

	job.Async(func() {
		f.produce(job, f.satisfy)
	})
}

func (f *Future[T]) satisfy(v T) {
	f.mu.Lock()
	if f.resolved || f.dropped {
		f.mu.Unlock()
		return
	}
	f.resolved = true
	f.value = v
	waiters := f.waiters
	f.waiters = nil
	if f.timer != nil {
		f.timer.Stop()
	}
	f.mu.Unlock()

	for _, w := range waiters {
		w(v)
	}
}

// Resolved reports whether the value has been computed.
func (f *Future[T]) Resolved() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolved
}

// Cancel stops the computation and drops all waiters. After Cancel no
// callback will ever fire, and later Gets are ignored.
func (f *Future[T]) Cancel() {
	f.mu.Lock()
	f.dropped = true
	f.waiters = nil
	job := f.job
	if f.timer != nil {
		f.timer.Stop()
	}
	f.mu.Unlock()
	if job != nil {
		job.Cancel()
	}
}

// Expire asks the producer to stop computing but keeps the waiters: a
// producer that polls its job and delivers a partial result on
// cancellation still satisfies everyone already waiting.
func (f *Future[T]) Expire() {
	f.mu.Lock()
	job := f.job
	resolved := f.resolved
	f.mu.Unlock()
	if job != nil && !resolved {
		job.Cancel()
	}
}
