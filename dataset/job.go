package dataset

import (
	"sync"

	"github.com/google/uuid"
)

// Job is the cancellation and progress token threaded through every
// asynchronous operation. Cancelling a job sets a flag; it never aborts
// in-flight work. Cooperating code polls Cancelled at loop iterations
// and batch boundaries and stops early.
type Job struct {
	id string

	mu        sync.Mutex
	cancelled bool
	progress  map[string]float64
}

// NewJob returns a fresh, uncancelled job.
func NewJob() *Job {
	return &Job{
		id:       uuid.NewString(),
		progress: make(map[string]float64),
	}
}

// ID returns the job's unique identifier.
func (j *Job) ID() string { return j.id }

// Cancel marks the job cancelled. Safe to call more than once.
func (j *Job) Cancel() {
	j.mu.Lock()
	j.cancelled = true
	j.mu.Unlock()
}

// Cancelled reports whether Cancel has been called.
func (j *Job) Cancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

// ReportProgress records the progress fraction (in [0,1]) of one
// sub-task, keyed by the reporting task. Later reports for the same key
// overwrite earlier ones.
func (j *Job) ReportProgress(key string, fraction float64) {
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	j.mu.Lock()
	j.progress[key] = fraction
	j.mu.Unlock()
}

// Progress returns the mean of all reported sub-task fractions, or 0
// when nothing has reported yet.
func (j *Job) Progress() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.progress) == 0 {
		return 0
	}
	var sum float64
	for _, f := range j.progress {
		sum += f
	}
	return sum / float64(len(j.progress))
}

// Async dispatches fn onto the job's work queue and returns
// immediately. If the job is already cancelled, fn is not run.
func (j *Job) Async(fn func()) {
	if j.Cancelled() {
		return
	}
	go fn()
}
