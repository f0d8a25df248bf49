package dataset

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_Memoizes(t *testing.T) {
	var runs atomic.Int32
	f := NewFuture(func(_ *Job, deliver func(int)) {
		runs.Add(1)
		deliver(42)
	})

	const callers = 10
	var wg sync.WaitGroup
	results := make([]int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		f.Get(func(v int) {
			results[i] = v
			wg.Done()
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), runs.Load(), "producer must run once")
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
	assert.True(t, f.Resolved())
}

func TestFuture_LateGetSeesValue(t *testing.T) {
	f := NewFuture(func(_ *Job, deliver func(string)) {
		deliver("done")
	})
	first := make(chan string, 1)
	f.Get(func(v string) { first <- v })
	require.Equal(t, "done", <-first)

	// A Get after resolution runs synchronously with the memoized
	// value.
	var late string
	f.Get(func(v string) { late = v })
	assert.Equal(t, "done", late)
}

func TestFuture_CancelDropsWaiters(t *testing.T) {
	release := make(chan struct{})
	f := NewFuture(func(_ *Job, deliver func(int)) {
		<-release
		deliver(1)
	})

	var called atomic.Bool
	f.Get(func(int) { called.Store(true) })
	f.Cancel()
	close(release)

	time.Sleep(50 * time.Millisecond)
	assert.False(t, called.Load(), "cancelled future must not call back")

	// Gets after cancellation are ignored too.
	f.Get(func(int) { called.Store(true) })
	time.Sleep(20 * time.Millisecond)
	assert.False(t, called.Load())
}

func TestFuture_ExpireStillDelivers(t *testing.T) {
	// A producer that polls its job and delivers a partial result on
	// cancellation still reaches waiters registered before Expire.
	started := make(chan struct{})
	f := NewFuture(func(job *Job, deliver func(int)) {
		close(started)
		for !job.Cancelled() {
			time.Sleep(time.Millisecond)
		}
		deliver(-1)
	})

	got := make(chan int, 1)
	f.Get(func(v int) { got <- v })
	<-started
	f.Expire()

	select {
	case v := <-got:
		assert.Equal(t, -1, v)
	case <-time.After(time.Second):
		t.Fatal("expired future never delivered the partial result")
	}
}

func TestFuture_Timeout(t *testing.T) {
	f := NewTimedFuture(func(job *Job, deliver func(int)) {
		for !job.Cancelled() {
			time.Sleep(time.Millisecond)
		}
		deliver(7)
	}, 20*time.Millisecond)

	got := make(chan int, 1)
	f.Get(func(v int) { got <- v })

	select {
	case v := <-got:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("timed future never expired")
	}
}

func TestJob_CancelAndProgress(t *testing.T) {
	j := NewJob()
	assert.NotEmpty(t, j.ID())
	assert.False(t, j.Cancelled())
	assert.Equal(t, 0.0, j.Progress())

	j.ReportProgress("a", 0.5)
	j.ReportProgress("b", 1.0)
	assert.InDelta(t, 0.75, j.Progress(), 1e-9)

	// Re-reporting a key overwrites, and fractions clamp to [0,1].
	j.ReportProgress("a", 2.0)
	assert.InDelta(t, 1.0, j.Progress(), 1e-9)

	j.Cancel()
	assert.True(t, j.Cancelled())
	j.Cancel()
	assert.True(t, j.Cancelled())
}

func TestJob_AsyncSkipsWhenCancelled(t *testing.T) {
	j := NewJob()
	j.Cancel()
	var ran atomic.Bool
	j.Async(func() { ran.Store(true) })
	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load())
}
