// Package scheduler provides the parallelFor/parallelInvoke/submit
// abstraction the solver and derivative framework run under (§5
// Concurrency & Resource Model), generalizing the teacher's
// worker-chunked local-accumulator pattern into a reusable primitive.
package scheduler

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Runner is the common contract the solver depends on, satisfied by
// both the parallel [Scheduler] and the [Sequential] canonical
// implementation used for deterministic tests.
type Runner interface {
	WorkerCount() int
	RecommendedGranularity(n int) int
	ParallelFor(ctx context.Context, n int, fn func(thread, start, end int) error) error
	ParallelInvoke(ctx context.Context, fns ...func() error) error
	Submit(fn func() error) Handle
}

// Scheduler runs work across a fixed worker pool. The zero value is not
// usable; construct with New.
type Scheduler struct {
	workers int
}

var (
	_ Runner = (*Scheduler)(nil)
	_ Runner = Sequential{}
)

// New returns a Scheduler sized to the host's CPU count. workers <= 0
// selects runtime.NumCPU().
func New(workers int) *Scheduler {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scheduler{workers: workers}
}

// WorkerCount returns the configured parallelism.
func (s *Scheduler) WorkerCount() int { return s.workers }

// RecommendedGranularity returns a chunk size that divides n roughly
// evenly across the worker pool, the same chunking rule the teacher's
// nbodyParallel used directly.
func (s *Scheduler) RecommendedGranularity(n int) int {
	if s.workers <= 0 {
		return n
	}
	g := (n + s.workers - 1) / s.workers
	if g < 1 {
		g = 1
	}
	return g
}

// ParallelFor partitions [0, n) into worker-sized chunks and calls fn
// once per chunk with (threadIndex, start, end); fn must be safe to run
// concurrently with other chunks (distinct index ranges, and any shared
// accumulator buffer must be per-thread until a final merge, matching
// the teacher's localAx/localAy pattern). Below a small-N threshold the
// loop runs sequentially on the calling goroutine, avoiding goroutine
// spin-up overhead for tiny particle counts.
func (s *Scheduler) ParallelFor(ctx context.Context, n int, fn func(thread, start, end int) error) error {
	if n <= 0 {
		return nil
	}
	if n < 16 || s.workers <= 1 {
		return fn(0, 0, n)
	}

	chunk := s.RecommendedGranularity(n)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < s.workers; w++ {
		start := w * chunk
		if start >= n {
			break
		}
		end := start + chunk
		if end > n {
			end = n
		}
		thread := w
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fn(thread, start, end)
		})
	}
	return g.Wait()
}

// ParallelInvoke runs every fn concurrently and waits for all to finish,
// returning the first error any fn reports (errgroup keeps whichever
// error occurs first in time, not in argument order).
func (s *Scheduler) ParallelInvoke(ctx context.Context, fns ...func() error) error {
	g, _ := errgroup.WithContext(ctx)
	for _, fn := range fns {
		fn := fn
		g.Go(fn)
	}
	return g.Wait()
}

// Submit schedules a single unit of work without blocking the caller,
// returning a handle whose Wait blocks for completion.
type Handle struct{ done chan error }

// Wait blocks until the submitted work completes and returns its error.
func (h Handle) Wait() error { return <-h.done }

// Submit runs fn on a new goroutine, independent of ParallelFor/Invoke.
func (s *Scheduler) Submit(fn func() error) Handle {
	h := Handle{done: make(chan error, 1)}
	go func() { h.done <- fn() }()
	return h
}

// Sequential is the canonical, single-threaded implementation used as a
// correctness oracle and for deterministic unit tests: every method runs
// its work inline on the calling goroutine.
type Sequential struct{}

func (Sequential) WorkerCount() int { return 1 }

func (Sequential) RecommendedGranularity(n int) int { return n }

func (Sequential) ParallelFor(ctx context.Context, n int, fn func(thread, start, end int) error) error {
	if n <= 0 {
		return nil
	}
	return fn(0, 0, n)
}

func (Sequential) ParallelInvoke(ctx context.Context, fns ...func() error) error {
	for _, fn := range fns {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

func (Sequential) Submit(fn func() error) Handle {
	h := Handle{done: make(chan error, 1)}
	h.done <- fn()
	return h
}
