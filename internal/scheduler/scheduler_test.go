package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestParallelForCoversEveryIndex(t *testing.T) {
	s := New(4)
	const n = 1000
	var hits [n]int32
	err := s.ParallelFor(context.Background(), n, func(thread, start, end int) error {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ParallelFor returned error: %v", err)
	}
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, h)
		}
	}
}

func TestParallelForPropagatesError(t *testing.T) {
	s := New(4)
	boom := errBoom{}
	err := s.ParallelFor(context.Background(), 100, func(thread, start, end int) error {
		if thread == 1 {
			return boom
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected an error from a failing chunk")
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func TestSequentialRunsInline(t *testing.T) {
	var seq Sequential
	var order []int
	_ = seq.ParallelInvoke(context.Background(),
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return nil },
	)
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("sequential invoke did not run in order: %v", order)
	}
}
