package deriv

import (
	"gonum.org/v1/gonum/floats"

	"github.com/impactsim/sphcore/internal/geom"
)

// ScalarAccumulator is a per-thread scalar buffer set, one full-length
// slice per worker thread, summed into the canonical quantity buffer
// once the parallel pass completes. This is the generalized form of the
// teacher's localAx/localAy worker-chunked accumulation pattern (§4.4
// "per-thread accumulators").
type ScalarAccumulator struct {
	threads [][]float64
	n       int
}

// NewScalarAccumulator allocates threadCount zeroed buffers of length n.
func NewScalarAccumulator(threadCount, n int) *ScalarAccumulator {
	a := &ScalarAccumulator{threads: make([][]float64, threadCount), n: n}
	for t := range a.threads {
		a.threads[t] = make([]float64, n)
	}
	return a
}

// Add accumulates v into index i of thread's local buffer.
func (a *ScalarAccumulator) Add(thread, i int, v float64) {
	a.threads[thread][i] += v
}

// Reset zeroes every thread buffer.
func (a *ScalarAccumulator) Reset() {
	for _, buf := range a.threads {
		for i := range buf {
			buf[i] = 0
		}
	}
}

// MergeInto adds every thread's contributions into dst.
func (a *ScalarAccumulator) MergeInto(dst []float64) {
	for _, buf := range a.threads {
		floats.Add(dst, buf)
	}
}

// VectorAccumulator is the geom.Vec counterpart of ScalarAccumulator.
type VectorAccumulator struct {
	threads [][]geom.Vec
	n       int
}

func NewVectorAccumulator(threadCount, n int) *VectorAccumulator {
	a := &VectorAccumulator{threads: make([][]geom.Vec, threadCount), n: n}
	for t := range a.threads {
		a.threads[t] = make([]geom.Vec, n)
	}
	return a
}

func (a *VectorAccumulator) Add(thread, i int, v geom.Vec) {
	a.threads[thread][i] = a.threads[thread][i].AddScaled(v, 1)
}

func (a *VectorAccumulator) Reset() {
	for _, buf := range a.threads {
		for i := range buf {
			buf[i] = geom.Vec{}
		}
	}
}

func (a *VectorAccumulator) MergeInto(dst []geom.Vec) {
	for _, buf := range a.threads {
		for i, v := range buf {
			dst[i] = dst[i].AddScaled(v, 1)
		}
	}
}
