package kernel

import "math"

// Table precomputes (W, dW/dq) on a grid of q^2 values, avoiding a
// square root in the inner derivative loop (§4.3).
type Table struct {
	radiusSq float64
	invStep  float64
	w        []float64
	dw       []float64
}

// NewTable builds a lookup table with the given resolution (samples
// across [0, radius^2]).
func NewTable(k Kernel, samples int) *Table {
	if samples < 2 {
		samples = 2
	}
	radius := k.Radius()
	radiusSq := radius * radius
	t := &Table{
		radiusSq: radiusSq,
		invStep:  float64(samples-1) / radiusSq,
		w:        make([]float64, samples),
		dw:       make([]float64, samples),
	}
	for i := 0; i < samples; i++ {
		qSq := float64(i) / t.invStep
		q := math.Sqrt(qSq)
		t.w[i] = k.Value(q)
		t.dw[i] = k.Grad(q)
	}
	return t
}

// Lookup returns (W, dW/dq) at squared distance qSq via linear
// interpolation between samples; qSq outside [0, radius^2] returns zero.
func (t *Table) Lookup(qSq float64) (w, dw float64) {
	if qSq < 0 || qSq >= t.radiusSq {
		return 0, 0
	}
	f := qSq * t.invStep
	lo := int(f)
	if lo >= len(t.w)-1 {
		return t.w[len(t.w)-1], t.dw[len(t.dw)-1]
	}
	frac := f - float64(lo)
	w = t.w[lo] + frac*(t.w[lo+1]-t.w[lo])
	dw = t.dw[lo] + frac*(t.dw[lo+1]-t.dw[lo])
	return w, dw
}

// Symmetric averages kernel value/gradient evaluated at two different
// smoothing lengths h_i, h_j -- the symmetrization adapter required by
// §4.3 so neighbor pairs with asymmetric smoothing lengths still
// produce momentum-conserving pairwise forces.
type Symmetric struct {
	k Kernel
}

// NewSymmetric wraps a kernel with the gather-scatter-averaging
// symmetrization adapter.
func NewSymmetric(k Kernel) Symmetric { return Symmetric{k: k} }

// Value returns the average of W(r/hi)/hi^3 and W(r/hj)/hj^3, the
// standard symmetrized SPH kernel evaluation.
func (s Symmetric) Value(r, hi, hj float64) float64 {
	wi := s.k.Value(r/hi) / (hi * hi * hi)
	wj := s.k.Value(r/hj) / (hj * hj * hj)
	return 0.5 * (wi + wj)
}

// Grad returns the average of the two one-sided kernel gradients,
// each normalized by its own smoothing length to the (D+1) power.
func (s Symmetric) Grad(r, hi, hj float64) float64 {
	gi := s.k.Grad(r/hi) / (hi * hi * hi * hi)
	gj := s.k.Grad(r/hj) / (hj * hj * hj * hj)
	return 0.5 * (gi + gj)
}
