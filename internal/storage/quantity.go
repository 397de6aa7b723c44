package storage

import (
	"math"

	"github.com/impactsim/sphcore/internal/geom"
)

// Quantity is the common, type-erased contract every concrete quantity
// (scalar/vector/tensor/index) satisfies so Storage can hold them in one
// ordered map. Mutating methods are unexported: only Storage, in this
// package, drives resize/remove/clone/swap.
type Quantity interface {
	ID() QuantityID
	Kind() ValueKind
	Order() int
	Len() int
	AllocMode() AllocMode
	Interval() Interval

	resize(n int)
	removeIndices(sorted []int)
	cloneFiltered(filter CloneFilter) Quantity
	swapBuffers(other Quantity, subset BufferSubset) error
	zeroHighestDerivative()
	clampToInterval()
	accept(id QuantityID, v Visitor)
}

// Visitor dispatches on value-type tag (§9 design note: tagged union +
// visitor, not per-particle dynamic dispatch).
type Visitor interface {
	VisitScalar(id QuantityID, q *ScalarQuantity)
	VisitVector(id QuantityID, q *VectorQuantity)
	VisitSymTensor(id QuantityID, q *SymTensorQuantity)
	VisitTraceless(id QuantityID, q *TracelessQuantity)
	VisitIndex(id QuantityID, q *IndexQuantity)
}

// ScalarQuantity stores scalar values such as density, pressure, energy.
type ScalarQuantity struct {
	id       QuantityID
	order    int
	mode     AllocMode
	interval Interval
	Value    []float64
	Dt       []float64
	D2t      []float64
}

func newScalarQuantity(id QuantityID, order int, n int, init float64, mode AllocMode, iv Interval) *ScalarQuantity {
	q := &ScalarQuantity{id: id, order: order, mode: mode, interval: iv}
	q.Value = fillF(n, init)
	if order >= 1 {
		q.Dt = make([]float64, n)
	}
	if order >= 2 {
		q.D2t = make([]float64, n)
	}
	return q
}

func fillF(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func (q *ScalarQuantity) ID() QuantityID      { return q.id }
func (q *ScalarQuantity) Kind() ValueKind     { return KindScalar }
func (q *ScalarQuantity) Order() int          { return q.order }
func (q *ScalarQuantity) Len() int            { return len(q.Value) }
func (q *ScalarQuantity) AllocMode() AllocMode { return q.mode }
func (q *ScalarQuantity) Interval() Interval  { return q.interval }

func (q *ScalarQuantity) resize(n int) {
	q.Value = resizeF(q.Value, n)
	if q.order >= 1 {
		q.Dt = resizeF(q.Dt, n)
	}
	if q.order >= 2 {
		q.D2t = resizeF(q.D2t, n)
	}
}

func resizeF(s []float64, n int) []float64 {
	if len(s) >= n {
		return s[:n]
	}
	out := make([]float64, n)
	copy(out, s)
	return out
}

func (q *ScalarQuantity) removeIndices(sorted []int) {
	q.Value = removeF(q.Value, sorted)
	if q.order >= 1 {
		q.Dt = removeF(q.Dt, sorted)
	}
	if q.order >= 2 {
		q.D2t = removeF(q.D2t, sorted)
	}
}

func removeF(s []float64, sorted []int) []float64 {
	if len(sorted) == 0 {
		return s
	}
	out := make([]float64, 0, len(s)-len(sorted))
	skip := 0
	for i, v := range s {
		if skip < len(sorted) && sorted[skip] == i {
			skip++
			continue
		}
		out = append(out, v)
	}
	return out
}

func (q *ScalarQuantity) cloneFiltered(filter CloneFilter) Quantity {
	c := &ScalarQuantity{id: q.id, order: q.order, mode: q.mode, interval: q.interval}
	switch filter {
	case CloneStateOnly:
		c.Value = append([]float64(nil), q.Value...)
		if q.order >= 1 {
			c.Dt = make([]float64, len(q.Dt))
		}
		if q.order >= 2 {
			c.D2t = make([]float64, len(q.D2t))
		}
	case CloneHighestDerivativesOnly:
		c.Value = make([]float64, len(q.Value))
		if q.order >= 1 {
			c.Dt = make([]float64, len(q.Dt))
		}
		if q.order >= 2 {
			c.D2t = append([]float64(nil), q.D2t...)
		} else if q.order == 1 {
			c.Dt = append([]float64(nil), q.Dt...)
		} else {
			c.Value = append([]float64(nil), q.Value...)
		}
	default: // CloneAllBuffers
		c.Value = append([]float64(nil), q.Value...)
		if q.order >= 1 {
			c.Dt = append([]float64(nil), q.Dt...)
		}
		if q.order >= 2 {
			c.D2t = append([]float64(nil), q.D2t...)
		}
	}
	return c
}

func (q *ScalarQuantity) swapBuffers(other Quantity, subset BufferSubset) error {
	o, ok := other.(*ScalarQuantity)
	if !ok {
		return &ErrTypeMismatch{ID: q.id, Got: other.Kind(), Want: KindScalar}
	}
	if subset == SwapAll || subset == SwapValue {
		q.Value, o.Value = o.Value, q.Value
	}
	if q.order >= 1 && (subset == SwapAll || subset == SwapDt) {
		q.Dt, o.Dt = o.Dt, q.Dt
	}
	if q.order >= 2 && (subset == SwapAll || subset == SwapD2t) {
		q.D2t, o.D2t = o.D2t, q.D2t
	}
	return nil
}

// zeroHighestDerivative resets the outputs the derivative pipeline
// writes to an additive identity, per §4.1 zeroHighestDerivatives.
func (q *ScalarQuantity) zeroHighestDerivative() {
	switch q.order {
	case 0:
		for i := range q.Value {
			q.Value[i] = 0
		}
	case 1:
		for i := range q.Dt {
			q.Dt[i] = 0
		}
	case 2:
		for i := range q.D2t {
			q.D2t[i] = 0
		}
	}
}

func (q *ScalarQuantity) clampToInterval() {
	for i, v := range q.Value {
		q.Value[i] = q.interval.Clamp(v)
	}
}

func (q *ScalarQuantity) accept(id QuantityID, v Visitor) { v.VisitScalar(id, q) }

// IsFinite reports whether the Value buffer holds only finite values
// (Dt and D2t are not checked), used by the invariant-violation
// diagnostics pass (§7).
func (q *ScalarQuantity) IsFinite() bool {
	for _, v := range q.Value {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
