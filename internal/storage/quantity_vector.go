package storage

import "github.com/impactsim/sphcore/internal/geom"

// VectorQuantity stores 4-wide vectors such as position (order 2: value,
// velocity, acceleration) or any order-0/1 vector field.
type VectorQuantity struct {
	id       QuantityID
	order    int
	mode     AllocMode
	interval Interval
	Value    []geom.Vec
	Dt       []geom.Vec
	D2t      []geom.Vec
}

func newVectorQuantity(id QuantityID, order int, n int, init geom.Vec, mode AllocMode, iv Interval) *VectorQuantity {
	q := &VectorQuantity{id: id, order: order, mode: mode, interval: iv}
	q.Value = fillV(n, init)
	if order >= 1 {
		q.Dt = make([]geom.Vec, n)
	}
	if order >= 2 {
		q.D2t = make([]geom.Vec, n)
	}
	return q
}

func fillV(n int, v geom.Vec) []geom.Vec {
	s := make([]geom.Vec, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func (q *VectorQuantity) ID() QuantityID       { return q.id }
func (q *VectorQuantity) Kind() ValueKind      { return KindVector }
func (q *VectorQuantity) Order() int           { return q.order }
func (q *VectorQuantity) Len() int             { return len(q.Value) }
func (q *VectorQuantity) AllocMode() AllocMode { return q.mode }
func (q *VectorQuantity) Interval() Interval   { return q.interval }

func (q *VectorQuantity) resize(n int) {
	q.Value = resizeV(q.Value, n)
	if q.order >= 1 {
		q.Dt = resizeV(q.Dt, n)
	}
	if q.order >= 2 {
		q.D2t = resizeV(q.D2t, n)
	}
}

func resizeV(s []geom.Vec, n int) []geom.Vec {
	if len(s) >= n {
		return s[:n]
	}
	out := make([]geom.Vec, n)
	copy(out, s)
	return out
}

func (q *VectorQuantity) removeIndices(sorted []int) {
	q.Value = removeV(q.Value, sorted)
	if q.order >= 1 {
		q.Dt = removeV(q.Dt, sorted)
	}
	if q.order >= 2 {
		q.D2t = removeV(q.D2t, sorted)
	}
}

func removeV(s []geom.Vec, sorted []int) []geom.Vec {
	if len(sorted) == 0 {
		return s
	}
	out := make([]geom.Vec, 0, len(s)-len(sorted))
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

func (q *VectorQuantity) cloneFiltered(filter CloneFilter) Quantity {
	c := &VectorQuantity{id: q.id, order: q.order, mode: q.mode, interval: q.interval}
	switch filter {
	case CloneStateOnly:
		c.Value = append([]geom.Vec(nil), q.Value...)
		if q.order >= 1 {
			c.Dt = make([]geom.Vec, len(q.Dt))
		}
		if q.order >= 2 {
			c.D2t = make([]geom.Vec, len(q.D2t))
		}
	case CloneHighestDerivativesOnly:
		switch q.order {
		case 2:
			c.Value = make([]geom.Vec, len(q.Value))
			c.Dt = make([]geom.Vec, len(q.Dt))
			c.D2t = append([]geom.Vec(nil), q.D2t...)
		case 1:
			c.Value = make([]geom.Vec, len(q.Value))
			c.Dt = append([]geom.Vec(nil), q.Dt...)
		default:
			c.Value = append([]geom.Vec(nil), q.Value...)
		}
	default:
		c.Value = append([]geom.Vec(nil), q.Value...)
		if q.order >= 1 {
			c.Dt = append([]geom.Vec(nil), q.Dt...)
		}
		if q.order >= 2 {
			c.D2t = append([]geom.Vec(nil), q.D2t...)
		}
	}
	return c
}

func (q *VectorQuantity) swapBuffers(other Quantity, subset BufferSubset) error {
	o, ok := other.(*VectorQuantity)
	if !ok {
		return &ErrTypeMismatch{ID: q.id, Got: other.Kind(), Want: KindVector}
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

func (q *VectorQuantity) zeroHighestDerivative() {
	switch q.order {
	case 0:
		for i := range q.Value {
			q.Value[i] = geom.Vec{}
		}
	case 1:
		for i := range q.Dt {
			q.Dt[i] = geom.Vec{}
		}
	case 2:
		for i := range q.D2t {
			q.D2t[i] = geom.Vec{}
		}
	}
}

// clampToInterval clamps only the first three (physical) lanes; the
// smoothing-length lane H is governed separately by the adaptive
// smoothing-length equation term, never by a generic interval clamp.
func (q *VectorQuantity) clampToInterval() {
	for i, v := range q.Value {
		q.Value[i] = geom.Vec{
			X: q.interval.Clamp(v.X),
			Y: q.interval.Clamp(v.Y),
			Z: q.interval.Clamp(v.Z),
			H: v.H,
		}
	}
}

func (q *VectorQuantity) accept(id QuantityID, v Visitor) { v.VisitVector(id, q) }
