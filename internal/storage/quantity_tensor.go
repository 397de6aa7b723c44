package storage

import "github.com/impactsim/sphcore/internal/geom"

// SymTensorQuantity stores symmetric tensor fields (e.g. strain rate).
type SymTensorQuantity struct {
	id       QuantityID
	order    int
	mode     AllocMode
	interval Interval
	Value    []geom.SymTensor
	Dt       []geom.SymTensor
}

func newSymTensorQuantity(id QuantityID, order int, n int, mode AllocMode, iv Interval) *SymTensorQuantity {
	q := &SymTensorQuantity{id: id, order: order, mode: mode, interval: iv}
	q.Value = make([]geom.SymTensor, n)
	if order >= 1 {
		q.Dt = make([]geom.SymTensor, n)
	}
	return q
}

func (q *SymTensorQuantity) ID() QuantityID       { return q.id }
func (q *SymTensorQuantity) Kind() ValueKind      { return KindSymTensor }
func (q *SymTensorQuantity) Order() int           { return q.order }
func (q *SymTensorQuantity) Len() int             { return len(q.Value) }
func (q *SymTensorQuantity) AllocMode() AllocMode { return q.mode }
func (q *SymTensorQuantity) Interval() Interval   { return q.interval }

func (q *SymTensorQuantity) resize(n int) {
	q.Value = resizeSym(q.Value, n)
	if q.order >= 1 {
		q.Dt = resizeSym(q.Dt, n)
	}
}

func resizeSym(s []geom.SymTensor, n int) []geom.SymTensor {
	if len(s) >= n {
		return s[:n]
	}
	out := make([]geom.SymTensor, n)
	copy(out, s)
	return out
}

func (q *SymTensorQuantity) removeIndices(sorted []int) {
	q.Value = removeSym(q.Value, sorted)
	if q.order >= 1 {
		q.Dt = removeSym(q.Dt, sorted)
	}
}

func removeSym(s []geom.SymTensor, sorted []int) []geom.SymTensor {
	if len(sorted) == 0 {
		return s
	}
	out := make([]geom.SymTensor, 0, len(s)-len(sorted))
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

func (q *SymTensorQuantity) cloneFiltered(filter CloneFilter) Quantity {
	c := &SymTensorQuantity{id: q.id, order: q.order, mode: q.mode, interval: q.interval}
	switch filter {
	case CloneStateOnly:
		c.Value = append([]geom.SymTensor(nil), q.Value...)
		if q.order >= 1 {
			c.Dt = make([]geom.SymTensor, len(q.Dt))
		}
	case CloneHighestDerivativesOnly:
		if q.order >= 1 {
			c.Value = make([]geom.SymTensor, len(q.Value))
			c.Dt = append([]geom.SymTensor(nil), q.Dt...)
		} else {
			c.Value = append([]geom.SymTensor(nil), q.Value...)
		}
	default:
		c.Value = append([]geom.SymTensor(nil), q.Value...)
		if q.order >= 1 {
			c.Dt = append([]geom.SymTensor(nil), q.Dt...)
		}
	}
	return c
}

func (q *SymTensorQuantity) swapBuffers(other Quantity, subset BufferSubset) error {
	o, ok := other.(*SymTensorQuantity)
	if !ok {
		return &ErrTypeMismatch{ID: q.id, Got: other.Kind(), Want: KindSymTensor}
	}
	if subset == SwapAll || subset == SwapValue {
		q.Value, o.Value = o.Value, q.Value
	}
	if q.order >= 1 && (subset == SwapAll || subset == SwapDt) {
		q.Dt, o.Dt = o.Dt, q.Dt
	}
	return nil
}

func (q *SymTensorQuantity) zeroHighestDerivative() {
	if q.order >= 1 {
		for i := range q.Dt {
			q.Dt[i] = geom.SymTensor{}
		}
		return
	}
	for i := range q.Value {
		q.Value[i] = geom.SymTensor{}
	}
}

func (q *SymTensorQuantity) clampToInterval() {}

func (q *SymTensorQuantity) accept(id QuantityID, v Visitor) { v.VisitSymTensor(id, q) }

// TracelessQuantity stores the deviatoric stress field S (§4.5).
type TracelessQuantity struct {
	id       QuantityID
	order    int
	mode     AllocMode
	interval Interval
	Value    []geom.TracelessTensor
	Dt       []geom.TracelessTensor
}

func newTracelessQuantity(id QuantityID, order int, n int, mode AllocMode, iv Interval) *TracelessQuantity {
	q := &TracelessQuantity{id: id, order: order, mode: mode, interval: iv}
	q.Value = make([]geom.TracelessTensor, n)
	if order >= 1 {
		q.Dt = make([]geom.TracelessTensor, n)
	}
	return q
}

func (q *TracelessQuantity) ID() QuantityID       { return q.id }
func (q *TracelessQuantity) Kind() ValueKind      { return KindTraceless }
func (q *TracelessQuantity) Order() int           { return q.order }
func (q *TracelessQuantity) Len() int             { return len(q.Value) }
func (q *TracelessQuantity) AllocMode() AllocMode { return q.mode }
func (q *TracelessQuantity) Interval() Interval   { return q.interval }

func (q *TracelessQuantity) resize(n int) {
	q.Value = resizeTrl(q.Value, n)
	if q.order >= 1 {
		q.Dt = resizeTrl(q.Dt, n)
	}
}

func resizeTrl(s []geom.TracelessTensor, n int) []geom.TracelessTensor {
	if len(s) >= n {
		return s[:n]
	}
	out := make([]geom.TracelessTensor, n)
	copy(out, s)
	return out
}

func (q *TracelessQuantity) removeIndices(sorted []int) {
	q.Value = removeTrl(q.Value, sorted)
	if q.order >= 1 {
		q.Dt = removeTrl(q.Dt, sorted)
	}
}

func removeTrl(s []geom.TracelessTensor, sorted []int) []geom.TracelessTensor {
	if len(sorted) == 0 {
		return s
	}
	out := make([]geom.TracelessTensor, 0, len(s)-len(sorted))
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

func (q *TracelessQuantity) cloneFiltered(filter CloneFilter) Quantity {
	c := &TracelessQuantity{id: q.id, order: q.order, mode: q.mode, interval: q.interval}
	switch filter {
	case CloneStateOnly:
		c.Value = append([]geom.TracelessTensor(nil), q.Value...)
		if q.order >= 1 {
			c.Dt = make([]geom.TracelessTensor, len(q.Dt))
		}
	case CloneHighestDerivativesOnly:
		if q.order >= 1 {
			c.Value = make([]geom.TracelessTensor, len(q.Value))
			c.Dt = append([]geom.TracelessTensor(nil), q.Dt...)
		} else {
			c.Value = append([]geom.TracelessTensor(nil), q.Value...)
		}
	default:
		c.Value = append([]geom.TracelessTensor(nil), q.Value...)
		if q.order >= 1 {
			c.Dt = append([]geom.TracelessTensor(nil), q.Dt...)
		}
	}
	return c
}

func (q *TracelessQuantity) swapBuffers(other Quantity, subset BufferSubset) error {
	o, ok := other.(*TracelessQuantity)
	if !ok {
		return &ErrTypeMismatch{ID: q.id, Got: other.Kind(), Want: KindTraceless}
	}
	if subset == SwapAll || subset == SwapValue {
		q.Value, o.Value = o.Value, q.Value
	}
	if q.order >= 1 && (subset == SwapAll || subset == SwapDt) {
		q.Dt, o.Dt = o.Dt, q.Dt
	}
	return nil
}

func (q *TracelessQuantity) zeroHighestDerivative() {
	if q.order >= 1 {
		for i := range q.Dt {
			q.Dt[i] = geom.TracelessTensor{}
		}
		return
	}
	for i := range q.Value {
		q.Value[i] = geom.TracelessTensor{}
	}
}

func (q *TracelessQuantity) clampToInterval() {}

func (q *TracelessQuantity) accept(id QuantityID, v Visitor) { v.VisitTraceless(id, q) }
