package timestep

import (
	"context"

	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

// RK4 is the classical 4th-order Runge-Kutta method, generalized from
// the teacher's flat-vector RK4.Step onto storage quantities: each
// stage snapshots the state, advances it by a trial Euler step scaled
// by the stage's sub-interval, re-evaluates the derivative there, and
// the four stage derivatives are combined with the usual 1/6,2/6,2/6,1/6
// weights.
type RK4 struct{}

func (RK4) Step(ctx context.Context, sched scheduler.Runner, s *storage.Storage, t, dt float64, eval Evaluator) error {
	base := s.Clone(storage.CloneAllBuffers) // x(t) and k1 = f(x(t), t)
	k1 := s.Clone(storage.CloneAllBuffers)

	// stage 2: x + dt/2 * k1, evaluated at t+dt/2
	advanceEuler(s, 0.5*dt)
	if err := eval(ctx, sched, s, t+0.5*dt); err != nil {
		return err
	}
	k2 := s.Clone(storage.CloneAllBuffers)

	// stage 3: x + dt/2 * k2, evaluated at t+dt/2
	s.Iterate(restoreVisitor{from: base})
	s.Iterate(rateAdvanceVisitor{rate: k2, dt: 0.5 * dt})
	if err := eval(ctx, sched, s, t+0.5*dt); err != nil {
		return err
	}
	k3 := s.Clone(storage.CloneAllBuffers)

	// stage 4: x + dt * k3, evaluated at t+dt
	s.Iterate(restoreVisitor{from: base})
	s.Iterate(rateAdvanceVisitor{rate: k3, dt: dt})
	if err := eval(ctx, sched, s, t+dt); err != nil {
		return err
	}
	k4 := s.Clone(storage.CloneAllBuffers)

	s.Iterate(restoreVisitor{from: base})
	s.Iterate(rk4CombineVisitor{k1: k1, k2: k2, k3: k3, k4: k4, dt: dt})
	return nil
}

// restoreVisitor overwrites q's Value (and, for order-2 vector
// quantities, Dt, which holds velocity state there) with the snapshot
// held in `from`, used to reset to x(t) before trying the next RK stage.
type restoreVisitor struct{ from *storage.Storage }

func (v restoreVisitor) VisitScalar(id storage.QuantityID, q *storage.ScalarQuantity) {
	prev, err := v.from.GetScalar(id)
	if err != nil {
		return
	}
	copy(q.Value, prev.Value)
}

func (v restoreVisitor) VisitVector(id storage.QuantityID, q *storage.VectorQuantity) {
	prev, err := v.from.GetVector(id)
	if err != nil {
		return
	}
	copy(q.Value, prev.Value)
	if q.Order() >= 2 {
		copy(q.Dt, prev.Dt)
	}
}

func (v restoreVisitor) VisitSymTensor(id storage.QuantityID, q *storage.SymTensorQuantity) {
	prev, err := v.from.GetSymTensor(id)
	if err != nil {
		return
	}
	copy(q.Value, prev.Value)
}

func (v restoreVisitor) VisitTraceless(id storage.QuantityID, q *storage.TracelessQuantity) {
	prev, err := v.from.GetTraceless(id)
	if err != nil {
		return
	}
	copy(q.Value, prev.Value)
}

func (v restoreVisitor) VisitIndex(id storage.QuantityID, q *storage.IndexQuantity) {}

// rateAdvanceVisitor advances q, assumed already restored to x(t) by a
// prior restoreVisitor pass, using an external stage snapshot's Dt/D2t
// as the rate: Value moves by rate.Dt*dt, and for order-2 quantities
// Dt moves by rate.D2t*dt starting from q's own (just-restored, original)
// Dt rather than the rate snapshot's. Conflating the two would advance
// velocity from the wrong base.
type rateAdvanceVisitor struct {
	rate *storage.Storage
	dt   float64
}

func (v rateAdvanceVisitor) VisitScalar(id storage.QuantityID, q *storage.ScalarQuantity) {
	if q.Order() == 0 {
		return
	}
	rate, err := v.rate.GetScalar(id)
	if err != nil {
		return
	}
	for i := range q.Value {
		q.Value[i] += rate.Dt[i] * v.dt
	}
}

func (v rateAdvanceVisitor) VisitVector(id storage.QuantityID, q *storage.VectorQuantity) {
	if q.Order() == 0 {
		return
	}
	rate, err := v.rate.GetVector(id)
	if err != nil {
		return
	}
	for i := range q.Value {
		q.Value[i] = q.Value[i].AddScaled(rate.Dt[i], v.dt)
	}
	if q.Order() >= 2 {
		for i := range q.Dt {
			q.Dt[i] = q.Dt[i].AddScaled(rate.D2t[i], v.dt)
		}
	}
}

func (v rateAdvanceVisitor) VisitSymTensor(id storage.QuantityID, q *storage.SymTensorQuantity) {
	if q.Order() == 0 {
		return
	}
	rate, err := v.rate.GetSymTensor(id)
	if err != nil {
		return
	}
	for i := range q.Value {
		q.Value[i] = q.Value[i].Add(rate.Dt[i].Scale(v.dt))
	}
}

func (v rateAdvanceVisitor) VisitTraceless(id storage.QuantityID, q *storage.TracelessQuantity) {
	if q.Order() == 0 {
		return
	}
	rate, err := v.rate.GetTraceless(id)
	if err != nil {
		return
	}
	for i := range q.Value {
		q.Value[i] = q.Value[i].Add(rate.Dt[i].Scale(v.dt))
	}
}

func (v rateAdvanceVisitor) VisitIndex(id storage.QuantityID, q *storage.IndexQuantity) {}

// rk4CombineVisitor applies x(t+dt) = x(t) + dt/6*(k1+2k2+2k3+k4) using
// the four stage snapshots, restoring q to x(t) must have already run.
type rk4CombineVisitor struct {
	k1, k2, k3, k4 *storage.Storage
	dt             float64
}

func (v rk4CombineVisitor) VisitScalar(id storage.QuantityID, q *storage.ScalarQuantity) {
	if q.Order() == 0 {
		return
	}
	k1, err1 := v.k1.GetScalar(id)
	k2, err2 := v.k2.GetScalar(id)
	k3, err3 := v.k3.GetScalar(id)
	k4, err4 := v.k4.GetScalar(id)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return
	}
	dt6 := v.dt / 6.0
	for i := range q.Value {
		q.Value[i] += dt6 * (k1.Dt[i] + 2*k2.Dt[i] + 2*k3.Dt[i] + k4.Dt[i])
	}
}

func (v rk4CombineVisitor) VisitVector(id storage.QuantityID, q *storage.VectorQuantity) {
	if q.Order() == 0 {
		return
	}
	k1, err1 := v.k1.GetVector(id)
	k2, err2 := v.k2.GetVector(id)
	k3, err3 := v.k3.GetVector(id)
	k4, err4 := v.k4.GetVector(id)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return
	}
	dt6 := v.dt / 6.0
	for i := range q.Value {
		rate := k1.Dt[i].AddScaled(k2.Dt[i], 2).AddScaled(k3.Dt[i], 2).AddScaled(k4.Dt[i], 1)
		q.Value[i] = q.Value[i].AddScaled(rate, dt6)
	}
	if q.Order() >= 2 {
		for i := range q.Dt {
			rate := k1.D2t[i].AddScaled(k2.D2t[i], 2).AddScaled(k3.D2t[i], 2).AddScaled(k4.D2t[i], 1)
			q.Dt[i] = q.Dt[i].AddScaled(rate, dt6)
		}
	}
}

func (v rk4CombineVisitor) VisitSymTensor(id storage.QuantityID, q *storage.SymTensorQuantity) {
	if q.Order() == 0 {
		return
	}
	k1, err1 := v.k1.GetSymTensor(id)
	k2, err2 := v.k2.GetSymTensor(id)
	k3, err3 := v.k3.GetSymTensor(id)
	k4, err4 := v.k4.GetSymTensor(id)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return
	}
	dt6 := v.dt / 6.0
	for i := range q.Value {
		rate := k1.Dt[i].Add(k2.Dt[i].Scale(2)).Add(k3.Dt[i].Scale(2)).Add(k4.Dt[i])
		q.Value[i] = q.Value[i].Add(rate.Scale(dt6))
	}
}

func (v rk4CombineVisitor) VisitTraceless(id storage.QuantityID, q *storage.TracelessQuantity) {
	if q.Order() == 0 {
		return
	}
	k1, err1 := v.k1.GetTraceless(id)
	k2, err2 := v.k2.GetTraceless(id)
	k3, err3 := v.k3.GetTraceless(id)
	k4, err4 := v.k4.GetTraceless(id)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return
	}
	dt6 := v.dt / 6.0
	for i := range q.Value {
		rate := k1.Dt[i].Add(k2.Dt[i].Scale(2)).Add(k3.Dt[i].Scale(2)).Add(k4.Dt[i])
		q.Value[i] = q.Value[i].Add(rate.Scale(dt6))
	}
}

func (v rk4CombineVisitor) VisitIndex(id storage.QuantityID, q *storage.IndexQuantity) {}
