// Package timestep advances a [storage.Storage] forward in time by one
// sub-step, using one of several explicit integration schemes, and
// selects the sub-step size via a set of stability criteria (§4.6,
// §4.7). The integrators generalize the teacher's flat-state-vector
// steppers (Euler/RK4/Verlet/Leapfrog) onto the tagged-union storage
// model: every quantity with derivative order >= 1 is advanced in
// place via the [storage.Visitor] pattern instead of packing/unpacking
// a dynamo.State slice.
package timestep

import (
	"context"

	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

// Evaluator recomputes every registered derivative at the state
// currently held in s, writing the results into each quantity's Dt/D2t
// buffers. The solver supplies this so multi-stage integrators can
// re-evaluate at intermediate times and states.
type Evaluator func(ctx context.Context, sched scheduler.Runner, s *storage.Storage, t float64) error

// Integrator advances s from t to t+dt. On entry, s's derivative
// buffers hold the derivatives evaluated at (s, t); Step may call eval
// additional times at trial states it constructs internally.
type Integrator interface {
	Step(ctx context.Context, sched scheduler.Runner, s *storage.Storage, t, dt float64, eval Evaluator) error
}

// advanceEuler applies one explicit-Euler update to every order>=1
// quantity: Value += Dt*dt, and for order-2 quantities also Dt +=
// D2t*dt. Shared by ExplicitEuler and as the predictor stage of
// PredictorCorrector.
func advanceEuler(s *storage.Storage, dt float64) {
	s.Iterate(eulerVisitor{dt: dt})
}

type eulerVisitor struct{ dt float64 }

func (v eulerVisitor) VisitScalar(id storage.QuantityID, q *storage.ScalarQuantity) {
	if q.Order() == 0 {
		return
	}
	for i := range q.Value {
		q.Value[i] += q.Dt[i] * v.dt
	}
}

func (v eulerVisitor) VisitVector(id storage.QuantityID, q *storage.VectorQuantity) {
	if q.Order() == 0 {
		return
	}
	for i := range q.Value {
		q.Value[i] = q.Value[i].AddScaled(q.Dt[i], v.dt)
	}
	if q.Order() >= 2 {
		for i := range q.Dt {
			q.Dt[i] = q.Dt[i].AddScaled(q.D2t[i], v.dt)
		}
	}
}

func (v eulerVisitor) VisitSymTensor(id storage.QuantityID, q *storage.SymTensorQuantity) {
	if q.Order() == 0 {
		return
	}
	for i := range q.Value {
		q.Value[i] = q.Value[i].Add(q.Dt[i].Scale(v.dt))
	}
}

func (v eulerVisitor) VisitTraceless(id storage.QuantityID, q *storage.TracelessQuantity) {
	if q.Order() == 0 {
		return
	}
	for i := range q.Value {
		q.Value[i] = q.Value[i].Add(q.Dt[i].Scale(v.dt))
	}
}

func (v eulerVisitor) VisitIndex(id storage.QuantityID, q *storage.IndexQuantity) {}
