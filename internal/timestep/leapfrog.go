package timestep

import (
	"context"

	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

// Leapfrog is velocity-Verlet kick-drift-kick, generalized from the
// teacher's Verlet/Leapfrog pair (which packed position and velocity
// into one flat state vector) onto order-2 vector quantities, whose
// Value/Dt/D2t slots already play the role of position/velocity/
// acceleration:
//
//	v(t+dt/2) = v(t)      + 0.5*dt*a(t)
//	x(t+dt)   = x(t)      + dt*v(t+dt/2)
//	a(t+dt)   = [re-evaluated at x(t+dt)]
//	v(t+dt)   = v(t+dt/2) + 0.5*dt*a(t+dt)
//
// Order-0/1 quantities (density, energy, damage, ...) have no
// acceleration slot, so they fall back to a single forward-Euler drift
// using the derivative evaluated at t; only the kinematic (order-2)
// quantities get the full kick-drift-kick treatment.
type Leapfrog struct{}

func (Leapfrog) Step(ctx context.Context, sched scheduler.Runner, s *storage.Storage, t, dt float64, eval Evaluator) error {
	half := 0.5 * dt
	s.Iterate(kickVisitor{dt: half}) // v(t+dt/2), and drift x using the half-kicked v
	s.Iterate(driftVisitor{dt: dt})

	if err := eval(ctx, sched, s, t+dt); err != nil {
		return err
	}
	s.Iterate(kickVisitor{dt: half}) // v(t+dt)
	return nil
}

type kickVisitor struct{ dt float64 }

func (v kickVisitor) VisitScalar(id storage.QuantityID, q *storage.ScalarQuantity) {}
func (v kickVisitor) VisitVector(id storage.QuantityID, q *storage.VectorQuantity) {
	if q.Order() < 2 {
		return
	}
	for i := range q.Dt {
		q.Dt[i] = q.Dt[i].AddScaled(q.D2t[i], v.dt)
	}
}
func (v kickVisitor) VisitSymTensor(id storage.QuantityID, q *storage.SymTensorQuantity)    {}
func (v kickVisitor) VisitTraceless(id storage.QuantityID, q *storage.TracelessQuantity)    {}
func (v kickVisitor) VisitIndex(id storage.QuantityID, q *storage.IndexQuantity)            {}

type driftVisitor struct{ dt float64 }

func (v driftVisitor) VisitScalar(id storage.QuantityID, q *storage.ScalarQuantity) {
	if q.Order() == 0 {
		return
	}
	for i := range q.Value {
		q.Value[i] += q.Dt[i] * v.dt
	}
}
func (v driftVisitor) VisitVector(id storage.QuantityID, q *storage.VectorQuantity) {
	if q.Order() == 0 {
		return
	}
	for i := range q.Value {
		q.Value[i] = q.Value[i].AddScaled(q.Dt[i], v.dt)
	}
}
func (v driftVisitor) VisitSymTensor(id storage.QuantityID, q *storage.SymTensorQuantity) {
	if q.Order() == 0 {
		return
	}
	for i := range q.Value {
		q.Value[i] = q.Value[i].Add(q.Dt[i].Scale(v.dt))
	}
}
func (v driftVisitor) VisitTraceless(id storage.QuantityID, q *storage.TracelessQuantity) {
	if q.Order() == 0 {
		return
	}
	for i := range q.Value {
		q.Value[i] = q.Value[i].Add(q.Dt[i].Scale(v.dt))
	}
}
func (v driftVisitor) VisitIndex(id storage.QuantityID, q *storage.IndexQuantity) {}
