package timestep

import (
	"context"

	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

// ExplicitEuler is the simplest, least accurate integrator: a single
// forward-Euler update using the derivatives already evaluated at
// (s, t). Mirrors the teacher's Euler.Step.
type ExplicitEuler struct{}

func (ExplicitEuler) Step(ctx context.Context, sched scheduler.Runner, s *storage.Storage, t, dt float64, eval Evaluator) error {
	advanceEuler(s, dt)
	return nil
}

// PredictorCorrector predicts a trial state with forward Euler,
// re-evaluates derivatives there, then corrects using the average of
// the derivatives at t and t+dt (Heun's method / RK2 trapezoidal form).
type PredictorCorrector struct{}

func (PredictorCorrector) Step(ctx context.Context, sched scheduler.Runner, s *storage.Storage, t, dt float64, eval Evaluator) error {
	k1 := s.Clone(storage.CloneAllBuffers)
	advanceEuler(s, dt)
	if err := eval(ctx, sched, s, t+dt); err != nil {
		return err
	}
	s.Iterate(averageVisitor{other: k1, weight: 0.5, dt: dt})
	return nil
}

// averageVisitor recomputes Value (and, for order-2 quantities, Dt)
// from the pre-predict snapshot held in `other`, using the trapezoidal
// average of the derivative at t (other.Dt/D2t) and the corrector's
// freshly re-evaluated derivative still sitting on q (the predicted
// state's own Dt is untouched by a derivative re-evaluation, so it
// still holds the predictor's rate). Building forward from the
// snapshot rather than undoing q's predictor step in place avoids
// rebasing the velocity update on an already-advanced rate.
type averageVisitor struct {
	other  *storage.Storage
	weight float64
	dt     float64
}

func (v averageVisitor) VisitScalar(id storage.QuantityID, q *storage.ScalarQuantity) {
	if q.Order() == 0 {
		return
	}
	prev, err := v.other.GetScalar(id)
	if err != nil {
		return
	}
	for i := range q.Value {
		avg := 0.5 * (prev.Dt[i] + q.Dt[i])
		q.Value[i] = prev.Value[i] + avg*v.dt
	}
}

func (v averageVisitor) VisitVector(id storage.QuantityID, q *storage.VectorQuantity) {
	if q.Order() == 0 {
		return
	}
	prev, err := v.other.GetVector(id)
	if err != nil {
		return
	}
	for i := range q.Value {
		avgVel := prev.Dt[i].AddScaled(q.Dt[i], 1).Scale(0.5)
		q.Value[i] = prev.Value[i].AddScaled(avgVel, v.dt)
	}
	if q.Order() >= 2 {
		for i := range q.Dt {
			avgAcc := prev.D2t[i].AddScaled(q.D2t[i], 1).Scale(0.5)
			q.Dt[i] = prev.Dt[i].AddScaled(avgAcc, v.dt)
		}
	}
}

func (v averageVisitor) VisitSymTensor(id storage.QuantityID, q *storage.SymTensorQuantity) {
	if q.Order() == 0 {
		return
	}
	prev, err := v.other.GetSymTensor(id)
	if err != nil {
		return
	}
	for i := range q.Value {
		avg := prev.Dt[i].Add(q.Dt[i]).Scale(0.5)
		q.Value[i] = prev.Value[i].Add(avg.Scale(v.dt))
	}
}

func (v averageVisitor) VisitTraceless(id storage.QuantityID, q *storage.TracelessQuantity) {
	if q.Order() == 0 {
		return
	}
	prev, err := v.other.GetTraceless(id)
	if err != nil {
		return
	}
	for i := range q.Value {
		avg := prev.Dt[i].Add(q.Dt[i]).Scale(0.5)
		q.Value[i] = prev.Value[i].Add(avg.Scale(v.dt))
	}
}

func (v averageVisitor) VisitIndex(id storage.QuantityID, q *storage.IndexQuantity) {}
