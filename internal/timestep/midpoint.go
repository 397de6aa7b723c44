package timestep

import (
	"context"

	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

// ModifiedMidpoint is the explicit midpoint rule (2nd-order RK):
// advance a half-step with the derivative at t, re-evaluate there, then
// advance the full step from x(t) using the midpoint derivative.
type ModifiedMidpoint struct{}

func (ModifiedMidpoint) Step(ctx context.Context, sched scheduler.Runner, s *storage.Storage, t, dt float64, eval Evaluator) error {
	base := s.Clone(storage.CloneAllBuffers)

	advanceEuler(s, 0.5*dt)
	if err := eval(ctx, sched, s, t+0.5*dt); err != nil {
		return err
	}
	mid := s.Clone(storage.CloneAllBuffers)

	s.Iterate(restoreVisitor{from: base})
	s.Iterate(rateAdvanceVisitor{rate: mid, dt: dt})
	return nil
}
