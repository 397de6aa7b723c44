package solver

import (
	"context"
	"time"

	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/simerr"
	"github.com/impactsim/sphcore/internal/storage"
	"github.com/impactsim/sphcore/internal/telemetry"
	"github.com/impactsim/sphcore/internal/timestep"
)

// Run drives a storage forward in time by repeated sub-steps (§4.8):
// propose a dt from the step criteria, advance with the chosen
// integrator, check invariants, and on failure halve dt and retry up to
// Controller.MaxRetries before giving up (§7).
type Run struct {
	Solver     *Solver
	Integrator timestep.Integrator
	Controller timestep.Controller
	DtMax      float64

	// AbortCheck is polled once per completed sub-step (§5's
	// cancellation model: the in-flight step always finishes first).
	AbortCheck func(t float64, step int) bool
	// OnStep, if set, is called after every accepted sub-step.
	OnStep func(t float64, step int, dt float64)

	// Metrics and Log are both optional; nil leaves a run unobserved.
	Metrics *telemetry.Metrics
	Log     telemetry.Logger
}

// Advance runs sub-steps until t reaches duration or AbortCheck fires,
// returning the final time and the number of sub-steps taken.
func (r *Run) Advance(ctx context.Context, s *storage.Storage, sched scheduler.Runner, duration float64) (float64, int, error) {
	t := 0.0
	steps := 0

	// Prime the derivative buffers so the first Integrator.Step call
	// finds s holding derivatives evaluated at (s, t) per its contract.
	if err := r.Solver.Step(ctx, sched, s, t); err != nil {
		return t, steps, err
	}

	for t < duration {
		budget := duration - t
		dtMax := r.DtMax
		if budget < dtMax {
			dtMax = budget
		}
		dt := r.Controller.Propose(s, dtMax)

		stepStart := time.Now()
		var lastErr error
		accepted := false
		for attempt := 0; attempt <= r.Controller.MaxRetries; attempt++ {
			trial := s.Clone(storage.CloneAllBuffers)
			if err := r.Integrator.Step(ctx, sched, trial, t, dt, r.Solver.Step); err != nil {
				lastErr = err
				dt = r.Controller.RetryHalved(dt)
				r.observeRetry(steps, t, dt, err)
				continue
			}
			if err := CheckInvariants(trial); err != nil {
				lastErr = err
				dt = r.Controller.RetryHalved(dt)
				r.observeRetry(steps, t, dt, err)
				continue
			}
			*s = *trial
			accepted = true
			break
		}
		if !accepted {
			if r.Metrics != nil {
				r.Metrics.ObserveAbort()
			}
			if r.Log.Logger != nil {
				r.Log.AbortEvent(steps, t, lastErr)
			}
			return t, steps, simerr.NewStepError(steps, t, lastErr)
		}

		t += dt
		steps++
		if r.Metrics != nil {
			r.Metrics.ObserveStep(time.Since(stepStart), s.Count())
		}
		if r.Log.Logger != nil {
			r.Log.StepEvent(steps, t, dt)
		}
		if r.OnStep != nil {
			r.OnStep(t, steps, dt)
		}

		// Re-evaluate derivatives at the new state so the next
		// iteration's criteria and integrator call see current rates.
		if err := r.Solver.Step(ctx, sched, s, t); err != nil {
			return t, steps, err
		}

		if r.AbortCheck != nil && r.AbortCheck(t, steps) {
			break
		}
	}
	return t, steps, nil
}

func (r *Run) observeRetry(step int, t, dt float64, err error) {
	if r.Metrics != nil {
		r.Metrics.ObserveRetry()
	}
	if r.Log.Logger != nil {
		r.Log.RetryEvent(step, t, dt, err)
	}
}
