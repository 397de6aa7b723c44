// Package solver implements the one-sub-step derivative orchestration
// the time-stepping integrators call into (§4.7): zero the highest
// derivatives, build the neighbor finder, run each equation term's
// Initialize hook, drive the PRECOMPUTE/EVALUATE/POSTCOMPUTE derivative
// phases over neighbor pairs, flush accumulators, run Finalize, clamp
// to material intervals, and check invariants.
package solver

import (
	"context"

	"github.com/impactsim/sphcore/internal/deriv"
	"github.com/impactsim/sphcore/internal/equation"
	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/kernel"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/neighbor"
	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/simerr"
	"github.com/impactsim/sphcore/internal/storage"
)

// Solver bundles everything a sub-step needs: the term/derivative
// registry, the kernel, a way to build a neighbor finder each step, and
// the worker scheduler.
type Solver struct {
	Scheduler scheduler.Runner
	Kernel    kernel.Symmetric
	NewFinder func() neighbor.Finder
	Kappa     float64 // neighbor search radius multiplier, query radius = Kappa*h_i

	Terms  []equation.Term
	Holder *deriv.Holder
}

// New builds a Solver from its term set, registering every term's
// derivatives into a deduplicated holder (§4.4, §4.7 step 3).
func New(sched scheduler.Runner, kern kernel.Kernel, newFinder func() neighbor.Finder, kappa float64, terms []equation.Term) *Solver {
	holder := deriv.NewHolder()
	for _, t := range terms {
		for _, d := range t.Derivatives() {
			holder.Require(d)
		}
	}
	return &Solver{
		Scheduler: sched,
		Kernel:    kernel.NewSymmetric(kern),
		NewFinder: newFinder,
		Kappa:     kappa,
		Terms:     terms,
		Holder:    holder,
	}
}

// Bootstrap declares the Position and Mass quantities every derivative
// assumes exist, then runs every term's Create hook against mat. No
// Term.Create declares these two on its own since they are not owned by
// any single physical law (§4.1, §4.5).
func Bootstrap(s *storage.Storage, mat *material.Material, terms []equation.Term) error {
	if _, err := s.InsertVector(equation.Position, 2, geom.Vec{}, storage.Unique, storage.UnboundedInterval); err != nil {
		return err
	}
	if _, err := s.InsertScalar(equation.Mass, 0, 0, storage.Unique, storage.Interval{Lo: 0, Hi: storage.UnboundedInterval.Hi}); err != nil {
		return err
	}
	for _, t := range terms {
		if err := t.Create(s, mat); err != nil {
			return simerr.NewStepError(0, 0, err)
		}
	}
	return nil
}

// Step executes one sub-step's derivative evaluation (§4.7): it does
// not advance Value buffers itself (that is the time-stepping
// integrator's job, driven through this func as an Evaluator) — it
// only (re)computes the highest-derivative accumulators at the given
// state and time.
func (sv *Solver) Step(ctx context.Context, sched scheduler.Runner, s *storage.Storage, t float64) error {
	s.ZeroHighestDerivatives()

	pos, err := s.GetVector(equation.Position)
	if err != nil {
		return simerr.NewStepError(0, t, err)
	}
	points := pos.Value
	finder := sv.NewFinder()
	finder.Build(points)

	for _, term := range sv.Terms {
		if err := term.Initialize(ctx, sched, s, t); err != nil {
			return simerr.NewStepError(0, t, err)
		}
	}

	threads := sched.WorkerCount()
	if threads < 1 {
		threads = 1
	}
	for _, d := range sv.Holder.All() {
		if err := d.Init(s, threads); err != nil {
			return simerr.NewStepError(0, t, err)
		}
	}

	for _, phase := range []deriv.Phase{deriv.Precompute, deriv.Evaluate, deriv.Postcompute} {
		phaseDerivs := sv.Holder.ByPhase(phase)
		if len(phaseDerivs) == 0 {
			continue
		}
		if err := sv.runPhase(ctx, sched, s, points, finder, phaseDerivs); err != nil {
			return simerr.NewStepError(0, t, err)
		}
		for _, d := range phaseDerivs {
			if err := d.Flush(s); err != nil {
				return simerr.NewStepError(0, t, err)
			}
		}
	}

	for i := len(sv.Terms) - 1; i >= 0; i-- {
		if err := sv.Terms[i].Finalize(ctx, sched, s, t); err != nil {
			return simerr.NewStepError(0, t, err)
		}
	}

	s.ClampToIntervals()
	return CheckInvariants(s)
}
