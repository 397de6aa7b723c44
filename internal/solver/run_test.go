package solver

import (
	"context"
	"testing"

	"github.com/impactsim/sphcore/internal/equation"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/timestep"
)

func TestRunAdvanceSeparatesParticlesAndReachesDuration(t *testing.T) {
	mat := material.New("gas", 1.0, material.IdealGas{Gamma: 1.4})
	terms := []equation.Term{equation.NewPressureTerm()}
	s := twoParticleStorage(t, 1.0, terms, mat)
	sv := newTestSolver(terms)

	ctrl := timestep.NewController([]timestep.Criterion{
		timestep.CourantCriterion{C: 0.3},
	})
	run := &Run{
		Solver:     sv,
		Integrator: timestep.ExplicitEuler{},
		Controller: ctrl,
		DtMax:      0.01,
	}

	finalT, steps, err := run.Advance(context.Background(), s, scheduler.Sequential{}, 0.05)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if steps == 0 {
		t.Fatal("expected at least one sub-step")
	}
	if finalT < 0.05-1e-9 {
		t.Errorf("expected to reach duration 0.05, got %v after %d steps", finalT, steps)
	}

	pos, _ := s.GetVector(equation.Position)
	sep := pos.Value[1].X - pos.Value[0].X
	if sep <= 1.0 {
		t.Errorf("expected particles to separate under pressure, got sep=%v", sep)
	}
}

func TestRunAdvanceReportsFailureWhenInitialStateViolatesInvariant(t *testing.T) {
	mat := material.New("gas", 1.0, material.IdealGas{Gamma: 1.4})
	terms := []equation.Term{equation.NewPressureTerm()}
	s := twoParticleStorage(t, 1.0, terms, mat)
	sv := newTestSolver(terms)

	dens, _ := s.GetScalar(equation.Density)
	dens.Value[0] = -5 // already-violated invariant: the priming Solver.Step rejects it before any trial step

	ctrl := timestep.Controller{
		Criteria:     []timestep.Criterion{timestep.CourantCriterion{C: 0.3}},
		SafetyFactor: 0.9,
		MaxRetries:   1,
	}
	run := &Run{
		Solver:     sv,
		Integrator: timestep.ExplicitEuler{},
		Controller: ctrl,
		DtMax:      0.01,
	}

	_, _, err := run.Advance(context.Background(), s, scheduler.Sequential{}, 0.05)
	if err == nil {
		t.Fatal("expected Advance to fail when the invariant never recovers")
	}
}
