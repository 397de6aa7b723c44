package solver

import (
	"context"
	"testing"

	"github.com/impactsim/sphcore/internal/equation"
	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/kernel"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/neighbor"
	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

func newTestSolver(terms []equation.Term) *Solver {
	newFinder := func() neighbor.Finder { return &neighbor.BruteForce{} }
	return New(scheduler.Sequential{}, kernel.CubicSpline{}, newFinder, 2.0, terms)
}

func twoParticleStorage(t *testing.T, sep float64, terms []equation.Term, mat *material.Material) *storage.Storage {
	t.Helper()
	s := storage.New()
	if err := Bootstrap(s, mat, terms); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	s.Resize(2)
	pos, _ := s.GetVector(equation.Position)
	mass, _ := s.GetScalar(equation.Mass)
	pos.Value[0] = geom.Vec{X: 0, Y: 0, Z: 0, H: 1}
	pos.Value[1] = geom.Vec{X: sep, Y: 0, Z: 0, H: 1}
	mass.Value[0], mass.Value[1] = 1, 1
	if dens, err := s.GetScalar(equation.Density); err == nil {
		dens.Value[0], dens.Value[1] = 1, 1
	}
	if en, err := s.GetScalar(equation.Energy); err == nil {
		en.Value[0], en.Value[1] = 1, 1
	}
	return s
}

func TestBootstrapInsertsPositionAndMass(t *testing.T) {
	mat := material.New("gas", 1.0, material.IdealGas{Gamma: 1.4})
	terms := []equation.Term{equation.NewPressureTerm()}
	s := storage.New()
	if err := Bootstrap(s, mat, terms); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if !s.Has(equation.Position) {
		t.Error("expected Position to be inserted")
	}
	if !s.Has(equation.Mass) {
		t.Error("expected Mass to be inserted")
	}
	if !s.Has(equation.Density) {
		t.Error("expected term Create hooks to have run")
	}
}

func TestSolverStepPushesParticlesApartUnderPressure(t *testing.T) {
	mat := material.New("gas", 1.0, material.IdealGas{Gamma: 1.4})
	terms := []equation.Term{equation.NewPressureTerm()}
	s := twoParticleStorage(t, 1.0, terms, mat)
	sv := newTestSolver(terms)

	if err := sv.Step(context.Background(), scheduler.Sequential{}, s, 0); err != nil {
		t.Fatalf("Step: %v", err)
	}

	pos, _ := s.GetVector(equation.Position)
	if pos.D2t[0].X >= 0 {
		t.Errorf("expected particle 0 pushed in -X, got %v", pos.D2t[0].X)
	}
	if pos.D2t[1].X <= 0 {
		t.Errorf("expected particle 1 pushed in +X, got %v", pos.D2t[1].X)
	}
}

func TestSolverStepIsDeterministicAcrossRuns(t *testing.T) {
	mat := material.New("gas", 1.0, material.IdealGas{Gamma: 1.4})
	terms := []equation.Term{equation.NewPressureTerm()}
	s1 := twoParticleStorage(t, 1.0, terms, mat)
	s2 := twoParticleStorage(t, 1.0, terms, mat)
	sv := newTestSolver(terms)

	if err := sv.Step(context.Background(), scheduler.Sequential{}, s1, 0); err != nil {
		t.Fatalf("Step s1: %v", err)
	}
	if err := sv.Step(context.Background(), scheduler.Sequential{}, s2, 0); err != nil {
		t.Fatalf("Step s2: %v", err)
	}

	p1, _ := s1.GetVector(equation.Position)
	p2, _ := s2.GetVector(equation.Position)
	if p1.D2t[0] != p2.D2t[0] {
		t.Errorf("expected identical results, got %v vs %v", p1.D2t[0], p2.D2t[0])
	}
}

func TestCheckInvariantsRejectsNonPositiveSmoothingLength(t *testing.T) {
	s := storage.New()
	if _, err := s.InsertVector(equation.Position, 2, geom.Vec{}, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert position: %v", err)
	}
	s.Resize(1)
	pos, _ := s.GetVector(equation.Position)
	pos.Value[0] = geom.Vec{H: 0}
	if err := CheckInvariants(s); err == nil {
		t.Error("expected non-positive smoothing length to be rejected")
	}
}

func TestCheckInvariantsRejectsNonPositiveDensity(t *testing.T) {
	s := storage.New()
	if _, err := s.InsertVector(equation.Position, 2, geom.Vec{}, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert position: %v", err)
	}
	if _, err := s.InsertScalar(equation.Density, 0, 0, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert density: %v", err)
	}
	s.Resize(1)
	pos, _ := s.GetVector(equation.Position)
	pos.Value[0] = geom.Vec{H: 1}
	dens, _ := s.GetScalar(equation.Density)
	dens.Value[0] = -1
	if err := CheckInvariants(s); err == nil {
		t.Error("expected non-positive density to be rejected")
	}
}

func TestCheckInvariantsRejectsDamageOutOfRange(t *testing.T) {
	s := storage.New()
	if _, err := s.InsertVector(equation.Position, 2, geom.Vec{}, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert position: %v", err)
	}
	if _, err := s.InsertScalar(equation.Damage, 0, 0, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert damage: %v", err)
	}
	s.Resize(1)
	pos, _ := s.GetVector(equation.Position)
	pos.Value[0] = geom.Vec{H: 1}
	dmg, _ := s.GetScalar(equation.Damage)
	dmg.Value[0] = 1.5
	if err := CheckInvariants(s); err == nil {
		t.Error("expected out-of-range damage to be rejected")
	}
}

func TestCheckEnergyFloorRejectsEnergyBelowMaterialMinimum(t *testing.T) {
	mat := material.New("rock", 2700, material.IdealGas{Gamma: 1.4})
	mat.SetInterval(equation.Energy, storage.Interval{Lo: 10, Hi: storage.UnboundedInterval.Hi})
	s := storage.New()
	if _, err := s.InsertScalar(equation.Energy, 1, 0, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert energy: %v", err)
	}
	s.Resize(1)
	s.AddMaterial(mat)
	en, _ := s.GetScalar(equation.Energy)
	en.Value[0] = 5

	if err := CheckEnergyFloor(s, []*material.Material{mat}); err == nil {
		t.Error("expected energy below material floor to be rejected")
	}
}
