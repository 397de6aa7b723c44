package solver

import (
	"testing"

	"github.com/impactsim/sphcore/internal/equation"
	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/material"
)

func TestComputeSumsMassMomentumAndAngularMomentum(t *testing.T) {
	mat := material.New("gas", 1.0, material.IdealGas{Gamma: 1.4})
	terms := []equation.Term{equation.NewPressureTerm()}
	s := twoParticleStorage(t, 2.0, terms, mat)

	pos, _ := s.GetVector(equation.Position)
	pos.Dt[0] = geom.Vec{X: 0, Y: 1, Z: 0}
	pos.Dt[1] = geom.Vec{X: 0, Y: -1, Z: 0}

	d := Compute(s)
	if d.Mass != 2 {
		t.Errorf("expected total mass 2, got %v", d.Mass)
	}
	if d.Momentum.Y != 0 {
		t.Errorf("expected zero net momentum, got %v", d.Momentum.Y)
	}
	// L = m*(x cross v) summed; particle 0 at x=0 contributes 0, particle
	// 1 at x=(2,0,0) with v=(0,-1,0) contributes m*(x*vy - y*vx) = 1*(2*-1-0*0) = -2.
	if d.AngularMomentum.Z != -2 {
		t.Errorf("expected angular momentum z=-2, got %v", d.AngularMomentum.Z)
	}
	if d.KineticEnergy != 1 {
		t.Errorf("expected kinetic energy 1, got %v", d.KineticEnergy)
	}
}

func TestRelativeDriftIsZeroForIdenticalDiagnostics(t *testing.T) {
	d := Diagnostics{Mass: 5, Momentum: geom.Vec{X: 1}, AngularMomentum: geom.Vec{Z: 2}, KineticEnergy: 3}
	mass, mom, ang, en := RelativeDrift(d, d)
	if mass != 0 || mom != 0 || ang != 0 || en != 0 {
		t.Errorf("expected zero drift for identical diagnostics, got %v %v %v %v", mass, mom, ang, en)
	}
}

func TestRelativeDriftDetectsMomentumChange(t *testing.T) {
	before := Diagnostics{Momentum: geom.Vec{X: 1}}
	after := Diagnostics{Momentum: geom.Vec{X: 1.1}}
	_, mom, _, _ := RelativeDrift(before, after)
	if mom < 0.09 || mom > 0.11 {
		t.Errorf("expected ~10%% drift, got %v", mom)
	}
}
