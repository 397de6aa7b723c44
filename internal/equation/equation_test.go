package equation

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

func twoParticleStorage(t *testing.T, sep float64) *storage.Storage {
	t.Helper()
	s := storage.New()
	if _, err := s.InsertVector(Position, 2, geom.Vec{}, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert position: %v", err)
	}
	if _, err := s.InsertScalar(Mass, 0, 1.0, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert mass: %v", err)
	}
	s.Resize(2)
	pos, _ := s.GetVector(Position)
	mass, _ := s.GetScalar(Mass)
	pos.Value[0] = geom.Vec{X: 0, Y: 0, Z: 0, H: 1}
	pos.Value[1] = geom.Vec{X: sep, Y: 0, Z: 0, H: 1}
	mass.Value[0], mass.Value[1] = 1, 1
	return s
}

func TestPressureTermCreateInsertsQuantities(t *testing.T) {
	s := twoParticleStorage(t, 1.0)
	mat := material.New("rock", 2700, material.IdealGas{Gamma: 1.4})
	term := NewPressureTerm()
	if err := term.Create(s, mat); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, id := range []storage.QuantityID{Density, Pressure, Energy, SoundSpeed} {
		if !s.Has(id) {
			t.Errorf("expected quantity %s to be created", id)
		}
	}
}

func TestPressureTermInitializeWritesEOSOutputs(t *testing.T) {
	s := twoParticleStorage(t, 1.0)
	mat := material.New("gas", 1.0, material.IdealGas{Gamma: 1.4})
	term := NewPressureTerm()
	if err := term.Create(s, mat); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dens, _ := s.GetScalar(Density)
	en, _ := s.GetScalar(Energy)
	dens.Value[0], dens.Value[1] = 1.0, 1.0
	en.Value[0], en.Value[1] = 2.0, 2.0

	if err := term.Initialize(context.Background(), scheduler.Sequential{}, s, 0); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	pres, _ := s.GetScalar(Pressure)
	if pres.Value[0] <= 0 {
		t.Errorf("expected positive pressure, got %v", pres.Value[0])
	}
}

func TestPressureGradientDerivativePushesParticlesApart(t *testing.T) {
	s := twoParticleStorage(t, 1.0)
	mat := material.New("gas", 1.0, material.IdealGas{Gamma: 1.4})
	term := NewPressureTerm()
	if err := term.Create(s, mat); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dens, _ := s.GetScalar(Density)
	dens.Value[0], dens.Value[1] = 1.0, 1.0
	en, _ := s.GetScalar(Energy)
	en.Value[0], en.Value[1] = 1.0, 1.0
	if err := term.Initialize(context.Background(), scheduler.Sequential{}, s, 0); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	d := term.Derivatives()[0]
	if err := d.Init(s, 1); err != nil {
		t.Fatalf("Init: %v", err)
	}
	grad := geom.Vec{X: 1, Y: 0, Z: 0}
	d.EvalPair(0, 0, 1, 1.0, grad)
	if err := d.Flush(s); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	pos, _ := s.GetVector(Position)
	if pos.D2t[0].X >= 0 {
		t.Errorf("expected particle 0 pushed in -X, got %v", pos.D2t[0].X)
	}
	if pos.D2t[1].X <= 0 {
		t.Errorf("expected particle 1 pushed in +X, got %v", pos.D2t[1].X)
	}
}

func TestContinuityDerivativeApproachingParticlesIncreaseDensity(t *testing.T) {
	s := twoParticleStorage(t, 1.0)
	if _, err := s.InsertScalar(Density, 1, 1.0, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert density: %v", err)
	}
	term := NewContinuityTerm()
	if err := term.Create(s, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	d := term.Derivatives()[0]
	if err := d.Init(s, 1); err != nil {
		t.Fatalf("Init: %v", err)
	}
	pos, _ := s.GetVector(Position)
	pos.Dt[0] = geom.Vec{X: 1} // particle 0 moving toward particle 1
	pos.Dt[1] = geom.Vec{X: 0}
	grad := geom.Vec{X: 1, Y: 0, Z: 0}
	d.EvalPair(0, 0, 1, 1.0, grad)
	if err := d.Flush(s); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	dens, _ := s.GetScalar(Density)
	if dens.Dt[0] <= 0 {
		t.Errorf("expected density of approaching particle to increase, got %v", dens.Dt[0])
	}
}

func TestArtificialViscosityIsZeroForSeparatingParticles(t *testing.T) {
	s := twoParticleStorage(t, 1.0)
	if _, err := s.InsertScalar(Density, 1, 1.0, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert density: %v", err)
	}
	if _, err := s.InsertScalar(SoundSpeed, 0, 1.0, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert sound speed: %v", err)
	}
	if _, err := s.InsertScalar(Energy, 1, 0, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert energy: %v", err)
	}
	term := NewArtificialViscosityTerm(Standard, 1.0, 2.0, false)
	mat := material.New("rock", 1.0, material.IdealGas{Gamma: 1.4})
	if err := term.Create(s, mat); err != nil {
		t.Fatalf("Create: %v", err)
	}
	d := term.Derivatives()[0]
	if err := d.Init(s, 1); err != nil {
		t.Fatalf("Init: %v", err)
	}
	pos, _ := s.GetVector(Position)
	pos.Dt[0] = geom.Vec{X: -1} // particles separating
	pos.Dt[1] = geom.Vec{X: 1}
	grad := geom.Vec{X: 1, Y: 0, Z: 0}
	d.EvalPair(0, 0, 1, 1.0, grad)
	if err := d.Flush(s); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	pos2, _ := s.GetVector(Position)
	if pos2.D2t[0].X != 0 || pos2.D2t[1].X != 0 {
		t.Errorf("expected no viscous force between separating particles, got %v %v", pos2.D2t[0], pos2.D2t[1])
	}
}

func TestYieldingTermProjectsOntoYieldSurface(t *testing.T) {
	s := storage.New()
	if _, err := s.InsertTraceless(Stress, 1, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert stress: %v", err)
	}
	if _, err := s.InsertScalar(Pressure, 0, 0, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert pressure: %v", err)
	}
	if _, err := s.InsertScalar(Damage, 0, 0, storage.Unique, storage.Interval{Lo: 0, Hi: 1}); err != nil {
		t.Fatalf("insert damage: %v", err)
	}
	s.Resize(1)
	stress, _ := s.GetTraceless(Stress)
	big := geom.NewTracelessTensor(geom.SymTensor{XX: 10, YY: -5, ZZ: -5})
	stress.Value[0] = big

	rheo := material.Rheology{Y0: 1.0, YM: 2.0, MuI: 0.5, MuD: 0.3}
	term := NewYieldingTerm(rheo)
	if err := term.Finalize(context.Background(), scheduler.Sequential{}, s, 0); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	vonMises := math.Sqrt(3 * stress.Value[0].J2())
	if vonMises > rheo.Y0*1.0001 {
		t.Errorf("expected stress projected to yield surface near %v, got von Mises %v", rheo.Y0, vonMises)
	}
}

func TestFractureTermActivatesFlawsUnderStrain(t *testing.T) {
	s := twoParticleStorage(t, 1.0)
	if _, err := s.InsertSymTensor(strainRateID, 0, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert strain: %v", err)
	}
	params := material.FractureParams{WeibullK: 1e10, WeibullM: 8, NFlaws: 4, RayleighSoundSpeed: 1000}
	rng := rand.New(rand.NewSource(1))
	term := NewFractureTerm(params, 1.5, rng)
	mat := material.New("basalt", 2900, material.IdealGas{Gamma: 1.4})
	if err := term.Create(s, mat); err != nil {
		t.Fatalf("Create: %v", err)
	}
	d := term.Derivatives()[0]
	if err := d.Init(s, 1); err != nil {
		t.Fatalf("Init: %v", err)
	}
	strain, _ := s.GetSymTensor(strainRateID)
	strain.Value[0] = geom.SymTensor{XX: 10} // very large strain, should exceed all flaws
	if err := d.Flush(s); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	damage, _ := s.GetScalar(Damage)
	if damage.Value[0] <= 0 {
		t.Errorf("expected damage to grow under large strain, got %v", damage.Value[0])
	}
}
