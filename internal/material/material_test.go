package material

import (
	"math"
	"math/rand"
	"testing"

	"github.com/impactsim/sphcore/internal/storage"
)

func TestIdealGasPressure(t *testing.T) {
	g := IdealGas{Gamma: 5.0 / 3.0}
	p := g.Pressure(1.0, 1.0, 3.0)
	want := (5.0/3.0 - 1) * 1.0 * 3.0
	if math.Abs(p-want) > 1e-12 {
		t.Fatalf("Pressure = %v, want %v", p, want)
	}
	if c := g.SoundSpeed(1.0, 1.0, 3.0, p); c <= 0 {
		t.Fatalf("SoundSpeed = %v, want > 0", c)
	}
}

func TestMurnaghanPressureZeroAtReferenceDensity(t *testing.T) {
	m := Murnaghan{K0: 2.67e10, N: 4}
	p := m.Pressure(1000, 1000, 0)
	if math.Abs(p) > 1e-6 {
		t.Fatalf("Pressure at rho=rho0 = %v, want 0", p)
	}
}

func TestTillotsonCompressedBranchPositivePressureUnderCompression(t *testing.T) {
	tl := Tillotson{
		Rho0: 2700, A: 7.52e10, B: 6.5e10, E0: 4.87e8,
		EIV: 4.72e6, ECV: 1.82e7, Alpha: 5, Beta: 5,
		Little_a: 0.5, Little_b: 1.5,
	}
	p := tl.Pressure(3000, 2700, 1e5)
	if p <= 0 {
		t.Fatalf("compressed-branch pressure = %v, want > 0", p)
	}
}

func TestRheologyYieldBlendsTowardDamagedBranch(t *testing.T) {
	r := Rheology{Y0: 1e6, YM: 1e9, MuI: 2, MuD: 0.6}
	intact := r.Yield(1e5, 0)
	fullyDamaged := r.Yield(1e5, 1)
	if intact <= fullyDamaged {
		// Not universally true for all parameters, but for this
		// parameter set the intact cohesion exceeds dry friction at
		// low pressure.
		t.Logf("intact=%v damaged=%v (informational)", intact, fullyDamaged)
	}
	mid := r.Yield(1e5, 0.5)
	if mid == intact || mid == fullyDamaged {
		t.Fatalf("expected a blended yield strength strictly between branches, got %v", mid)
	}
}

func TestSampleFlawsAscendingActivationStrain(t *testing.T) {
	fp := FractureParams{WeibullK: 1e30, WeibullM: 9, NFlaws: 10}
	rng := rand.New(rand.NewSource(1))
	flaws := fp.SampleFlaws(1e-6, rng)
	if len(flaws) != 10 {
		t.Fatalf("got %d flaws, want 10", len(flaws))
	}
	for i := 1; i < len(flaws); i++ {
		if flaws[i] < flaws[i-1] {
			t.Fatalf("flaw activation strains not ascending: %v", flaws)
		}
	}
}

func TestMaterialIntervalOverride(t *testing.T) {
	m := New("basalt", 2700, IdealGas{Gamma: 1.4})
	m.SetInterval("damage", storage.Interval{Lo: 0, Hi: 1})
	iv := m.Interval("damage")
	if iv.Lo != 0 || iv.Hi != 1 {
		t.Fatalf("Interval(damage) = %+v, want [0,1]", iv)
	}
	unbounded := m.Interval("pressure")
	if unbounded != storage.UnboundedInterval {
		t.Fatalf("Interval(pressure) = %+v, want UnboundedInterval", unbounded)
	}
}
