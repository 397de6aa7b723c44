package material

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/impactsim/sphcore/internal/storage"
)

// Rheology holds the yield-surface parameters for the von Mises /
// Drucker-Prager yielding term (§4.5).
type Rheology struct {
	Y0    float64 // cohesion / low-pressure yield strength
	YM    float64 // yield strength at infinite pressure (Drucker-Prager)
	MuI   float64 // internal friction coefficient
	MuD   float64 // damaged (dry-friction) internal friction coefficient
}

// Yield returns the Drucker-Prager yield strength at pressure p,
// blending toward the fully-damaged dry-friction branch by damage^3
// (§4.5 "damaged branch blended by D^3").
func (r Rheology) Yield(p, damage float64) float64 {
	intact := r.intactYield(p)
	if damage <= 0 {
		return intact
	}
	damaged := r.MuD * maxF(p, 0)
	w := damage * damage * damage
	return (1-w)*intact + w*damaged
}

func (r Rheology) intactYield(p float64) float64 {
	if p <= 0 {
		return r.Y0
	}
	denom := 1 + r.MuI*p/(r.YM-r.Y0)
	return r.Y0 + r.MuI*p/denom
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// FractureParams describes the Grady-Kipp flaw distribution for brittle
// fracture (§4.5): each particle is assigned NFlaws explicit activation
// strains taken from a Weibull(k, m) distribution.
type FractureParams struct {
	WeibullK float64 // shape-scaling coefficient k
	WeibullM float64 // Weibull modulus m
	NFlaws   int
	RayleighSoundSpeed float64 // c_g used in dD^(1/3)/dt = c_g/(kappa*h)
}

// SampleFlaws returns NFlaws ascending activation strain thresholds for
// a particle of volume vol. The count is always NFlaws; a larger volume
// lowers every threshold (weaker flaws). The thresholds are
// deterministic quantiles, so rng does not affect the result.
func (fp FractureParams) SampleFlaws(vol float64, rng *rand.Rand) []float64 {
	if fp.NFlaws <= 0 {
		return nil
	}
	flaws := make([]float64, fp.NFlaws)
	// Activation strain for the i-th of N flaws (ascending order): the
	// Weibull(m) quantile at i/(k*vol), capped below 1, which for small
	// i/(k*vol) is close to Benz & Asphaug's (1995) (i/(k*vol))^(1/m).
	dist := distuv.Weibull{K: fp.WeibullM, Lambda: 1, Src: rng}
	for i := 0; i < fp.NFlaws; i++ {
		rank := float64(i+1) / (fp.WeibullK * vol)
		flaws[i] = dist.Quantile(minF(rank, 0.999999))
	}
	return flaws
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Material packages an EOS, rheology, fracture parameters, reference
// density, and the per-quantity allowed intervals storage clamps
// quantities to after each step (§4.1).
type Material struct {
	name     string
	density0 float64
	eos      EOS
	rheology Rheology
	fracture FractureParams
	intervals map[storage.QuantityID]storage.Interval
}

// New constructs a Material with the given name, reference density and
// EOS; use WithRheology and WithFracture to attach rheology and
// fracture parameters, and SetInterval for interval overrides.
func New(name string, density0 float64, eos EOS) *Material {
	return &Material{
		name:      name,
		density0:  density0,
		eos:       eos,
		intervals: make(map[storage.QuantityID]storage.Interval),
	}
}

func (m *Material) Name() string { return m.name }

func (m *Material) Density0() float64 { return m.density0 }

func (m *Material) EOS() EOS { return m.eos }

func (m *Material) WithRheology(r Rheology) *Material {
	m.rheology = r
	return m
}

func (m *Material) Rheology() Rheology { return m.rheology }

func (m *Material) WithFracture(fp FractureParams) *Material {
	m.fracture = fp
	return m
}

func (m *Material) Fracture() FractureParams { return m.fracture }

// SetInterval overrides the allowed value interval for quantity id on
// particles of this material (e.g. damage in [0,1]).
func (m *Material) SetInterval(id storage.QuantityID, iv storage.Interval) {
	m.intervals[id] = iv
}

// Interval returns the allowed interval for id, or UnboundedInterval if
// this material declares no override.
func (m *Material) Interval(id storage.QuantityID) storage.Interval {
	if iv, ok := m.intervals[id]; ok {
		return iv
	}
	return storage.UnboundedInterval
}
