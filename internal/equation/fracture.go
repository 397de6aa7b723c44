package equation

import (
	"context"
	"math"
	"math/rand"

	"github.com/impactsim/sphcore/internal/deriv"
	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

// activeFlawsID stores, per particle, the count of the material's
// sampled Weibull flaws whose activation strain has been exceeded;
// it is bookkeeping state, not a physical field, so it lives outside
// the equation.go quantity-id block.
const activeFlawsID storage.QuantityID = "__active_flaws"

// FractureTerm implements Grady-Kipp brittle fracture (Benz & Asphaug
// 1995): each particle carries a set of Weibull-distributed flaw
// activation strains sampled at Create time; whenever the local scalar
// strain exceeds a flaw's threshold that flaw activates, and damage
// grows at the crack-growth rate c_g/(kappa*h) toward the fraction of
// the particle's flaws that are active, reaching 1 only once all of
// them are (§4.5).
type FractureTerm struct {
	Params material.FractureParams
	Kappa  float64
	Rand   *rand.Rand

	flaws [][]float64 // per-particle sorted ascending activation strains
	d     *fractureDerivative
}

func NewFractureTerm(params material.FractureParams, kappa float64, rng *rand.Rand) *FractureTerm {
	return &FractureTerm{Params: params, Kappa: kappa, Rand: rng, d: &fractureDerivative{}}
}

func (t *FractureTerm) Create(s *storage.Storage, mat *material.Material) error {
	if _, err := s.InsertScalar(Damage, 0, 0, storage.Unique, storage.Interval{Lo: 0, Hi: 1}); err != nil {
		return err
	}
	if _, err := s.InsertIndex(activeFlawsID, 0, storage.Unique); err != nil {
		return err
	}
	n := s.Count()
	t.flaws = make([][]float64, n)
	mass, err := s.GetScalar(Mass)
	if err == nil {
		for i := 0; i < n; i++ {
			vol := mass.Value[i] / mat.Density0()
			t.flaws[i] = t.Params.SampleFlaws(vol, t.Rand)
		}
	}
	t.d.fracture = t
	t.d.kappa = t.Kappa
	t.d.cg = t.Params.RayleighSoundSpeed
	return nil
}

func (t *FractureTerm) Derivatives() []deriv.Derivative { return []deriv.Derivative{t.d} }

func (t *FractureTerm) Initialize(context.Context, scheduler.Runner, *storage.Storage, float64) error {
	return nil
}

func (t *FractureTerm) Finalize(context.Context, scheduler.Runner, *storage.Storage, float64) error {
	return nil
}

// fractureDerivative activates flaws against the local scalar strain
// (estimated from the strain-rate tensor's largest principal value,
// since no explicit strain history is tracked) and grows damage when
// any flaw is active. A per-particle gather-form, PRECOMPUTE phase
// derivative so damage is available before the stress divergence and
// yielding terms run.
type fractureDerivative struct {
	fracture *FractureTerm
	kappa    float64
	cg       float64

	pos      *storage.VectorQuantity
	damage   *storage.ScalarQuantity
	active   *storage.IndexQuantity
	strain   *storage.SymTensorQuantity
}

func (d *fractureDerivative) Phase() deriv.Phase { return deriv.Precompute }
func (d *fractureDerivative) Symmetric() bool    { return false }
func (d *fractureDerivative) Equals(other deriv.Derivative) bool {
	_, ok := other.(*fractureDerivative)
	return ok
}

func (d *fractureDerivative) Init(s *storage.Storage, threads int) error {
	var err error
	if d.pos, err = s.GetVector(Position); err != nil {
		return err
	}
	if d.damage, err = s.GetScalar(Damage); err != nil {
		return err
	}
	if d.active, err = s.GetIndex(activeFlawsID); err != nil {
		return err
	}
	d.strain, err = s.GetSymTensor(strainRateID)
	return err
}

func (d *fractureDerivative) EvalPair(thread, i, j int, r float64, grad geom.Vec) {}
func (d *fractureDerivative) EvalGather(thread, i int, neighbors []int, grads []geom.Vec) {}

// Flush runs the per-particle flaw activation and damage growth; it
// has no neighbor dependency so it is done here rather than in
// EvalGather.
func (d *fractureDerivative) Flush(s *storage.Storage) error {
	if d.strain == nil {
		return nil
	}
	for i := range d.damage.Value {
		if i >= len(d.fracture.flaws) {
			continue
		}
		values, _ := d.strain.Value[i].EigenDecompose()
		maxStrain := values[0]
		for _, v := range values {
			if v > maxStrain {
				maxStrain = v
			}
		}
		flaws := d.fracture.flaws[i]
		count := 0
		for _, threshold := range flaws {
			if maxStrain >= threshold {
				count++
			}
		}
		if count > d.active.Value[i] {
			d.active.Value[i] = count
		}
		if d.active.Value[i] == 0 || len(flaws) == 0 {
			continue
		}
		h := d.pos.Value[i].H
		if h <= 0 || d.kappa <= 0 {
			continue
		}
		fracFraction := float64(d.active.Value[i]) / float64(len(flaws))
		target := fracFraction
		growthRate := d.cg / (d.kappa * h)
		cur := math.Cbrt(d.damage.Value[i])
		targetCube := math.Cbrt(target)
		if cur < targetCube {
			cur += growthRate
			if cur > targetCube {
				cur = targetCube
			}
		}
		d.damage.Value[i] = cur * cur * cur
	}
	return nil
}
