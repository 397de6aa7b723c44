package equation

import (
	"context"
	"math"

	"github.com/impactsim/sphcore/internal/deriv"
	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

// ViscosityVariant selects one of the three artificial-viscosity
// formulations (§4.5).
type ViscosityVariant int

const (
	Standard ViscosityVariant = iota
	Riemann
	MorrisMonaghan
)

// ArtificialViscosityTerm applies one of three Pi_ij formulations to
// the momentum and energy equations (§4.5). The Balsara flag is stored
// on the derivative but not applied: Pi_ij is never scaled by
// BalsaraSwitch.
type ArtificialViscosityTerm struct {
	Variant      ViscosityVariant
	Alpha, Beta  float64
	Epsilon      float64 // regularization in mu_ij, default ~0.01
	Balsara      bool
	d            *viscosityDerivative
}

func NewArtificialViscosityTerm(variant ViscosityVariant, alpha, beta float64, balsara bool) *ArtificialViscosityTerm {
	return &ArtificialViscosityTerm{
		Variant: variant, Alpha: alpha, Beta: beta, Epsilon: 0.01, Balsara: balsara,
		d: &viscosityDerivative{},
	}
}

func (t *ArtificialViscosityTerm) Create(s *storage.Storage, mat *material.Material) error {
	if t.Variant == MorrisMonaghan {
		if _, err := s.InsertScalar(AVAlpha, 1, t.Alpha, storage.Unique, storage.Interval{Lo: 0, Hi: t.Alpha}); err != nil {
			return err
		}
	}
	t.d.variant = t.Variant
	t.d.alpha, t.d.beta, t.d.eps, t.d.balsara = t.Alpha, t.Beta, t.Epsilon, t.Balsara
	return nil
}

func (t *ArtificialViscosityTerm) Derivatives() []deriv.Derivative { return []deriv.Derivative{t.d} }

func (t *ArtificialViscosityTerm) Initialize(context.Context, scheduler.Runner, *storage.Storage, float64) error {
	return nil
}

// Finalize evolves the Morris-Monaghan per-particle alpha_i, relaxing
// toward a floor with timescale h/c_s and spiking when div(v) < 0.
func (t *ArtificialViscosityTerm) Finalize(ctx context.Context, sched scheduler.Runner, s *storage.Storage, time float64) error {
	if t.Variant != MorrisMonaghan {
		return nil
	}
	alpha, err := s.GetScalar(AVAlpha)
	if err != nil {
		return err
	}
	pos, err := s.GetVector(Position)
	if err != nil {
		return err
	}
	cs, err := s.GetScalar(SoundSpeed)
	if err != nil {
		return err
	}
	const floor = 0.1
	const dt = 1e-3
	return sched.ParallelFor(ctx, alpha.Len(), func(_, start, end int) error {
		for i := start; i < end; i++ {
			h := pos.Value[i].H
			if h <= 0 || cs.Value[i] <= 0 {
				continue
			}
			tau := h / cs.Value[i]
			divv := pos.Dt[i].H / h * -SpatialDim // recover div(v) from dh/dt = -(h/D) div(v)
			source := 0.0
			if divv < 0 {
				source = -divv
			}
			alpha.Value[i] += dt * (source - (alpha.Value[i]-floor)/tau)
		}
		return nil
	})
}

type viscosityDerivative struct {
	variant ViscosityVariant
	alpha, beta, eps float64
	balsara bool

	pos  *storage.VectorQuantity
	dens *storage.ScalarQuantity
	mass *storage.ScalarQuantity
	cs   *storage.ScalarQuantity
	en   *storage.ScalarQuantity
	avA  *storage.ScalarQuantity // only set for MorrisMonaghan

	accAcc *deriv.VectorAccumulator
	accEn  *deriv.ScalarAccumulator
}

func (d *viscosityDerivative) Phase() deriv.Phase { return deriv.Evaluate }
func (d *viscosityDerivative) Symmetric() bool    { return true }
func (d *viscosityDerivative) Equals(other deriv.Derivative) bool {
	_, ok := other.(*viscosityDerivative)
	return ok
}

func (d *viscosityDerivative) Init(s *storage.Storage, threads int) error {
	var err error
	if d.pos, err = s.GetVector(Position); err != nil {
		return err
	}
	if d.dens, err = s.GetScalar(Density); err != nil {
		return err
	}
	if d.mass, err = s.GetScalar(Mass); err != nil {
		return err
	}
	if d.cs, err = s.GetScalar(SoundSpeed); err != nil {
		return err
	}
	if d.en, err = s.GetScalar(Energy); err != nil {
		return err
	}
	if d.variant == MorrisMonaghan {
		if d.avA, err = s.GetScalar(AVAlpha); err != nil {
			return err
		}
	}
	d.accAcc = deriv.NewVectorAccumulator(threads, d.pos.Len())
	d.accEn = deriv.NewScalarAccumulator(threads, d.pos.Len())
	return nil
}

func (d *viscosityDerivative) pi(i, j int, r float64, vij, rij geom.Vec) float64 {
	hbar := 0.5 * (d.pos.Value[i].H + d.pos.Value[j].H)
	cbar := 0.5 * (d.cs.Value[i] + d.cs.Value[j])
	rhobar := 0.5 * (d.dens.Value[i] + d.dens.Value[j])
	if rhobar <= 0 {
		return 0
	}
	vr := vij.Dot(rij)
	if vr >= 0 {
		return 0 // only active while the pair is approaching (vr < 0)
	}

	switch d.variant {
	case Riemann:
		w := vr / r
		vsig := d.cs.Value[i] + d.cs.Value[j] - 3*w
		if vsig < 0 {
			vsig = 0
		}
		alpha := d.alpha
		if d.avA != nil {
			alpha = 0.5 * (d.avA.Value[i] + d.avA.Value[j])
		}
		return -0.5 * alpha * vsig * w / rhobar
	default: // Standard and MorrisMonaghan share the mu-based formula,
		// differing only in whether alpha is constant or per-particle.
		mu := hbar * vr / (r*r + d.eps*hbar*hbar)
		alpha := d.alpha
		if d.avA != nil {
			alpha = 0.5 * (d.avA.Value[i] + d.avA.Value[j])
		}
		return (-alpha*cbar*mu + d.beta*mu*mu) / rhobar
	}
}

func (d *viscosityDerivative) EvalPair(thread, i, j int, r float64, grad geom.Vec) {
	rij := d.pos.Value[i].Sub(d.pos.Value[j])
	vij := d.pos.Dt[i].Sub(d.pos.Dt[j])
	piij := d.pi(i, j, r, vij, rij)
	if piij == 0 {
		return
	}
	mj, mi := d.mass.Value[j], d.mass.Value[i]
	d.accAcc.Add(thread, i, grad.Scale(-mj*piij))
	d.accAcc.Add(thread, j, grad.Scale(mi*piij))

	workI := 0.5 * mj * piij * vij.Dot(grad)
	d.accEn.Add(thread, i, workI)
	d.accEn.Add(thread, j, 0.5*mi*piij*(vij.Scale(-1)).Dot(grad))
}

func (d *viscosityDerivative) EvalGather(thread, i int, neighbors []int, grads []geom.Vec) {}

func (d *viscosityDerivative) Flush(s *storage.Storage) error {
	d.accAcc.MergeInto(d.pos.D2t)
	d.accEn.MergeInto(d.en.Dt)
	return nil
}

// BalsaraSwitch returns f_i = |div v| / (|div v| + |curl v| + eps*c_s/h),
// the factor that scales down Pi_ij in shear-dominated flows (§4.5).
// Nothing in this package calls it, and no derivative computes the
// velocity curl it takes (the Curl id names a storage slot only).
func BalsaraSwitch(divV, curlVMag, soundSpeed, h, eps float64) float64 {
	denom := math.Abs(divV) + curlVMag + eps*soundSpeed/h
	if denom <= 0 {
		return 0
	}
	return math.Abs(divV) / denom
}
