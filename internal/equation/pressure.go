package equation

import (
	"context"

	"github.com/impactsim/sphcore/internal/deriv"
	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

// PressureTerm computes pressure from each particle's material EOS in
// Initialize, then applies the symmetric SPH pressure-gradient force
// and the matching energy rate during the EVALUATE phase (§4.5).
type PressureTerm struct {
	mat *material.Material
	d   *pressureGradientDerivative
}

func NewPressureTerm() *PressureTerm {
	return &PressureTerm{d: &pressureGradientDerivative{}}
}

func (t *PressureTerm) Create(s *storage.Storage, mat *material.Material) error {
	t.mat = mat
	if _, err := s.InsertScalar(Density, 1, mat.Density0(), storage.Unique, storage.UnboundedInterval); err != nil {
		return err
	}
	if _, err := s.InsertScalar(Pressure, 0, 0, storage.Unique, storage.UnboundedInterval); err != nil {
		return err
	}
	energyFloor := mat.Interval(Energy)
	if energyFloor == storage.UnboundedInterval {
		energyFloor = storage.Interval{Lo: 0, Hi: storage.UnboundedInterval.Hi}
	}
	if _, err := s.InsertScalar(Energy, 1, 0, storage.Unique, energyFloor); err != nil {
		return err
	}
	if _, err := s.InsertScalar(SoundSpeed, 0, 0, storage.Unique, storage.UnboundedInterval); err != nil {
		return err
	}
	return nil
}

func (t *PressureTerm) Derivatives() []deriv.Derivative { return []deriv.Derivative{t.d} }

// Initialize evaluates the material EOS for every particle, writing
// pressure and sound speed ahead of the derivative loop.
func (t *PressureTerm) Initialize(ctx context.Context, sched scheduler.Runner, s *storage.Storage, time float64) error {
	dens, err := s.GetScalar(Density)
	if err != nil {
		return err
	}
	pres, err := s.GetScalar(Pressure)
	if err != nil {
		return err
	}
	en, err := s.GetScalar(Energy)
	if err != nil {
		return err
	}
	cs, err := s.GetScalar(SoundSpeed)
	if err != nil {
		return err
	}
	eos := t.mat.EOS()
	rho0 := t.mat.Density0()
	return sched.ParallelFor(ctx, dens.Len(), func(_, start, end int) error {
		for i := start; i < end; i++ {
			p := eos.Pressure(dens.Value[i], rho0, en.Value[i])
			pres.Value[i] = p
			cs.Value[i] = eos.SoundSpeed(dens.Value[i], rho0, en.Value[i], p)
		}
		return nil
	})
}

func (t *PressureTerm) Finalize(ctx context.Context, sched scheduler.Runner, s *storage.Storage, time float64) error {
	return nil
}

// pressureGradientDerivative writes
// dv/dt -= m_j (p_i/rho_i^2 + p_j/rho_j^2) grad W_ij
// and the matching energy rate (§4.5).
type pressureGradientDerivative struct {
	pos  *storage.VectorQuantity
	dens *storage.ScalarQuantity
	pres *storage.ScalarQuantity
	en   *storage.ScalarQuantity
	mass *storage.ScalarQuantity

	accAcc *deriv.VectorAccumulator
	accEn  *deriv.ScalarAccumulator
}

func (d *pressureGradientDerivative) Phase() deriv.Phase { return deriv.Evaluate }
func (d *pressureGradientDerivative) Symmetric() bool    { return true }
func (d *pressureGradientDerivative) Equals(other deriv.Derivative) bool {
	_, ok := other.(*pressureGradientDerivative)
	return ok
}

func (d *pressureGradientDerivative) Init(s *storage.Storage, threads int) error {
	var err error
	if d.pos, err = s.GetVector(Position); err != nil {
		return err
	}
	if d.dens, err = s.GetScalar(Density); err != nil {
		return err
	}
	if d.pres, err = s.GetScalar(Pressure); err != nil {
		return err
	}
	if d.en, err = s.GetScalar(Energy); err != nil {
		return err
	}
	if d.mass, err = s.GetScalar(Mass); err != nil {
		return err
	}
	n := d.pos.Len()
	d.accAcc = deriv.NewVectorAccumulator(threads, n)
	d.accEn = deriv.NewScalarAccumulator(threads, n)
	return nil
}

func (d *pressureGradientDerivative) EvalPair(thread, i, j int, r float64, grad geom.Vec) {
	pi, pj := d.pres.Value[i], d.pres.Value[j]
	rhoi, rhoj := d.dens.Value[i], d.dens.Value[j]
	if rhoi <= 0 || rhoj <= 0 {
		return
	}
	coef := pi/(rhoi*rhoi) + pj/(rhoj*rhoj)
	mj := d.mass.Value[j]
	mi := d.mass.Value[i]

	fi := grad.Scale(-mj * coef)
	d.accAcc.Add(thread, i, fi)
	fj := grad.Scale(mi * coef)
	d.accAcc.Add(thread, j, fj)

	vij := d.pos.Dt[i].Sub(d.pos.Dt[j])
	workRate := 0.5 * mj * coef * vij.Dot(grad)
	d.accEn.Add(thread, i, workRate)
	d.accEn.Add(thread, j, 0.5*mi*coef*(vij.Scale(-1)).Dot(grad))
}

func (d *pressureGradientDerivative) EvalGather(thread, i int, neighbors []int, grads []geom.Vec) {
	// Pressure gradient is symmetric-only in this formulation; gather
	// form is unused.
}

func (d *pressureGradientDerivative) Flush(s *storage.Storage) error {
	d.accAcc.MergeInto(d.pos.D2t)
	d.accEn.MergeInto(d.en.Dt)
	return nil
}
