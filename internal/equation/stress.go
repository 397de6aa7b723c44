package equation

import (
	"context"

	"github.com/impactsim/sphcore/internal/deriv"
	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

// Strain rate and spin rate are internal order-0 storage quantities:
// velocityGradientDerivative writes them in the PRECOMPUTE pass and
// stressDivergenceDerivative.Flush reads them to evolve S, including
// the Jaumann rotation correction.
const (
	strainRateID storage.QuantityID = "__strain_rate"
	spinRateID   storage.QuantityID = "__spin_rate"
)

// SolidStressDivergenceTerm applies the deviatoric stress divergence to
// the momentum and energy equations, and evolves S via the Jaumann
// (co-rotational) rate so that rigid rotation does not spuriously build
// up stress (§4.5).
type SolidStressDivergenceTerm struct {
	Mu float64 // shear modulus, used for the elastic part of dS/dt

	d        *stressDivergenceDerivative
	velGrad  *velocityGradientDerivative
}

func NewSolidStressDivergenceTerm(shearModulus float64) *SolidStressDivergenceTerm {
	return &SolidStressDivergenceTerm{
		Mu:      shearModulus,
		d:       &stressDivergenceDerivative{},
		velGrad: &velocityGradientDerivative{},
	}
}

func (t *SolidStressDivergenceTerm) Create(s *storage.Storage, mat *material.Material) error {
	if _, err := s.InsertTraceless(Stress, 1, storage.Unique, storage.UnboundedInterval); err != nil {
		return err
	}
	if _, err := s.InsertSymTensor(strainRateID, 0, storage.Unique, storage.UnboundedInterval); err != nil {
		return err
	}
	if _, err := s.InsertSymTensor(spinRateID, 0, storage.Unique, storage.UnboundedInterval); err != nil {
		return err
	}
	t.d.mu = t.Mu
	return nil
}

func (t *SolidStressDivergenceTerm) Derivatives() []deriv.Derivative {
	return []deriv.Derivative{t.velGrad, t.d}
}

func (t *SolidStressDivergenceTerm) Initialize(context.Context, scheduler.Runner, *storage.Storage, float64) error {
	return nil
}

func (t *SolidStressDivergenceTerm) Finalize(context.Context, scheduler.Runner, *storage.Storage, float64) error {
	return nil
}

// velocityGradientDerivative computes the symmetric strain-rate tensor
// and antisymmetric spin tensor from the SPH velocity gradient, feeding
// stressDivergenceDerivative's Jaumann-rate evaluation (§4.5).
type velocityGradientDerivative struct {
	pos    *storage.VectorQuantity
	mass   *storage.ScalarQuantity
	dens   *storage.ScalarQuantity
	strain *storage.SymTensorQuantity
	spin   *storage.SymTensorQuantity
}

func (d *velocityGradientDerivative) Phase() deriv.Phase { return deriv.Precompute }
func (d *velocityGradientDerivative) Symmetric() bool    { return false }
func (d *velocityGradientDerivative) Equals(other deriv.Derivative) bool {
	_, ok := other.(*velocityGradientDerivative)
	return ok
}

func (d *velocityGradientDerivative) Init(s *storage.Storage, threads int) error {
	var err error
	if d.pos, err = s.GetVector(Position); err != nil {
		return err
	}
	if d.mass, err = s.GetScalar(Mass); err != nil {
		return err
	}
	if d.dens, err = s.GetScalar(Density); err != nil {
		return err
	}
	if d.strain, err = s.GetSymTensor(strainRateID); err != nil {
		return err
	}
	if d.spin, err = s.GetSymTensor(spinRateID); err != nil {
		return err
	}
	return nil
}

func (d *velocityGradientDerivative) EvalPair(thread, i, j int, r float64, grad geom.Vec) {}

// EvalGather accumulates grad_b(v_a) = sum_j (m_j/rho_j)(v_j-v_i) ⊗ grad W_ij
// directly into the (not thread-parallel-accumulated) strain/spin
// buffers; particle i is only ever touched by the thread that owns it
// in a gather pass, so no per-thread accumulator is needed here.
func (d *velocityGradientDerivative) EvalGather(thread, i int, neighbors []int, grads []geom.Vec) {
	if d.dens.Value[i] <= 0 {
		return
	}
	var grad geom.Tensor
	for k, j := range neighbors {
		if d.dens.Value[j] <= 0 {
			continue
		}
		vji := d.pos.Dt[j].Sub(d.pos.Dt[i])
		w := d.mass.Value[j] / d.dens.Value[j]
		g := grads[k]
		grad[0] += w * vji.X * g.X
		grad[1] += w * vji.X * g.Y
		grad[2] += w * vji.X * g.Z
		grad[3] += w * vji.Y * g.X
		grad[4] += w * vji.Y * g.Y
		grad[5] += w * vji.Y * g.Z
		grad[6] += w * vji.Z * g.X
		grad[7] += w * vji.Z * g.Y
		grad[8] += w * vji.Z * g.Z
	}
	sym := geom.SymTensorFromTensor(geom.Tensor{
		grad[0], 0.5 * (grad[1] + grad[3]), 0.5 * (grad[2] + grad[6]),
		0.5 * (grad[3] + grad[1]), grad[4], 0.5 * (grad[5] + grad[7]),
		0.5 * (grad[6] + grad[2]), 0.5 * (grad[7] + grad[5]), grad[8],
	})
	d.strain.Value[i] = sym

	antisymXY := 0.5 * (grad[1] - grad[3])
	antisymXZ := 0.5 * (grad[2] - grad[6])
	antisymYZ := 0.5 * (grad[5] - grad[7])
	// Spin stored packed into the off-diagonal slots of a SymTensor
	// (diagonal is identically zero for any antisymmetric tensor).
	d.spin.Value[i] = geom.SymTensor{XY: antisymXY, XZ: antisymXZ, YZ: antisymYZ}
}

func (d *velocityGradientDerivative) Flush(s *storage.Storage) error { return nil }

// stressDivergenceDerivative applies dv/dt += sum_j m_j (S_i/rho_i^2 +
// S_j/rho_j^2) . grad W_ij and evolves S via the Jaumann rate
// dS/dt = 2*mu*(strainRate_deviatoric) + S.spin - spin.S (§4.5).
type stressDivergenceDerivative struct {
	mu float64

	pos    *storage.VectorQuantity
	dens   *storage.ScalarQuantity
	mass   *storage.ScalarQuantity
	en     *storage.ScalarQuantity
	stress *storage.TracelessQuantity
	strain *storage.SymTensorQuantity
	spin   *storage.SymTensorQuantity

	accAcc *deriv.VectorAccumulator
	accEn  *deriv.ScalarAccumulator
}

func (d *stressDivergenceDerivative) Phase() deriv.Phase { return deriv.Evaluate }
func (d *stressDivergenceDerivative) Symmetric() bool    { return true }
func (d *stressDivergenceDerivative) Equals(other deriv.Derivative) bool {
	_, ok := other.(*stressDivergenceDerivative)
	return ok
}

func (d *stressDivergenceDerivative) Init(s *storage.Storage, threads int) error {
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
	if d.en, err = s.GetScalar(Energy); err != nil {
		return err
	}
	if d.stress, err = s.GetTraceless(Stress); err != nil {
		return err
	}
	if d.strain, err = s.GetSymTensor(strainRateID); err != nil {
		return err
	}
	if d.spin, err = s.GetSymTensor(spinRateID); err != nil {
		return err
	}
	n := d.pos.Len()
	d.accAcc = deriv.NewVectorAccumulator(threads, n)
	d.accEn = deriv.NewScalarAccumulator(threads, n)
	return nil
}

func stressForce(sigma geom.SymTensor, rho float64, grad geom.Vec) geom.Vec {
	return sigma.ToTensor().MulVec(grad).Scale(1.0 / (rho * rho))
}

func (d *stressDivergenceDerivative) EvalPair(thread, i, j int, r float64, grad geom.Vec) {
	rhoi, rhoj := d.dens.Value[i], d.dens.Value[j]
	if rhoi <= 0 || rhoj <= 0 {
		return
	}
	mi, mj := d.mass.Value[i], d.mass.Value[j]
	si, sj := d.stress.Value[i].Sym(), d.stress.Value[j].Sym()
	coef := 1.0/(rhoi*rhoi) + 1.0/(rhoj*rhoj)

	fi := stressForce(si, rhoi, grad).Add(stressForce(sj, rhoj, grad)).Scale(mj)
	d.accAcc.Add(thread, i, fi)
	negGrad := grad.Scale(-1)
	fj := stressForce(si, rhoi, negGrad).Add(stressForce(sj, rhoj, negGrad)).Scale(mi)
	d.accAcc.Add(thread, j, fj)

	vij := d.pos.Dt[i].Sub(d.pos.Dt[j])
	workI := 0.5 * mj * coef * vij.Dot(fi)
	d.accEn.Add(thread, i, workI)
	d.accEn.Add(thread, j, 0.5*mi*coef*(vij.Scale(-1)).Dot(fj))
}

func (d *stressDivergenceDerivative) EvalGather(thread, i int, neighbors []int, grads []geom.Vec) {}

// Flush merges the divergence force into acceleration, then integrates
// the Jaumann stress-rate equation pointwise (no neighbor coupling, so
// it runs here rather than as a separate derivative registration).
func (d *stressDivergenceDerivative) Flush(s *storage.Storage) error {
	d.accAcc.MergeInto(d.pos.D2t)
	d.accEn.MergeInto(d.en.Dt)

	for i := range d.stress.Value {
		strain := d.strain.Value[i]
		dev, _ := strain.Deviator()
		elastic := dev.Scale(2 * d.mu)

		spin := d.spin.Value[i] // off-diagonals only: W_xy, W_xz, W_yz
		sCurrent := d.stress.Value[i].Sym()
		rotation := jaumannRotation(sCurrent, spin)

		d.stress.Dt[i] = geom.NewTracelessTensor(elastic.Sym().Add(rotation))
	}
	return nil
}

// jaumannRotation returns S.W - W.S for the antisymmetric spin tensor W
// packed as {XY: W_xy, XZ: W_xz, YZ: W_yz} (diagonal identically zero).
func jaumannRotation(s geom.SymTensor, w geom.SymTensor) geom.SymTensor {
	St := s.ToTensor()
	Wt := geom.Tensor{
		0, w.XY, w.XZ,
		-w.XY, 0, w.YZ,
		-w.XZ, -w.YZ, 0,
	}
	sw := geom.MulTensor(St, Wt)
	ws := geom.MulTensor(Wt, St)
	return geom.SymTensorFromTensor(sw.Add(ws.Scale(-1)))
}
