package equation

import (
	"context"

	"github.com/impactsim/sphcore/internal/deriv"
	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

// ContinuityTerm evaluates dRho/dt = -rho * div(v) via the equivalent
// direct SPH summation dRho_i/dt = sum_j m_j (v_i - v_j) . grad W_ij
// (§4.5). Requires Density to already be an order-1 quantity (see
// PressureTerm.Create).
type ContinuityTerm struct {
	d *continuityDerivative
}

func NewContinuityTerm() *ContinuityTerm { return &ContinuityTerm{d: &continuityDerivative{}} }

func (t *ContinuityTerm) Create(s *storage.Storage, mat *material.Material) error { return nil }

func (t *ContinuityTerm) Derivatives() []deriv.Derivative { return []deriv.Derivative{t.d} }

func (t *ContinuityTerm) Initialize(context.Context, scheduler.Runner, *storage.Storage, float64) error {
	return nil
}

func (t *ContinuityTerm) Finalize(context.Context, scheduler.Runner, *storage.Storage, float64) error {
	return nil
}

type continuityDerivative struct {
	pos  *storage.VectorQuantity
	dens *storage.ScalarQuantity
	mass *storage.ScalarQuantity
	acc  *deriv.ScalarAccumulator
}

func (d *continuityDerivative) Phase() deriv.Phase { return deriv.Evaluate }
func (d *continuityDerivative) Symmetric() bool    { return true }
func (d *continuityDerivative) Equals(other deriv.Derivative) bool {
	_, ok := other.(*continuityDerivative)
	return ok
}

func (d *continuityDerivative) Init(s *storage.Storage, threads int) error {
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
	d.acc = deriv.NewScalarAccumulator(threads, d.pos.Len())
	return nil
}

func (d *continuityDerivative) EvalPair(thread, i, j int, r float64, grad geom.Vec) {
	vij := d.pos.Dt[i].Sub(d.pos.Dt[j])
	contrib := d.mass.Value[j] * vij.Dot(grad)
	d.acc.Add(thread, i, contrib)
	// Newton's third law symmetry: j sees -v_ij and -grad, product
	// unchanged in sign, so j's contribution uses m_i with the same
	// dot product structure.
	contribJ := d.mass.Value[i] * vij.Dot(grad)
	d.acc.Add(thread, j, contribJ)
}

func (d *continuityDerivative) EvalGather(thread, i int, neighbors []int, grads []geom.Vec) {}

func (d *continuityDerivative) Flush(s *storage.Storage) error {
	d.acc.MergeInto(d.dens.Dt)
	return nil
}
