package equation

import (
	"context"

	"github.com/impactsim/sphcore/internal/deriv"
	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

// SpatialDim is the dimensionality used by dh/dt = -(h/D) div(v).
const SpatialDim = 3.0

// AdaptiveSmoothingLengthTerm evolves each particle's smoothing length
// via dh/dt = -(h/D) div(v), optionally enforcing a sound-speed floor
// h_new = max(h_target, kappa*c_s*dt) during Finalize (§4.5).
type AdaptiveSmoothingLengthTerm struct {
	Kappa       float64 // kernel support radius in units of h
	EnforceFloor bool
	d           *smoothingDerivative
}

func NewAdaptiveSmoothingLengthTerm(kappa float64) *AdaptiveSmoothingLengthTerm {
	return &AdaptiveSmoothingLengthTerm{Kappa: kappa, d: &smoothingDerivative{}}
}

func (t *AdaptiveSmoothingLengthTerm) Create(s *storage.Storage, mat *material.Material) error {
	return nil
}

func (t *AdaptiveSmoothingLengthTerm) Derivatives() []deriv.Derivative {
	return []deriv.Derivative{t.d}
}

func (t *AdaptiveSmoothingLengthTerm) Initialize(context.Context, scheduler.Runner, *storage.Storage, float64) error {
	return nil
}

// Finalize optionally enforces the sound-speed floor h >= kappa*c_s*dt.
func (t *AdaptiveSmoothingLengthTerm) Finalize(ctx context.Context, sched scheduler.Runner, s *storage.Storage, time float64) error {
	if !t.EnforceFloor {
		return nil
	}
	pos, err := s.GetVector(Position)
	if err != nil {
		return err
	}
	cs, err := s.GetScalar(SoundSpeed)
	if err != nil {
		return err
	}
	const assumedDt = 1e-3 // conservative default when the caller has not supplied the actual sub-step dt
	return sched.ParallelFor(ctx, pos.Len(), func(_, start, end int) error {
		for i := start; i < end; i++ {
			floor := t.Kappa * cs.Value[i] * assumedDt
			if pos.Value[i].H < floor {
				pos.Value[i].H = floor
			}
		}
		return nil
	})
}

// smoothingDerivative computes the velocity divergence per particle
// (gather form, non-symmetric) and writes dh/dt into the H lane of the
// position quantity's first-derivative (velocity) buffer.
type smoothingDerivative struct {
	pos  *storage.VectorQuantity
	mass *storage.ScalarQuantity
	dens *storage.ScalarQuantity
	acc  *deriv.ScalarAccumulator
}

func (d *smoothingDerivative) Phase() deriv.Phase { return deriv.Precompute }
func (d *smoothingDerivative) Symmetric() bool    { return false }
func (d *smoothingDerivative) Equals(other deriv.Derivative) bool {
	_, ok := other.(*smoothingDerivative)
	return ok
}

func (d *smoothingDerivative) Init(s *storage.Storage, threads int) error {
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
	d.acc = deriv.NewScalarAccumulator(threads, d.pos.Len())
	return nil
}

func (d *smoothingDerivative) EvalPair(thread, i, j int, r float64, grad geom.Vec) {}

func (d *smoothingDerivative) EvalGather(thread, i int, neighbors []int, grads []geom.Vec) {
	if d.dens.Value[i] <= 0 {
		return
	}
	var div float64
	for k, j := range neighbors {
		vij := d.pos.Dt[i].Sub(d.pos.Dt[j])
		div += d.mass.Value[j] * vij.Dot(grads[k])
	}
	div = -div / d.dens.Value[i]
	d.acc.Add(thread, i, div)
}

func (d *smoothingDerivative) Flush(s *storage.Storage) error {
	div := make([]float64, d.pos.Len())
	d.acc.MergeInto(div)
	for i := range div {
		d.pos.Dt[i].H = -(d.pos.Value[i].H / SpatialDim) * div[i]
	}
	return nil
}
