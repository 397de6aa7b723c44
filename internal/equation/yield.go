package equation

import (
	"context"
	"math"

	"github.com/impactsim/sphcore/internal/deriv"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

// YieldingTerm rescales the deviatoric stress tensor against the
// Drucker-Prager/von-Mises yield surface (§4.5): whenever the von Mises
// equivalent stress sqrt(3*J2) exceeds the pressure- and
// damage-dependent yield strength, S is scaled down by f_y = Y/sqrt(3*J2)
// so the corrected stress lies exactly on the yield surface.
type YieldingTerm struct {
	rheology material.Rheology
}

func NewYieldingTerm(rheology material.Rheology) *YieldingTerm {
	return &YieldingTerm{rheology: rheology}
}

func (t *YieldingTerm) Create(s *storage.Storage, mat *material.Material) error {
	t.rheology = mat.Rheology()
	return nil
}

func (t *YieldingTerm) Derivatives() []deriv.Derivative { return nil }

func (t *YieldingTerm) Initialize(context.Context, scheduler.Runner, *storage.Storage, float64) error {
	return nil
}

// Finalize runs after the stress divergence term has integrated the
// trial (unyielded) stress rate, projecting any over-yield particles
// back onto the yield surface.
func (t *YieldingTerm) Finalize(ctx context.Context, sched scheduler.Runner, s *storage.Storage, time float64) error {
	stress, err := s.GetTraceless(Stress)
	if err != nil {
		return nil // no stress quantity registered; nothing to yield
	}
	pres, err := s.GetScalar(Pressure)
	if err != nil {
		return err
	}
	damage, err := s.GetScalar(Damage)
	if err != nil {
		damage = nil // damage is optional; treat as undamaged if absent
	}
	rheo := t.rheology
	return sched.ParallelFor(ctx, stress.Len(), func(_, start, end int) error {
		for i := start; i < end; i++ {
			j2 := stress.Value[i].J2()
			if j2 <= 0 {
				continue
			}
			vonMises := math.Sqrt(3 * j2)
			d := 0.0
			if damage != nil {
				d = damage.Value[i]
			}
			yieldStrength := rheo.Yield(pres.Value[i], d)
			if vonMises <= yieldStrength || vonMises == 0 {
				continue
			}
			factor := yieldStrength / vonMises
			stress.Value[i] = stress.Value[i].Scale(factor)
		}
		return nil
	})
}
