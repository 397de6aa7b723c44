package solver

import (
	"fmt"

	"github.com/impactsim/sphcore/internal/equation"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/simerr"
	"github.com/impactsim/sphcore/internal/storage"
)

// CheckInvariants asserts the testable properties every particle must
// satisfy after a sub-step (§8). It defers h>0, finiteness, and
// traceless-tensor-trace checks to storage.Storage.CheckInvariants (the
// generic, quantity-shape-driven pass) and adds the two checks that
// need domain knowledge storage doesn't have: density positivity and
// damage bounded to [0,1]. The first offending particle is reported;
// callers typically respond by halving dt and retrying the step.
func CheckInvariants(s *storage.Storage) error {
	if violations := s.CheckInvariants(); len(violations) > 0 {
		v := violations[0]
		return invariantErr(v.Particle, fmt.Sprintf("%s: %s", v.Quantity, v.Kind))
	}

	if dens, err := s.GetScalar(equation.Density); err == nil {
		for i, rho := range dens.Value {
			if rho <= 0 {
				return invariantErr(i, "non-positive density")
			}
		}
	}

	if dmg, err := s.GetScalar(equation.Damage); err == nil {
		for i, d := range dmg.Value {
			if d < 0 || d > 1 {
				return invariantErr(i, "damage outside [0,1]")
			}
		}
	}

	return nil
}

// CheckEnergyFloor enforces §8's u_i >= u_min(material) bound, one of
// the few invariants that needs a material lookup rather than a pure
// storage scan, so it is kept separate from CheckInvariants and called
// explicitly by callers that have the material table at hand.
func CheckEnergyFloor(s *storage.Storage, mats []*material.Material) error {
	energy, err := s.GetScalar(equation.Energy)
	if err != nil {
		return nil
	}
	matIdx := s.MaterialIndex()
	for i, u := range energy.Value {
		idx := 0
		if i < len(matIdx) {
			idx = matIdx[i]
		}
		if idx < 0 || idx >= len(mats) || mats[idx] == nil {
			continue
		}
		if floor := mats[idx].Interval(equation.Energy).Lo; u < floor {
			return invariantErr(i, "energy below material floor")
		}
	}
	return nil
}

func invariantErr(i int, kind string) error {
	return simerr.NewParticleStepError(0, 0, i, fmt.Errorf("%w: %s", simerr.ErrInvariantViolation, kind))
}
