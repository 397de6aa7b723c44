package solver

import (
	"github.com/impactsim/sphcore/internal/equation"
	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/storage"
)

// Diagnostics reports the conserved quantities §8's conservation
// scenarios check after a run: total mass, linear momentum, angular
// momentum, and kinetic energy. Generalizes the teacher's
// NBody.Momentum/AngularMomentum/Energy helpers (hardcoded to a flat
// 2D state vector) to the 3D, quantity-indexed storage.Storage.
type Diagnostics struct {
	Mass            float64
	Momentum        geom.Vec
	AngularMomentum geom.Vec
	KineticEnergy   float64
}

// Compute derives Diagnostics from s's current Mass and Position
// quantities. Missing quantities leave the corresponding field zero.
func Compute(s *storage.Storage) Diagnostics {
	var d Diagnostics

	mass, errM := s.GetScalar(equation.Mass)
	pos, errP := s.GetVector(equation.Position)
	if errM != nil || errP != nil {
		return d
	}

	hasVelocity := pos.Order() >= 1
	for i, m := range mass.Value {
		d.Mass += m
		x := pos.Value[i]

		var v geom.Vec
		if hasVelocity {
			v = pos.Dt[i]
		}

		d.Momentum = d.Momentum.Add(v.Scale(m))
		d.AngularMomentum = d.AngularMomentum.Add(x.Cross(v).Scale(m))
		d.KineticEnergy += 0.5 * m * v.Dot(v)
	}
	return d
}

// RelativeDrift returns |after - before| / |before| for each tracked
// quantity, the form §8's conservation-bound scenarios check against a
// tolerance (momentum and angular momentum compared via their
// magnitudes rather than component-wise, since a near-zero initial
// component makes componentwise relative drift unstable).
func RelativeDrift(before, after Diagnostics) (mass, momentum, angularMomentum, energy float64) {
	mass = relDrift(before.Mass, after.Mass)
	momentum = relDrift(before.Momentum.Norm(), after.Momentum.Norm())
	angularMomentum = relDrift(before.AngularMomentum.Norm(), after.AngularMomentum.Norm())
	energy = relDrift(before.KineticEnergy, after.KineticEnergy)
	return
}

func relDrift(before, after float64) float64 {
	if before == 0 {
		return after - before
	}
	d := after - before
	if d < 0 {
		d = -d
	}
	if before < 0 {
		before = -before
	}
	return d / before
}
