// Package equation implements the core SPH/solid-mechanics equation
// terms: pressure gradient, solid stress divergence, continuity,
// adaptive smoothing length, artificial viscosity, Grady-Kipp
// fracture, and von Mises / Drucker-Prager yielding (§4.5).
package equation

import (
	"context"

	"github.com/impactsim/sphcore/internal/deriv"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

// Canonical quantity ids shared across equation terms.
const (
	Position   storage.QuantityID = "position"
	Density    storage.QuantityID = "density"
	Pressure   storage.QuantityID = "pressure"
	Energy     storage.QuantityID = "energy"
	Mass       storage.QuantityID = "mass"
	SoundSpeed storage.QuantityID = "sound_speed"
	Stress     storage.QuantityID = "deviatoric_stress"
	Damage     storage.QuantityID = "damage"
	MaterialID storage.QuantityID = "__material_index"
	AVAlpha    storage.QuantityID = "av_alpha"
	Divergence storage.QuantityID = "velocity_divergence"
	Curl       storage.QuantityID = "velocity_curl"
)

// Term packages a set of derivatives plus the two lifecycle hooks that
// bracket the per-sub-step derivative loop (§4.5).
type Term interface {
	// Create requests this term's quantities from storage at
	// initial-conditions time.
	Create(s *storage.Storage, mat *material.Material) error
	// Derivatives returns the pairwise computations this term
	// contributes to the holder.
	Derivatives() []deriv.Derivative
	// Initialize runs before each sub-step; may precompute quantities
	// the derivatives need (pressure from EOS, eigen-decomposed stress).
	Initialize(ctx context.Context, sched scheduler.Runner, s *storage.Storage, t float64) error
	// Finalize runs after the derivative loop; may clamp, reduce, or
	// integrate the results.
	Finalize(ctx context.Context, sched scheduler.Runner, s *storage.Storage, t float64) error
}
