package timestep

import (
	"math"

	"github.com/impactsim/sphcore/internal/equation"
	"github.com/impactsim/sphcore/internal/storage"
)

// Criterion bounds the sub-step size a simulation may safely take,
// given the current state in s. Mirrors the safety/min/max-scale
// shape of the teacher's RK45.StepAdaptive error controller, but
// applied to physical stability limits rather than local truncation
// error (§4.6).
type Criterion interface {
	MaxStep(s *storage.Storage) float64
}

// CourantCriterion bounds dt by the Courant-Friedrichs-Lewy condition
// dt <= C * h / (c_s + |v|), per particle, taking the minimum over all
// particles (§4.6).
type CourantCriterion struct {
	C float64 // Courant number, typically 0.2-0.4
}

func (c CourantCriterion) MaxStep(s *storage.Storage) float64 {
	pos, err := s.GetVector(equation.Position)
	if err != nil {
		return math.Inf(1)
	}
	cs, err := s.GetScalar(equation.SoundSpeed)
	if err != nil {
		return math.Inf(1)
	}
	best := math.Inf(1)
	for i := range pos.Value {
		h := pos.Value[i].H
		if h <= 0 {
			continue
		}
		speed := cs.Value[i] + pos.Dt[i].Norm()
		if speed <= 0 {
			continue
		}
		dt := c.C * h / speed
		if dt < best {
			best = dt
		}
	}
	return best
}

// AccelerationCriterion bounds dt by dt <= Eta * sqrt(h / |a|), the
// standard SPH acceleration-based constraint ensuring a particle does
// not move more than a fraction of its smoothing length in one step
// under its current acceleration (§4.6).
type AccelerationCriterion struct {
	Eta float64 // typically ~0.2-0.3
}

func (c AccelerationCriterion) MaxStep(s *storage.Storage) float64 {
	pos, err := s.GetVector(equation.Position)
	if err != nil {
		return math.Inf(1)
	}
	best := math.Inf(1)
	for i := range pos.Value {
		h := pos.Value[i].H
		if h <= 0 {
			continue
		}
		accelMag := pos.D2t[i].Norm()
		if accelMag <= 0 {
			continue
		}
		dt := c.Eta * math.Sqrt(h/accelMag)
		if dt < best {
			best = dt
		}
	}
	return best
}

// DerivativeCriterion bounds dt so that no scalar quantity (e.g. energy,
// damage) changes by more than a fraction MaxFractionalChange of its
// current value in one step: dt <= f * |q| / |dq/dt| (§4.6).
type DerivativeCriterion struct {
	ID                  storage.QuantityID
	MaxFractionalChange float64
}

func (c DerivativeCriterion) MaxStep(s *storage.Storage) float64 {
	q, err := s.GetScalar(c.ID)
	if err != nil || q.Order() == 0 {
		return math.Inf(1)
	}
	best := math.Inf(1)
	for i := range q.Value {
		rate := math.Abs(q.Dt[i])
		if rate <= 0 {
			continue
		}
		dt := c.MaxFractionalChange * (math.Abs(q.Value[i]) + 1e-10) / rate
		if dt < best {
			best = dt
		}
	}
	return best
}

// DivergenceCriterion bounds dt by the local compression rate implied
// by dh/dt (itself proportional to -div(v), see equation.SpatialDim):
// dt <= f * h / |dh/dt|, preventing smoothing lengths from collapsing
// faster than the step can track (§4.6).
type DivergenceCriterion struct {
	MaxFractionalChange float64
}

func (c DivergenceCriterion) MaxStep(s *storage.Storage) float64 {
	pos, err := s.GetVector(equation.Position)
	if err != nil {
		return math.Inf(1)
	}
	best := math.Inf(1)
	for i := range pos.Value {
		h := pos.Value[i].H
		rate := math.Abs(pos.Dt[i].H)
		if h <= 0 || rate <= 0 {
			continue
		}
		dt := c.MaxFractionalChange * h / rate
		if dt < best {
			best = dt
		}
	}
	return best
}

// Combine returns the most restrictive (smallest) step bound across all
// criteria.
func Combine(criteria []Criterion, s *storage.Storage) float64 {
	best := math.Inf(1)
	for _, c := range criteria {
		if step := c.MaxStep(s); step < best {
			best = step
		}
	}
	return best
}

// Controller picks a sub-step size from a set of criteria and retries
// with a halved dt on failure, following the teacher's RK45 adaptive
// step controller's safety-factor/min-scale shape but applied as a
// simple bisection retry rather than an error-order rescale (§4.6, §7).
type Controller struct {
	Criteria     []Criterion
	SafetyFactor float64 // applied to the criteria-derived bound, typically ~0.8-0.9
	MaxRetries   int
}

func NewController(criteria []Criterion) Controller {
	return Controller{Criteria: criteria, SafetyFactor: 0.9, MaxRetries: 4}
}

// Propose returns SafetyFactor times the most restrictive criterion's
// bound, never exceeding dtMax.
func (c Controller) Propose(s *storage.Storage, dtMax float64) float64 {
	bound := Combine(c.Criteria, s)
	proposed := c.SafetyFactor * bound
	if proposed > dtMax || math.IsInf(proposed, 1) {
		return dtMax
	}
	return proposed
}

// RetryHalved returns dt/2, the teacher's catch-all response to a
// failed sub-step (invariant violation, NaN, excessive error): halve
// and try again, up to MaxRetries times.
func (c Controller) RetryHalved(dt float64) float64 { return 0.5 * dt }
