package solver

import (
	"context"

	"github.com/impactsim/sphcore/internal/deriv"
	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/neighbor"
	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

// runPhase issues one radius query per particle at Kappa*h_i and feeds
// the resulting neighbor pairs to every derivative registered for this
// phase: EvalPair once per unordered pair (i, j) with j ranked below i
// for symmetric derivatives (avoiding double-counting per §4.2's
// rank-based halving), EvalGather once per particle over its full
// neighbor set otherwise (§4.7 steps 4-6).
func (sv *Solver) runPhase(ctx context.Context, sched scheduler.Runner, s *storage.Storage, points []geom.Vec, finder neighbor.Finder, phaseDerivs []deriv.Derivative) error {
	symFinder := neighbor.NewSymmetric(finder, points)

	var symDerivs, gatherDerivs []deriv.Derivative
	for _, d := range phaseDerivs {
		if d.Symmetric() {
			symDerivs = append(symDerivs, d)
		} else {
			gatherDerivs = append(gatherDerivs, d)
		}
	}

	n := len(points)
	return sched.ParallelFor(ctx, n, func(thread, start, end int) error {
		var symBuf, gatherBuf []int
		var grads []geom.Vec
		for i := start; i < end; i++ {
			hi := points[i].H
			if hi <= 0 {
				continue
			}
			radius := sv.Kappa * hi

			if len(symDerivs) > 0 {
				symBuf = symFinder.FindIndex(i, radius, symBuf[:0])
				for _, j := range symBuf {
					r, grad := sv.pairGrad(points, i, j)
					if r <= 0 {
						continue
					}
					for _, d := range symDerivs {
						d.EvalPair(thread, i, j, r, grad)
					}
				}
			}

			if len(gatherDerivs) > 0 {
				gatherBuf = finder.FindIndex(i, radius, gatherBuf[:0])
				grads = grads[:0]
				for _, j := range gatherBuf {
					r, grad := sv.pairGrad(points, i, j)
					if r <= 0 {
						grad = geom.Vec{}
					}
					grads = append(grads, grad)
				}
				for _, d := range gatherDerivs {
					d.EvalGather(thread, i, gatherBuf, grads)
				}
			}
		}
		return nil
	})
}

// pairGrad returns the pair separation r and grad_i W_ij, the SPH
// kernel gradient with respect to particle i's position, directed along
// r_i - r_j and symmetrized over the pair's two smoothing lengths
// (§4.3). H is excluded from the separation vector: it carries particle
// i's smoothing length, not a spatial coordinate.
func (sv *Solver) pairGrad(points []geom.Vec, i, j int) (float64, geom.Vec) {
	rij := geom.Vec{
		X: points[i].X - points[j].X,
		Y: points[i].Y - points[j].Y,
		Z: points[i].Z - points[j].Z,
	}
	r := rij.Norm()
	if r <= 0 {
		return 0, geom.Vec{}
	}
	dir := rij.Scale(1 / r)
	gradMag := sv.Kernel.Grad(r, points[i].H, points[j].H)
	return r, dir.Scale(gradMag)
}
