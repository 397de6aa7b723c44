package gravity

import (
	"context"

	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/scheduler"
)

// bruteForceThreshold is the particle count below which the brute-force
// O(N^2) solver runs instead of building a tree, matching §4.6's
// "retained for small N and validation" guidance.
const bruteForceThreshold = 64

// Solve computes the gravitational acceleration on every body, using
// the Barnes-Hut tree for N >= bruteForceThreshold and brute force
// below it, both evaluated in parallel over particles via sched.
func Solve(ctx context.Context, sched scheduler.Runner, bodies []Body, cfg Config) ([]geom.Vec, error) {
	out := make([]geom.Vec, len(bodies))
	if len(bodies) == 0 {
		return out, nil
	}
	if len(bodies) < bruteForceThreshold {
		return out, solveBruteForce(ctx, sched, bodies, cfg, out)
	}

	tree := Build(ctx, sched, bodies, cfg)
	err := sched.ParallelFor(ctx, len(bodies), func(_, start, end int) error {
		for i := start; i < end; i++ {
			out[i] = tree.Acceleration(i)
		}
		return nil
	})
	return out, err
}

// BruteForce computes the exact O(N^2) gravitational acceleration on
// every body, used for validation and for N below bruteForceThreshold.
func BruteForce(ctx context.Context, sched scheduler.Runner, bodies []Body, cfg Config) ([]geom.Vec, error) {
	out := make([]geom.Vec, len(bodies))
	return out, solveBruteForce(ctx, sched, bodies, cfg, out)
}

func solveBruteForce(ctx context.Context, sched scheduler.Runner, bodies []Body, cfg Config, out []geom.Vec) error {
	t := &Tree{bodies: bodies, theta: cfg.Theta, grav: cfg.Kernel, g: cfg.G}
	return sched.ParallelFor(ctx, len(bodies), func(_, start, end int) error {
		for i := start; i < end; i++ {
			var acc geom.Vec
			for j := range bodies {
				if j == i {
					continue
				}
				acc = acc.Add(t.pairAcceleration(bodies[i], bodies[j].Pos, bodies[j].Mass, bodies[i].Softening))
			}
			out[i] = acc
		}
		return nil
	})
}
