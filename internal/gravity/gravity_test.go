package gravity

import (
	"context"
	"math"
	"testing"

	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/kernel"
	"github.com/impactsim/sphcore/internal/scheduler"
)

func twoBodyConfig() Config {
	return Config{Theta: 0.5, G: 1.0, Kernel: kernel.WithPotential(kernel.CubicSpline{})}
}

func TestTreeAccelerationPointsTowardOtherBody(t *testing.T) {
	bodies := []Body{
		{Pos: geom.NewVec(0, 0, 0, 0.01), Mass: 1, Softening: 0.001},
		{Pos: geom.NewVec(1, 0, 0, 0.01), Mass: 1, Softening: 0.001},
	}
	tree := Build(context.Background(), scheduler.Sequential{}, bodies, twoBodyConfig())
	acc := tree.Acceleration(0)
	if acc.X <= 0 {
		t.Fatalf("expected body 0 to accelerate toward +X, got %+v", acc)
	}
	if math.Abs(acc.Y) > 1e-9 || math.Abs(acc.Z) > 1e-9 {
		t.Fatalf("expected acceleration confined to X for a colinear pair, got %+v", acc)
	}
}

func TestBruteForceMatchesNewtonianTwoBody(t *testing.T) {
	bodies := []Body{
		{Pos: geom.NewVec(0, 0, 0, 0.01), Mass: 2, Softening: 0.001},
		{Pos: geom.NewVec(2, 0, 0, 0.01), Mass: 3, Softening: 0.001},
	}
	out, err := BruteForce(context.Background(), scheduler.Sequential{}, bodies, twoBodyConfig())
	if err != nil {
		t.Fatalf("BruteForce: %v", err)
	}
	want := 1.0 * 3.0 / 4.0 // G * m1 / r^2
	if math.Abs(out[0].X-want) > 1e-6 {
		t.Fatalf("a_x on body 0 = %v, want ~%v", out[0].X, want)
	}
}

func TestSolveMatchesBruteForceAboveThreshold(t *testing.T) {
	n := bruteForceThreshold + 8
	bodies := make([]Body, n)
	for i := range bodies {
		x := float64(i%8) * 3
		y := float64((i/8)%8) * 3
		bodies[i] = Body{Pos: geom.NewVec(x, y, 0, 0.1), Mass: 1, Softening: 0.05}
	}
	cfg := twoBodyConfig()
	cfg.Theta = 0.0 // force full recursion, tree result should equal brute force

	sched := scheduler.New(4)
	treeAcc, err := Solve(context.Background(), sched, bodies, cfg)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	bfAcc, err := BruteForce(context.Background(), sched, bodies, cfg)
	if err != nil {
		t.Fatalf("BruteForce: %v", err)
	}
	for i := range bodies {
		dx := treeAcc[i].X - bfAcc[i].X
		dy := treeAcc[i].Y - bfAcc[i].Y
		if math.Abs(dx) > 1e-6 || math.Abs(dy) > 1e-6 {
			t.Fatalf("body %d: tree=%+v brute=%+v", i, treeAcc[i], bfAcc[i])
		}
	}
}
