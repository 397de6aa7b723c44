package timestep

import (
	"context"
	"math"
	"testing"

	"github.com/impactsim/sphcore/internal/equation"
	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/scheduler"
	"github.com/impactsim/sphcore/internal/storage"
)

func freeFallStorage(t *testing.T) *storage.Storage {
	t.Helper()
	s := storage.New()
	if _, err := s.InsertVector(equation.Position, 2, geom.Vec{}, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert position: %v", err)
	}
	s.Resize(1)
	pos, _ := s.GetVector(equation.Position)
	pos.Value[0] = geom.Vec{X: 0, Y: 0, Z: 0, H: 1}
	pos.Dt[0] = geom.Vec{}
	pos.D2t[0] = geom.Vec{X: -1} // constant acceleration
	return s
}

func constantAccelEval(ctx context.Context, sched scheduler.Runner, s *storage.Storage, t float64) error {
	pos, err := s.GetVector(equation.Position)
	if err != nil {
		return err
	}
	for i := range pos.D2t {
		pos.D2t[i] = geom.Vec{X: -1}
	}
	return nil
}

func TestExplicitEulerAdvancesPositionAndVelocity(t *testing.T) {
	s := freeFallStorage(t)
	integ := ExplicitEuler{}
	if err := integ.Step(context.Background(), scheduler.Sequential{}, s, 0, 1.0, constantAccelEval); err != nil {
		t.Fatalf("Step: %v", err)
	}
	pos, _ := s.GetVector(equation.Position)
	if pos.Value[0].X != 0 {
		t.Errorf("expected unchanged position after one Euler step from rest, got %v", pos.Value[0].X)
	}
	if pos.Dt[0].X != -1 {
		t.Errorf("expected velocity -1 after one Euler step, got %v", pos.Dt[0].X)
	}
}

func TestLeapfrogConservesSymmetryForConstantAcceleration(t *testing.T) {
	s := freeFallStorage(t)
	integ := Leapfrog{}
	if err := integ.Step(context.Background(), scheduler.Sequential{}, s, 0, 1.0, constantAccelEval); err != nil {
		t.Fatalf("Step: %v", err)
	}
	pos, _ := s.GetVector(equation.Position)
	// x(t+dt) = x0 + v0*dt + 0.5*a*dt^2 = 0 + 0 - 0.5 = -0.5
	if math.Abs(pos.Value[0].X-(-0.5)) > 1e-9 {
		t.Errorf("expected x=-0.5 for constant-acceleration leapfrog step, got %v", pos.Value[0].X)
	}
	if math.Abs(pos.Dt[0].X-(-1)) > 1e-9 {
		t.Errorf("expected v=-1 after one unit step under constant a=-1, got %v", pos.Dt[0].X)
	}
}

func TestRK4MatchesAnalyticFreeFall(t *testing.T) {
	s := freeFallStorage(t)
	integ := RK4{}
	if err := integ.Step(context.Background(), scheduler.Sequential{}, s, 0, 1.0, constantAccelEval); err != nil {
		t.Fatalf("Step: %v", err)
	}
	pos, _ := s.GetVector(equation.Position)
	if math.Abs(pos.Value[0].X-(-0.5)) > 1e-9 {
		t.Errorf("expected x=-0.5 for constant-acceleration RK4 step, got %v", pos.Value[0].X)
	}
	if math.Abs(pos.Dt[0].X-(-1)) > 1e-9 {
		t.Errorf("expected v=-1, got %v", pos.Dt[0].X)
	}
}

func TestModifiedMidpointMatchesAnalyticFreeFall(t *testing.T) {
	s := freeFallStorage(t)
	integ := ModifiedMidpoint{}
	if err := integ.Step(context.Background(), scheduler.Sequential{}, s, 0, 1.0, constantAccelEval); err != nil {
		t.Fatalf("Step: %v", err)
	}
	pos, _ := s.GetVector(equation.Position)
	if math.Abs(pos.Value[0].X-(-0.5)) > 1e-9 {
		t.Errorf("expected x=-0.5, got %v", pos.Value[0].X)
	}
}

func TestPredictorCorrectorMatchesAnalyticFreeFall(t *testing.T) {
	s := freeFallStorage(t)
	integ := PredictorCorrector{}
	if err := integ.Step(context.Background(), scheduler.Sequential{}, s, 0, 1.0, constantAccelEval); err != nil {
		t.Fatalf("Step: %v", err)
	}
	pos, _ := s.GetVector(equation.Position)
	if math.Abs(pos.Value[0].X-(-0.5)) > 1e-9 {
		t.Errorf("expected x=-0.5, got %v", pos.Value[0].X)
	}
	if math.Abs(pos.Dt[0].X-(-1)) > 1e-9 {
		t.Errorf("expected v=-1, got %v", pos.Dt[0].X)
	}
}

func TestCourantCriterionShrinksWithSpeed(t *testing.T) {
	s := storage.New()
	if _, err := s.InsertVector(equation.Position, 2, geom.Vec{}, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert position: %v", err)
	}
	if _, err := s.InsertScalar(equation.SoundSpeed, 0, 1.0, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert sound speed: %v", err)
	}
	s.Resize(1)
	pos, _ := s.GetVector(equation.Position)
	pos.Value[0] = geom.Vec{H: 1}
	cs, _ := s.GetScalar(equation.SoundSpeed)
	cs.Value[0] = 1.0

	crit := CourantCriterion{C: 0.3}
	slow := crit.MaxStep(s)

	pos.Dt[0] = geom.Vec{X: 10}
	fast := crit.MaxStep(s)

	if fast >= slow {
		t.Errorf("expected faster particle to have a smaller Courant bound: slow=%v fast=%v", slow, fast)
	}
}

func TestControllerRetryHalvesStep(t *testing.T) {
	ctrl := NewController(nil)
	dt := 1.0
	dt = ctrl.RetryHalved(dt)
	if dt != 0.5 {
		t.Errorf("expected halved step 0.5, got %v", dt)
	}
}
