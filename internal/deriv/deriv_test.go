package deriv

import (
	"testing"

	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/storage"
)

func TestScalarAccumulatorMergesAllThreads(t *testing.T) {
	a := NewScalarAccumulator(3, 4)
	a.Add(0, 1, 1.0)
	a.Add(1, 1, 2.0)
	a.Add(2, 1, 3.0)
	dst := make([]float64, 4)
	a.MergeInto(dst)
	if dst[1] != 6.0 {
		t.Fatalf("dst[1] = %v, want 6", dst[1])
	}
	for i, v := range dst {
		if i != 1 && v != 0 {
			t.Fatalf("dst[%d] = %v, want 0", i, v)
		}
	}
}

func TestVectorAccumulatorMergesAllThreads(t *testing.T) {
	a := NewVectorAccumulator(2, 2)
	a.Add(0, 0, geom.NewVec(1, 0, 0, 0))
	a.Add(1, 0, geom.NewVec(0, 1, 0, 0))
	dst := make([]geom.Vec, 2)
	a.MergeInto(dst)
	if dst[0].X != 1 || dst[0].Y != 1 {
		t.Fatalf("dst[0] = %+v, want X=1,Y=1", dst[0])
	}
}

// stubDerivative is a minimal Derivative used only to exercise Holder's
// deduplication logic.
type stubDerivative struct{ id string }

func (stubDerivative) Phase() Phase    { return Evaluate }
func (stubDerivative) Symmetric() bool { return true }
func (s stubDerivative) Equals(other Derivative) bool {
	o, ok := other.(stubDerivative)
	return ok && o.id == s.id
}
func (stubDerivative) Init(*storage.Storage, int) error                          { return nil }
func (stubDerivative) EvalPair(thread, i, j int, r float64, grad geom.Vec)        {}
func (stubDerivative) EvalGather(thread, i int, neighbors []int, grads []geom.Vec) {}
func (stubDerivative) Flush(*storage.Storage) error                              { return nil }

func TestHolderDeduplicatesByEquals(t *testing.T) {
	h := NewHolder()
	h.Require(stubDerivative{id: "a"})
	h.Require(stubDerivative{id: "a"})
	h.Require(stubDerivative{id: "b"})
	if len(h.All()) != 2 {
		t.Fatalf("got %d derivatives, want 2", len(h.All()))
	}
}

func TestHolderByPhaseFiltersCorrectly(t *testing.T) {
	h := NewHolder()
	h.Require(stubDerivative{id: "a"})
	if len(h.ByPhase(Evaluate)) != 1 {
		t.Fatalf("expected 1 Evaluate-phase derivative")
	}
	if len(h.ByPhase(Precompute)) != 0 {
		t.Fatalf("expected 0 Precompute-phase derivatives")
	}
}
