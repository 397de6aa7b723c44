// Package deriv implements the derivative-evaluation framework: the
// per-term interface, the deduplicating holder, and the per-thread
// accumulators the solver merges after each parallel pass (§4.4).
package deriv

import (
	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/storage"
)

// Phase orders derivative execution within a sub-step (§4.4).
type Phase int

const (
	Precompute Phase = iota
	Evaluate
	Postcompute
)

func (p Phase) String() string {
	switch p {
	case Precompute:
		return "PRECOMPUTE"
	case Evaluate:
		return "EVALUATE"
	case Postcompute:
		return "POSTCOMPUTE"
	default:
		return "UNKNOWN"
	}
}

// Derivative is a pairwise-interaction computation that reads particle
// attributes and writes into accumulator buffers (§4.4).
type Derivative interface {
	// Phase reports which pass this derivative runs in.
	Phase() Phase
	// Symmetric reports whether EvalPair is invoked once per unordered
	// pair with symmetric write-back (true), or EvalGather is invoked
	// once per particle over all of its neighbors (false).
	Symmetric() bool
	// Equals is the registry's deduplication identity check.
	Equals(other Derivative) bool
	// Init caches read views and resolves output accumulators for the
	// current step; called once per sub-step before evaluation.
	Init(s *storage.Storage, threads int) error
	// EvalPair is the symmetric inner computation for an unordered
	// neighbor pair (i, j) separated by r with kernel gradient grad,
	// executed on the given worker thread.
	EvalPair(thread, i, j int, r float64, grad geom.Vec)
	// EvalGather is the non-symmetric inner computation: particle i
	// against all of its neighbors, with matching kernel gradients.
	EvalGather(thread, i int, neighbors []int, grads []geom.Vec)
	// Flush merges this derivative's per-thread accumulators into the
	// canonical storage buffers; called once after the parallel pass
	// completes for this phase.
	Flush(s *storage.Storage) error
}

// Holder is a deduplicated, order-preserving set of derivatives
// (§4.4).
type Holder struct {
	list []Derivative
}

// NewHolder returns an empty holder.
func NewHolder() *Holder { return &Holder{} }

// Require adds d only if no equal entry already exists.
func (h *Holder) Require(d Derivative) {
	for _, existing := range h.list {
		if existing.Equals(d) {
			return
		}
	}
	h.list = append(h.list, d)
}

// All returns every registered derivative in registration order.
func (h *Holder) All() []Derivative { return h.list }

// ByPhase returns the registered derivatives for phase p, in
// registration order.
func (h *Holder) ByPhase(p Phase) []Derivative {
	var out []Derivative
	for _, d := range h.list {
		if d.Phase() == p {
			out = append(out, d)
		}
	}
	return out
}

// Initialize lazily allocates accumulator buffers and calls Init on
// every registered derivative, in registration order.
func (h *Holder) Initialize(s *storage.Storage, threads int) error {
	for _, d := range h.list {
		if err := d.Init(s, threads); err != nil {
			return err
		}
	}
	return nil
}
