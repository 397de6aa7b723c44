// Package neighbor implements the acceleration structures the
// derivative framework uses to enumerate pairwise interactions within a
// radius of each particle (§4.2).
package neighbor

import "github.com/impactsim/sphcore/internal/geom"

// Finder is the common neighbor-search contract: build once per step on
// the current position array, then query repeatedly.
type Finder interface {
	// Build constructs the acceleration structure over points. Points
	// carry position in X/Y/Z and smoothing length in H.
	Build(points []geom.Vec)
	// Find appends the indices of every point within radius of query
	// to out and returns the extended slice.
	Find(query geom.Vec, radius float64, out []int) []int
	// FindIndex is Find for a point already present in the built set,
	// addressed by its index (avoids re-hashing the query point).
	FindIndex(index int, radius float64, out []int) []int
}

// Symmetric wraps a Finder so results are filtered to neighbors with a
// lower rank than the query, avoiding double-counting in symmetrized
// pairwise summations (§4.2). Rank is the ascending sort order of
// particles by smoothing length.
type Symmetric struct {
	Finder
	rank []int // rank[i] = position of particle i in ascending-h order
}

// NewSymmetric builds the rank table from the smoothing lengths carried
// in points' H lane and wraps base.
func NewSymmetric(base Finder, points []geom.Vec) *Symmetric {
	rank := computeRank(points)
	return &Symmetric{Finder: base, rank: rank}
}

func computeRank(points []geom.Vec) []int {
	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	// Stable insertion sort is adequate: rank tables are rebuilt once
	// per step and N is the particle count, not a hot inner loop.
	for i := 1; i < len(order); i++ {
		j := i
		for j > 0 && points[order[j-1]].H > points[order[j]].H {
			order[j-1], order[j] = order[j], order[j-1]
			j--
		}
	}
	rank := make([]int, len(points))
	for r, idx := range order {
		rank[idx] = r
	}
	return rank
}

// FindIndex returns only neighbors of index whose rank is lower,
// halving the pairwise work a symmetric derivative performs.
func (s *Symmetric) FindIndex(index int, radius float64, out []int) []int {
	all := s.Finder.FindIndex(index, radius, nil)
	myRank := s.rank[index]
	for _, j := range all {
		if s.rank[j] < myRank {
			out = append(out, j)
		}
	}
	return out
}
