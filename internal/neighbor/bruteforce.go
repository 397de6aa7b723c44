package neighbor

import "github.com/impactsim/sphcore/internal/geom"

// BruteForce scans every point for each query: O(N) per query, O(N^2)
// per step. Retained for small N and as a correctness oracle for the
// accelerated finders (§4.6 design note extends the same rationale to
// gravity).
type BruteForce struct {
	points []geom.Vec
}

func (b *BruteForce) Build(points []geom.Vec) { b.points = points }

// PointAt returns the built position at index i, used by the Periodic
// wrapper to re-query translated images.
func (b *BruteForce) PointAt(i int) geom.Vec { return b.points[i] }

func (b *BruteForce) Find(query geom.Vec, radius float64, out []int) []int {
	rSq := radius * radius
	for i, p := range b.points {
		if geom.DistSq(query, p) <= rSq {
			out = append(out, i)
		}
	}
	return out
}

func (b *BruteForce) FindIndex(index int, radius float64, out []int) []int {
	query := b.points[index]
	rSq := radius * radius
	for i, p := range b.points {
		if i == index {
			continue
		}
		if geom.DistSq(query, p) <= rSq {
			out = append(out, i)
		}
	}
	return out
}
