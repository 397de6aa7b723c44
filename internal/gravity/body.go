// Package gravity implements the Barnes-Hut octree gravity solver with
// a softened near-field kernel and a brute-force fallback (§4.6).
package gravity

import "github.com/impactsim/sphcore/internal/geom"

// Body is the minimal per-particle input the tree needs: position
// (smoothing length carried in the H lane), mass, and the softening
// radius (kappa*h) within which the softened kernel replaces the
// Newtonian 1/r^2 law.
type Body struct {
	Pos      geom.Vec
	Mass     float64
	Softening float64
}
