package neighbor

import (
	"math"

	"github.com/impactsim/sphcore/internal/geom"
)

type cellCoord struct{ x, y, z int32 }

// UniformGrid buckets points into a regular lattice of cells sized to
// the maximum smoothing length times the kernel support radius, giving
// O(1) amortized insertion and a 27-cell neighborhood scan per query
// (§4.2).
type UniformGrid struct {
	KernelRadius float64 // kappa: kernel compact-support radius in units of h

	cellSize float64
	origin   geom.Vec
	cells    map[cellCoord][]int
	points   []geom.Vec
}

func (g *UniformGrid) Build(points []geom.Vec) {
	g.points = points
	g.cellSize = 0
	for _, p := range points {
		if h := p.H * g.KernelRadius; h > g.cellSize {
			g.cellSize = h
		}
	}
	if g.cellSize <= 0 {
		g.cellSize = 1
	}
	g.cells = make(map[cellCoord][]int, len(points))
	for i, p := range points {
		c := g.cellOf(p)
		g.cells[c] = append(g.cells[c], i)
	}
}

// PointAt returns the built position at index i, used by the Periodic
// wrapper to re-query translated images.
func (g *UniformGrid) PointAt(i int) geom.Vec { return g.points[i] }

func (g *UniformGrid) cellOf(p geom.Vec) cellCoord {
	return cellCoord{
		x: int32(math.Floor(p.X / g.cellSize)),
		y: int32(math.Floor(p.Y / g.cellSize)),
		z: int32(math.Floor(p.Z / g.cellSize)),
	}
}

func (g *UniformGrid) Find(query geom.Vec, radius float64, out []int) []int {
	return g.findExcept(query, radius, -1, out)
}

func (g *UniformGrid) FindIndex(index int, radius float64, out []int) []int {
	return g.findExcept(g.points[index], radius, index, out)
}

func (g *UniformGrid) findExcept(query geom.Vec, radius float64, except int, out []int) []int {
	rSq := radius * radius
	center := g.cellOf(query)
	reach := int32(math.Ceil(radius / g.cellSize))
	for dx := -reach; dx <= reach; dx++ {
		for dy := -reach; dy <= reach; dy++ {
			for dz := -reach; dz <= reach; dz++ {
				c := cellCoord{center.x + dx, center.y + dy, center.z + dz}
				for _, i := range g.cells[c] {
					if i == except {
						continue
					}
					if geom.DistSq(query, g.points[i]) <= rSq {
						out = append(out, i)
					}
				}
			}
		}
	}
	return out
}

// HashGrid has the same cell geometry and hash-map cell storage as
// UniformGrid, and additionally tracks a bounding box per cell (§4.2).
// Its Find and FindIndex are UniformGrid's and do not consult the
// tracked boxes.
type HashGrid struct {
	UniformGrid
	bounds map[cellCoord]geom.Box
}

func (g *HashGrid) Build(points []geom.Vec) {
	g.UniformGrid.Build(points)
	g.bounds = make(map[cellCoord]geom.Box, len(g.cells))
	for c, idxs := range g.cells {
		box := geom.Box{Lo: points[idxs[0]], Hi: points[idxs[0]]}
		for _, i := range idxs[1:] {
			box = box.Expand(points[i])
		}
		g.bounds[c] = box
	}
}

// CellBounds returns the tracked bounding box of the cell containing p,
// and false if no built point lies in that cell.
func (g *HashGrid) CellBounds(p geom.Vec) (geom.Box, bool) {
	b, ok := g.bounds[g.cellOf(p)]
	return b, ok
}
