package neighbor

import (
	"sort"

	gokd "gonum.org/v1/gonum/spatial/kdtree"

	"github.com/impactsim/sphcore/internal/geom"
)

// point adapts geom.Vec to gonum's kdtree.Comparable, carrying the
// particle's storage index through the tree.
type point struct {
	v   geom.Vec
	idx int
}

func (p point) Compare(c gokd.Comparable, d gokd.Dim) float64 {
	o := c.(point)
	switch d {
	case 0:
		return p.v.X - o.v.X
	case 1:
		return p.v.Y - o.v.Y
	default:
		return p.v.Z - o.v.Z
	}
}

func (p point) Dims() int { return 3 }

func (p point) Distance(c gokd.Comparable) float64 {
	return geom.DistSq(p.v, c.(point).v)
}

// points implements gonum's kdtree.Interface over a mutable slice of
// point, median-partitioned on Pivot per the K-d tree build contract
// (§4.2: median-of-three split on the longest axis is approximated here
// by a full sort along the requested axis, adequate since the tree is
// rebuilt once per step rather than incrementally maintained).
type points []point

func (p points) Index(i int) gokd.Comparable { return p[i] }
func (p points) Len() int                    { return len(p) }
func (p points) Slice(start, end int) gokd.Interface {
	return p[start:end]
}

func (p points) Pivot(d gokd.Dim) int {
	sort.Sort(planeSort{points: p, dim: d})
	return len(p) / 2
}

type planeSort struct {
	points points
	dim    gokd.Dim
}

func (s planeSort) Len() int { return len(s.points) }
func (s planeSort) Less(i, j int) bool {
	return s.points[i].Compare(s.points[j], s.dim) < 0
}
func (s planeSort) Swap(i, j int) { s.points[i], s.points[j] = s.points[j], s.points[i] }

// KDTree is the axis-aligned spatial partition finder (§4.2). Rebuilt
// every step from scratch.
type KDTree struct {
	tree *gokd.Tree
	pos  []geom.Vec
}

func (k *KDTree) Build(pos []geom.Vec) {
	k.pos = pos
	list := make(points, len(pos))
	for i, p := range pos {
		list[i] = point{v: p, idx: i}
	}
	k.tree = gokd.New(list, true)
}

// PointAt returns the built position at index i, used by the Periodic
// wrapper to re-query translated images.
func (k *KDTree) PointAt(i int) geom.Vec { return k.pos[i] }

func (k *KDTree) Find(query geom.Vec, radius float64, out []int) []int {
	return k.query(point{v: query, idx: -1}, radius, -1, out)
}

func (k *KDTree) FindIndex(index int, radius float64, out []int) []int {
	return k.query(point{v: k.pos[index], idx: index}, radius, index, out)
}

func (k *KDTree) query(q point, radius float64, except int, out []int) []int {
	keeper := gokd.NewDistKeeper(radius * radius)
	k.tree.NearestSet(keeper, q)
	for _, cd := range keeper.Heap {
		p := cd.Comparable.(point)
		if p.idx == except {
			continue
		}
		out = append(out, p.idx)
	}
	return out
}
