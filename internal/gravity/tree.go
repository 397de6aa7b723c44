package gravity

import (
	"context"
	"math"

	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/kernel"
	"github.com/impactsim/sphcore/internal/scheduler"
)

// node is a Barnes-Hut octree node: either a leaf holding one body
// index, or an internal node with up to 8 children and an accumulated
// monopole moment (center of mass, total mass).
type node struct {
	bounds   geom.Box
	com      geom.Vec
	mass     float64
	children [8]*node
	body     int // body index for a leaf, -1 otherwise
	isLeaf   bool
}

// Tree is an immutable-during-evaluation Barnes-Hut tree built fresh
// each step (§4.6).
type Tree struct {
	root   *node
	bodies []Body
	theta  float64
	grav   kernel.GravityKernel
	g      float64 // Newton's constant (or simulation units equivalent)
}

// Config holds the construction-time parameters of a Tree.
type Config struct {
	Theta   float64 // acceptance ratio s/d < Theta; no default is applied, and 0 accepts no cluster, so every leaf is visited
	G       float64
	Kernel  kernel.GravityKernel // softened near-field kernel
}

// Build constructs a Barnes-Hut tree over bodies. Insertion runs
// sequentially on the calling goroutine; ctx and sched are not used.
// Evaluation is parallelized over particles by Solve; the resulting
// tree must not be mutated during Acceleration calls.
func Build(ctx context.Context, sched scheduler.Runner, bodies []Body, cfg Config) *Tree {
	t := &Tree{bodies: bodies, theta: cfg.Theta, grav: cfg.Kernel, g: cfg.G}
	if len(bodies) == 0 {
		return t
	}
	bounds := boundingBox(bodies)
	t.root = &node{bounds: bounds, body: -1}
	for i := range bodies {
		t.insert(t.root, i)
	}
	t.root.computeMass(t.bodies)
	return t
}

func boundingBox(bodies []Body) geom.Box {
	box := geom.Box{Lo: bodies[0].Pos, Hi: bodies[0].Pos}
	for _, b := range bodies[1:] {
		box = box.Expand(b.Pos)
	}
	// Pad slightly so bodies exactly on the boundary always classify
	// into a single octant.
	pad := geom.Vec{X: 1e-9, Y: 1e-9, Z: 1e-9}
	box.Lo = box.Lo.Sub(pad)
	box.Hi = box.Hi.Add(pad)
	return box
}

func octantOf(center, p geom.Vec) int {
	idx := 0
	if p.X > center.X {
		idx |= 1
	}
	if p.Y > center.Y {
		idx |= 2
	}
	if p.Z > center.Z {
		idx |= 4
	}
	return idx
}

func octantBounds(bounds geom.Box, octant int) geom.Box {
	center := bounds.Center()
	lo, hi := bounds.Lo, bounds.Hi
	if octant&1 != 0 {
		lo.X = center.X
	} else {
		hi.X = center.X
	}
	if octant&2 != 0 {
		lo.Y = center.Y
	} else {
		hi.Y = center.Y
	}
	if octant&4 != 0 {
		lo.Z = center.Z
	} else {
		hi.Z = center.Z
	}
	return geom.Box{Lo: lo, Hi: hi}
}

func (t *Tree) insert(n *node, bodyIdx int) {
	if n.body == -1 && isEmptyLeaf(n) {
		n.body = bodyIdx
		n.isLeaf = true
		return
	}
	if n.isLeaf {
		// Demote: push the existing occupant down alongside the
		// newcomer.
		existing := n.body
		n.body = -1
		n.isLeaf = false
		center := n.bounds.Center()
		oExisting := octantOf(center, t.bodies[existing].Pos)
		if n.children[oExisting] == nil {
			n.children[oExisting] = &node{bounds: octantBounds(n.bounds, oExisting), body: -1}
		}
		t.insert(n.children[oExisting], existing)
	}
	center := n.bounds.Center()
	o := octantOf(center, t.bodies[bodyIdx].Pos)
	if n.children[o] == nil {
		n.children[o] = &node{bounds: octantBounds(n.bounds, o), body: -1}
	}
	t.insert(n.children[o], bodyIdx)
}

func isEmptyLeaf(n *node) bool {
	for _, c := range n.children {
		if c != nil {
			return false
		}
	}
	return true
}

// computeMass recursively accumulates the monopole moment (center of
// mass, total mass) bottom-up.
func (n *node) computeMass(bodies []Body) {
	if n.isLeaf {
		b := bodies[n.body]
		n.mass = b.Mass
		n.com = b.Pos
		return
	}
	var mass float64
	var com geom.Vec
	for _, c := range n.children {
		if c == nil {
			continue
		}
		c.computeMass(bodies)
		mass += c.mass
		com = com.Add(geom.Vec{X: c.com.X * c.mass, Y: c.com.Y * c.mass, Z: c.com.Z * c.mass})
	}
	n.mass = mass
	if mass > 0 {
		com = com.Scale(1 / mass)
	}
	n.com = com
}

// Acceleration returns the gravitational acceleration on body i due to
// every other body, using the monopole acceptance criterion s/d < theta
// and the softened near-field kernel within Softening of i.
func (t *Tree) Acceleration(i int) geom.Vec {
	if t.root == nil {
		return geom.Vec{}
	}
	var acc geom.Vec
	t.accumulate(t.root, i, &acc)
	return acc
}

func (t *Tree) accumulate(n *node, i int, acc *geom.Vec) {
	if n == nil || n.mass == 0 {
		return
	}
	if n.isLeaf && n.body == i {
		return
	}
	self := t.bodies[i]
	d := n.com.Sub(self.Pos)
	distSq := d.Dot(d)

	if !n.isLeaf {
		halfSize := n.bounds.HalfSize()
		s := halfSize.X
		if halfSize.Y > s {
			s = halfSize.Y
		}
		if halfSize.Z > s {
			s = halfSize.Z
		}
		dist := sqrtSafe(distSq)
		if dist > 0 && s/dist < t.theta {
			*acc = acc.Add(t.pairAcceleration(self, n.com, n.mass, self.Softening))
			return
		}
		for _, c := range n.children {
			t.accumulate(c, i, acc)
		}
		return
	}

	*acc = acc.Add(t.pairAcceleration(self, n.com, n.mass, self.Softening))
}

// pairAcceleration returns the acceleration contribution from a point
// mass (single body or a node's monopole) at distance r from self. When
// r is within the softening radius the softened kernel gradient
// replaces the Newtonian 1/r^2 law, continuous and differentiable
// across the boundary (§4.6).
func (t *Tree) pairAcceleration(self Body, otherPos geom.Vec, otherMass, softening float64) geom.Vec {
	d := otherPos.Sub(self.Pos)
	r := sqrtSafe(d.Dot(d))
	if r == 0 {
		return geom.Vec{}
	}
	if softening <= 0 || t.grav == nil || r >= softening*t.grav.Radius() {
		inv := 1.0 / r
		mag := t.g * otherMass * inv * inv * inv
		return geom.Vec{X: d.X * mag, Y: d.Y * mag, Z: d.Z * mag}
	}
	// Force magnitude from the softened potential's radial derivative,
	// taken by central difference since GravityKernel exposes phi(q)
	// rather than a closed-form phi'(q); the potential is smooth inside
	// the support radius so this is well conditioned.
	const dq = 1e-4
	q := r / softening
	dphidq := (t.grav.Potential(q+dq) - t.grav.Potential(q-dq)) / (2 * dq)
	dphidr := dphidq / softening
	mag := t.g * otherMass * dphidr / r
	return geom.Vec{X: d.X * mag, Y: d.Y * mag, Z: d.Z * mag}
}

func sqrtSafe(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Sqrt(x)
}
