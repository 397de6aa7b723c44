package geom

import "math"

// Box is an axis-aligned bounding box.
type Box struct {
	Lo, Hi Vec
}

func NewBox(lo, hi Vec) Box { return Box{lo, hi} }

func (b Box) Contains(p Vec) bool {
	return p.X >= b.Lo.X && p.X <= b.Hi.X &&
		p.Y >= b.Lo.Y && p.Y <= b.Hi.Y &&
		p.Z >= b.Lo.Z && p.Z <= b.Hi.Z
}

func (b Box) Intersects(o Box) bool {
	return b.Lo.X <= o.Hi.X && b.Hi.X >= o.Lo.X &&
		b.Lo.Y <= o.Hi.Y && b.Hi.Y >= o.Lo.Y &&
		b.Lo.Z <= o.Hi.Z && b.Hi.Z >= o.Lo.Z
}

func (b Box) Volume() float64 {
	d := b.Hi.Sub(b.Lo)
	if d.X < 0 || d.Y < 0 || d.Z < 0 {
		return 0
	}
	return d.X * d.Y * d.Z
}

func (b Box) Center() Vec {
	return Vec{(b.Lo.X + b.Hi.X) / 2, (b.Lo.Y + b.Hi.Y) / 2, (b.Lo.Z + b.Hi.Z) / 2, 0}
}

func (b Box) HalfSize() Vec {
	return Vec{(b.Hi.X - b.Lo.X) / 2, (b.Hi.Y - b.Lo.Y) / 2, (b.Hi.Z - b.Lo.Z) / 2, 0}
}

// BoundingBox returns b itself -- present so Box satisfies the same
// Shape-like contract as Sphere/Domain.
func (b Box) BoundingBox() Box { return b }

// Project pushes p to the nearest point on or inside b's boundary.
func (b Box) Project(p Vec) Vec {
	clamp := func(v, lo, hi float64) float64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	return Vec{
		clamp(p.X, b.Lo.X, b.Hi.X),
		clamp(p.Y, b.Lo.Y, b.Hi.Y),
		clamp(p.Z, b.Lo.Z, b.Hi.Z),
		p.H,
	}
}

// Expand grows the box to also contain p, used while building neighbor
// finder cells and gravity-tree nodes.
func (b Box) Expand(p Vec) Box {
	lo := Vec{math.Min(b.Lo.X, p.X), math.Min(b.Lo.Y, p.Y), math.Min(b.Lo.Z, p.Z), 0}
	hi := Vec{math.Max(b.Hi.X, p.X), math.Max(b.Hi.Y, p.Y), math.Max(b.Hi.Z, p.Z), 0}
	return Box{lo, hi}
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center Vec
	Radius float64
}

func NewSphere(center Vec, radius float64) Sphere { return Sphere{center, radius} }

func (s Sphere) Contains(p Vec) bool { return DistSq(s.Center, p) <= s.Radius*s.Radius }

func (s Sphere) Intersects(o Sphere) bool {
	r := s.Radius + o.Radius
	return DistSq(s.Center, o.Center) <= r*r
}

func (s Sphere) Volume() float64 {
	return 4.0 / 3.0 * math.Pi * s.Radius * s.Radius * s.Radius
}

func (s Sphere) BoundingBox() Box {
	r := Vec{s.Radius, s.Radius, s.Radius, 0}
	return Box{s.Center.Sub(r), s.Center.Add(r)}
}

func (s Sphere) Project(p Vec) Vec {
	d := p.Sub(s.Center)
	n := d.Norm()
	if n < 1e-300 {
		return s.Center.Add(Vec{s.Radius, 0, 0, 0})
	}
	return s.Center.Add(d.Scale(s.Radius / n))
}

// Domain is the simulation's outer volume, used by the periodic
// neighbor-finder wrapper (§4.2) to compute wrap translations.
type Domain struct {
	Box
	Periodic [3]bool
}

func NewDomain(box Box, periodic [3]bool) Domain { return Domain{box, periodic} }

// Size returns the per-axis extent of the domain box.
func (d Domain) Size() Vec { return d.Hi.Sub(d.Lo) }

// Wrap folds p back into the domain along periodic axes.
func (d Domain) Wrap(p Vec) Vec {
	size := d.Size()
	wrap1 := func(v, lo, s float64, periodic bool) float64 {
		if !periodic || s <= 0 {
			return v
		}
		offset := v - lo
		offset = math.Mod(offset, s)
		if offset < 0 {
			offset += s
		}
		return lo + offset
	}
	return Vec{
		wrap1(p.X, d.Lo.X, size.X, d.Periodic[0]),
		wrap1(p.Y, d.Lo.Y, size.Y, d.Periodic[1]),
		wrap1(p.Z, d.Lo.Z, size.Z, d.Periodic[2]),
		p.H,
	}
}
