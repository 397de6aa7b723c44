package geom

import "math"

// Vec is a 4-component vector. Components 0-2 are the Cartesian x, y, z.
// Component 3 carries the smoothing length h when the vector represents a
// particle position; it is otherwise 0. Add, Sub and Scale touch all four
// lanes, matching the teacher's treatment of State as a flat float64 slice;
// AddScaled, Dot, Cross, Norm, Unit and DistSq use only X, Y, Z.
type Vec struct {
	X, Y, Z, H float64
}

// NewVec builds a position vector with the given smoothing length.
func NewVec(x, y, z, h float64) Vec { return Vec{x, y, z, h} }

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y, v.Z + o.Z, v.H + o.H} }
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y, v.Z - o.Z, v.H - o.H} }

func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s, v.Z * s, v.H * s} }

// AddScaled returns v + o*s, touching only the first 3 lanes -- the common
// case in the derivative loop where H must never be perturbed by a force.
func (v Vec) AddScaled(o Vec, s float64) Vec {
	return Vec{v.X + o.X*s, v.Y + o.Y*s, v.Z + o.Z*s, v.H}
}

// Dot is the 3-component dot product; H never participates in physical
// inner products.
func (v Vec) Dot(o Vec) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec) Cross(o Vec) Vec {
	return Vec{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
		0,
	}
}

func (v Vec) NormSq() float64 { return v.Dot(v) }
func (v Vec) Norm() float64   { return math.Sqrt(v.NormSq()) }

func (v Vec) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0) &&
		!math.IsNaN(v.H) && !math.IsInf(v.H, 0)
}

// Unit returns the normalized 3-vector, or the zero vector if v is
// (numerically) the origin.
func (v Vec) Unit() Vec {
	n := v.Norm()
	if n < 1e-300 {
		return Vec{}
	}
	return Vec{v.X / n, v.Y / n, v.Z / n, 0}
}

// DistSq returns the squared distance between two position vectors,
// ignoring the H lane -- this is the hot-path neighbor-distance primitive.
func DistSq(a, b Vec) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}
