package geom

import "math"

// Tensor is a general 3x3 tensor stored row-major.
type Tensor [9]float64

func (t Tensor) At(i, j int) float64 { return t[i*3+j] }

func (t *Tensor) Set(i, j int, v float64) { t[i*3+j] = v }

func (t Tensor) Trace() float64 { return t[0] + t[4] + t[8] }

func (t Tensor) Add(o Tensor) Tensor {
	var r Tensor
	for i := range t {
		r[i] = t[i] + o[i]
	}
	return r
}

func (t Tensor) Scale(s float64) Tensor {
	var r Tensor
	for i := range t {
		r[i] = t[i] * s
	}
	return r
}

func (t Tensor) Transpose() Tensor {
	return Tensor{
		t.At(0, 0), t.At(1, 0), t.At(2, 0),
		t.At(0, 1), t.At(1, 1), t.At(2, 1),
		t.At(0, 2), t.At(1, 2), t.At(2, 2),
	}
}

// Det returns the determinant via cofactor expansion.
func (t Tensor) Det() float64 {
	a, b, c := t.At(0, 0), t.At(0, 1), t.At(0, 2)
	d, e, f := t.At(1, 0), t.At(1, 1), t.At(1, 2)
	g, h, i := t.At(2, 0), t.At(2, 1), t.At(2, 2)
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

// DoubleDot computes the full contraction t:o = sum_ij t_ij * o_ij.
func (t Tensor) DoubleDot(o Tensor) float64 {
	sum := 0.0
	for i := range t {
		sum += t[i] * o[i]
	}
	return sum
}

// MulVec applies the tensor to a 3-vector (H lane untouched).
func (t Tensor) MulVec(v Vec) Vec {
	return Vec{
		t.At(0, 0)*v.X + t.At(0, 1)*v.Y + t.At(0, 2)*v.Z,
		t.At(1, 0)*v.X + t.At(1, 1)*v.Y + t.At(1, 2)*v.Z,
		t.At(2, 0)*v.X + t.At(2, 1)*v.Y + t.At(2, 2)*v.Z,
		0,
	}
}

// Invariants returns the three principal invariants I1 = tr(T),
// I2 = 1/2 (tr(T)^2 - tr(T^2)), I3 = det(T).
func (t Tensor) Invariants() (i1, i2, i3 float64) {
	i1 = t.Trace()
	t2 := MulTensor(t, t)
	i2 = 0.5 * (i1*i1 - t2.Trace())
	i3 = t.Det()
	return
}

// MulTensor returns the matrix product a*b.
func MulTensor(a, b Tensor) Tensor {
	var r Tensor
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum := 0.0
			for k := 0; k < 3; k++ {
				sum += a.At(i, k) * b.At(k, j)
			}
			r.Set(i, j, sum)
		}
	}
	return r
}

// IsFinite reports whether every component is a finite float.
func (t Tensor) IsFinite() bool {
	for _, v := range t {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
