package geom

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// SymTensor is a symmetric 3x3 tensor stored as its 6 independent
// components: xx, yy, zz, xy, xz, yz.
type SymTensor struct {
	XX, YY, ZZ, XY, XZ, YZ float64
}

func (s SymTensor) Trace() float64 { return s.XX + s.YY + s.ZZ }

func (s SymTensor) Add(o SymTensor) SymTensor {
	return SymTensor{s.XX + o.XX, s.YY + o.YY, s.ZZ + o.ZZ, s.XY + o.XY, s.XZ + o.XZ, s.YZ + o.YZ}
}

func (s SymTensor) Scale(k float64) SymTensor {
	return SymTensor{s.XX * k, s.YY * k, s.ZZ * k, s.XY * k, s.XZ * k, s.YZ * k}
}

// ToTensor expands the symmetric representation into a general Tensor.
func (s SymTensor) ToTensor() Tensor {
	return Tensor{
		s.XX, s.XY, s.XZ,
		s.XY, s.YY, s.YZ,
		s.XZ, s.YZ, s.ZZ,
	}
}

// SymTensorFromTensor averages t with its transpose to build the
// symmetric part, discarding any antisymmetric component.
func SymTensorFromTensor(t Tensor) SymTensor {
	return SymTensor{
		XX: t.At(0, 0),
		YY: t.At(1, 1),
		ZZ: t.At(2, 2),
		XY: 0.5 * (t.At(0, 1) + t.At(1, 0)),
		XZ: 0.5 * (t.At(0, 2) + t.At(2, 0)),
		YZ: 0.5 * (t.At(1, 2) + t.At(2, 1)),
	}
}

func (s SymTensor) DoubleDot(o SymTensor) float64 {
	return s.XX*o.XX + s.YY*o.YY + s.ZZ*o.ZZ +
		2*(s.XY*o.XY+s.XZ*o.XZ+s.YZ*o.YZ)
}

func (s SymTensor) Det() float64 { return s.ToTensor().Det() }

// Invariants returns I1, I2, I3 of the symmetric tensor.
func (s SymTensor) Invariants() (i1, i2, i3 float64) { return s.ToTensor().Invariants() }

// Deviator splits s into its traceless (deviatoric) part and the mean
// (hydrostatic) pressure p = -tr(s)/3, following the convention that
// pressure carries the trace and S is traceless (GLOSSARY: Deviatoric
// stress).
func (s SymTensor) Deviator() (TracelessTensor, float64) {
	mean := s.Trace() / 3.0
	p := -mean
	dev := SymTensor{
		XX: s.XX - mean, YY: s.YY - mean, ZZ: s.ZZ - mean,
		XY: s.XY, XZ: s.XZ, YZ: s.YZ,
	}
	return TracelessTensor{dev}, p
}

// EigenDecompose returns the eigenvalues (ascending) and the matrix whose
// columns are the corresponding unit eigenvectors, via gonum's symmetric
// eigensolver.
func (s SymTensor) EigenDecompose() (values [3]float64, vectors Tensor) {
	sym := mat.NewSymDense(3, []float64{
		s.XX, s.XY, s.XZ,
		s.XY, s.YY, s.YZ,
		s.XZ, s.YZ, s.ZZ,
	})
	var eig mat.EigenSym
	ok := eig.Factorize(sym, true)
	if !ok {
		return values, vectors
	}
	vals := eig.Values(nil)
	for i := 0; i < 3; i++ {
		values[i] = vals[i]
	}
	var evec mat.Dense
	eig.VectorsTo(&evec)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			vectors.Set(i, j, evec.At(i, j))
		}
	}
	return
}

func (s SymTensor) IsFinite() bool {
	for _, v := range []float64{s.XX, s.YY, s.ZZ, s.XY, s.XZ, s.YZ} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
